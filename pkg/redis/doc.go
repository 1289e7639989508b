// Package redis provides connection bootstrap for go-redis/v9 with startup
// retry and a healthcheck closure. Used for the tenant record cache.
package redis
