// Package httpserver wraps net/http's Server with graceful shutdown on
// context cancellation or SIGINT/SIGTERM, functional options, and
// environment-driven configuration.
package httpserver
