// Package client manages a contractor's customer records.
package client
