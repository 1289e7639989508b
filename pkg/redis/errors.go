package redis

import "errors"

var (
	ErrFailedToParseConnString = errors.New("redis: failed to parse connection string")
	ErrNotReady                = errors.New("redis: did not become ready within the given time")
	ErrHealthcheckFailed       = errors.New("redis: healthcheck failed")
)
