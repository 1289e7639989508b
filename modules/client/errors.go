package client

import "errors"

var (
	ErrNotFound     = errors.New("client: not found")
	ErrInvalidInput = errors.New("client: invalid input")
	ErrLimitReached = errors.New("client: plan limit reached")
	ErrStorage      = errors.New("client: storage failure")
)
