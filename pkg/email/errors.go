package email

import "errors"

var (
	ErrInvalidConfig = errors.New("email: invalid configuration")
	ErrInvalidParams = errors.New("email: invalid send parameters")
	ErrFailedToSend  = errors.New("email: failed to send")
)
