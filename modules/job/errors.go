package job

import "errors"

var (
	ErrNotFound      = errors.New("job: not found")
	ErrInvalidInput  = errors.New("job: invalid input")
	ErrInvalidStatus = errors.New("job: invalid status")
	ErrUnknownClient = errors.New("job: client does not exist")
	ErrLimitReached  = errors.New("job: plan limit reached")
	ErrStorage       = errors.New("job: storage failure")
)
