package invoice

import "errors"

var (
	ErrNotFound           = errors.New("invoice: not found")
	ErrInvalidInput       = errors.New("invoice: invalid input")
	ErrUnknownClient      = errors.New("invoice: client does not exist")
	ErrInvalidTransition  = errors.New("invoice: invalid status transition")
	ErrNoConnectedAccount = errors.New("invoice: company has no connected payment account")
	ErrStorage            = errors.New("invoice: storage failure")
)
