package quote

import "errors"

var (
	ErrNotFound          = errors.New("quote: not found")
	ErrInvalidInput      = errors.New("quote: invalid input")
	ErrUnknownClient     = errors.New("quote: client does not exist")
	ErrInvalidTransition = errors.New("quote: invalid status transition")
	ErrNotAccepted       = errors.New("quote: only accepted quotes convert to invoices")
	ErrAlreadyConverted  = errors.New("quote: already converted to an invoice")
	ErrStorage           = errors.New("quote: storage failure")
)
