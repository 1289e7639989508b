package connect

import "errors"

var (
	ErrInvalidState     = errors.New("connect: oauth state invalid")
	ErrExchangeFailed   = errors.New("connect: oauth code exchange failed")
	ErrNoAccountID      = errors.New("connect: token response missing account id")
	ErrSignatureInvalid = errors.New("connect: webhook signature invalid")
	ErrMissingMetadata  = errors.New("connect: event missing invoice metadata")
	ErrProvider         = errors.New("connect: provider failure")
)
