package company

import "errors"

var (
	ErrNotFound      = errors.New("company: not found")
	ErrAlreadyExists = errors.New("company: already exists")
	ErrInvalidInput  = errors.New("company: invalid input")
	ErrStorage       = errors.New("company: storage failure")
)
