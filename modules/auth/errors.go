package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrEmailTaken         = errors.New("auth: email already registered")
	ErrUserNotFound       = errors.New("auth: user not found")
	ErrInvalidInput       = errors.New("auth: invalid input")
	ErrWeakPassword       = errors.New("auth: password too short")
	ErrStorage            = errors.New("auth: storage failure")
)
