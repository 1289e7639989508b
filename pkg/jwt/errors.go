package jwt

import "errors"

var (
	ErrMissingSigningKey     = errors.New("jwt: missing signing key")
	ErrFailedToGenerateToken = errors.New("jwt: failed to generate token")
	ErrInvalidToken          = errors.New("jwt: invalid token")
	ErrInvalidSignature      = errors.New("jwt: invalid signature")
	ErrUnsupportedAlgorithm  = errors.New("jwt: unsupported signing algorithm")
	ErrInvalidClaims         = errors.New("jwt: invalid claims")
	ErrExpiredToken          = errors.New("jwt: token expired")
	ErrMissingToken          = errors.New("jwt: missing bearer token")
)
