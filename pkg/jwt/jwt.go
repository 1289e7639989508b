package jwt

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
)

// JWT header constants required by RFC 7519.
const (
	HeaderType      = "JWT"
	HeaderAlgorithm = "HS256"
)

// Header represents the JWT header as defined in RFC 7515.
type Header struct {
	Type      string `json:"typ"`
	Algorithm string `json:"alg"`
}

// StandardClaims represents the registered JWT claims defined in RFC 7519.
// Temporal claims use Unix timestamps; zero values are treated as unset.
type StandardClaims struct {
	ID        string `json:"jti,omitempty"`
	Subject   string `json:"sub,omitempty"`
	Issuer    string `json:"iss,omitempty"`
	Audience  string `json:"aud,omitempty"`
	ExpiresAt int64  `json:"exp,omitempty"`
	NotBefore int64  `json:"nbf,omitempty"`
	IssuedAt  int64  `json:"iat,omitempty"`
}

// Valid validates the temporal claims against current time.
func (c StandardClaims) Valid() error {
	now := time.Now().Unix()

	if c.ExpiresAt > 0 && now > c.ExpiresAt {
		return ErrExpiredToken
	}
	if c.NotBefore > 0 && now < c.NotBefore {
		return ErrInvalidToken
	}
	return nil
}

// Service handles JWT generation and validation using HMAC-SHA256.
// The signing key is kept in memory only.
type Service struct {
	signingKey []byte
}

// New creates a JWT service with the provided signing key.
// The key should be at least 32 bytes for HMAC-SHA256.
func New(signingKey []byte) (*Service, error) {
	if len(signingKey) == 0 {
		return nil, ErrMissingSigningKey
	}
	return &Service{signingKey: signingKey}, nil
}

// NewFromString is a convenience wrapper around New for string keys.
func NewFromString(signingKey string) (*Service, error) {
	return New([]byte(signingKey))
}

// Generate creates a signed token carrying the given claims.
// Claims may be any JSON-marshalable struct or map.
func (s *Service) Generate(claims any) (string, error) {
	headerJSON, err := json.Marshal(Header{Type: HeaderType, Algorithm: HeaderAlgorithm})
	if err != nil {
		return "", ErrFailedToGenerateToken
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", ErrFailedToGenerateToken
	}

	signingInput := base64.RawURLEncoding.EncodeToString(headerJSON) + "." +
		base64.RawURLEncoding.EncodeToString(claimsJSON)
	signature := s.sign(signingInput)

	return signingInput + "." + signature, nil
}

// Parse validates the token signature and temporal claims, then unmarshals
// the payload into claims.
func (s *Service) Parse(token string, claims any) error {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return ErrInvalidToken
	}

	signingInput := parts[0] + "." + parts[1]
	expected := s.sign(signingInput)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(parts[2])) != 1 {
		return ErrInvalidSignature
	}

	headerJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return ErrInvalidToken
	}
	var header Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return ErrInvalidToken
	}
	if header.Algorithm != HeaderAlgorithm {
		return ErrUnsupportedAlgorithm
	}

	claimsJSON, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return ErrInvalidToken
	}

	// Temporal validation runs against the standard claims regardless of
	// the caller's claims type.
	var std StandardClaims
	if err := json.Unmarshal(claimsJSON, &std); err != nil {
		return ErrInvalidClaims
	}
	if err := std.Valid(); err != nil {
		return err
	}

	if claims != nil {
		if err := json.Unmarshal(claimsJSON, claims); err != nil {
			return ErrInvalidClaims
		}
	}
	return nil
}

func (s *Service) sign(input string) string {
	h := hmac.New(sha256.New, s.signingKey)
	h.Write([]byte(input))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
