package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// SignatureHeaders carries the signature material for one webhook delivery.
// The scheme mirrors what major payment providers use: an HMAC over
// "<timestamp>.<raw body>" so the signature is bound both to the exact byte
// stream and to a delivery time.
type SignatureHeaders struct {
	Signature string
	Timestamp int64
}

// Headers returns the signature headers as a map for HTTP header setting.
func (s SignatureHeaders) Headers() map[string]string {
	return map[string]string{
		"X-Webhook-Signature": s.Signature,
		"X-Webhook-Timestamp": strconv.FormatInt(s.Timestamp, 10),
	}
}

// SignPayload creates an HMAC-SHA256 signature over the raw payload bytes.
// The payload must be the unmodified request body; re-serializing parsed JSON
// changes the byte sequence and invalidates the signature.
func SignPayload(secret string, payload []byte) (SignatureHeaders, error) {
	if secret == "" {
		return SignatureHeaders{}, fmt.Errorf("%w: secret is required", ErrInvalidConfiguration)
	}
	if len(payload) == 0 {
		return SignatureHeaders{}, fmt.Errorf("%w: payload cannot be empty", ErrInvalidPayload)
	}

	timestamp := time.Now().Unix()
	return SignatureHeaders{
		Signature: computeSignature(secret, timestamp, payload),
		Timestamp: timestamp,
	}, nil
}

// VerifySignature validates webhook authenticity. maxAge > 0 additionally
// rejects deliveries whose timestamp is older than maxAge or more than a
// minute in the future.
func VerifySignature(secret string, payload []byte, headers SignatureHeaders, maxAge time.Duration) error {
	if secret == "" {
		return fmt.Errorf("%w: secret is required", ErrInvalidConfiguration)
	}
	if len(payload) == 0 {
		return fmt.Errorf("%w: payload cannot be empty", ErrInvalidPayload)
	}
	if headers.Signature == "" {
		return fmt.Errorf("%w: signature is missing", ErrSignatureInvalid)
	}

	if maxAge > 0 {
		age := time.Since(time.Unix(headers.Timestamp, 0))
		if age > maxAge {
			return fmt.Errorf("%w: signature timestamp too old: %v", ErrSignatureInvalid, age)
		}
		if age < -time.Minute {
			return fmt.Errorf("%w: signature timestamp is in the future", ErrSignatureInvalid)
		}
	}

	expected := computeSignature(secret, headers.Timestamp, payload)
	if !hmac.Equal([]byte(expected), []byte(headers.Signature)) {
		return fmt.Errorf("%w: signature mismatch", ErrSignatureInvalid)
	}

	return nil
}

// ParseSignatureHeader parses a raw "<timestamp>.<hex hmac>" header value, or
// a bare hex hmac when the provider does not bind a timestamp (timestamp 0).
func ParseSignatureHeader(value string) (SignatureHeaders, error) {
	if value == "" {
		return SignatureHeaders{}, fmt.Errorf("%w: empty signature header", ErrSignatureInvalid)
	}
	for i := 0; i < len(value); i++ {
		if value[i] == '.' {
			ts, err := strconv.ParseInt(value[:i], 10, 64)
			if err != nil {
				return SignatureHeaders{}, fmt.Errorf("%w: invalid timestamp", ErrSignatureInvalid)
			}
			return SignatureHeaders{Signature: value[i+1:], Timestamp: ts}, nil
		}
	}
	return SignatureHeaders{Signature: value}, nil
}

func computeSignature(secret string, timestamp int64, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(h, "%d.", timestamp)
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
