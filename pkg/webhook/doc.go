// Package webhook implements the HMAC-SHA256 signature scheme used to
// authenticate webhook deliveries against a shared secret. Signatures are
// computed over the exact raw request body, so callers must capture the body
// bytes before any JSON decoding.
package webhook
