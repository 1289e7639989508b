// Package jwt implements HS256 JSON Web Tokens with a small surface: a
// Service for generate/parse, bearer-token middleware, and context helpers
// for claims propagation. Deliberately stdlib-only; the application controls
// both ends of the token so no algorithm agility is needed.
package jwt
