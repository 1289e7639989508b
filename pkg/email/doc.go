// Package email sends transactional email through Postmark, with a
// file-based dev sender for environments without delivery credentials.
package email
