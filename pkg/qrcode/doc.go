// Package qrcode is a thin wrapper around github.com/skip2/go-qrcode used to
// render invoice payment links as scannable codes.
package qrcode
