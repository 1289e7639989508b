// Package connect links a tenant's own Stripe account through the Connect
// OAuth flow and collects invoice payments on it: hosted checkout pages on
// the connected account, plus the webhook that marks invoices paid.
package connect
