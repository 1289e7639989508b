// Package notify sends quote and invoice lifecycle email to clients and
// contractors. It implements the notifier interfaces the quote and invoice
// modules declare, keeping those modules free of delivery concerns.
package notify
