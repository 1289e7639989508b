// Package invoice bills clients for completed work. Invoices move from
// draft to sent to paid (or void), and payment is collected through the
// tenant's connected account via hosted payment links and QR codes.
package invoice
