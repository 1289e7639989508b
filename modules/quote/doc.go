// Package quote manages priced proposals: draft → sent → accepted/declined,
// with accepted quotes converting once into invoices.
package quote
