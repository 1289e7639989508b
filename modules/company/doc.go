// Package company manages contractor company records. A company is the unit
// of tenancy: every other record hangs off its id, and its row doubles as
// the tenant subscription record.
package company
