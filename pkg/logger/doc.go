// Package logger builds slog loggers with consistent output formats and
// provides typed attribute helpers for the identifiers that appear throughout
// StackDek logs (company, user, plan, billing event type).
package logger
