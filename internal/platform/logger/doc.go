// Package logger provides structured logging functionality for the application.
//
// It utilizes Go's standard library log/slog package: JSON output in production,
// text output elsewhere, and helpers for carrying a request-scoped logger in a
// context.Context.
package logger
