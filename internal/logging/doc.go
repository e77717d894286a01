// Package logging builds the process logger on log/slog with a compact
// console handler and an optional JSON handler. Everything is written to
// stderr; stdout belongs to command output.
package logging
