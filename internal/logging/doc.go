// Package logging builds the slog loggers used across Deckify.
//
// It offers a human-friendly console handler and a JSON handler, writes to
// stderr plus the log file under the configured log directory, and defines the
// standard attribute keys (component, page, card_count, ...) so log lines stay
// consistent between packages.
package logging
