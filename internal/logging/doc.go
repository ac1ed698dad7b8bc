// Package logging constructs the slog loggers used for gaelog's own
// diagnostics. The tailed application output never goes through these
// loggers; it is written verbatim by the rotate package.
package logging
