// Package logging builds the daemon's slog loggers and shared attribute
// helpers. The console handler lifts the component attribute into the line
// prefix; the JSON handler keeps machine-readable output stable.
package logging
