// Package logging assembles the structured slog loggers used across the
// captionify service.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so handler code automatically tags log
// lines with request correlation IDs and pipeline stages. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape.
package logging
