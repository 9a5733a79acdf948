// Package services defines error classification markers and request context
// helpers shared by the pipeline stages.
//
// Stage code wraps failures with one of the exported sentinel errors so the
// HTTP layer can map them to response codes without inspecting message text.
// Context helpers carry the request correlation ID and pipeline stage name so
// loggers can tag every line emitted on behalf of a request.
package services
