// Package transcribe turns a video file into timed caption segments.
//
// It owns the temporary WAV lifecycle (extract, submit, always delete), the
// bounded retry policy for the speech-to-text API, and normalization of the
// provider's response into second-based segments regardless of the provider's
// native timestamp unit.
package transcribe
