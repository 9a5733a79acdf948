// Package ffprobe wraps the ffprobe binary for media inspection.
//
// Upload validation uses it to confirm an incoming file actually carries a
// video stream, and extraction checks use the audio helpers to confirm the
// mono/16kHz contract of generated WAV files.
package ffprobe
