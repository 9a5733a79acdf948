// Package ffmpeg drives the external transcoder for the two conversions the
// pipeline needs: pulling mono 16kHz PCM audio out of a video container for
// transcription, and re-encoding uploads into a canonical streaming-friendly
// MP4.
package ffmpeg
