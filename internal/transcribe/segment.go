package transcribe

import (
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Segment is one timed span of transcript text. Offsets are seconds from the
// start of the media. Invariant: 0 <= Start < End. Segments are never mutated
// after creation.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// msDetectionFactor flags millisecond-scaled payloads: when the last segment
// ends an order of magnitude past the reported audio duration, the provider
// reported offsets in its native millisecond unit.
const msDetectionFactor = 10

// normalizeSegments converts a provider response into the uniform segment
// sequence. Timestamps are scaled to seconds, malformed spans (negative
// start, end not after start) are dropped, and zero detected segments yield
// an empty non-nil slice.
func normalizeSegments(resp openai.AudioResponse) []Segment {
	scale := 1.0
	if millisecondScaled(resp) {
		scale = 1.0 / 1000
	}

	segments := make([]Segment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		segment := Segment{
			Start: s.Start * scale,
			End:   s.End * scale,
			Text:  strings.TrimSpace(s.Text),
		}
		if segment.Start < 0 || segment.End <= segment.Start {
			continue
		}
		segments = append(segments, segment)
	}
	return segments
}

// millisecondScaled assumes verbose_json responses always report Duration in
// seconds, so the comparison catches segments whose timestamps are in
// milliseconds. A payload with both Duration and timestamps in milliseconds
// would slip through, but no provider response has been observed doing that.
func millisecondScaled(resp openai.AudioResponse) bool {
	if resp.Duration <= 0 || len(resp.Segments) == 0 {
		return false
	}
	maxEnd := 0.0
	for _, s := range resp.Segments {
		if s.End > maxEnd {
			maxEnd = s.End
		}
	}
	return maxEnd > resp.Duration*msDetectionFactor
}
