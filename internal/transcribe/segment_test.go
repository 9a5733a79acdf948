package transcribe

import (
	"encoding/json"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func decodeResponse(t *testing.T, payload string) openai.AudioResponse {
	t.Helper()
	var resp openai.AudioResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return resp
}

func TestNormalizeSegmentsKeepsSecondScale(t *testing.T) {
	resp := decodeResponse(t, `{
		"duration": 5.0,
		"segments": [
			{"start": 0.0, "end": 2.2, "text": "first"},
			{"start": 2.2, "end": 5.0, "text": "second"}
		]
	}`)

	segments := normalizeSegments(resp)
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].End != 2.2 || segments[1].Start != 2.2 {
		t.Fatalf("second-scale timestamps must pass through unchanged: %+v", segments)
	}
}

func TestNormalizeSegmentsConvertsMilliseconds(t *testing.T) {
	resp := decodeResponse(t, `{
		"duration": 1.5,
		"segments": [
			{"start": 0, "end": 1500, "text": "hello"}
		]
	}`)

	segments := normalizeSegments(resp)
	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}
	if segments[0].End != 1.5 {
		t.Fatalf("1500ms should normalize to 1.5s, got %v", segments[0].End)
	}
}

func TestNormalizeSegmentsEnforcesInvariant(t *testing.T) {
	resp := decodeResponse(t, `{
		"duration": 10,
		"segments": [
			{"start": -1, "end": 2, "text": "negative start"},
			{"start": 3, "end": 3, "text": "zero width"},
			{"start": 5, "end": 4, "text": "inverted"},
			{"start": 4, "end": 6, "text": "kept"}
		]
	}`)

	segments := normalizeSegments(resp)
	if len(segments) != 1 {
		t.Fatalf("expected only the well-formed segment, got %+v", segments)
	}
	for _, s := range segments {
		if !(0 <= s.Start && s.Start < s.End) {
			t.Fatalf("invariant violated: %+v", s)
		}
	}
}

func TestNormalizeSegmentsEmptyResponse(t *testing.T) {
	segments := normalizeSegments(openai.AudioResponse{Duration: 2})
	if segments == nil {
		t.Fatal("expected non-nil empty slice")
	}
	if len(segments) != 0 {
		t.Fatalf("expected no segments, got %d", len(segments))
	}
}

func TestDefaultRetryPolicy(t *testing.T) {
	policy := DefaultRetryPolicy()
	if policy.MaxAttempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", policy.MaxAttempts)
	}
	if policy.Delay.Seconds() != 2 {
		t.Fatalf("expected 2s delay, got %v", policy.Delay)
	}
}
