package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	underlying := errors.New("boom")
	err := Wrap(ErrExternalTool, "render", "bundle", "engine unavailable", underlying)
	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("expected error to match ErrExternalTool, got %v", err)
	}
	if !errors.Is(err, underlying) {
		t.Fatalf("expected error to wrap underlying cause, got %v", err)
	}
	want := "external tool error: render: bundle: engine unavailable: boom"
	if err.Error() != want {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if err.Error() != "transient failure: service failure" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Wrap(ErrValidation, "captions", "decode", "videoPath is required", nil), http.StatusBadRequest},
		{Wrap(ErrNotFound, "captions", "resolve", "missing file", nil), http.StatusNotFound},
		{Wrap(ErrExternalTool, "render", "render", "exit 1", nil), http.StatusInternalServerError},
		{errors.New("unclassified"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := WithStage(context.Background(), "upload")
	ctx = WithRequestID(ctx, "req-123")

	stage, ok := StageFromContext(ctx)
	if !ok || stage != "upload" {
		t.Fatalf("unexpected stage: %q ok=%v", stage, ok)
	}
	id, ok := RequestIDFromContext(ctx)
	if !ok || id != "req-123" {
		t.Fatalf("unexpected request id: %q ok=%v", id, ok)
	}

	if _, ok := StageFromContext(context.Background()); ok {
		t.Fatal("expected no stage on fresh context")
	}
}
