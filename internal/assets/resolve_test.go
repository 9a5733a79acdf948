package assets_test

import (
	"errors"
	"path/filepath"
	"testing"

	"captionify/internal/assets"
	"captionify/internal/services"
	"captionify/internal/testsupport"
)

func TestResolveVideoReference(t *testing.T) {
	uploadDir := t.TempDir()
	stored := filepath.Join(uploadDir, "safe-1700000000000-clip.mp4")
	testsupport.WriteFile(t, stored, 64)

	cases := []struct {
		name string
		ref  string
	}{
		{"absolute URL", "http://localhost:3000/uploads/safe-1700000000000-clip.mp4"},
		{"https URL", "https://example.com/uploads/safe-1700000000000-clip.mp4"},
		{"path with uploads segment", "/uploads/safe-1700000000000-clip.mp4"},
		{"bare filename", "safe-1700000000000-clip.mp4"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := assets.ResolveVideoReference(tc.ref, uploadDir)
			if err != nil {
				t.Fatalf("ResolveVideoReference(%q): %v", tc.ref, err)
			}
			if got != stored {
				t.Fatalf("resolved %q, want %q", got, stored)
			}
		})
	}
}

func TestResolveVideoReferenceMissingFile(t *testing.T) {
	_, err := assets.ResolveVideoReference("ghost.mp4", t.TempDir())
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestResolveVideoReferenceEmpty(t *testing.T) {
	_, err := assets.ResolveVideoReference("   ", t.TempDir())
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestResolveVideoReferenceBlocksTraversal(t *testing.T) {
	uploadDir := t.TempDir()
	outside := filepath.Join(filepath.Dir(uploadDir), "secret.mp4")
	testsupport.WriteFile(t, outside, 64)

	if _, err := assets.ResolveVideoReference("../secret.mp4", uploadDir); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("traversal reference must not escape the upload dir, got %v", err)
	}
}
