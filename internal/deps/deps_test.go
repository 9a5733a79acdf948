package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckBinariesReportsMissing(t *testing.T) {
	results := CheckBinaries([]Requirement{
		{Name: "Ghost", Command: "definitely-not-a-real-binary-9321"},
		{Name: "Unset", Command: " "},
	})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Available {
		t.Fatal("missing binary reported available")
	}
	if results[1].Available || results[1].Detail != "command not configured" {
		t.Fatalf("unexpected status for blank command: %+v", results[1])
	}
}

func TestCheckBinariesFindsExecutable(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "fake-ffmpeg")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write fake binary: %v", err)
	}
	t.Setenv("PATH", dir)

	results := CheckBinaries([]Requirement{{Name: "FFmpeg", Command: "fake-ffmpeg", Description: "transcoder"}})
	if len(results) != 1 || !results[0].Available {
		t.Fatalf("expected available binary, got %+v", results)
	}
}
