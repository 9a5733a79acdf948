package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"captionify/internal/config"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("Upload directory", dir)
	if !result.Passed {
		t.Fatalf("expected pass for %q: %+v", dir, result)
	}

	result = CheckDirectoryAccess("Upload directory", filepath.Join(dir, "missing"))
	if result.Passed {
		t.Fatalf("expected failure for missing directory: %+v", result)
	}

	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	result = CheckDirectoryAccess("Upload directory", file)
	if result.Passed {
		t.Fatalf("expected failure for non-directory: %+v", result)
	}
}

func TestCheckTranscriptionKey(t *testing.T) {
	cfg := config.Default()
	cfg.Transcription.APIKey = ""
	if result := CheckTranscriptionKey(&cfg); result.Passed {
		t.Fatalf("expected failure without key: %+v", result)
	}
	cfg.Transcription.APIKey = "sk-test"
	if result := CheckTranscriptionKey(&cfg); !result.Passed {
		t.Fatalf("expected pass with key: %+v", result)
	}
}

func TestChecksIncludeRenderProject(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Render.ProjectDir = filepath.Join(dir, "remotion")

	found := false
	for _, check := range Checks(&cfg) {
		if check.Name == "Render project" {
			found = true
			if check.Passed {
				t.Fatalf("expected failure for missing project dir: %+v", check)
			}
		}
	}
	if !found {
		t.Fatal("expected a render project check")
	}
}

func TestRunReportsMissingCredential(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Transcription.APIKey = ""
	cfg.Paths.UploadDir = dir
	cfg.Paths.OutputDir = dir

	failures := Run(&cfg)
	found := false
	for _, failure := range failures {
		if failure.Name == "Transcription API key" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected transcription key failure, got %+v", failures)
	}
}
