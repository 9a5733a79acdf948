package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfigNormalizes(t *testing.T) {
	t.Setenv("RENDER", "")
	t.Setenv("RENDER_EXTERNAL_URL", "")
	t.Setenv("CAPTIONIFY_BASE_URL", "")
	t.Setenv("PORT", "")
	t.Setenv("OPENAI_API_KEY", "test-key")

	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !filepath.IsAbs(cfg.Paths.UploadDir) {
		t.Fatalf("upload dir not absolute: %q", cfg.Paths.UploadDir)
	}
	if cfg.Paths.Bind != "0.0.0.0:5000" {
		t.Fatalf("unexpected bind: %q", cfg.Paths.Bind)
	}
	if cfg.Paths.BaseURL != "http://localhost:5000" {
		t.Fatalf("unexpected base url: %q", cfg.Paths.BaseURL)
	}
	if cfg.Transcription.APIKey != "test-key" {
		t.Fatalf("expected api key from environment, got %q", cfg.Transcription.APIKey)
	}
}

func TestLoadReadsTOML(t *testing.T) {
	t.Setenv("RENDER", "")
	t.Setenv("RENDER_EXTERNAL_URL", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "captionify.toml")
	contents := `
[paths]
upload_dir = "` + filepath.Join(dir, "up") + `"
output_dir = "` + filepath.Join(dir, "out") + `"
base_url = "https://captions.example.com/"

[transcription]
api_key = "from-file"
language = "en-US"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %q to exist, got %q exists=%v", path, resolved, exists)
	}
	if cfg.Paths.BaseURL != "https://captions.example.com" {
		t.Fatalf("trailing slash should be trimmed: %q", cfg.Paths.BaseURL)
	}
	if cfg.Transcription.APIKey != "from-file" {
		t.Fatalf("unexpected api key: %q", cfg.Transcription.APIKey)
	}
	// Region subtags collapse to the base language for the API.
	if cfg.Transcription.Language != "en" {
		t.Fatalf("unexpected language: %q", cfg.Transcription.Language)
	}
}

func TestLoadRejectsInvalidLanguage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "captionify.toml")
	contents := `
[transcription]
language = "not a tag"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid language tag")
	}
}

func TestCloudDeploymentRelocatesStorage(t *testing.T) {
	t.Setenv("RENDER", "true")
	t.Setenv("RENDER_EXTERNAL_URL", "")
	t.Setenv("CAPTIONIFY_BASE_URL", "")

	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !strings.HasPrefix(cfg.Paths.UploadDir, "/tmp/") {
		t.Fatalf("expected /tmp upload dir, got %q", cfg.Paths.UploadDir)
	}
	if !strings.HasPrefix(cfg.Paths.OutputDir, "/tmp/") {
		t.Fatalf("expected /tmp output dir, got %q", cfg.Paths.OutputDir)
	}
}

func TestValidateCredentialsRequiresKey(t *testing.T) {
	cfg := Default()
	cfg.Transcription.APIKey = ""
	if err := cfg.ValidateCredentials(); err == nil {
		t.Fatal("expected missing credential error")
	}
	cfg.Transcription.APIKey = "k"
	if err := cfg.ValidateCredentials(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsSharedDirectories(t *testing.T) {
	cfg := Default()
	cfg.Paths.UploadDir = "/tmp/same"
	cfg.Paths.OutputDir = "/tmp/same"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for shared upload/output dir")
	}
}
