package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"captionify/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.UploadDir = filepath.Join(base, "uploads")
	cfgVal.Paths.OutputDir = filepath.Join(base, "outputs")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.Bind = "127.0.0.1:0"
	cfgVal.Paths.BaseURL = "http://localhost:3000"
	cfgVal.Transcription.APIKey = "test"
	cfgVal.Render.ProjectDir = filepath.Join(base, "remotion")
	cfgVal.Render.BundleDir = filepath.Join(base, "bundle")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithAPIKey sets the transcription API key on the test config.
func WithAPIKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Transcription.APIKey = key
	}
}

// WithBaseURL overrides the externally reachable base URL.
func WithBaseURL(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.BaseURL = baseURL
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default external binaries
// are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe", "npx"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// WithRenderProject creates a minimal composition project on disk so
// preflight checks pass.
func WithRenderProject() ConfigOption {
	return func(b *configBuilder) {
		srcDir := filepath.Join(b.cfg.Render.ProjectDir, "src")
		if err := os.MkdirAll(srcDir, 0o755); err != nil {
			b.t.Fatalf("mkdir render src dir: %v", err)
		}
		entry := filepath.Join(srcDir, "index.ts")
		if err := os.WriteFile(entry, []byte("export {};\n"), 0o644); err != nil {
			b.t.Fatalf("write render entry point: %v", err)
		}
	}
}
