package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"captionify/internal/fileutil"
	"captionify/internal/logging"
	"captionify/internal/transcribe"
)

var (
	// ErrCompositionNotFound indicates the named composition is missing from
	// the bundle. This is a configuration fault and is never retried.
	ErrCompositionNotFound = errors.New("composition not found")
	// ErrRender tags rendering engine failures. The wrapped error carries the
	// engine's diagnostic output.
	ErrRender = errors.New("render failed")
)

// Config captures the runtime settings for the rendering engine.
type Config struct {
	// ProjectDir is the engine project root containing src/index.ts.
	ProjectDir string
	// BundleDir receives the prepared bundle artifact.
	BundleDir     string
	CompositionID string
	NPXBinary     string
	OutputDir     string
	// BaseURL is the externally reachable base URL the engine sandbox can
	// fetch uploaded videos from.
	BaseURL string
	FPS     int
}

// Request describes one render invocation.
type Request struct {
	VideoPath string
	Captions  []transcribe.Segment
	Style     string
}

type commandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) (string, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(output)), err
}

// Engine invokes the rendering sidecar. Safe for concurrent use; the bundle
// build is serialized internally.
type Engine struct {
	cfg    Config
	runner commandRunner
	logger *slog.Logger
	bundle bundleGuard
}

// Option customizes the engine.
type Option func(*Engine)

// WithRunner overrides process execution (used by tests).
func WithRunner(runner commandRunner) Option {
	return func(e *Engine) {
		if runner != nil {
			e.runner = runner
		}
	}
}

// WithLogger attaches a logger; a no-op logger is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine constructs a render engine client.
func NewEngine(cfg Config, opts ...Option) *Engine {
	if strings.TrimSpace(cfg.NPXBinary) == "" {
		cfg.NPXBinary = "npx"
	}
	if strings.TrimSpace(cfg.CompositionID) == "" {
		cfg.CompositionID = "CaptionedVideo"
	}
	engine := &Engine{cfg: cfg, runner: execRunner{}, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// RenderVideo renders the captioned video and returns the output file path.
// Each call produces a uniquely named output even for identical inputs.
func (e *Engine) RenderVideo(ctx context.Context, req Request) (string, error) {
	serveDir, err := e.bundle.get(ctx, e.buildBundle)
	if err != nil {
		return "", err
	}

	if err := e.resolveComposition(ctx, serveDir); err != nil {
		return "", err
	}

	videoURL, err := e.videoURL(req.VideoPath)
	if err != nil {
		return "", err
	}

	props, err := e.writeProps(req, videoURL)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := fileutil.RemoveQuietly(props); err != nil {
			e.logger.Warn("props cleanup failed", logging.Error(err))
		}
	}()

	outputPath := filepath.Join(e.cfg.OutputDir, fmt.Sprintf("render-%s.mp4", uuid.NewString()))
	e.logger.Info("rendering video",
		logging.String("video", videoURL),
		logging.Int("captions", len(req.Captions)),
		logging.String("style", req.Style),
		logging.String("output", outputPath))

	args := []string{
		"remotion", "render",
		serveDir,
		e.cfg.CompositionID,
		outputPath,
		"--props", props,
		"--codec", "h264",
		"--audio-codec", "aac",
	}
	output, err := e.runner.Run(ctx, e.cfg.ProjectDir, e.cfg.NPXBinary, args...)
	if err != nil {
		_ = os.Remove(outputPath)
		return "", fmt.Errorf("%w: %w: %s", ErrRender, err, output)
	}
	if !fileutil.NonEmptyFile(outputPath) {
		_ = os.Remove(outputPath)
		return "", fmt.Errorf("%w: engine produced no output: %s", ErrRender, output)
	}

	e.logger.Info("render complete", logging.String("output", outputPath))
	return outputPath, nil
}

func (e *Engine) buildBundle(ctx context.Context) (string, error) {
	entry := filepath.Join(e.cfg.ProjectDir, "src", "index.ts")
	if _, err := os.Stat(entry); err != nil {
		return "", fmt.Errorf("%w: bundle entry point %s missing", ErrRender, entry)
	}

	e.logger.Info("building composition bundle", logging.String("entry", entry))
	output, err := e.runner.Run(ctx, e.cfg.ProjectDir, e.cfg.NPXBinary,
		"remotion", "bundle", entry, "--out-dir", e.cfg.BundleDir)
	if err != nil {
		return "", fmt.Errorf("%w: bundle build: %w: %s", ErrRender, err, output)
	}
	e.logger.Info("composition bundle ready", logging.String("bundle_dir", e.cfg.BundleDir))
	return e.cfg.BundleDir, nil
}

func (e *Engine) resolveComposition(ctx context.Context, serveDir string) error {
	output, err := e.runner.Run(ctx, e.cfg.ProjectDir, e.cfg.NPXBinary,
		"remotion", "compositions", serveDir, "--quiet")
	if err != nil {
		return fmt.Errorf("%w: list compositions: %w: %s", ErrRender, err, output)
	}
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == e.cfg.CompositionID {
			return nil
		}
	}
	return fmt.Errorf("%w: %q not present in bundle", ErrCompositionNotFound, e.cfg.CompositionID)
}

// videoURL converts a local video reference into a URL the engine sandbox
// can fetch. References that are already URLs pass through unchanged.
func (e *Engine) videoURL(videoPath string) (string, error) {
	if strings.HasPrefix(videoPath, "http://") || strings.HasPrefix(videoPath, "https://") {
		return videoPath, nil
	}
	if !fileutil.NonEmptyFile(videoPath) {
		return "", fmt.Errorf("%w: video file not found at %s", ErrRender, videoPath)
	}
	resolved, err := url.JoinPath(e.cfg.BaseURL, "uploads", filepath.Base(videoPath))
	if err != nil {
		return "", fmt.Errorf("%w: build video url: %w", ErrRender, err)
	}
	return resolved, nil
}

func (e *Engine) writeProps(req Request, videoURL string) (string, error) {
	captions := req.Captions
	if captions == nil {
		captions = []transcribe.Segment{}
	}
	payload, err := json.Marshal(map[string]any{
		"videoPath": videoURL,
		"captions":  captions,
		"style":     req.Style,
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode props: %w", ErrRender, err)
	}
	file, err := os.CreateTemp("", "captionify-props-*.json")
	if err != nil {
		return "", fmt.Errorf("%w: create props file: %w", ErrRender, err)
	}
	if _, err := file.Write(payload); err != nil {
		file.Close()
		_ = os.Remove(file.Name())
		return "", fmt.Errorf("%w: write props file: %w", ErrRender, err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(file.Name())
		return "", fmt.Errorf("%w: close props file: %w", ErrRender, err)
	}
	return file.Name(), nil
}
