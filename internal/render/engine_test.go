package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"captionify/internal/transcribe"
)

type fakeRunner struct {
	mu          sync.Mutex
	bundleCalls atomic.Int32
	renderCalls atomic.Int32

	compositions string
	bundleErr    error
	renderErr    error
	renderOutput string
	emptyOutput  bool

	propsPayloads []map[string]any
}

func (f *fakeRunner) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("unexpected invocation %q %v", name, args)
	}
	switch args[1] {
	case "bundle":
		f.bundleCalls.Add(1)
		if f.bundleErr != nil {
			return "bundle diagnostics", f.bundleErr
		}
		return "", nil
	case "compositions":
		if f.compositions == "" {
			return "CaptionedVideo", nil
		}
		return f.compositions, nil
	case "render":
		f.renderCalls.Add(1)
		if err := f.recordProps(args); err != nil {
			return "", err
		}
		if f.renderErr != nil {
			// Engines can leave a partial file behind before dying.
			_ = os.WriteFile(args[4], []byte("partial"), 0o644)
			return f.renderOutput, f.renderErr
		}
		if f.emptyOutput {
			return "", os.WriteFile(args[4], nil, 0o644)
		}
		return "", os.WriteFile(args[4], []byte("mp4 bytes"), 0o644)
	default:
		return "", fmt.Errorf("unexpected subcommand %q", args[1])
	}
}

func (f *fakeRunner) recordProps(args []string) error {
	for i, arg := range args {
		if arg != "--props" || i+1 >= len(args) {
			continue
		}
		raw, err := os.ReadFile(args[i+1])
		if err != nil {
			return err
		}
		var payload map[string]any
		if err := json.Unmarshal(raw, &payload); err != nil {
			return err
		}
		f.mu.Lock()
		f.propsPayloads = append(f.propsPayloads, payload)
		f.mu.Unlock()
		return nil
	}
	return errors.New("render invoked without --props")
}

func newTestEngine(t *testing.T, runner *fakeRunner) (*Engine, string) {
	t.Helper()
	projectDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(projectDir, "src"), 0o755); err != nil {
		t.Fatalf("mkdir src: %v", err)
	}
	if err := os.WriteFile(filepath.Join(projectDir, "src", "index.ts"), []byte("export {};"), 0o644); err != nil {
		t.Fatalf("write entry point: %v", err)
	}
	outputDir := t.TempDir()
	engine := NewEngine(Config{
		ProjectDir:    projectDir,
		BundleDir:     filepath.Join(t.TempDir(), "bundle"),
		CompositionID: "CaptionedVideo",
		OutputDir:     outputDir,
		BaseURL:       "http://localhost:3000",
		FPS:           30,
	}, WithRunner(runner))
	return engine, outputDir
}

func writeVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "safe-123-clip.mp4")
	if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	return path
}

func TestRenderVideoProducesOutput(t *testing.T) {
	runner := &fakeRunner{}
	engine, outputDir := newTestEngine(t, runner)

	captions := []transcribe.Segment{{Start: 0, End: 1.5, Text: "hello"}}
	out, err := engine.RenderVideo(context.Background(), Request{
		VideoPath: writeVideo(t),
		Captions:  captions,
		Style:     "bottom",
	})
	if err != nil {
		t.Fatalf("RenderVideo: %v", err)
	}
	if filepath.Dir(out) != outputDir {
		t.Fatalf("output %s not under %s", out, outputDir)
	}
	if !strings.HasPrefix(filepath.Base(out), "render-") || !strings.HasSuffix(out, ".mp4") {
		t.Fatalf("unexpected output name %s", out)
	}
	info, err := os.Stat(out)
	if err != nil || info.Size() == 0 {
		t.Fatalf("output missing or empty: %v", err)
	}

	if len(runner.propsPayloads) != 1 {
		t.Fatalf("expected 1 props payload, got %d", len(runner.propsPayloads))
	}
	props := runner.propsPayloads[0]
	videoPath, _ := props["videoPath"].(string)
	if !strings.HasPrefix(videoPath, "http://localhost:3000/uploads/") {
		t.Fatalf("props videoPath = %q", videoPath)
	}
	if style, _ := props["style"].(string); style != "bottom" {
		t.Fatalf("props style = %q", style)
	}
	if got, ok := props["captions"].([]any); !ok || len(got) != 1 {
		t.Fatalf("props captions = %v", props["captions"])
	}
}

func TestRenderVideoUniqueOutputNames(t *testing.T) {
	runner := &fakeRunner{}
	engine, _ := newTestEngine(t, runner)
	video := writeVideo(t)

	first, err := engine.RenderVideo(context.Background(), Request{VideoPath: video})
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	second, err := engine.RenderVideo(context.Background(), Request{VideoPath: video})
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if first == second {
		t.Fatalf("identical inputs must not share an output path: %s", first)
	}
}

func TestRenderVideoBundlesOnceAcrossConcurrentCalls(t *testing.T) {
	runner := &fakeRunner{}
	engine, _ := newTestEngine(t, runner)
	video := writeVideo(t)

	const callers = 4
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = engine.RenderVideo(context.Background(), Request{VideoPath: video})
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d: %v", i, err)
		}
	}
	if got := runner.bundleCalls.Load(); got != 1 {
		t.Fatalf("expected exactly 1 bundle build, got %d", got)
	}
	if got := runner.renderCalls.Load(); got != callers {
		t.Fatalf("expected %d render invocations, got %d", callers, got)
	}
}

func TestRenderVideoRebuildsAfterBundleFailure(t *testing.T) {
	runner := &fakeRunner{bundleErr: errors.New("exit status 1")}
	engine, _ := newTestEngine(t, runner)
	video := writeVideo(t)

	if _, err := engine.RenderVideo(context.Background(), Request{VideoPath: video}); !errors.Is(err, ErrRender) {
		t.Fatalf("expected bundle failure, got %v", err)
	}

	runner.bundleErr = nil
	if _, err := engine.RenderVideo(context.Background(), Request{VideoPath: video}); err != nil {
		t.Fatalf("render after bundle recovery: %v", err)
	}
	if got := runner.bundleCalls.Load(); got != 2 {
		t.Fatalf("expected a fresh bundle build after failure, got %d", got)
	}
}

func TestRenderVideoMissingComposition(t *testing.T) {
	runner := &fakeRunner{compositions: "SomethingElse\nAnotherComp"}
	engine, _ := newTestEngine(t, runner)

	_, err := engine.RenderVideo(context.Background(), Request{VideoPath: writeVideo(t)})
	if !errors.Is(err, ErrCompositionNotFound) {
		t.Fatalf("expected ErrCompositionNotFound, got %v", err)
	}
	if runner.renderCalls.Load() != 0 {
		t.Fatal("render must not run when the composition is missing")
	}
}

func TestRenderVideoFailureRemovesPartialOutput(t *testing.T) {
	runner := &fakeRunner{renderErr: errors.New("exit status 1"), renderOutput: "chromium crashed"}
	engine, outputDir := newTestEngine(t, runner)

	_, err := engine.RenderVideo(context.Background(), Request{VideoPath: writeVideo(t)})
	if !errors.Is(err, ErrRender) {
		t.Fatalf("expected ErrRender, got %v", err)
	}
	if !strings.Contains(err.Error(), "chromium crashed") {
		t.Fatalf("error should carry engine diagnostics: %v", err)
	}
	assertEmptyDir(t, outputDir)
}

func TestRenderVideoEmptyOutputRemoved(t *testing.T) {
	runner := &fakeRunner{emptyOutput: true}
	engine, outputDir := newTestEngine(t, runner)

	_, err := engine.RenderVideo(context.Background(), Request{VideoPath: writeVideo(t)})
	if !errors.Is(err, ErrRender) {
		t.Fatalf("expected ErrRender for empty output, got %v", err)
	}
	assertEmptyDir(t, outputDir)
}

func TestVideoURL(t *testing.T) {
	engine, _ := newTestEngine(t, &fakeRunner{})

	remote := "https://cdn.example.com/clip.mp4"
	if got, err := engine.videoURL(remote); err != nil || got != remote {
		t.Fatalf("URL references must pass through, got %q, %v", got, err)
	}

	local := writeVideo(t)
	got, err := engine.videoURL(local)
	if err != nil {
		t.Fatalf("videoURL: %v", err)
	}
	want := "http://localhost:3000/uploads/" + filepath.Base(local)
	if got != want {
		t.Fatalf("videoURL = %q, want %q", got, want)
	}

	if _, err := engine.videoURL(filepath.Join(t.TempDir(), "missing.mp4")); !errors.Is(err, ErrRender) {
		t.Fatalf("missing local file should fail, got %v", err)
	}
}

func TestRenderVideoMissingEntryPoint(t *testing.T) {
	engine := NewEngine(Config{
		ProjectDir: t.TempDir(),
		BundleDir:  t.TempDir(),
		OutputDir:  t.TempDir(),
		BaseURL:    "http://localhost:3000",
	}, WithRunner(&fakeRunner{}))

	_, err := engine.RenderVideo(context.Background(), Request{VideoPath: writeVideo(t)})
	if !errors.Is(err, ErrRender) || !strings.Contains(err.Error(), "entry point") {
		t.Fatalf("expected entry point error, got %v", err)
	}
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no leftover files in %s, found %d", dir, len(entries))
	}
}
