// Package preflight verifies that the runtime environment can support the
// pipeline before the server starts taking requests.
package preflight

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"captionify/internal/config"
	"captionify/internal/deps"
)

// Result captures one preflight check outcome.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckTranscriptionKey verifies the speech-to-text credential is configured.
func CheckTranscriptionKey(cfg *config.Config) Result {
	const name = "Transcription API key"
	if strings.TrimSpace(cfg.Transcription.APIKey) == "" {
		return Result{Name: name, Detail: "missing (set OPENAI_API_KEY or transcription.api_key)"}
	}
	return Result{Name: name, Passed: true, Detail: "configured"}
}

// CheckRenderProject verifies the render engine project entry point exists.
func CheckRenderProject(cfg *config.Config) Result {
	const name = "Render project"
	entry := filepath.Join(cfg.Render.ProjectDir, "src", "index.ts")
	if _, err := os.Stat(entry); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: entry point missing)", entry)}
	}
	return Result{Name: name, Passed: true, Detail: entry}
}

// CheckSystemDeps evaluates all external binaries the pipeline requires.
// Both the serve startup and the CLI status command use this list so the two
// never drift apart.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for audio extraction and upload normalization",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Required for media inspection",
		},
		{
			Name:        "npx",
			Command:     cfg.NPXBinary(),
			Description: "Required to drive the render engine",
		},
	}
	return deps.CheckBinaries(requirements)
}

// Checks executes every startup check and returns all results.
func Checks(cfg *config.Config) []Result {
	checks := []Result{
		CheckTranscriptionKey(cfg),
		CheckDirectoryAccess("Upload directory", cfg.Paths.UploadDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckRenderProject(cfg),
	}
	for _, status := range CheckSystemDeps(cfg) {
		result := Result{Name: status.Name, Passed: status.Available, Detail: status.Detail}
		if status.Available {
			result.Detail = status.Command
		}
		checks = append(checks, result)
	}
	return checks
}

// Run executes every startup check and returns the failures.
func Run(cfg *config.Config) []Result {
	var failures []Result
	for _, check := range Checks(cfg) {
		if !check.Passed {
			failures = append(failures, check)
		}
	}
	return failures
}
