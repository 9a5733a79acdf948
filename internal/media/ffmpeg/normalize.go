package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// ErrNormalize tags failures of the upload normalization step.
var ErrNormalize = errors.New("video normalization failed")

func normalizeArgs(srcPath, dstPath string, fps int) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		// Regenerate timestamps so captured/trimmed uploads start at zero.
		"-fflags", "+genpts",
		"-i", srcPath,
		"-c:v", "libx264",
		"-preset", "fast",
		"-pix_fmt", "yuv420p",
		"-r", strconv.Itoa(fps),
		"-c:a", "aac",
		"-movflags", "+faststart",
		"-f", "mp4",
		dstPath,
	}
}

// Normalize re-encodes srcPath into a canonical H.264/AAC MP4 at dstPath:
// faststart layout, constant frame rate, sanitized timestamps. The source is
// left in place for the caller to discard after a successful re-encode.
func Normalize(ctx context.Context, binary, srcPath, dstPath string, fps int) error {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if strings.TrimSpace(srcPath) == "" {
		return fmt.Errorf("%w: empty source path", ErrNormalize)
	}
	if strings.TrimSpace(dstPath) == "" {
		return fmt.Errorf("%w: empty destination path", ErrNormalize)
	}
	if fps <= 0 {
		fps = 30
	}

	cmd := exec.CommandContext(ctx, binary, normalizeArgs(srcPath, dstPath, fps)...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		_ = os.Remove(dstPath)
		return fmt.Errorf("%w: %w: %s", ErrNormalize, err, strings.TrimSpace(string(output)))
	}
	return nil
}
