package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ErrAudioExtraction tags failures of the audio extraction step. The wrapped
// error carries the transcoder's diagnostic output.
var ErrAudioExtraction = errors.New("audio extraction failed")

// Audio contract required by the transcription API: mono, 16kHz, PCM16 WAV.
const (
	audioSampleRate = "16000"
	audioChannels   = "1"
	audioCodec      = "pcm_s16le"
)

func extractArgs(videoPath, audioPath string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", videoPath,
		"-vn",
		"-sn",
		"-dn",
		"-ac", audioChannels,
		"-ar", audioSampleRate,
		"-c:a", audioCodec,
		"-f", "wav",
		audioPath,
	}
}

// ExtractAudio strips the audio track of videoPath into a mono 16kHz PCM16
// WAV file at audioPath. An existing file at audioPath is overwritten. On
// failure no partial file is left behind and the source is never touched.
func ExtractAudio(ctx context.Context, binary, videoPath, audioPath string) error {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if strings.TrimSpace(videoPath) == "" {
		return fmt.Errorf("%w: empty video path", ErrAudioExtraction)
	}
	if strings.TrimSpace(audioPath) == "" {
		return fmt.Errorf("%w: empty audio path", ErrAudioExtraction)
	}

	cmd := exec.CommandContext(ctx, binary, extractArgs(videoPath, audioPath)...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		_ = os.Remove(audioPath)
		return fmt.Errorf("%w: %w: %s", ErrAudioExtraction, err, strings.TrimSpace(string(output)))
	}
	return nil
}
