package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"captionify/internal/fileutil"
	"captionify/internal/logging"
	"captionify/internal/media/ffmpeg"
	"captionify/internal/media/ffprobe"
)

// ErrTranscription tags speech-to-text failures that survived the retry
// policy.
var ErrTranscription = errors.New("transcription failed")

// Config captures the runtime settings required to talk to the
// transcription API.
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	Language          string
	TimeoutSeconds    int
	MaxAttempts       int
	RetryDelaySeconds int
	// AudioDir receives the temporary WAV files; they never outlive a call.
	AudioDir     string
	FFmpegBinary string
	// FFprobeBinary enables verification of extracted audio when set.
	FFprobeBinary string
}

// API is the slice of the provider client the transcriber needs.
type API interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

type extractFunc func(ctx context.Context, binary, videoPath, audioPath string) error

type inspectFunc func(ctx context.Context, binary string, path string) (ffprobe.Result, error)

// Client submits extracted audio to the transcription API and normalizes the
// response into caption segments.
type Client struct {
	cfg     Config
	api     API
	policy  RetryPolicy
	extract extractFunc
	inspect inspectFunc
	sleeper func(time.Duration)
	logger  *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithAPI overrides the provider client (used by tests).
func WithAPI(api API) Option {
	return func(c *Client) {
		if api != nil {
			c.api = api
		}
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// WithExtractor overrides the audio extraction step (used by tests).
func WithExtractor(extract extractFunc) Option {
	return func(c *Client) {
		if extract != nil {
			c.extract = extract
		}
	}
}

// WithInspector overrides the audio inspection step (used by tests).
func WithInspector(inspect inspectFunc) Option {
	return func(c *Client) {
		if inspect != nil {
			c.inspect = inspect
		}
	}
}

// WithLogger attaches a logger; a no-op logger is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient constructs a transcription client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.Language = strings.TrimSpace(cfg.Language)
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 120
	}

	policy := RetryPolicy{
		MaxAttempts: cfg.MaxAttempts,
		Delay:       time.Duration(cfg.RetryDelaySeconds) * time.Second,
	}
	if cfg.MaxAttempts == 0 && cfg.RetryDelaySeconds == 0 {
		policy = DefaultRetryPolicy()
	}

	client := &Client{
		cfg:    cfg,
		policy: policy.normalized(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.api == nil {
		apiCfg := openai.DefaultConfig(cfg.APIKey)
		apiCfg.HTTPClient = &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}
		if cfg.BaseURL != "" {
			apiCfg.BaseURL = cfg.BaseURL
		}
		client.api = openai.NewClientWithConfig(apiCfg)
	}
	if client.extract == nil {
		client.extract = ffmpeg.ExtractAudio
	}
	if client.inspect == nil {
		client.inspect = ffprobe.Inspect
	}
	return client
}

// Policy returns the retry policy in effect.
func (c *Client) Policy() RetryPolicy {
	return c.policy
}

// GenerateCaptions extracts audio from videoPath, submits it for
// transcription, and returns the ordered caption segments. The temporary WAV
// file is deleted before return on every path. Zero detected segments is not
// an error.
func (c *Client) GenerateCaptions(ctx context.Context, videoPath string) ([]Segment, error) {
	if strings.TrimSpace(videoPath) == "" {
		return nil, fmt.Errorf("%w: empty video path", ErrTranscription)
	}

	audioPath := c.tempAudioPath()
	if err := c.extract(ctx, c.cfg.FFmpegBinary, videoPath, audioPath); err != nil {
		return nil, err
	}
	defer func() {
		if err := fileutil.RemoveQuietly(audioPath); err != nil {
			c.logger.Warn("temp audio cleanup failed", logging.Error(err), logging.String("audio", audioPath))
		}
	}()

	if info, err := os.Stat(audioPath); err == nil {
		c.logger.Info("audio extracted",
			logging.String("audio", audioPath),
			logging.Int64("size_bytes", info.Size()))
	}
	c.verifyAudio(ctx, audioPath)

	request := openai.AudioRequest{
		Model:    c.cfg.Model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
		Language: c.cfg.Language,
	}

	var lastErr error
	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		resp, err := c.api.CreateTranscription(ctx, request)
		if err == nil {
			segments := normalizeSegments(resp)
			c.logger.Info("transcription complete",
				logging.Int("segments", len(segments)),
				logging.Int("attempt", attempt))
			return segments, nil
		}

		lastErr = err
		if !c.policy.Retryable(err) {
			return nil, fmt.Errorf("%w: %w", ErrTranscription, err)
		}
		c.logger.Warn("transcription attempt failed",
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", c.policy.MaxAttempts),
			logging.Error(err))
		if attempt == c.policy.MaxAttempts {
			break
		}
		if err := c.sleep(ctx, c.policy.Delay); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTranscription, err)
		}
	}
	return nil, fmt.Errorf("%w: after %d attempts: %w", ErrTranscription, c.policy.MaxAttempts, lastErr)
}

// transcriptionSampleRateHz is the sample rate the extraction step requests.
const transcriptionSampleRateHz = 16000

// verifyAudio probes the extracted WAV and warns when it deviates from the
// single-channel 16kHz layout the extraction step requests. A deviation means
// the transcoder misbehaved; the provider still accepts the file, so the
// request proceeds.
func (c *Client) verifyAudio(ctx context.Context, audioPath string) {
	if strings.TrimSpace(c.cfg.FFprobeBinary) == "" {
		return
	}
	result, err := c.inspect(ctx, c.cfg.FFprobeBinary, audioPath)
	if err != nil {
		c.logger.Warn("extracted audio inspection failed",
			logging.String("audio", audioPath), logging.Error(err))
		return
	}
	stream, ok := result.FirstAudioStream()
	if !ok {
		c.logger.Warn("extracted file has no audio stream", logging.String("audio", audioPath))
		return
	}
	if result.AudioStreamCount() != 1 || stream.Channels != 1 || stream.SampleRateHz() != transcriptionSampleRateHz {
		c.logger.Warn("extracted audio deviates from mono 16kHz",
			logging.String("audio", audioPath),
			logging.Int("audio_streams", result.AudioStreamCount()),
			logging.Int("channels", stream.Channels),
			logging.Int("sample_rate_hz", stream.SampleRateHz()))
	}
}

func (c *Client) tempAudioPath() string {
	name := fmt.Sprintf("audio-%d-%s.wav", time.Now().UnixMilli(), uuid.NewString()[:8])
	return filepath.Join(c.cfg.AudioDir, name)
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
