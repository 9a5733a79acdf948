package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTranscription(); err != nil {
		return err
	}
	if err := c.normalizeRender(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	// RENDER=true indicates a cloud deployment whose only writable
	// filesystem is /tmp.
	if cloudDeployment() {
		c.Paths.UploadDir = filepath.Join(cloudStorageRoot, "uploads")
		c.Paths.OutputDir = filepath.Join(cloudStorageRoot, "outputs")
		c.Paths.LogDir = filepath.Join(cloudStorageRoot, "logs")
		c.Render.BundleDir = filepath.Join(cloudStorageRoot, "bundle")
	}

	var err error
	if c.Paths.UploadDir, err = expandPath(c.Paths.UploadDir); err != nil {
		return fmt.Errorf("paths.upload_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	c.Paths.Bind = strings.TrimSpace(c.Paths.Bind)
	if c.Paths.Bind == "" {
		port := strings.TrimSpace(os.Getenv("PORT"))
		if port == "" {
			port = defaultPort
		}
		c.Paths.Bind = net.JoinHostPort(defaultBindHost, port)
	}

	c.Paths.BaseURL = strings.TrimRight(strings.TrimSpace(c.Paths.BaseURL), "/")
	if c.Paths.BaseURL == "" {
		if value, ok := os.LookupEnv("CAPTIONIFY_BASE_URL"); ok {
			c.Paths.BaseURL = strings.TrimRight(strings.TrimSpace(value), "/")
		} else if value, ok := os.LookupEnv("RENDER_EXTERNAL_URL"); ok {
			c.Paths.BaseURL = strings.TrimRight(strings.TrimSpace(value), "/")
		}
	}
	if c.Paths.BaseURL == "" {
		_, port, err := net.SplitHostPort(c.Paths.Bind)
		if err != nil {
			port = defaultPort
		}
		c.Paths.BaseURL = "http://localhost:" + port
	}
	return nil
}

func (c *Config) normalizeTranscription() error {
	c.Transcription.APIKey = strings.TrimSpace(c.Transcription.APIKey)
	if c.Transcription.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.Transcription.APIKey = strings.TrimSpace(value)
		}
	}
	c.Transcription.BaseURL = strings.TrimRight(strings.TrimSpace(c.Transcription.BaseURL), "/")
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	if c.Transcription.Model == "" {
		c.Transcription.Model = defaultTranscriptionModel
	}
	c.Transcription.Language = strings.TrimSpace(c.Transcription.Language)
	if c.Transcription.Language != "" {
		tag, err := language.Parse(c.Transcription.Language)
		if err != nil {
			return fmt.Errorf("transcription.language: %q is not a valid language tag: %w", c.Transcription.Language, err)
		}
		base, _ := tag.Base()
		c.Transcription.Language = base.String()
	}
	if c.Transcription.TimeoutSeconds <= 0 {
		c.Transcription.TimeoutSeconds = defaultTranscriptionTimeout
	}
	if c.Transcription.MaxAttempts <= 0 {
		c.Transcription.MaxAttempts = defaultTranscriptionAttempts
	}
	if c.Transcription.RetryDelaySeconds < 0 {
		c.Transcription.RetryDelaySeconds = defaultTranscriptionRetryDelay
	}
	return nil
}

func (c *Config) normalizeRender() error {
	var err error
	if c.Render.ProjectDir, err = expandPath(c.Render.ProjectDir); err != nil {
		return fmt.Errorf("render.project_dir: %w", err)
	}
	if c.Render.BundleDir, err = expandPath(c.Render.BundleDir); err != nil {
		return fmt.Errorf("render.bundle_dir: %w", err)
	}
	c.Render.CompositionID = strings.TrimSpace(c.Render.CompositionID)
	if c.Render.CompositionID == "" {
		c.Render.CompositionID = defaultRenderCompositionID
	}
	if c.Render.FPS <= 0 {
		c.Render.FPS = defaultRenderFPS
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func cloudDeployment() bool {
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RENDER")), "true") {
		return true
	}
	return strings.TrimSpace(os.Getenv("RENDER_EXTERNAL_URL")) != ""
}
