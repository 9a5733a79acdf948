package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.UploadDir == "" {
		return errors.New("paths.upload_dir must be set")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.UploadDir == c.Paths.OutputDir {
		return errors.New("paths.upload_dir and paths.output_dir must differ")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.MaxUploadMiB <= 0 {
		return errors.New("server.max_upload_mib must be positive")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	if c.Transcription.MaxAttempts < 1 {
		return errors.New("transcription.max_attempts must be at least 1")
	}
	if c.Transcription.TimeoutSeconds <= 0 {
		return errors.New("transcription.timeout_seconds must be positive")
	}
	return nil
}

// ValidateCredentials checks settings that are only required when the server
// actually runs. The CLI config commands skip this so a key-less machine can
// still inspect configuration.
func (c *Config) ValidateCredentials() error {
	if c.Transcription.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/captionify/config.toml"
		}
		return fmt.Errorf("transcription.api_key is required. Set OPENAI_API_KEY env var or edit %s (create with 'captionify config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateRender() error {
	if c.Render.ProjectDir == "" {
		return errors.New("render.project_dir must be set")
	}
	if c.Render.CompositionID == "" {
		return errors.New("render.composition_id must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
