package config

const (
	defaultUploadDir               = "~/.local/share/captionify/uploads"
	defaultOutputDir               = "~/.local/share/captionify/outputs"
	defaultLogDir                  = "~/.local/share/captionify/logs"
	defaultBindHost                = "0.0.0.0"
	defaultPort                    = "5000"
	defaultMaxUploadMiB            = 100
	defaultTranscriptionModel      = "gpt-4o-transcribe"
	defaultTranscriptionTimeout    = 120
	defaultTranscriptionAttempts   = 3
	defaultTranscriptionRetryDelay = 2
	defaultRenderProjectDir        = "../remotion"
	defaultRenderBundleDir         = "~/.local/share/captionify/bundle"
	defaultRenderCompositionID     = "CaptionedVideo"
	defaultRenderFPS               = 30
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
	cloudStorageRoot               = "/tmp"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			UploadDir: defaultUploadDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Server: Server{
			MaxUploadMiB: defaultMaxUploadMiB,
		},
		Transcription: Transcription{
			Model:             defaultTranscriptionModel,
			TimeoutSeconds:    defaultTranscriptionTimeout,
			MaxAttempts:       defaultTranscriptionAttempts,
			RetryDelaySeconds: defaultTranscriptionRetryDelay,
		},
		Render: Render{
			ProjectDir:    defaultRenderProjectDir,
			BundleDir:     defaultRenderBundleDir,
			CompositionID: defaultRenderCompositionID,
			FPS:           defaultRenderFPS,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
