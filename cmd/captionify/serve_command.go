package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"captionify/internal/assets"
	"captionify/internal/logging"
	"captionify/internal/preflight"
	"captionify/internal/render"
	"captionify/internal/server"
	"captionify/internal/transcribe"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the captioning HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), ctx)
		},
	}
}

func runServe(cmdCtx context.Context, cmdState *commandContext) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := cmdState.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateCredentials(); err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	lock := flock.New(filepath.Join(cfg.Paths.LogDir, "captionify.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return errors.New("another captionify instance is already running")
	}
	defer func() { _ = lock.Unlock() }()

	var failed []string
	for _, result := range preflight.Run(cfg) {
		failed = append(failed, fmt.Sprintf("%s: %s", result.Name, result.Detail))
	}
	if len(failed) > 0 {
		return fmt.Errorf("preflight failed:\n  %s", strings.Join(failed, "\n  "))
	}

	ledger, err := assets.Open(cfg)
	if err != nil {
		logger.Warn("ledger unavailable, continuing without it", logging.Error(err))
		ledger = nil
	} else {
		defer ledger.Close()
	}

	transcriber := transcribe.NewClient(transcribe.Config{
		APIKey:            cfg.Transcription.APIKey,
		BaseURL:           cfg.Transcription.BaseURL,
		Model:             cfg.Transcription.Model,
		Language:          cfg.Transcription.Language,
		TimeoutSeconds:    cfg.Transcription.TimeoutSeconds,
		MaxAttempts:       cfg.Transcription.MaxAttempts,
		RetryDelaySeconds: cfg.Transcription.RetryDelaySeconds,
		AudioDir:          cfg.Paths.UploadDir,
		FFmpegBinary:      cfg.FFmpegBinary(),
		FFprobeBinary:     cfg.FFprobeBinary(),
	}, transcribe.WithLogger(logger))

	engine := render.NewEngine(render.Config{
		ProjectDir:    cfg.Render.ProjectDir,
		BundleDir:     cfg.Render.BundleDir,
		CompositionID: cfg.Render.CompositionID,
		NPXBinary:     cfg.NPXBinary(),
		OutputDir:     cfg.Paths.OutputDir,
		BaseURL:       cfg.Paths.BaseURL,
		FPS:           cfg.Render.FPS,
	}, render.WithLogger(logger))

	srv := server.New(cfg,
		server.WithTranscriber(transcriber),
		server.WithRenderer(engine),
		server.WithLedger(ledger),
		server.WithLogger(logger),
	)
	if err := srv.Start(signalCtx); err != nil {
		return err
	}

	logger.Info("captionify serving",
		logging.String("address", srv.Addr()),
		logging.String("base_url", cfg.Paths.BaseURL))

	<-signalCtx.Done()
	logger.Info("captionify shutting down")
	srv.Stop()
	return nil
}
