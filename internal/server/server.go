package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"captionify/internal/assets"
	"captionify/internal/config"
	"captionify/internal/logging"
	"captionify/internal/render"
	"captionify/internal/transcribe"
)

// Transcriber produces caption segments for a video file on disk.
type Transcriber interface {
	GenerateCaptions(ctx context.Context, videoPath string) ([]transcribe.Segment, error)
}

// Renderer burns captions into a video and returns the output file path.
type Renderer interface {
	RenderVideo(ctx context.Context, req render.Request) (string, error)
}

type proberFunc func(ctx context.Context, path string) (probeInfo, error)

type normalizeFunc func(ctx context.Context, srcPath, dstPath string) error

type probeInfo struct {
	videoStreams    int
	durationSeconds float64
}

// Server wires the HTTP routes to the pipeline components.
type Server struct {
	cfg         *config.Config
	logger      *slog.Logger
	transcriber Transcriber
	renderer    Renderer
	ledger      *assets.Ledger
	probe       proberFunc
	normalize   normalizeFunc
	router      *mux.Router

	listener net.Listener
	server   *http.Server
	stopOnce sync.Once
}

// Option customizes the server.
type Option func(*Server)

// WithTranscriber sets the caption source.
func WithTranscriber(tr Transcriber) Option {
	return func(s *Server) {
		if tr != nil {
			s.transcriber = tr
		}
	}
}

// WithRenderer sets the render engine client.
func WithRenderer(re Renderer) Option {
	return func(s *Server) {
		if re != nil {
			s.renderer = re
		}
	}
}

// WithLedger attaches the upload/render ledger. A nil ledger disables
// recording.
func WithLedger(ledger *assets.Ledger) Option {
	return func(s *Server) {
		s.ledger = ledger
	}
}

// WithLogger attaches a logger; a no-op logger is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logging.NewComponentLogger(logger, "server")
		}
	}
}

func withProber(probe proberFunc) Option {
	return func(s *Server) {
		if probe != nil {
			s.probe = probe
		}
	}
}

func withNormalizer(normalize normalizeFunc) Option {
	return func(s *Server) {
		if normalize != nil {
			s.normalize = normalize
		}
	}
}

// New constructs the HTTP server for the given configuration.
func New(cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		logger: logging.NewNop(),
	}
	s.probe = s.ffprobeProbe
	s.normalize = s.ffmpegNormalize
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestIDMiddleware, s.corsMiddleware, s.loggingMiddleware)

	r.HandleFunc("/", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/upload", s.handleUpload).Methods(http.MethodPost)
	r.HandleFunc("/captions", s.handleCaptions).Methods(http.MethodPost)
	r.HandleFunc("/render", s.handleRender).Methods(http.MethodPost)

	r.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.cfg.Paths.UploadDir))))
	r.PathPrefix("/outputs/").Handler(
		http.StripPrefix("/outputs/", http.FileServer(http.Dir(s.cfg.Paths.OutputDir))))

	// Preflight requests never reach the route handlers.
	r.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

// Handler returns the routing handler, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving on the configured bind address. The server shuts down
// when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Paths.Bind)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Paths.Bind, err)
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      30 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr reports the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts the server down. Safe to call more than once; the
// context watcher in Start and an explicit caller may both reach it.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		if s.server != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = s.server.Shutdown(shutdownCtx)
		}
		if s.listener != nil {
			_ = s.listener.Close()
			s.listener = nil
		}
	})
}

func (s *Server) maxUploadBytes() int64 {
	mib := s.cfg.Server.MaxUploadMiB
	if mib <= 0 {
		mib = 100
	}
	return int64(mib) << 20
}
