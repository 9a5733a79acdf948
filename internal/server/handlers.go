package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"captionify/internal/assets"
	"captionify/internal/fileutil"
	"captionify/internal/logging"
	"captionify/internal/media/ffmpeg"
	"captionify/internal/media/ffprobe"
	"captionify/internal/render"
	"captionify/internal/services"
	"captionify/internal/transcribe"
)

type uploadResponse struct {
	VideoPath string `json:"videoPath"`
	Filename  string `json:"filename"`
}

type captionsRequest struct {
	VideoPath string `json:"videoPath"`
}

type captionsResponse struct {
	Captions []transcribe.Segment `json:"captions"`
}

type renderRequest struct {
	VideoPath string `json:"videoPath"`
	// Captions is a pointer so a missing or null field can be told apart
	// from an empty array; only the latter is a valid request.
	Captions *[]transcribe.Segment `json:"captions"`
	Style    string                `json:"style"`
}

type renderResponse struct {
	OutputURL string `json:"outputUrl"`
	Filename  string `json:"filename"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"endpoints": []string{
			"POST /upload",
			"POST /captions",
			"POST /render",
			"GET /uploads/{filename}",
			"GET /outputs/{filename}",
		},
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := services.WithStage(r.Context(), "upload")
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes())

	file, header, err := r.FormFile("video")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds %d MiB", s.cfg.Server.MaxUploadMiB))
			return
		}
		s.writeError(w, http.StatusBadRequest, "multipart field \"video\" is required")
		return
	}
	defer file.Close()

	rawPath := filepath.Join(s.cfg.Paths.UploadDir, "raw-"+uuid.NewString())
	if err := s.saveUpload(file, rawPath); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds %d MiB", s.cfg.Server.MaxUploadMiB))
			return
		}
		s.writePipelineError(w, services.Wrap(services.ErrTransient, "upload", "store file", "", err))
		return
	}
	defer s.cleanupFile(rawPath)

	info, err := s.probe(ctx, rawPath)
	if err != nil {
		s.writePipelineError(w, err)
		return
	}
	if info.videoStreams == 0 {
		s.writeError(w, http.StatusBadRequest, "uploaded file has no video stream")
		return
	}

	finalName := storedName(header.Filename)
	finalPath := filepath.Join(s.cfg.Paths.UploadDir, finalName)
	if err := s.normalize(ctx, rawPath, finalPath); err != nil {
		s.writePipelineError(w, err)
		return
	}

	s.recordUpload(ctx, finalName, finalPath, info.durationSeconds)

	videoPath, err := url.JoinPath(s.cfg.Paths.BaseURL, "uploads", finalName)
	if err != nil {
		s.writePipelineError(w, services.Wrap(services.ErrTransient, "upload", "build url", "", err))
		return
	}
	s.writeJSON(w, http.StatusOK, uploadResponse{VideoPath: videoPath, Filename: finalName})
}

func (s *Server) handleCaptions(w http.ResponseWriter, r *http.Request) {
	ctx := services.WithStage(r.Context(), "captions")

	var req captionsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.VideoPath) == "" {
		s.writeError(w, http.StatusBadRequest, "videoPath is required")
		return
	}

	videoPath, err := assets.ResolveVideoReference(req.VideoPath, s.cfg.Paths.UploadDir)
	if err != nil {
		s.writePipelineError(w, err)
		return
	}

	captions, err := s.transcriber.GenerateCaptions(ctx, videoPath)
	if err != nil {
		s.writePipelineError(w, err)
		return
	}
	if captions == nil {
		captions = []transcribe.Segment{}
	}
	s.writeJSON(w, http.StatusOK, captionsResponse{Captions: captions})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	ctx := services.WithStage(r.Context(), "render")

	var req renderRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.VideoPath) == "" {
		s.writeError(w, http.StatusBadRequest, "videoPath is required")
		return
	}
	if req.Captions == nil {
		s.writeError(w, http.StatusBadRequest, "captions array is required")
		return
	}
	captions := *req.Captions
	style := req.Style
	if strings.TrimSpace(style) == "" {
		style = "bottom"
	}

	videoPath, err := assets.ResolveVideoReference(req.VideoPath, s.cfg.Paths.UploadDir)
	if err != nil {
		s.writePipelineError(w, err)
		return
	}

	outputPath, err := s.renderer.RenderVideo(ctx, render.Request{
		VideoPath: videoPath,
		Captions:  captions,
		Style:     style,
	})
	if err != nil {
		s.writePipelineError(w, err)
		return
	}

	filename := filepath.Base(outputPath)
	s.recordRender(ctx, filename, style, len(captions))

	outputURL, err := url.JoinPath(s.cfg.Paths.BaseURL, "outputs", filename)
	if err != nil {
		s.writePipelineError(w, services.Wrap(services.ErrTransient, "render", "build url", "", err))
		return
	}
	s.writeJSON(w, http.StatusOK, renderResponse{OutputURL: outputURL, Filename: filename})
}

func (s *Server) saveUpload(src io.Reader, dstPath string) error {
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return err
	}
	dst, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(dstPath)
		return err
	}
	return dst.Close()
}

// storedName builds the canonical stored filename for an upload. The original
// name is sanitized and prefixed with a millisecond timestamp so repeated
// uploads of the same file never collide; the extension becomes .mp4 to match
// the normalized container.
func storedName(original string) string {
	sanitized := fileutil.SanitizeName(original)
	name := fmt.Sprintf("safe-%d-%s", time.Now().UnixMilli(), sanitized)
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".mp4"
}

func (s *Server) ffprobeProbe(ctx context.Context, path string) (probeInfo, error) {
	result, err := ffprobe.Inspect(ctx, s.cfg.FFprobeBinary(), path)
	if err != nil {
		return probeInfo{}, services.Wrap(services.ErrValidation, "upload", "probe", "unreadable media file", err)
	}
	return probeInfo{
		videoStreams:    result.VideoStreamCount(),
		durationSeconds: result.DurationSeconds(),
	}, nil
}

func (s *Server) ffmpegNormalize(ctx context.Context, srcPath, dstPath string) error {
	return ffmpeg.Normalize(ctx, s.cfg.FFmpegBinary(), srcPath, dstPath, s.cfg.Render.FPS)
}

func (s *Server) recordUpload(ctx context.Context, filename, path string, durationSeconds float64) {
	if s.ledger == nil {
		return
	}
	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}
	if _, err := s.ledger.RecordUpload(ctx, filename, size, durationSeconds); err != nil {
		s.logger.Warn("ledger upload record failed", logging.Error(err))
	}
}

func (s *Server) recordRender(ctx context.Context, filename, style string, captionCount int) {
	if s.ledger == nil {
		return
	}
	if _, err := s.ledger.RecordRender(ctx, filename, style, captionCount); err != nil {
		s.logger.Warn("ledger render record failed", logging.Error(err))
	}
}

func (s *Server) cleanupFile(path string) {
	if err := fileutil.RemoveQuietly(path); err != nil {
		s.logger.Warn("temp file cleanup failed",
			logging.String("path", path), logging.Error(err))
	}
}

func decodeJSON(r *http.Request, target any) error {
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func (s *Server) writePipelineError(w http.ResponseWriter, err error) {
	s.logger.Error("request failed", logging.Error(err))
	s.writeError(w, services.HTTPStatus(err), err.Error())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
