package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"video-failures-go/internal/extract"
	"video-failures-go/internal/logger"
	"video-failures-go/internal/media"
	"video-failures-go/internal/transcribe"
	"video-failures-go/internal/types"
)

// Runner is the analysis pipeline as the HTTP layer sees it.
type Runner interface {
	Run(ctx context.Context, videoPath string) ([]types.FailureEvent, error)
}

// Server owns the HTTP surface: POST /analyze and GET /healthz.
type Server struct {
	Runner Runner
	// ConfigErr is a provider misconfiguration captured at startup.
	// While set, /analyze answers 501 instead of crashing mid-request.
	ConfigErr      error
	MaxUploadBytes int64
	Log            *logger.Logger
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/analyze", s.handleAnalyze)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.Log.WithRequest(r).Debug("health check")
	fmt.Fprint(w, "ok")
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	reqLog := s.Log.WithRequest(r).WithField("handler", "analyze")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.ConfigErr != nil {
		reqLog.WithField("error", s.ConfigErr.Error()).Warn("analyze refused: provider not configured")
		writeError(w, http.StatusNotImplemented, s.ConfigErr.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", s.MaxUploadBytes))
			return
		}
		writeError(w, http.StatusBadRequest, "missing video file field 'file'")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "no filename provided")
		return
	}
	if err := media.CheckExtension(header.Filename); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	reqLog = reqLog.WithField("filename", header.Filename)

	tmpPath, err := spoolUpload(file, header.Filename)
	if err != nil {
		reqLog.WithField("error", err.Error()).Error("failed to spool upload")
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			reqLog.WithField("path", tmpPath).Warn("temp upload cleanup failed")
		}
	}()

	reqLog.Info("starting analysis")
	failures, err := s.Runner.Run(r.Context(), tmpPath)
	if err != nil {
		status, detail := classify(err)
		reqLog.WithField("error", err.Error()).WithField("status", status).Warn("analysis failed")
		writeError(w, status, detail)
		return
	}
	if failures == nil {
		failures = []types.FailureEvent{}
	}

	reqLog.WithField("failures", len(failures)).Info("analysis done")
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(types.AnalyzeResponse{Failures: failures}); err != nil {
		reqLog.WithField("error", err.Error()).Error("failed to write response")
	}
}

// spoolUpload writes the multipart part to a temp file that keeps the
// original extension (ffmpeg sniffs the container from it).
func spoolUpload(src io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	tmp, err := os.CreateTemp("", "upload-*"+ext)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// classify maps pipeline errors to an HTTP status category: bad input
// vs upstream vs internal failure.
func classify(err error) (int, string) {
	switch {
	case media.IsMediaError(err):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, transcribe.ErrNotConfigured), errors.Is(err, extract.ErrNotConfigured):
		return http.StatusNotImplemented, err.Error()
	case transcribe.IsTranscriptionError(err):
		return http.StatusBadGateway, err.Error()
	default:
		return http.StatusInternalServerError, "analysis failed: " + err.Error()
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Detail: detail})
}
