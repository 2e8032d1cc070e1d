// Package server is the HTTP front end: it collects uploaded quote documents
// and optional criteria, hands them to the pipeline, and renders the analysis
// or a typed failure. The core stays agnostic to HTTP; all status mapping
// lives here.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/whichbid/whichbid/internal/ai"
	"github.com/whichbid/whichbid/internal/analyzer"
	"github.com/whichbid/whichbid/internal/extract"
	"github.com/whichbid/whichbid/internal/pipeline"
	"github.com/whichbid/whichbid/internal/quotes"
	"github.com/whichbid/whichbid/internal/schema"
)

const maxUploadBytes = 32 << 20

// Runner is the pipeline boundary the server drives.
type Runner interface {
	Run(ctx context.Context, docs [][]byte, criteria *quotes.ComparisonCriteria) (*quotes.Analysis, error)
}

type Server struct {
	runner Runner
	logger *zap.Logger
}

func New(runner Runner, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{runner: runner, logger: log}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /quotes/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log := s.logger.With(zap.String("request_id", uuid.New().String()))

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart request: %v", err))
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "at least one PDF file is required")
		return
	}

	docs := make([][]byte, 0, len(files))
	for _, header := range files {
		if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("file %q is not a PDF", header.Filename))
			return
		}

		f, err := header.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to read uploaded file %q: %v", header.Filename, err))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to read uploaded file %q: %v", header.Filename, err))
			return
		}
		docs = append(docs, data)
	}

	criteria, err := parseCriteria(r.FormValue("criteria"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid criteria: %v", err))
		return
	}

	log.Info("analysis request accepted", zap.Int("files", len(docs)))

	analysis, err := s.runner.Run(r.Context(), docs, criteria)
	if err != nil {
		status := statusFor(err)
		log.Error("analysis request failed",
			zap.Error(err),
			zap.Int("status", status),
			zap.Duration("elapsed", time.Since(start)),
		)
		writeError(w, status, err.Error())
		return
	}

	log.Info("analysis request complete",
		zap.Int("ranked", len(analysis.Ranking)),
		zap.Duration("elapsed", time.Since(start)),
	)
	writeJSON(w, http.StatusOK, analysis)
}

func parseCriteria(raw string) (*quotes.ComparisonCriteria, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var criteria quotes.ComparisonCriteria
	if err := json.Unmarshal([]byte(raw), &criteria); err != nil {
		return nil, err
	}
	if len(criteria.Priorities) == 0 {
		criteria.Priorities = quotes.DefaultCriteria().Priorities
	}
	return &criteria, nil
}

// statusFor maps core errors onto fault classes: bad inputs and generator
// output the caller could plausibly fix are client faults, a contentless
// inference reply is an upstream fault, everything else is a server fault.
func statusFor(err error) int {
	var decodeErr *schema.DecodeError
	var validationErr *schema.ValidationError

	switch {
	case errors.Is(err, pipeline.ErrNoDocuments),
		errors.Is(err, analyzer.ErrNoQuotes),
		errors.Is(err, extract.ErrNoText),
		errors.As(err, &decodeErr),
		errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, ai.ErrEmptyResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
