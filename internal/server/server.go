// Package server exposes the job submission and status API over HTTP.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/tenders-cl/budget-analyzer/internal/common"
	"github.com/tenders-cl/budget-analyzer/internal/entity"
	"github.com/tenders-cl/budget-analyzer/internal/export"
	"github.com/tenders-cl/budget-analyzer/internal/jobs"
	"github.com/tenders-cl/budget-analyzer/internal/store"
	"github.com/tenders-cl/budget-analyzer/internal/tempfile"
)

// Runner schedules one background pipeline execution.
type Runner interface {
	Process(ctx context.Context, jobID uuid.UUID, docs []entity.Document)
}

type Server struct {
	registry *jobs.Registry
	runner   Runner
	results  *store.ResultStore
	exporter *export.Service
	temps    *tempfile.Manager
	cfg      common.ServerConfig
	logger   *slog.Logger
	started  time.Time
}

func New(
	registry *jobs.Registry,
	runner Runner,
	results *store.ResultStore,
	exporter *export.Service,
	temps *tempfile.Manager,
	cfg common.ServerConfig,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		registry: registry,
		runner:   runner,
		results:  results,
		exporter: exporter,
		temps:    temps,
		cfg:      cfg,
		logger:   logger,
		started:  time.Now(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Route("/api/budget-analysis", func(r chi.Router) {
		r.Post("/pdf", s.handleSubmit)
		r.Post("/pdf/multiple", s.handleSubmitBatch)
		r.Get("/pdf/{id}", s.handleStatus)
		r.Delete("/pdf/{id}", s.handleDelete)
		r.Get("/pdf/{id}/export", s.handleExport)
		r.Get("/status", s.handleServiceStatus)
	})
	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("server.encode_failed", "error", err)
	}
}

type errorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, code string) {
	s.writeJSON(w, status, errorResponse{ErrorCode: code, Message: common.UserMessage(code)})
}
