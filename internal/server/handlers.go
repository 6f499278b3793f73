package server

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tenders-cl/budget-analyzer/constants"
	"github.com/tenders-cl/budget-analyzer/internal/common"
	"github.com/tenders-cl/budget-analyzer/internal/entity"
)

type submitResponse struct {
	JobID   uuid.UUID `json:"job_id"`
	Message string    `json:"message"`
}

// handleSubmit accepts one PDF under the "file" form field and schedules a
// pipeline run.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	s.submit(w, r, "file", 1)
}

// handleSubmitBatch accepts up to the configured maximum of PDFs under the
// "files" form field; they are analyzed as one combined job.
func (s *Server) handleSubmitBatch(w http.ResponseWriter, r *http.Request) {
	s.submit(w, r, "files", s.cfg.MaxBatchFiles)
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request, field string, maxFiles int) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxFileSize*int64(maxFiles))
	if err := r.ParseMultipartForm(s.cfg.MaxFileSize); err != nil {
		s.writeError(w, http.StatusBadRequest, common.CodeInvalidRequest)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File[field]
	if len(headers) == 0 || len(headers) > maxFiles {
		s.writeError(w, http.StatusBadRequest, common.CodeInvalidRequest)
		return
	}
	for _, fh := range headers {
		if !isPDF(fh) || fh.Size > s.cfg.MaxFileSize {
			s.writeError(w, http.StatusBadRequest, common.CodeInvalidRequest)
			return
		}
	}

	jobID := s.registry.Create()
	docs := make([]entity.Document, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			s.failSubmission(w, jobID, err)
			return
		}
		doc, err := s.temps.Save(jobID, fh.Filename, f)
		_ = f.Close()
		if err != nil {
			s.failSubmission(w, jobID, err)
			return
		}
		docs = append(docs, doc)
	}

	// Detach from the request context: the run outlives the HTTP exchange.
	go s.runner.Process(context.WithoutCancel(r.Context()), jobID, docs)

	s.logger.Info("server.job_submitted", "job_id", jobID, "files", len(docs))
	s.writeJSON(w, http.StatusAccepted, submitResponse{
		JobID:   jobID,
		Message: "Documento recibido; consulte el estado con el identificador entregado.",
	})
}

func (s *Server) failSubmission(w http.ResponseWriter, jobID uuid.UUID, err error) {
	s.logger.Error("server.submission_failed", "job_id", jobID, "error", err)
	s.temps.Cleanup(jobID)
	s.registry.Delete(jobID)
	s.writeError(w, http.StatusInternalServerError, common.CodeAnalysisFailed)
}

// handleStatus returns the job snapshot: progress while processing, the
// full result once completed, the catalog message on error.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, common.CodeInvalidRequest)
		return
	}
	job, ok := s.registry.Get(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, common.CodeNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

// handleDelete clears the job record, its stored result and any temporary
// artifacts.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, common.CodeInvalidRequest)
		return
	}
	job, ok := s.registry.Get(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, common.CodeNotFound)
		return
	}
	if job.Result != nil {
		if err := s.results.Delete(r.Context(), job.Result.ID); err != nil && !errors.Is(err, common.ErrNotFound) {
			s.logger.Warn("server.result_delete_failed", "analysis_id", job.Result.ID, "error", err)
		}
	}
	s.temps.Cleanup(id)
	s.registry.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

// handleExport streams the completed job's analysis as an XLSX workbook.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, common.CodeInvalidRequest)
		return
	}
	job, ok := s.registry.Get(id)
	if !ok || job.Result == nil {
		s.writeError(w, http.StatusNotFound, common.CodeNotFound)
		return
	}

	blob, err := s.exporter.ExportAnalysisXLSX(r.Context(), job.Result.ID)
	if err != nil {
		s.logger.Error("server.export_failed", "analysis_id", job.Result.ID, "error", err)
		s.writeError(w, http.StatusInternalServerError, common.CodeAnalysisFailed)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="analisis-`+id.String()+`.xlsx"`)
	_, _ = w.Write(blob)
}

type serviceStatus struct {
	Status    string                      `json:"status"`
	UptimeSec int64                       `json:"uptime_seconds"`
	Jobs      map[constants.JobStatus]int `json:"jobs"`
	Time      time.Time                   `json:"time"`
}

func (s *Server) handleServiceStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, serviceStatus{
		Status:    "ok",
		UptimeSec: int64(time.Since(s.started).Seconds()),
		Jobs:      s.registry.Count(),
		Time:      time.Now().UTC(),
	})
}

func isPDF(fh *multipart.FileHeader) bool {
	if strings.HasSuffix(strings.ToLower(fh.Filename), ".pdf") {
		return true
	}
	ct := fh.Header.Get("Content-Type")
	return ct == "application/pdf"
}
