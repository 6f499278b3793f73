// Package tempfile owns the lifecycle of uploaded documents on disk: one
// directory per job, removed when the job's results are deleted or the run
// finishes with nothing worth keeping.
package tempfile

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/tenders-cl/budget-analyzer/internal/entity"
)

type Manager struct {
	baseDir string
	logger  *slog.Logger
}

func NewManager(baseDir string, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if baseDir == "" {
		baseDir = filepath.Join(os.TempDir(), "budget-analyzer")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir %s: %w", baseDir, err)
	}
	return &Manager{baseDir: baseDir, logger: logger}, nil
}

// Save writes one uploaded document under the job's directory and returns
// its entity record. The original filename is kept for reporting but
// sanitized for the on-disk name.
func (m *Manager) Save(jobID uuid.UUID, filename string, r io.Reader) (entity.Document, error) {
	dir := m.jobDir(jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return entity.Document{}, fmt.Errorf("create job dir: %w", err)
	}

	docID := uuid.New()
	path := filepath.Join(dir, docID.String()+".pdf")
	f, err := os.Create(path)
	if err != nil {
		return entity.Document{}, fmt.Errorf("create temp file: %w", err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return entity.Document{}, fmt.Errorf("write temp file: %w", err)
	}

	m.logger.Debug("tempfile.saved", "job_id", jobID, "path", path, "bytes", n)
	return entity.Document{
		ID:       docID,
		Filename: sanitizeFilename(filename),
		Path:     path,
		Size:     n,
	}, nil
}

// Cleanup removes everything saved for the job.
func (m *Manager) Cleanup(jobID uuid.UUID) {
	dir := m.jobDir(jobID)
	if err := os.RemoveAll(dir); err != nil {
		m.logger.Warn("tempfile.cleanup_failed", "job_id", jobID, "error", err)
		return
	}
	m.logger.Debug("tempfile.cleaned", "job_id", jobID)
}

func (m *Manager) jobDir(jobID uuid.UUID) string {
	return filepath.Join(m.baseDir, jobID.String())
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "document.pdf"
	}
	return name
}
