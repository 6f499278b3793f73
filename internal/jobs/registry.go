// Package jobs tracks background analysis runs. The registry is the only
// shared mutable state between the pipeline goroutine and the polling
// handlers; every access goes through the mutex.
package jobs

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tenders-cl/budget-analyzer/constants"
	"github.com/tenders-cl/budget-analyzer/internal/common"
	"github.com/tenders-cl/budget-analyzer/internal/entity"
)

// Job is a snapshot of one background run. Result is set only once the
// status is completed.
type Job struct {
	ID        uuid.UUID             `json:"job_id"`
	Status    constants.JobStatus   `json:"status"`
	Progress  int                   `json:"progress"` // percent, monotonically increasing
	Message   string                `json:"message,omitempty"`
	ErrorCode string                `json:"error_code,omitempty"`
	Result    *entity.FinalAnalysis `json:"result,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

type Registry struct {
	mu     sync.Mutex
	jobs   map[uuid.UUID]*Job
	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{jobs: make(map[uuid.UUID]*Job), logger: logger}
}

// Create registers a new processing job and returns its id.
func (r *Registry) Create() uuid.UUID {
	id := uuid.New()
	now := time.Now()
	r.mu.Lock()
	r.jobs[id] = &Job{
		ID:        id,
		Status:    constants.JobStatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.mu.Unlock()
	r.logger.Info("jobs.created", "job_id", id)
	return id
}

// SetProgress advances the progress indicator. Regressions are ignored; the
// indicator only moves forward.
func (r *Registry) SetProgress(id uuid.UUID, progress int, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok || j.Status != constants.JobStatusProcessing {
		return
	}
	if progress > j.Progress {
		j.Progress = progress
	}
	j.Message = message
	j.UpdatedAt = time.Now()
}

// Complete transitions the job to completed and attaches the result.
func (r *Registry) Complete(id uuid.UUID, result entity.FinalAnalysis) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return
	}
	j.Status = constants.JobStatusCompleted
	j.Progress = 100
	j.Message = ""
	j.Result = &result
	j.UpdatedAt = time.Now()
	r.logger.Info("jobs.completed", "job_id", id, "analysis_id", result.ID)
}

// Fail transitions the job to the error state with a catalog message.
func (r *Registry) Fail(id uuid.UUID, code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return
	}
	j.Status = constants.JobStatusError
	j.ErrorCode = code
	j.Message = common.UserMessage(code)
	j.UpdatedAt = time.Now()
	r.logger.Warn("jobs.failed", "job_id", id, "code", code)
}

// Get returns a copy of the job snapshot.
func (r *Registry) Get(id uuid.UUID) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

// Delete removes the job record entirely.
func (r *Registry) Delete(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[id]; !ok {
		return false
	}
	delete(r.jobs, id)
	return true
}

// Count reports jobs per status, for the service status endpoint.
func (r *Registry) Count() map[constants.JobStatus]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[constants.JobStatus]int)
	for _, j := range r.jobs {
		counts[j.Status]++
	}
	return counts
}
