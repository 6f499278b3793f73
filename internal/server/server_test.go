package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenders-cl/budget-analyzer/constants"
	"github.com/tenders-cl/budget-analyzer/internal/common"
	"github.com/tenders-cl/budget-analyzer/internal/entity"
	"github.com/tenders-cl/budget-analyzer/internal/export"
	"github.com/tenders-cl/budget-analyzer/internal/jobs"
	"github.com/tenders-cl/budget-analyzer/internal/store"
	"github.com/tenders-cl/budget-analyzer/internal/tempfile"
)

type recordingRunner struct {
	mu   sync.Mutex
	runs []struct {
		jobID uuid.UUID
		docs  []entity.Document
	}
	done chan struct{}
}

func (r *recordingRunner) Process(ctx context.Context, jobID uuid.UUID, docs []entity.Document) {
	r.mu.Lock()
	r.runs = append(r.runs, struct {
		jobID uuid.UUID
		docs  []entity.Document
	}{jobID, docs})
	r.mu.Unlock()
	if r.done != nil {
		r.done <- struct{}{}
	}
}

func newTestServer(t *testing.T, runner Runner) (*Server, *jobs.Registry, *store.ResultStore) {
	t.Helper()
	registry := jobs.NewRegistry(nil)
	results, err := store.Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = results.Close() })
	temps, err := tempfile.NewManager(t.TempDir(), nil)
	require.NoError(t, err)

	cfg := common.ServerConfig{MaxFileSize: 1 << 20, MaxBatchFiles: 3}
	return New(registry, runner, results, export.NewService(results, nil), temps, cfg, nil), registry, results
}

func multipartBody(t *testing.T, field string, filenames ...string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range filenames {
		fw, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = fw.Write([]byte("%PDF-1.4 contenido"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestSubmitSchedulesJob(t *testing.T) {
	runner := &recordingRunner{done: make(chan struct{}, 1)}
	srv, registry, _ := newTestServer(t, runner)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	body, ctype := multipartBody(t, "file", "presupuesto.pdf")
	resp, err := http.Post(ts.URL+"/api/budget-analysis/pdf", ctype, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var sub submitResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sub))
	assert.NotEqual(t, uuid.Nil, sub.JobID)

	select {
	case <-runner.done:
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline was never scheduled")
	}
	runner.mu.Lock()
	defer runner.mu.Unlock()
	require.Len(t, runner.runs, 1)
	assert.Equal(t, sub.JobID, runner.runs[0].jobID)
	require.Len(t, runner.runs[0].docs, 1)
	assert.Equal(t, "presupuesto.pdf", runner.runs[0].docs[0].Filename)

	_, ok := registry.Get(sub.JobID)
	assert.True(t, ok)
}

func TestSubmitRejectsNonPDF(t *testing.T) {
	srv, _, _ := newTestServer(t, &recordingRunner{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	body, ctype := multipartBody(t, "file", "notas.txt")
	resp, err := http.Post(ts.URL+"/api/budget-analysis/pdf", ctype, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var er errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&er))
	assert.Equal(t, common.CodeInvalidRequest, er.ErrorCode)
	assert.NotEmpty(t, er.Message)
}

func TestSubmitBatchRespectsLimit(t *testing.T) {
	srv, _, _ := newTestServer(t, &recordingRunner{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	body, ctype := multipartBody(t, "files", "a.pdf", "b.pdf", "c.pdf", "d.pdf")
	resp, err := http.Post(ts.URL+"/api/budget-analysis/pdf/multiple", ctype, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatusLifecycle(t *testing.T) {
	srv, registry, _ := newTestServer(t, &recordingRunner{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	id := registry.Create()
	registry.SetProgress(id, 40, "extrayendo contenido")

	resp, err := http.Get(ts.URL + "/api/budget-analysis/pdf/" + id.String())
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var job jobs.Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&job))
	assert.Equal(t, constants.JobStatusProcessing, job.Status)
	assert.Equal(t, 40, job.Progress)

	resp2, err := http.Get(ts.URL + "/api/budget-analysis/pdf/" + uuid.NewString())
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestDeleteClearsEverything(t *testing.T) {
	srv, registry, results := newTestServer(t, &recordingRunner{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	analysis := entity.FinalAnalysis{ID: uuid.New()}
	require.NoError(t, results.Save(context.Background(), analysis))
	id := registry.Create()
	registry.Complete(id, analysis)

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/budget-analysis/pdf/"+id.String(), nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, ok := registry.Get(id)
	assert.False(t, ok)
	_, err = results.Load(context.Background(), analysis.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestExportCompletedJob(t *testing.T) {
	srv, registry, results := newTestServer(t, &recordingRunner{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	analysis := entity.FinalAnalysis{
		ID:    uuid.New(),
		Items: []entity.CanonicalLineItem{{Code: "7.301.1", Quantity: 1, UnitPrice: 100, Subtotal: 100}},
	}
	require.NoError(t, results.Save(context.Background(), analysis))
	id := registry.Create()
	registry.Complete(id, analysis)

	resp, err := http.Get(ts.URL + "/api/budget-analysis/pdf/" + id.String() + "/export")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "spreadsheetml")
}

func TestExportProcessingJobIsNotFound(t *testing.T) {
	srv, registry, _ := newTestServer(t, &recordingRunner{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	id := registry.Create()
	resp, err := http.Get(ts.URL + "/api/budget-analysis/pdf/" + id.String() + "/export")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServiceStatus(t *testing.T) {
	srv, registry, _ := newTestServer(t, &recordingRunner{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	registry.Create()
	resp, err := http.Get(ts.URL + "/api/budget-analysis/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status struct {
		Status string                      `json:"status"`
		Jobs   map[constants.JobStatus]int `json:"jobs"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, 1, status.Jobs[constants.JobStatusProcessing])
}
