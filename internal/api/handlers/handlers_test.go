package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-clusters/internal/jobs"
	"github.com/dvloznov/finance-clusters/internal/som"
)

// MockPublisher is a mock implementation of jobs.Publisher for testing.
type MockPublisher struct {
	PublishClusteringFunc func(ctx context.Context, job *jobs.ClusteringJob) error
}

func (m *MockPublisher) PublishClustering(ctx context.Context, job *jobs.ClusteringJob) error {
	if m.PublishClusteringFunc != nil {
		return m.PublishClusteringFunc(ctx, job)
	}
	return nil
}

func (m *MockPublisher) Close() error { return nil }

// MockJobStore is a mock implementation of jobs.JobStore for testing.
type MockJobStore struct {
	GetJobFunc   func(ctx context.Context, jobID string) (*jobs.ClusteringJob, error)
	ListJobsFunc func(ctx context.Context, filter jobs.JobFilter) ([]*jobs.ClusteringJob, error)
}

func (m *MockJobStore) SaveJob(ctx context.Context, job *jobs.ClusteringJob) error { return nil }

func (m *MockJobStore) GetJob(ctx context.Context, jobID string) (*jobs.ClusteringJob, error) {
	return m.GetJobFunc(ctx, jobID)
}

func (m *MockJobStore) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.ClusteringJob, error) {
	return m.ListJobsFunc(ctx, filter)
}

func (m *MockJobStore) UpdateJobStatus(ctx context.Context, jobID string, status jobs.JobStatus, errorMsg string) error {
	return nil
}

func newMux(pub jobs.Publisher, store jobs.JobStore) *http.ServeMux {
	mux := http.NewServeMux()
	log := zerolog.Nop()
	Register(mux, NewClusteringsHandler(pub, som.DefaultConfig(), log), NewJobsHandler(store, log))
	return mux
}

func serve(mux http.Handler, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func TestCreateClustering(t *testing.T) {
	var published *jobs.ClusteringJob
	pub := &MockPublisher{PublishClusteringFunc: func(ctx context.Context, job *jobs.ClusteringJob) error {
		job.JobID = "job-1"
		job.Status = jobs.JobStatusPending
		job.RecordCount = len(job.Records)
		published = job
		return nil
	}}

	body := `{"records":[{"entity_id":"A","category":"600","amount":10},{"entity_id":"B","category":"700","amount":5}],
		"options":{"grid_size":2,"seed":7}}`
	rec := serve(newMux(pub, nil), http.MethodPost, "/api/clusterings", body)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"job_id":"job-1","status":"pending","record_count":2}`, rec.Body.String())

	require.NotNil(t, published)
	assert.Len(t, published.Records, 2)
	require.NotNil(t, published.Options.GridSize)
	assert.Equal(t, 2, *published.Options.GridSize)
	require.NotNil(t, published.Options.Seed)
	assert.Equal(t, int64(7), *published.Options.Seed)
}

func TestCreateClustering_BadRequests(t *testing.T) {
	pub := &MockPublisher{PublishClusteringFunc: func(ctx context.Context, job *jobs.ClusteringJob) error {
		t.Fatal("publisher must not be called")
		return nil
	}}
	mux := newMux(pub, nil)

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"records":`},
		{name: "no records", body: `{"records":[]}`},
		{name: "zero grid", body: `{"records":[{"entity_id":"A","category":"600","amount":1}],"options":{"grid_size":0}}`},
		{name: "bad mode", body: `{"records":[{"entity_id":"A","category":"600","amount":1}],"options":{"mode":"sideways"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(mux, http.MethodPost, "/api/clusterings", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreateClustering_PublishErrors(t *testing.T) {
	body := `{"records":[{"entity_id":"A","category":"600","amount":1}]}`

	closed := &MockPublisher{PublishClusteringFunc: func(ctx context.Context, job *jobs.ClusteringJob) error {
		return jobs.ErrQueueClosed
	}}
	rec := serve(newMux(closed, nil), http.MethodPost, "/api/clusterings", body)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	broken := &MockPublisher{PublishClusteringFunc: func(ctx context.Context, job *jobs.ClusteringJob) error {
		return errors.New("store down")
	}}
	rec = serve(newMux(broken, nil), http.MethodPost, "/api/clusterings", body)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCreateClustering_MethodNotAllowed(t *testing.T) {
	rec := serve(newMux(&MockPublisher{}, nil), http.MethodGet, "/api/clusterings", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestGetJob(t *testing.T) {
	store := &MockJobStore{GetJobFunc: func(ctx context.Context, jobID string) (*jobs.ClusteringJob, error) {
		switch jobID {
		case "job-1":
			return &jobs.ClusteringJob{JobID: "job-1", Status: jobs.JobStatusCompleted, Result: &jobs.JobResult{GridSize: 2}}, nil
		case "broken":
			return nil, errors.New("backend unavailable")
		}
		return nil, jobs.ErrJobNotFound
	}}
	mux := newMux(&MockPublisher{}, store)

	rec := serve(mux, http.MethodGet, "/api/jobs/job-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got jobs.ClusteringJob
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, jobs.JobStatusCompleted, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, 2, got.Result.GridSize)

	assert.Equal(t, http.StatusNotFound, serve(mux, http.MethodGet, "/api/jobs/nope", "").Code)
	assert.Equal(t, http.StatusInternalServerError, serve(mux, http.MethodGet, "/api/jobs/broken", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(mux, http.MethodGet, "/api/jobs/", "").Code)
}

func TestListJobs(t *testing.T) {
	var gotFilter jobs.JobFilter
	store := &MockJobStore{ListJobsFunc: func(ctx context.Context, filter jobs.JobFilter) ([]*jobs.ClusteringJob, error) {
		gotFilter = filter
		return []*jobs.ClusteringJob{{JobID: "a"}, {JobID: "b"}}, nil
	}}
	mux := newMux(&MockPublisher{}, store)

	rec := serve(mux, http.MethodGet, "/api/jobs?status=failed&limit=5&offset=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, jobs.JobFilter{Status: jobs.JobStatusFailed, Limit: 5, Offset: 2}, gotFilter)

	var body struct {
		Jobs  []jobs.ClusteringJob `json:"jobs"`
		Count int                  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)

	for _, q := range []string{"status=retrying", "limit=-1", "offset=x"} {
		t.Run(q, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, serve(mux, http.MethodGet, "/api/jobs?"+q, "").Code)
		})
	}
}
