// Package jobs defines asynchronous clustering jobs and the queue and store
// abstractions that run and track them.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/finance-clusters/internal/cluster"
	"github.com/dvloznov/finance-clusters/internal/domain"
	"github.com/dvloznov/finance-clusters/internal/pipeline"
)

// ErrJobNotFound is returned by stores for unknown job IDs.
var ErrJobNotFound = errors.New("jobs: job not found")

// ErrQueueClosed is returned when publishing to or starting a stopped queue.
var ErrQueueClosed = errors.New("jobs: queue is closed")

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeCluster represents a clustering run over submitted records.
	JobTypeCluster JobType = "cluster"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed. Clustering failures are
	// deterministic, so failed jobs are not retried.
	JobStatusFailed JobStatus = "failed"
)

// Valid reports whether s is a known status.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusRunning, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// JobOptions overrides the server's map configuration for one job.
type JobOptions struct {
	GridSize          *int     `json:"grid_size,omitempty"`
	Iterations        *int     `json:"iterations,omitempty"`
	Seed              *int64   `json:"seed,omitempty"`
	Mode              string   `json:"mode,omitempty"`
	AllowedCategories []string `json:"allowed_categories,omitempty"`
}

// JobResult is what a completed job reports.
type JobResult struct {
	RunID    string            `json:"run_id"`
	Seed     *int64            `json:"seed,omitempty"`
	GridSize int               `json:"grid_size"`
	Entities []string          `json:"entities"`
	Clusters []cluster.Summary `json:"clusters"`
	Quality  *pipeline.Quality `json:"quality,omitempty"`
}

// ClusteringJob represents a request to cluster a set of records.
type ClusteringJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// Records are the input. They are never modified after submission.
	Records []domain.TransactionRecord `json:"-"`

	// RecordCount is len(Records), kept for listings.
	RecordCount int `json:"record_count"`

	Options JobOptions `json:"options"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	// CreatedAt is when the job was created.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when the job started processing.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the job completed (success or failure).
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	Result *JobResult `json:"result,omitempty"`
}

// Job is a generic interface for all job types.
type Job interface {
	// GetID returns the unique job identifier.
	GetID() string

	// GetType returns the job type.
	GetType() JobType

	// GetStatus returns the current job status.
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *ClusteringJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *ClusteringJob) GetType() JobType {
	return JobTypeCluster
}

// GetStatus implements the Job interface.
func (j *ClusteringJob) GetStatus() JobStatus {
	return j.Status
}

// Clone returns a copy that shares only the immutable Records and Result.
func (j *ClusteringJob) Clone() *ClusteringJob {
	c := *j
	if j.StartedAt != nil {
		t := *j.StartedAt
		c.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// Publisher defines the interface for publishing jobs to a queue.
type Publisher interface {
	// PublishClustering enqueues a clustering job.
	PublishClustering(ctx context.Context, job *ClusteringJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes a job and returns its result.
type JobHandler func(ctx context.Context, job *ClusteringJob) (*JobResult, error)

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *ClusteringJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*ClusteringJob, error)

	// ListJobs retrieves jobs with optional filtering, oldest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*ClusteringJob, error)

	// UpdateJobStatus updates the status of a job.
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
