package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/finance-clusters/internal/jobs"
	"github.com/dvloznov/finance-clusters/internal/logger"
)

// errQueueStopped is recorded on jobs that were still queued at Stop.
const errQueueStopped = "queue stopped before the job started"

// Queue is an in-memory implementation of job publisher and consumer.
// It uses Go channels for job distribution and is safe for concurrent use.
// This implementation is suitable for single-instance deployments and testing.
type Queue struct {
	jobChan   chan *jobs.ClusteringJob
	closeChan chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
	mu        sync.RWMutex
	store     jobs.JobStore
	workers   int
	closed    bool
	started   bool
}

// NewQueue creates a new in-memory job queue.
// bufferSize determines how many jobs can be queued before PublishClustering
// blocks; workers is the number of jobs processed concurrently.
func NewQueue(bufferSize, workers int, store jobs.JobStore) *Queue {
	if workers < 1 {
		workers = 1
	}
	return &Queue{
		jobChan:   make(chan *jobs.ClusteringJob, bufferSize),
		closeChan: make(chan struct{}),
		store:     store,
		workers:   workers,
	}
}

// PublishClustering implements the Publisher interface.
// It enqueues a clustering job for asynchronous processing.
func (q *Queue) PublishClustering(ctx context.Context, job *jobs.ClusteringJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return jobs.ErrQueueClosed
	}

	// Generate job ID if not provided
	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}

	// Set initial status and timestamp
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	job.RecordCount = len(job.Records)

	// Save job to store
	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("PublishClustering: failed to save job: %w", err)
		}
	}

	// Enqueue a private copy with context cancellation support
	select {
	case q.jobChan <- job.Clone():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return jobs.ErrQueueClosed
	}
}

// Start implements the Consumer interface.
// It starts the configured number of workers, each calling handler for the
// jobs it receives.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return jobs.ErrQueueClosed
	}
	if q.started {
		return fmt.Errorf("Start: queue already started")
	}
	q.started = true

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}

	return nil
}

// worker processes jobs from the queue.
func (q *Queue) worker(ctx context.Context, handler jobs.JobHandler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.jobChan:
			if job == nil {
				return
			}

			q.processJob(ctx, job, handler)
		}
	}
}

// processJob executes a single job and records the outcome. There is no
// retry: a clustering failure repeats for the same input.
func (q *Queue) processJob(ctx context.Context, job *jobs.ClusteringJob, handler jobs.JobHandler) {
	log := logger.FromContext(ctx).With().Str("job_id", job.JobID).Logger()
	ctx = logger.WithContext(ctx, log)

	job.Status = jobs.JobStatusRunning
	now := time.Now()
	job.StartedAt = &now
	q.save(ctx, job)

	result, err := q.run(ctx, job, handler)

	completedAt := time.Now()
	job.CompletedAt = &completedAt

	if err != nil {
		job.Status = jobs.JobStatusFailed
		job.Error = err.Error()
		log.Warn().Err(err).Msg("Job failed")
	} else {
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
		job.Result = result
		log.Info().Dur("elapsed", completedAt.Sub(now)).Msg("Job completed")
	}

	q.save(ctx, job)
}

// run calls handler, turning a panic into a job failure.
func (q *Queue) run(ctx context.Context, job *jobs.ClusteringJob, handler jobs.JobHandler) (result *jobs.JobResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return handler(ctx, job)
}

func (q *Queue) save(ctx context.Context, job *jobs.ClusteringJob) {
	if q.store == nil {
		return
	}
	if err := q.store.SaveJob(ctx, job); err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Failed to save job state")
	}
}

// Stop implements the Consumer interface.
// It stops the queue, waits for all in-flight jobs to complete and marks
// jobs still waiting in the buffer as failed.
func (q *Queue) Stop(ctx context.Context) error {
	// Closing first releases publishers blocked on a full buffer, so the
	// write lock below cannot wait on them forever.
	q.closeOnce.Do(func() { close(q.closeChan) })

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	q.mu.Unlock()

	// Wait for workers to finish with timeout
	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	q.drain(ctx)
	return err
}

// drain fails every job left in the buffer. It runs after Stop has marked
// the queue closed under the write lock, so nothing is sent afterwards.
func (q *Queue) drain(ctx context.Context) {
	for {
		select {
		case job := <-q.jobChan:
			if job == nil {
				continue
			}
			completedAt := time.Now()
			job.Status = jobs.JobStatusFailed
			job.Error = errQueueStopped
			job.CompletedAt = &completedAt
			q.save(context.WithoutCancel(ctx), job)
		default:
			return
		}
	}
}

// Close implements the Publisher interface.
// It closes the queue and releases resources.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

// Ensure Queue implements both Publisher and Consumer interfaces.
var _ jobs.Publisher = (*Queue)(nil)
var _ jobs.Consumer = (*Queue)(nil)
