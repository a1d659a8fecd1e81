package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-clusters/internal/api/middleware"
	"github.com/dvloznov/finance-clusters/internal/domain"
	"github.com/dvloznov/finance-clusters/internal/jobs"
	"github.com/dvloznov/finance-clusters/internal/som"
)

// maxRequestBytes bounds the body of a clustering request.
const maxRequestBytes = 32 << 20

// ClusteringsHandler accepts clustering requests and queues them as jobs.
type ClusteringsHandler struct {
	publisher jobs.Publisher
	base      som.Config
	log       zerolog.Logger
}

// NewClusteringsHandler creates a new clusterings handler. base is the map
// configuration job options are applied to.
func NewClusteringsHandler(publisher jobs.Publisher, base som.Config, log zerolog.Logger) *ClusteringsHandler {
	return &ClusteringsHandler{
		publisher: publisher,
		base:      base,
		log:       log,
	}
}

// CreateClustering handles POST /api/clusterings
func (h *ClusteringsHandler) CreateClustering(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Records []domain.TransactionRecord `json:"records"`
		Options jobs.JobOptions            `json:"options"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.Records) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "records are required")
		return
	}

	if err := req.Options.Validate(h.base); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()

	job := &jobs.ClusteringJob{
		Records: req.Records,
		Options: req.Options,
	}

	if err := h.publisher.PublishClustering(ctx, job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue clustering job")
		if errors.Is(err, jobs.ErrQueueClosed) {
			middleware.WriteError(w, http.StatusServiceUnavailable, "Job queue is shutting down")
			return
		}
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue clustering job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Int("records", job.RecordCount).Msg("Clustering job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":       job.JobID,
		"status":       string(job.Status),
		"record_count": job.RecordCount,
	})
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Job not found")
			return
		}
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Parse query parameters
	query := r.URL.Query()
	filter := jobs.JobFilter{
		Status: jobs.JobStatus(query.Get("status")),
	}

	if filter.Status != "" && !filter.Status.Valid() {
		middleware.WriteError(w, http.StatusBadRequest, "Unknown job status")
		return
	}

	var ok bool
	if filter.Limit, ok = nonNegative(query.Get("limit")); !ok {
		middleware.WriteError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	if filter.Offset, ok = nonNegative(query.Get("offset")); !ok {
		middleware.WriteError(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}

// nonNegative parses an optional query value; "" is 0.
func nonNegative(s string) (int, bool) {
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Register mounts the clustering and job endpoints on mux.
func Register(mux *http.ServeMux, clusterings *ClusteringsHandler, jobsHandler *JobsHandler) {
	mux.HandleFunc("/api/clusterings", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			clusterings.CreateClustering(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			// Extract job ID from path
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})
}
