package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"chatbridge/internal/interfaces"
)

// LogPollInterval is how often a log stream drains the job's queue.
const LogPollInterval = 100 * time.Millisecond

// JobHandler starts pipelines and reports on them.
type JobHandler struct {
	jobs interfaces.JobService
}

func NewJobHandler(jobs interfaces.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// StartJob godoc
// @Summary      Start a job
// @Description  Starts a conversation migration, a preset export or a backup in the background. Only one job runs at a time.
// @Tags         Jobs
// @Produce      json
// @Param        kind  path      string  true  "Job kind"  Enums(conversations, presets, backup)
// @Success      202   {object}  jobs.Snapshot
// @Failure      400   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Router       /v1/jobs/{kind} [post]
func (h *JobHandler) StartJob(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	snap, err := h.jobs.Start(r.Context(), kind)
	if err != nil {
		respondWithError(w, err)
		return
	}
	slog.Info("Job started via API", "job_id", snap.ID, "kind", snap.Kind)
	respondWithJSON(w, http.StatusAccepted, snap)
}

// GetJob godoc
// @Summary      Get a job
// @Description  Returns the status, counters and error of a job.
// @Tags         Jobs
// @Produce      json
// @Param        jobID  path      string  true  "Job ID"
// @Success      200    {object}  jobs.Snapshot
// @Failure      404    {object}  ErrorResponse
// @Router       /v1/jobs/{jobID} [get]
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	snap, err := h.jobs.Get(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, snap)
}

// StreamJobLogs godoc
// @Summary      Stream job logs
// @Description  Streams the log lines of a job until it ends. The last event carries the final job snapshot. Lines are delivered to one consumer only.
// @Tags         Jobs
// @Produce      text/event-stream
// @Param        jobID  path      string  true  "Job ID"
// @Success      200    {object}  LogEvent  "Stream of log events"
// @Failure      404    {object}  ErrorResponse
// @Router       /v1/jobs/{jobID}/logs [get]
func (h *JobHandler) StreamJobLogs(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	queue, err := h.jobs.Logs(r.Context(), jobID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(LogPollInterval)
	defer ticker.Stop()

	for {
		lines, done := queue.Drain(0)
		for _, line := range lines {
			if err := writeStreamEvent(w, LogEvent{Line: line}); err != nil {
				slog.Warn("Could not write to log stream, client likely disconnected.", "job_id", jobID, "error", err)
				return
			}
		}

		if done {
			snap, err := h.jobs.Get(r.Context(), jobID)
			if err != nil {
				sendStreamError(w, "Job is no longer available")
				return
			}
			if err := writeStreamEvent(w, LogEvent{Done: true, Job: &snap}); err != nil {
				slog.Warn("Could not write final log event", "job_id", jobID, "error", err)
			}
			slog.Info("Finished streaming job logs.", "job_id", jobID)
			return
		}

		select {
		case <-r.Context().Done():
			slog.Info("Client disconnected from log stream.", "job_id", jobID)
			return
		case <-ticker.C:
		}
	}
}
