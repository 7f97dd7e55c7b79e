package transcode

import (
	"context"

	"github.com/streamforge/transcoder/internal/models"
)

// UseCase is the transcode manager: it creates jobs, schedules them onto the
// worker pool and answers status queries.
type UseCase interface {
	// CreateJob locates the staged source, probes it, registers a queued job
	// and hands it to the worker pool. A probe or lookup failure returns an
	// error and registers nothing.
	CreateJob(ctx context.Context, input *models.TranscodeInput) (*models.TranscodeResponse, error)

	// Cancel attempts to cancel the job. Jobs already in a terminal state, and
	// unknown ids, are refused.
	Cancel(ctx context.Context, jobID string) *models.CancelResponse

	// GetJobStatus returns the job's current snapshot, or a response with
	// status unknown for unknown ids.
	GetJobStatus(ctx context.Context, jobID string) *models.JobStatusResponse

	// StreamJobStatus subscribes to the job's status updates. The returned
	// channel first carries the current snapshot, then one entry per observed
	// change with intermediate updates coalesced, and is closed once the job
	// reaches a terminal status or ctx is cancelled.
	StreamJobStatus(ctx context.Context, jobID string) (<-chan *models.JobStatusResponse, error)

	// ListJobs returns one page of jobs plus the continuation token and the
	// total registry size.
	ListJobs(ctx context.Context, limit int, statusFilter []models.JobStatus, pageToken string) (*models.ListJobsResponse, error)

	// Run starts the worker pool; Stop drains it. Jobs still queued at Stop
	// time stay queued.
	Run()
	Stop()
}
