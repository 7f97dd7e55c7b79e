package transcode

import (
	"context"
	"errors"

	"github.com/streamforge/transcoder/internal/models"
)

// ErrJobNotFound is returned by registry lookups for unknown job ids.
var ErrJobNotFound = errors.New("job not found")

// JobFilter selects jobs for a listing page. A limit of zero or less means the
// default page size of 100. An empty status set matches every status. The page
// token excludes jobs whose id is not lexicographically greater than it.
type JobFilter struct {
	Limit     int
	Statuses  []models.JobStatus
	PageToken string
}

// JobRepository is the job registry. Writers hand it immutable snapshots;
// Save upserts by job id.
type JobRepository interface {
	Save(ctx context.Context, job *models.TranscodeJob) error
	FindByID(ctx context.Context, jobID string) (*models.TranscodeJob, error)
	FindByVideoID(ctx context.Context, videoID string) ([]*models.TranscodeJob, error)
	List(ctx context.Context, filter JobFilter) ([]*models.TranscodeJob, error)
	Count(ctx context.Context) (int, error)
	DeleteByID(ctx context.Context, jobID string) error
}
