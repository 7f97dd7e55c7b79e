package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/streamforge/transcoder/internal/models"
	"github.com/streamforge/transcoder/internal/transcode"
)

const defaultPageSize = 100

type memoryJobRepo struct {
	mu   sync.RWMutex
	jobs map[string]*models.TranscodeJob
}

// NewMemoryJobRepo returns the in-process job registry used when no external
// job store is configured.
func NewMemoryJobRepo() transcode.JobRepository {
	return &memoryJobRepo{
		jobs: make(map[string]*models.TranscodeJob),
	}
}

func (r *memoryJobRepo) Save(ctx context.Context, job *models.TranscodeJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.JobID] = job
	return nil
}

func (r *memoryJobRepo) FindByID(ctx context.Context, jobID string) (*models.TranscodeJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, transcode.ErrJobNotFound
	}
	return job, nil
}

func (r *memoryJobRepo) FindByVideoID(ctx context.Context, videoID string) ([]*models.TranscodeJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var jobs []*models.TranscodeJob
	for _, job := range r.jobs {
		if job.VideoID == videoID {
			jobs = append(jobs, job)
		}
	}
	sortByCreatedAt(jobs)
	return jobs, nil
}

func (r *memoryJobRepo) List(ctx context.Context, filter transcode.JobFilter) ([]*models.TranscodeJob, error) {
	r.mu.RLock()
	matched := make([]*models.TranscodeJob, 0, len(r.jobs))
	for _, job := range r.jobs {
		if matchesFilter(job, filter) {
			matched = append(matched, job)
		}
	}
	r.mu.RUnlock()

	sortByCreatedAt(matched)
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *memoryJobRepo) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs), nil
}

func (r *memoryJobRepo) DeleteByID(ctx context.Context, jobID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[jobID]; !ok {
		return transcode.ErrJobNotFound
	}
	delete(r.jobs, jobID)
	return nil
}

func matchesFilter(job *models.TranscodeJob, filter transcode.JobFilter) bool {
	if filter.PageToken != "" && job.JobID <= filter.PageToken {
		return false
	}
	if len(filter.Statuses) == 0 {
		return true
	}
	for _, s := range filter.Statuses {
		if job.Status == s {
			return true
		}
	}
	return false
}

func sortByCreatedAt(jobs []*models.TranscodeJob) {
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].JobID < jobs[j].JobID
		}
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})
}
