package repository

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/streamforge/transcoder/internal/models"
	"github.com/streamforge/transcoder/internal/transcode"
)

const jobsHashKey = "transcoder:jobs"

type jobRedisRepo struct {
	redisClient *redis.Client
}

// NewJobRedisRepo returns a registry persisting job snapshots as JSON values
// in a single Redis hash keyed by job id.
func NewJobRedisRepo(redisClient *redis.Client) transcode.JobRepository {
	return &jobRedisRepo{
		redisClient: redisClient,
	}
}

func (r *jobRedisRepo) Save(ctx context.Context, job *models.TranscodeJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return errors.Wrap(err, "jobRedisRepo.Save.Marshal")
	}
	if err := r.redisClient.HSet(ctx, jobsHashKey, job.JobID, data).Err(); err != nil {
		return errors.Wrap(err, "jobRedisRepo.Save.HSet")
	}
	return nil
}

func (r *jobRedisRepo) FindByID(ctx context.Context, jobID string) (*models.TranscodeJob, error) {
	data, err := r.redisClient.HGet(ctx, jobsHashKey, jobID).Result()
	if err == redis.Nil {
		return nil, transcode.ErrJobNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "jobRedisRepo.FindByID.HGet")
	}
	job := &models.TranscodeJob{}
	if err := json.Unmarshal([]byte(data), job); err != nil {
		return nil, errors.Wrap(err, "jobRedisRepo.FindByID.Unmarshal")
	}
	return job, nil
}

func (r *jobRedisRepo) FindByVideoID(ctx context.Context, videoID string) ([]*models.TranscodeJob, error) {
	all, err := r.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	jobs := all[:0]
	for _, job := range all {
		if job.VideoID == videoID {
			jobs = append(jobs, job)
		}
	}
	sortByCreatedAt(jobs)
	return jobs, nil
}

func (r *jobRedisRepo) List(ctx context.Context, filter transcode.JobFilter) ([]*models.TranscodeJob, error) {
	all, err := r.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]*models.TranscodeJob, 0, len(all))
	for _, job := range all {
		if matchesFilter(job, filter) {
			matched = append(matched, job)
		}
	}
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

func (r *jobRedisRepo) Count(ctx context.Context) (int, error) {
	n, err := r.redisClient.HLen(ctx, jobsHashKey).Result()
	if err != nil {
		return 0, errors.Wrap(err, "jobRedisRepo.Count.HLen")
	}
	return int(n), nil
}

func (r *jobRedisRepo) DeleteByID(ctx context.Context, jobID string) error {
	n, err := r.redisClient.HDel(ctx, jobsHashKey, jobID).Result()
	if err != nil {
		return errors.Wrap(err, "jobRedisRepo.DeleteByID.HDel")
	}
	if n == 0 {
		return transcode.ErrJobNotFound
	}
	return nil
}

func (r *jobRedisRepo) loadAll(ctx context.Context) ([]*models.TranscodeJob, error) {
	values, err := r.redisClient.HGetAll(ctx, jobsHashKey).Result()
	if err != nil {
		return nil, errors.Wrap(err, "jobRedisRepo.loadAll.HGetAll")
	}
	jobs := make([]*models.TranscodeJob, 0, len(values))
	for _, data := range values {
		job := &models.TranscodeJob{}
		if err := json.Unmarshal([]byte(data), job); err != nil {
			return nil, errors.Wrap(err, "jobRedisRepo.loadAll.Unmarshal")
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
