package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/streamforge/transcoder/internal/models"
	"github.com/streamforge/transcoder/internal/transcode"
)

type jobPGRepo struct {
	db *sqlx.DB
}

// NewJobPGRepo returns a registry persisting job snapshots in Postgres with
// the structured fields stored as JSONB.
func NewJobPGRepo(db *sqlx.DB) transcode.JobRepository {
	return &jobPGRepo{
		db: db,
	}
}

// jobRow mirrors the transcode_jobs table; the JSONB columns are decoded
// separately.
type jobRow struct {
	JobID                  string    `db:"job_id"`
	VideoID                string    `db:"video_id"`
	InputPath              string    `db:"input_path"`
	OutputDir              string    `db:"output_dir"`
	OutputFormats          []byte    `db:"output_formats"`
	OutputContainer        string    `db:"output_container"`
	Options                []byte    `db:"options"`
	Status                 string    `db:"status"`
	ErrorMessage           string    `db:"error_message"`
	Metadata               []byte    `db:"metadata"`
	CreatedAt              time.Time `db:"created_at"`
	StartedAt              time.Time `db:"started_at"`
	CompletedAt            time.Time `db:"completed_at"`
	Progress               int       `db:"progress"`
	CurrentStage           string    `db:"current_stage"`
	OutputFiles            []byte    `db:"output_files"`
	EstimatedTimeRemaining int       `db:"estimated_time_remaining"`
}

func (r *jobPGRepo) Save(ctx context.Context, job *models.TranscodeJob) error {
	formats, err := json.Marshal(job.OutputFormats)
	if err != nil {
		return errors.Wrap(err, "jobPGRepo.Save.Marshal")
	}
	options, err := json.Marshal(job.Options)
	if err != nil {
		return errors.Wrap(err, "jobPGRepo.Save.Marshal")
	}
	metadata, err := json.Marshal(job.Metadata)
	if err != nil {
		return errors.Wrap(err, "jobPGRepo.Save.Marshal")
	}
	outputs, err := json.Marshal(job.OutputFiles)
	if err != nil {
		return errors.Wrap(err, "jobPGRepo.Save.Marshal")
	}

	if _, err := r.db.ExecContext(
		ctx,
		upsertJobQuery,
		job.JobID,
		job.VideoID,
		job.InputPath,
		job.OutputDir,
		formats,
		job.OutputContainer,
		options,
		string(job.Status),
		job.ErrorMessage,
		metadata,
		job.CreatedAt,
		job.StartedAt,
		job.CompletedAt,
		job.Progress,
		job.CurrentStage,
		outputs,
		job.EstimatedTimeRemaining,
	); err != nil {
		return errors.Wrap(err, "jobPGRepo.Save.Exec")
	}
	return nil
}

func (r *jobPGRepo) FindByID(ctx context.Context, jobID string) (*models.TranscodeJob, error) {
	row := &jobRow{}
	if err := r.db.GetContext(ctx, row, getJobByIDQuery, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transcode.ErrJobNotFound
		}
		return nil, errors.Wrap(err, "jobPGRepo.FindByID.Get")
	}
	return rowToJob(row)
}

func (r *jobPGRepo) FindByVideoID(ctx context.Context, videoID string) ([]*models.TranscodeJob, error) {
	rows := []*jobRow{}
	if err := r.db.SelectContext(ctx, &rows, getJobsByVideoQuery, videoID); err != nil {
		return nil, errors.Wrap(err, "jobPGRepo.FindByVideoID.Select")
	}
	return rowsToJobs(rows)
}

func (r *jobPGRepo) List(ctx context.Context, filter transcode.JobFilter) ([]*models.TranscodeJob, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	query := listJobsQueryPrefix
	args := []interface{}{filter.PageToken}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		query += listJobsStatusClause
		args = append(args, statuses)
	}
	query += listJobsQuerySuffix
	args = append(args, limit)

	query, inArgs, err := sqlx.In(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "jobPGRepo.List.In")
	}
	rows := []*jobRow{}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), inArgs...); err != nil {
		return nil, errors.Wrap(err, "jobPGRepo.List.Select")
	}
	return rowsToJobs(rows)
}

func (r *jobPGRepo) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, getTotalJobsQuery); err != nil {
		return 0, errors.Wrap(err, "jobPGRepo.Count.Get")
	}
	return total, nil
}

func (r *jobPGRepo) DeleteByID(ctx context.Context, jobID string) error {
	res, err := r.db.ExecContext(ctx, deleteJobQuery, jobID)
	if err != nil {
		return errors.Wrap(err, "jobPGRepo.DeleteByID.Exec")
	}
	if count, _ := res.RowsAffected(); count == 0 {
		return transcode.ErrJobNotFound
	}
	return nil
}

func rowToJob(row *jobRow) (*models.TranscodeJob, error) {
	job := &models.TranscodeJob{
		JobID:                  row.JobID,
		VideoID:                row.VideoID,
		InputPath:              row.InputPath,
		OutputDir:              row.OutputDir,
		OutputContainer:        row.OutputContainer,
		Status:                 models.JobStatus(row.Status),
		ErrorMessage:           row.ErrorMessage,
		CreatedAt:              row.CreatedAt,
		StartedAt:              row.StartedAt,
		CompletedAt:            row.CompletedAt,
		Progress:               row.Progress,
		CurrentStage:           row.CurrentStage,
		EstimatedTimeRemaining: row.EstimatedTimeRemaining,
	}
	if err := json.Unmarshal(row.OutputFormats, &job.OutputFormats); err != nil {
		return nil, errors.Wrap(err, "jobPGRepo.rowToJob.OutputFormats")
	}
	if err := json.Unmarshal(row.Options, &job.Options); err != nil {
		return nil, errors.Wrap(err, "jobPGRepo.rowToJob.Options")
	}
	if err := json.Unmarshal(row.Metadata, &job.Metadata); err != nil {
		return nil, errors.Wrap(err, "jobPGRepo.rowToJob.Metadata")
	}
	if err := json.Unmarshal(row.OutputFiles, &job.OutputFiles); err != nil {
		return nil, errors.Wrap(err, "jobPGRepo.rowToJob.OutputFiles")
	}
	return job, nil
}

func rowsToJobs(rows []*jobRow) ([]*models.TranscodeJob, error) {
	jobs := make([]*models.TranscodeJob, 0, len(rows))
	for _, row := range rows {
		job, err := rowToJob(row)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
