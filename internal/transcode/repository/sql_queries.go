package repository

const (
	upsertJobQuery = `INSERT INTO transcode_jobs (job_id, video_id, input_path, output_dir, output_formats, output_container,
						options, status, error_message, metadata, created_at, started_at, completed_at, progress,
						current_stage, output_files, estimated_time_remaining)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
					ON CONFLICT (job_id) DO UPDATE
						SET status = EXCLUDED.status,
						    error_message = EXCLUDED.error_message,
						    started_at = EXCLUDED.started_at,
						    completed_at = EXCLUDED.completed_at,
						    progress = EXCLUDED.progress,
						    current_stage = EXCLUDED.current_stage,
						    output_files = EXCLUDED.output_files,
						    estimated_time_remaining = EXCLUDED.estimated_time_remaining`

	jobColumns = `job_id, video_id, input_path, output_dir, output_formats, output_container, options, status,
					error_message, metadata, created_at, started_at, completed_at, progress, current_stage,
					output_files, estimated_time_remaining`

	getJobByIDQuery      = `SELECT ` + jobColumns + ` FROM transcode_jobs WHERE job_id = $1`
	getJobsByVideoQuery  = `SELECT ` + jobColumns + ` FROM transcode_jobs WHERE video_id = $1 ORDER BY created_at, job_id`
	getTotalJobsQuery    = `SELECT COUNT(job_id) FROM transcode_jobs`
	deleteJobQuery       = `DELETE FROM transcode_jobs WHERE job_id = $1`
	listJobsQueryPrefix  = `SELECT ` + jobColumns + ` FROM transcode_jobs WHERE job_id > ?`
	listJobsStatusClause = ` AND status IN (?)`
	listJobsQuerySuffix  = ` ORDER BY created_at, job_id LIMIT ?`
)
