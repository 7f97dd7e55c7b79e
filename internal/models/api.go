package models

// TranscodeInput is the transcode request body.
type TranscodeInput struct {
	VideoID         string            `json:"video_id" validate:"required,lte=128"`
	OutputFormats   []VideoFormat     `json:"output_formats" validate:"dive"`
	OutputContainer string            `json:"output_container" validate:"omitempty,lte=16"`
	Options         *TranscodeOptions `json:"options" validate:"omitempty"`
}

// TranscodeResponse reports the created job.
type TranscodeResponse struct {
	JobID         string    `json:"job_id"`
	Status        JobStatus `json:"status"`
	EstimatedTime int       `json:"estimated_time_seconds"`
	ErrorMessage  string    `json:"error_message,omitempty"`
}

// CancelResponse reports the outcome of a cancel request.
type CancelResponse struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// JobStatusResponse is the wire view of a job for status queries, status
// streams and job listings.
type JobStatusResponse struct {
	JobID                  string       `json:"job_id"`
	VideoID                string       `json:"video_id"`
	Status                 JobStatus    `json:"status"`
	Progress               int          `json:"progress"`
	CurrentStage           string       `json:"current_stage,omitempty"`
	StartTime              int64        `json:"start_time"`
	EndTime                int64        `json:"end_time"`
	EstimatedTimeRemaining int          `json:"estimated_time_remaining_seconds"`
	ErrorMessage           string       `json:"error_message,omitempty"`
	OutputFiles            []OutputFile `json:"output_files,omitempty"`
}

// NewJobStatusResponse maps a job snapshot onto the wire view.
func NewJobStatusResponse(job *TranscodeJob) *JobStatusResponse {
	resp := &JobStatusResponse{
		JobID:                  job.JobID,
		VideoID:                job.VideoID,
		Status:                 job.Status,
		Progress:               job.Progress,
		CurrentStage:           job.CurrentStage,
		EstimatedTimeRemaining: job.EstimatedTimeRemaining,
		ErrorMessage:           job.ErrorMessage,
		OutputFiles:            job.OutputFiles,
	}
	if !job.StartedAt.IsZero() {
		resp.StartTime = job.StartedAt.UnixMilli()
	}
	if !job.CompletedAt.IsZero() {
		resp.EndTime = job.CompletedAt.UnixMilli()
	}
	return resp
}

// ListJobsResponse is a page of jobs plus the continuation token.
type ListJobsResponse struct {
	Jobs          []*JobStatusResponse `json:"jobs"`
	NextPageToken string               `json:"next_page_token"`
	TotalCount    int                  `json:"total_count"`
}

// UploadResponse closes an upload stream.
type UploadResponse struct {
	VideoID      string       `json:"video_id,omitempty"`
	Status       UploadStatus `json:"status"`
	ErrorMessage string       `json:"error_message,omitempty"`
}

// UploadStatusResponse reports the state of an upload session.
type UploadStatusResponse struct {
	Status          UploadStatus `json:"status"`
	PercentComplete int          `json:"percent_complete"`
	VideoID         string       `json:"video_id,omitempty"`
	ErrorMessage    string       `json:"error_message,omitempty"`
}
