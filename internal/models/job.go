package models

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusUnknown    JobStatus = "unknown"
	JobStatusQueued     JobStatus = "queued"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Terminal reports whether the status is absorbing.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// TranscodeOptions are optional per-job encoder settings.
type TranscodeOptions struct {
	AudioCodec   string  `json:"audio_codec" validate:"omitempty,lte=32"`
	AudioBitrate int     `json:"audio_bitrate" validate:"gte=0"`
	FrameRate    float64 `json:"frame_rate" validate:"gte=0"`
	TwoPass      bool    `json:"two_pass"`
	CRF          int     `json:"crf" validate:"gte=0,lte=63"`
}

// OutputFile records one successfully encoded rendition of a job.
type OutputFile struct {
	Format   string  `json:"format"`
	Location string  `json:"location"`
	Size     int64   `json:"size"`
	Duration float64 `json:"duration"`
	Bitrate  int     `json:"bitrate"`
}

// TranscodeJob is a single transcoding job. Workers and status readers share
// the same record; every field access after construction goes through the
// record's own lock so that readers never wait behind a running encode.
type TranscodeJob struct {
	mu           sync.Mutex
	cancelEncode context.CancelFunc

	JobID                  string           `json:"job_id" db:"job_id" redis:"job_id"`
	VideoID                string           `json:"video_id" db:"video_id" redis:"video_id"`
	InputPath              string           `json:"input_path" db:"input_path" redis:"input_path"`
	OutputDir              string           `json:"output_dir" db:"output_dir" redis:"output_dir"`
	OutputFormats          []VideoFormat    `json:"output_formats" db:"output_formats" redis:"output_formats"`
	OutputContainer        string           `json:"output_container" db:"output_container" redis:"output_container"`
	Options                TranscodeOptions `json:"options" db:"options" redis:"options"`
	Status                 JobStatus        `json:"status" db:"status" redis:"status"`
	ErrorMessage           string           `json:"error_message" db:"error_message" redis:"error_message"`
	Metadata               VideoMetadata    `json:"metadata" db:"metadata" redis:"metadata"`
	CreatedAt              time.Time        `json:"created_at" db:"created_at" redis:"created_at"`
	StartedAt              time.Time        `json:"started_at" db:"started_at" redis:"started_at"`
	CompletedAt            time.Time        `json:"completed_at" db:"completed_at" redis:"completed_at"`
	Progress               int              `json:"progress" db:"progress" redis:"progress"`
	CurrentStage           string           `json:"current_stage" db:"current_stage" redis:"current_stage"`
	OutputFiles            []OutputFile     `json:"output_files" db:"output_files" redis:"output_files"`
	EstimatedTimeRemaining int              `json:"estimated_time_remaining" db:"estimated_time_remaining" redis:"estimated_time_remaining"`
}

var jobSeq uint64

// newJobID builds a job id whose lexicographic order follows creation order:
// a fixed-width nanosecond timestamp, a process-local sequence number for
// same-instant creations, and a uuid for global uniqueness. Token pagination
// orders by job id, so ids must ascend with created_at.
func newJobID() string {
	return fmt.Sprintf("%016x-%08x-%s", time.Now().UnixNano(), atomic.AddUint64(&jobSeq, 1), uuid.New().String())
}

// NewTranscodeJob creates a job in the queued state with a fresh id.
func NewTranscodeJob(videoID, inputPath string) *TranscodeJob {
	return &TranscodeJob{
		JobID:     newJobID(),
		VideoID:   videoID,
		InputPath: inputPath,
		Status:    JobStatusQueued,
		CreatedAt: time.Now(),
	}
}

// MarkInProgress moves the job from queued to in_progress. It reports false
// if the job left the queued state in the meantime (e.g. cancelled).
func (j *TranscodeJob) MarkInProgress() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status != JobStatusQueued {
		return false
	}
	j.Status = JobStatusInProgress
	j.StartedAt = time.Now()
	return true
}

// MarkCompleted transitions to completed. Terminal states are absorbing.
func (j *TranscodeJob) MarkCompleted() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status.Terminal() {
		return false
	}
	j.Status = JobStatusCompleted
	j.CompletedAt = time.Now()
	j.Progress = 100
	return true
}

// MarkFailed transitions to failed with an error message.
func (j *TranscodeJob) MarkFailed(errMsg string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status.Terminal() {
		return false
	}
	j.Status = JobStatusFailed
	j.CompletedAt = time.Now()
	j.ErrorMessage = errMsg
	return true
}

// MarkCancelled transitions to cancelled and signals the running encode, if
// any, to terminate.
func (j *TranscodeJob) MarkCancelled() bool {
	j.mu.Lock()
	if j.Status.Terminal() {
		j.mu.Unlock()
		return false
	}
	j.Status = JobStatusCancelled
	j.CompletedAt = time.Now()
	cancel := j.cancelEncode
	j.cancelEncode = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return true
}

// UpdateProgress raises the job's progress and sets the current stage.
// Progress is monotonically non-decreasing while the job is in flight.
func (j *TranscodeJob) UpdateProgress(percent int, stage string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status.Terminal() {
		return
	}
	if percent > j.Progress {
		j.Progress = percent
	}
	j.CurrentStage = stage
}

// AddOutputFile appends a finished rendition in request order.
func (j *TranscodeJob) AddOutputFile(f OutputFile) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.OutputFiles = append(j.OutputFiles, f)
}

// SetEncodeCancel installs the cancel function of the currently running
// encode subprocess. It is cleared again when the encode returns.
func (j *TranscodeJob) SetEncodeCancel(cancel context.CancelFunc) {
	j.mu.Lock()
	j.cancelEncode = cancel
	j.mu.Unlock()
}

// GetStatus returns the current status under the record lock.
func (j *TranscodeJob) GetStatus() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Status
}

// Snapshot returns a consistent copy of the job safe for marshalling.
func (j *TranscodeJob) Snapshot() *TranscodeJob {
	j.mu.Lock()
	defer j.mu.Unlock()
	c := &TranscodeJob{
		JobID:                  j.JobID,
		VideoID:                j.VideoID,
		InputPath:              j.InputPath,
		OutputDir:              j.OutputDir,
		OutputContainer:        j.OutputContainer,
		Options:                j.Options,
		Status:                 j.Status,
		ErrorMessage:           j.ErrorMessage,
		Metadata:               j.Metadata,
		CreatedAt:              j.CreatedAt,
		StartedAt:              j.StartedAt,
		CompletedAt:            j.CompletedAt,
		Progress:               j.Progress,
		CurrentStage:           j.CurrentStage,
		EstimatedTimeRemaining: j.EstimatedTimeRemaining,
	}
	c.OutputFormats = append([]VideoFormat(nil), j.OutputFormats...)
	c.OutputFiles = append([]OutputFile(nil), j.OutputFiles...)
	return c
}
