package transcode

import (
	"context"

	"github.com/streamforge/transcoder/internal/models"
)

// AWSRepository archives finished renditions to object storage.
type AWSRepository interface {
	PutOutput(ctx context.Context, jobID, localPath string) (string, error)
	ArchiveOutputs(ctx context.Context, job *models.TranscodeJob) error
	RemoveOutputs(ctx context.Context, jobID string) error
}
