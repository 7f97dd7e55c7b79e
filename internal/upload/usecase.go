package upload

import (
	"context"

	"github.com/streamforge/transcoder/internal/models"
)

// UseCase owns the table of in-flight upload sessions.
type UseCase interface {
	// SaveChunk persists one chunk. An empty uploadID opens a new session
	// under a generated id; a non-empty id opens or appends to the session
	// with that id. The session's upload id is returned either way.
	SaveChunk(ctx context.Context, uploadID, filename, contentType string, seq int, data []byte, isLast bool) (string, error)

	// CompleteUpload verifies the session is complete and assembles the
	// staged source file, returning the assigned video id.
	CompleteUpload(ctx context.Context, uploadID string) (string, error)

	// GetUploadStatus reports the session state; unknown ids yield
	// UploadStatusUnknown.
	GetUploadStatus(ctx context.Context, uploadID string) *models.UploadStatusResponse
}
