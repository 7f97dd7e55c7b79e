package media

import (
	"context"

	"github.com/streamforge/transcoder/internal/models"
)

// ProgressFunc receives encode progress updates. percent is 0..100 during a
// running encode and -1 when the encode failed; message names the current
// stage or describes the failure.
type ProgressFunc func(percent int, message string)

// Driver abstracts the external media tools so tests can substitute a
// scripted implementation. Both calls block until the subprocess exits and
// are intended to run on worker goroutines.
type Driver interface {
	// Probe inspects the source file and returns its metadata. The probe
	// subprocess is force-killed after 30 seconds.
	Probe(ctx context.Context, inputPath string) (*models.VideoMetadata, error)

	// Encode transcodes the source into one target format, reporting progress
	// through onProgress until the subprocess exits. Cancelling ctx
	// terminates the subprocess.
	Encode(ctx context.Context, inputPath, outputPath string, format models.VideoFormat,
		opts models.TranscodeOptions, metadata *models.VideoMetadata, onProgress ProgressFunc) error
}
