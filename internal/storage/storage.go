package storage

import "errors"

// ErrVideoNotFound is returned when no staged file matches a video id.
var ErrVideoNotFound = errors.New("video not found")

// Storage is the byte store backing uploads and transcode outputs. The
// staging root holds chunk files and assembled sources, the output root one
// subdirectory per job.
type Storage interface {
	// PutChunk persists one upload chunk and returns its path. The write is
	// all-or-nothing; no partial chunk file becomes visible.
	PutChunk(uploadID string, seq int, data []byte) (string, error)

	// Assemble mints a fresh video id and concatenates the given chunk files,
	// in order, into a staged source file named after the id. Chunk files are
	// deleted as they are consumed. On error no output file is left behind.
	Assemble(originalFilename string, chunkPaths []string) (videoID string, path string, err error)

	// CreateJobOutputDir creates and returns <output>/<jobID>/.
	CreateJobOutputDir(jobID string) (string, error)

	// OutputPath returns <output>/<jobID>/<videoID>_<formatName>.<container>.
	OutputPath(jobID, videoID, formatName, container string) string

	// LocateVideo returns the staged file whose name starts with videoID, or
	// ErrVideoNotFound. With more than one match the lexicographically first
	// is returned.
	LocateVideo(videoID string) (string, error)
}
