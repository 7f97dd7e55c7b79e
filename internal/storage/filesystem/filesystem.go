package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/streamforge/transcoder/internal/config"
	"github.com/streamforge/transcoder/internal/storage"
	"github.com/streamforge/transcoder/pkg/logger"
)

type fileStorage struct {
	stagingDir string
	outputDir  string
	logger     logger.Logger
}

// NewFileStorage creates the staging and output roots and returns a
// filesystem-backed store. A failure to create either root is fatal to the
// caller.
func NewFileStorage(cfg *config.Config, log logger.Logger) (storage.Storage, error) {
	if err := os.MkdirAll(cfg.Storage.StagingDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "fileStorage.NewFileStorage.MkdirAll staging")
	}
	if err := os.MkdirAll(cfg.Storage.OutputDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "fileStorage.NewFileStorage.MkdirAll output")
	}
	log.Infof("storage directories initialized: staging=%s, output=%s", cfg.Storage.StagingDir, cfg.Storage.OutputDir)
	return &fileStorage{
		stagingDir: cfg.Storage.StagingDir,
		outputDir:  cfg.Storage.OutputDir,
		logger:     log,
	}, nil
}

func (f *fileStorage) PutChunk(uploadID string, seq int, data []byte) (string, error) {
	path := filepath.Join(f.stagingDir, fmt.Sprintf("%s_%d", uploadID, seq))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return "", errors.Wrap(err, "fileStorage.PutChunk.WriteFile")
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", errors.Wrap(err, "fileStorage.PutChunk.Rename")
	}
	return path, nil
}

func (f *fileStorage) Assemble(originalFilename string, chunkPaths []string) (string, string, error) {
	videoID := uuid.New().String()
	finalPath := filepath.Join(f.stagingDir, videoID+fileExtension(originalFilename))
	tmpPath := finalPath + ".part"

	out, err := os.Create(tmpPath)
	if err != nil {
		return "", "", errors.Wrap(err, "fileStorage.Assemble.Create")
	}

	for _, chunkPath := range chunkPaths {
		data, err := os.ReadFile(chunkPath)
		if err != nil {
			out.Close()
			os.Remove(tmpPath)
			return "", "", errors.Wrapf(err, "fileStorage.Assemble.ReadFile %s", chunkPath)
		}
		if _, err := out.Write(data); err != nil {
			out.Close()
			os.Remove(tmpPath)
			return "", "", errors.Wrap(err, "fileStorage.Assemble.Write")
		}
		os.Remove(chunkPath)
	}

	if err := out.Close(); err != nil {
		os.Remove(tmpPath)
		return "", "", errors.Wrap(err, "fileStorage.Assemble.Close")
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", "", errors.Wrap(err, "fileStorage.Assemble.Rename")
	}

	f.logger.Infof("assembled video %s from %d chunks: %s", videoID, len(chunkPaths), finalPath)
	return videoID, finalPath, nil
}

func (f *fileStorage) CreateJobOutputDir(jobID string) (string, error) {
	dir := filepath.Join(f.outputDir, jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "fileStorage.CreateJobOutputDir.MkdirAll")
	}
	return dir, nil
}

func (f *fileStorage) OutputPath(jobID, videoID, formatName, container string) string {
	return filepath.Join(f.outputDir, jobID, fmt.Sprintf("%s_%s.%s", videoID, formatName, container))
}

func (f *fileStorage) LocateVideo(videoID string) (string, error) {
	entries, err := os.ReadDir(f.stagingDir)
	if err != nil {
		return "", errors.Wrap(err, "fileStorage.LocateVideo.ReadDir")
	}
	var matches []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), videoID) {
			matches = append(matches, entry.Name())
		}
	}
	if len(matches) == 0 {
		return "", storage.ErrVideoNotFound
	}
	sort.Strings(matches)
	return filepath.Join(f.stagingDir, matches[0]), nil
}

func fileExtension(filename string) string {
	if idx := strings.LastIndex(filename, "."); idx >= 0 {
		return filename[idx:]
	}
	return ""
}
