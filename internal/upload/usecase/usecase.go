package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/streamforge/transcoder/internal/models"
	"github.com/streamforge/transcoder/internal/storage"
	"github.com/streamforge/transcoder/internal/upload"
	"github.com/streamforge/transcoder/pkg/logger"
)

type uploadUC struct {
	store  storage.Storage
	logger logger.Logger

	mu       sync.RWMutex
	sessions map[string]*models.UploadSession
}

func NewUploadUseCase(store storage.Storage, log logger.Logger) upload.UseCase {
	return &uploadUC{
		store:    store,
		logger:   log,
		sessions: make(map[string]*models.UploadSession),
	}
}

func (u *uploadUC) SaveChunk(ctx context.Context, uploadID, filename, contentType string, seq int, data []byte, isLast bool) (string, error) {
	if uploadID == "" {
		uploadID = uuid.New().String()
	}
	session := u.getOrCreateSession(uploadID, filename, contentType)

	path, err := u.store.PutChunk(uploadID, seq, data)
	if err != nil {
		u.logger.Errorf("SaveChunk - PutChunk error for upload %s: %v", uploadID, err)
		session.SetError(fmt.Sprintf("failed to save chunk %d: %v", seq, err))
		return uploadID, err
	}
	if err := session.AddChunk(seq, path, isLast); err != nil {
		u.logger.Errorf("SaveChunk - AddChunk error for upload %s: %v", uploadID, err)
		return uploadID, err
	}
	u.logger.Debugf("saved chunk %d for upload %s, size: %d bytes, last: %v", seq, uploadID, len(data), isLast)
	return uploadID, nil
}

func (u *uploadUC) CompleteUpload(ctx context.Context, uploadID string) (string, error) {
	session := u.getSession(uploadID)
	if session == nil {
		return "", fmt.Errorf("upload session not found: %s", uploadID)
	}
	if !session.Complete() {
		session.SetError("upload incomplete")
		return "", fmt.Errorf("upload incomplete: %s", uploadID)
	}

	chunkPaths, err := session.OrderedChunkPaths()
	if err != nil {
		session.SetError(err.Error())
		return "", err
	}
	videoID, path, err := u.store.Assemble(session.Filename, chunkPaths)
	if err != nil {
		u.logger.Errorf("CompleteUpload - Assemble error for upload %s: %v", uploadID, err)
		session.SetError(fmt.Sprintf("failed to assemble file: %v", err))
		return "", err
	}
	session.MarkAssembled(videoID)
	u.logger.Infof("upload %s completed, video id: %s, path: %s", uploadID, videoID, path)
	return videoID, nil
}

func (u *uploadUC) GetUploadStatus(ctx context.Context, uploadID string) *models.UploadStatusResponse {
	session := u.getSession(uploadID)
	if session == nil {
		return &models.UploadStatusResponse{
			Status:       models.UploadStatusUnknown,
			ErrorMessage: "Upload session not found",
		}
	}
	status, percent, videoID, errMsg := session.Status()
	return &models.UploadStatusResponse{
		Status:          status,
		PercentComplete: percent,
		VideoID:         videoID,
		ErrorMessage:    errMsg,
	}
}

func (u *uploadUC) getOrCreateSession(uploadID, filename, contentType string) *models.UploadSession {
	u.mu.Lock()
	defer u.mu.Unlock()
	if session, ok := u.sessions[uploadID]; ok {
		return session
	}
	session := models.NewUploadSession(uploadID, filename, contentType)
	u.sessions[uploadID] = session
	u.logger.Infof("created upload session: %s, filename: %s", uploadID, filename)
	return session
}

func (u *uploadUC) getSession(uploadID string) *models.UploadSession {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.sessions[uploadID]
}
