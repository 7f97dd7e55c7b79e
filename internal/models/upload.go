package models

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

type UploadStatus string

const (
	UploadStatusUnknown    UploadStatus = "unknown"
	UploadStatusInProgress UploadStatus = "in_progress"
	UploadStatusCompleted  UploadStatus = "completed"
	UploadStatusFailed     UploadStatus = "failed"
)

// UploadSession tracks one in-flight chunked upload. Chunks may arrive in any
// order; the chunk flagged final fixes the expected total.
type UploadSession struct {
	mu sync.Mutex

	UploadID    string
	Filename    string
	ContentType string
	CreatedAt   time.Time

	chunks      map[int]string
	lastChunk   bool
	totalChunks int
	assembled   bool
	videoID     string
	errMsg      string
}

func NewUploadSession(uploadID, filename, contentType string) *UploadSession {
	return &UploadSession{
		UploadID:    uploadID,
		Filename:    filename,
		ContentType: contentType,
		CreatedAt:   time.Now(),
		chunks:      make(map[int]string),
		totalChunks: -1,
	}
}

// AddChunk records the persisted path of chunk seq. isLast fixes
// totalChunks = seq+1; totalChunks is set at most once, and chunks at or past
// the declared total are a protocol error.
func (s *UploadSession) AddChunk(seq int, path string, isLast bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < 0 {
		return fmt.Errorf("negative sequence number: %d", seq)
	}
	if s.assembled {
		return fmt.Errorf("upload %s already assembled", s.UploadID)
	}
	if s.totalChunks >= 0 && seq >= s.totalChunks {
		return fmt.Errorf("chunk %d out of range, upload declared %d chunks", seq, s.totalChunks)
	}
	if isLast {
		if s.totalChunks >= 0 && s.totalChunks != seq+1 {
			return fmt.Errorf("conflicting final chunk %d, upload declared %d chunks", seq, s.totalChunks)
		}
		s.totalChunks = seq + 1
		s.lastChunk = true
	}
	s.chunks[seq] = path
	return nil
}

// Complete reports whether the final chunk arrived and every sequence number
// up to it is present.
func (s *UploadSession) Complete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastChunk && s.totalChunks > 0 && len(s.chunks) == s.totalChunks
}

// OrderedChunkPaths returns the chunk file paths in ascending sequence order,
// failing on any gap in [0, totalChunks).
func (s *UploadSession) OrderedChunkPaths() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.totalChunks <= 0 {
		return nil, fmt.Errorf("upload %s has no final chunk", s.UploadID)
	}
	paths := make([]string, 0, s.totalChunks)
	for i := 0; i < s.totalChunks; i++ {
		p, ok := s.chunks[i]
		if !ok {
			return nil, fmt.Errorf("missing chunk %d", i)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// MarkAssembled publishes the assigned video id and drops the consumed
// chunk map.
func (s *UploadSession) MarkAssembled(videoID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assembled = true
	s.videoID = videoID
	s.chunks = make(map[int]string)
}

// SetError records a failure for later status reporting.
func (s *UploadSession) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = msg
}

// VideoID returns the assigned video id, empty until assembly.
func (s *UploadSession) VideoID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.videoID
}

// Status reports the session state: failed if an error is set, completed
// once assembled, otherwise in progress with a percentage estimate.
func (s *UploadSession) Status() (UploadStatus, int, string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.errMsg != "":
		return UploadStatusFailed, s.percentLocked(), "", s.errMsg
	case s.assembled:
		return UploadStatusCompleted, 100, s.videoID, ""
	default:
		return UploadStatusInProgress, s.percentLocked(), "", ""
	}
}

func (s *UploadSession) percentLocked() int {
	if s.totalChunks <= 0 {
		return len(s.chunks) * 10
	}
	return len(s.chunks) * 100 / s.totalChunks
}

// Sequences returns the currently held sequence numbers in ascending order.
func (s *UploadSession) Sequences() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	seqs := make([]int, 0, len(s.chunks))
	for seq := range s.chunks {
		seqs = append(seqs, seq)
	}
	sort.Ints(seqs)
	return seqs
}
