package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/streamforge/transcoder/internal/config"
	"github.com/streamforge/transcoder/internal/models"
	"github.com/streamforge/transcoder/internal/upload"
	"github.com/streamforge/transcoder/pkg/logger"
)

type savedChunk struct {
	seq    int
	data   []byte
	isLast bool
}

type fakeUploadUC struct {
	chunks      []savedChunk
	saveErr     error
	completeErr error
	videoID     string
	statusResp  *models.UploadStatusResponse

	completedID string
}

func (f *fakeUploadUC) SaveChunk(ctx context.Context, uploadID, filename, contentType string, seq int, data []byte, isLast bool) (string, error) {
	if f.saveErr != nil {
		return uploadID, f.saveErr
	}
	if uploadID == "" {
		uploadID = "upload-1"
	}
	f.chunks = append(f.chunks, savedChunk{seq: seq, data: append([]byte(nil), data...), isLast: isLast})
	return uploadID, nil
}

func (f *fakeUploadUC) CompleteUpload(ctx context.Context, uploadID string) (string, error) {
	f.completedID = uploadID
	if f.completeErr != nil {
		return "", f.completeErr
	}
	return f.videoID, nil
}

func (f *fakeUploadUC) GetUploadStatus(ctx context.Context, uploadID string) *models.UploadStatusResponse {
	return f.statusResp
}

func newTestHandler(t *testing.T, uc upload.UseCase) upload.Handler {
	t.Helper()
	cfg := &config.Config{Logger: config.Logger{Level: "error"}}
	log := logger.NewApiLogger(cfg)
	log.InitLogger()
	return NewUploadHandler(uc, log)
}

func buildMultipartStream(t *testing.T, chunks [][]byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for i, data := range chunks {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="chunk"; filename="movie.mp4"`)
		header.Set("Content-Type", "video/mp4")
		header.Set(headerChunkSeq, fmt.Sprintf("%d", i))
		if i == len(chunks)-1 {
			header.Set(headerChunkLast, "true")
		}
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("CreatePart: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestUploadStreamHandler(t *testing.T) {
	uc := &fakeUploadUC{videoID: "video-1"}
	h := newTestHandler(t, uc)

	body, contentType := buildMultipartStream(t, [][]byte{[]byte("aaa"), []byte("bb")})
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads/stream", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()

	if err := h.UploadStream()(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	if len(uc.chunks) != 2 {
		t.Fatalf("saved %d chunks, want 2", len(uc.chunks))
	}
	if !uc.chunks[1].isLast {
		t.Fatal("final part should be flagged last")
	}
	if uc.completedID != "upload-1" {
		t.Fatalf("completed upload %q, want upload-1", uc.completedID)
	}

	resp := &models.UploadResponse{}
	if err := json.Unmarshal(rec.Body.Bytes(), resp); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if resp.VideoID != "video-1" || resp.Status != models.UploadStatusCompleted {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestUploadStreamHandlerIncomplete(t *testing.T) {
	uc := &fakeUploadUC{completeErr: fmt.Errorf("upload incomplete: upload-1")}
	h := newTestHandler(t, uc)

	body, contentType := buildMultipartStream(t, [][]byte{[]byte("aaa")})
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads/stream", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()

	if err := h.UploadStream()(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	resp := &models.UploadResponse{}
	if err := json.Unmarshal(rec.Body.Bytes(), resp); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if resp.Status != models.UploadStatusFailed {
		t.Fatalf("status = %s, want failed", resp.Status)
	}
}

func TestUploadChunkHandler(t *testing.T) {
	uc := &fakeUploadUC{}
	h := newTestHandler(t, uc)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads/chunk", bytes.NewReader([]byte("chunk-data")))
	req.Header.Set(headerChunkSeq, "3")
	req.Header.Set(headerChunkLast, "true")
	req.Header.Set(headerFilename, "movie.mp4")
	req.Header.Set("Content-Type", "video/mp4")
	rec := httptest.NewRecorder()

	if err := h.UploadChunk()(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(uc.chunks) != 1 || uc.chunks[0].seq != 3 || !uc.chunks[0].isLast {
		t.Fatalf("unexpected saved chunks: %+v", uc.chunks)
	}
	if !bytes.Equal(uc.chunks[0].data, []byte("chunk-data")) {
		t.Fatalf("chunk data = %q", uc.chunks[0].data)
	}
}

func TestUploadChunkHandlerMissingSequence(t *testing.T) {
	h := newTestHandler(t, &fakeUploadUC{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads/chunk", bytes.NewReader([]byte("data")))
	rec := httptest.NewRecorder()

	if err := h.UploadChunk()(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetUploadStatusHandler(t *testing.T) {
	uc := &fakeUploadUC{
		statusResp: &models.UploadStatusResponse{Status: models.UploadStatusInProgress, PercentComplete: 40},
	}
	h := newTestHandler(t, uc)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/uploads/upload-1/status", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("upload_id")
	c.SetParamValues("upload-1")

	if err := h.GetUploadStatus()(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	resp := &models.UploadStatusResponse{}
	if err := json.Unmarshal(rec.Body.Bytes(), resp); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if resp.Status != models.UploadStatusInProgress || resp.PercentComplete != 40 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
