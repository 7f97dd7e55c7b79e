package http

import (
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/streamforge/transcoder/internal/models"
	"github.com/streamforge/transcoder/internal/upload"
	"github.com/streamforge/transcoder/pkg/logger"
)

const (
	headerUploadID  = "X-Upload-Id"
	headerChunkSeq  = "X-Chunk-Sequence"
	headerChunkLast = "X-Chunk-Last"
	headerFilename  = "X-Filename"
)

type uploadHandler struct {
	uploadUC upload.UseCase
	logger   logger.Logger
}

func NewUploadHandler(uploadUC upload.UseCase, log logger.Logger) upload.Handler {
	return &uploadHandler{
		uploadUC: uploadUC,
		logger:   log,
	}
}

// UploadStream consumes a multipart stream where every part is one chunk.
// Parts carry X-Chunk-Sequence and X-Chunk-Last headers; the end of the
// stream triggers assembly.
func (h *uploadHandler) UploadStream() echo.HandlerFunc {
	return func(c echo.Context) error {
		reader, err := c.Request().MultipartReader()
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Expected a multipart stream"})
		}

		uploadID := c.QueryParam("upload_id")
		for {
			part, err := reader.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "Malformed multipart stream"})
			}

			seq, err := strconv.Atoi(part.Header.Get(headerChunkSeq))
			if err != nil {
				part.Close()
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing or invalid " + headerChunkSeq + " part header"})
			}
			isLast, _ := strconv.ParseBool(part.Header.Get(headerChunkLast))
			data, err := io.ReadAll(part)
			part.Close()
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "Failed to read chunk data"})
			}

			uploadID, err = h.uploadUC.SaveChunk(c.Request().Context(), uploadID,
				part.FileName(), part.Header.Get("Content-Type"), seq, data, isLast)
			if err != nil {
				return c.JSON(http.StatusBadRequest, &models.UploadResponse{
					Status:       models.UploadStatusFailed,
					ErrorMessage: err.Error(),
				})
			}
		}
		if uploadID == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Empty upload stream"})
		}

		videoID, err := h.uploadUC.CompleteUpload(c.Request().Context(), uploadID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, &models.UploadResponse{
				Status:       models.UploadStatusFailed,
				ErrorMessage: err.Error(),
			})
		}
		return c.JSON(http.StatusOK, &models.UploadResponse{
			VideoID: videoID,
			Status:  models.UploadStatusCompleted,
		})
	}
}

// UploadChunk accepts a single raw chunk body addressed by headers, for
// clients that cannot hold a stream open.
func (h *uploadHandler) UploadChunk() echo.HandlerFunc {
	return func(c echo.Context) error {
		seq, err := strconv.Atoi(c.Request().Header.Get(headerChunkSeq))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing or invalid " + headerChunkSeq + " header"})
		}
		isLast, _ := strconv.ParseBool(c.Request().Header.Get(headerChunkLast))

		data, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Failed to read chunk data"})
		}

		uploadID, err := h.uploadUC.SaveChunk(c.Request().Context(),
			c.Request().Header.Get(headerUploadID),
			c.Request().Header.Get(headerFilename),
			c.Request().Header.Get("Content-Type"),
			seq, data, isLast)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]string{"upload_id": uploadID})
	}
}

// CompleteUpload finishes a chunk-by-chunk upload once every chunk is in.
func (h *uploadHandler) CompleteUpload() echo.HandlerFunc {
	return func(c echo.Context) error {
		uploadID := c.Param("upload_id")
		videoID, err := h.uploadUC.CompleteUpload(c.Request().Context(), uploadID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, &models.UploadResponse{
				Status:       models.UploadStatusFailed,
				ErrorMessage: err.Error(),
			})
		}
		return c.JSON(http.StatusOK, &models.UploadResponse{
			VideoID: videoID,
			Status:  models.UploadStatusCompleted,
		})
	}
}

func (h *uploadHandler) GetUploadStatus() echo.HandlerFunc {
	return func(c echo.Context) error {
		status := h.uploadUC.GetUploadStatus(c.Request().Context(), c.Param("upload_id"))
		return c.JSON(http.StatusOK, status)
	}
}
