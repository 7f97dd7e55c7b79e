package http

import (
	"github.com/labstack/echo/v4"
	"github.com/streamforge/transcoder/internal/upload"
)

func MapUploadRoutes(uploadGroup *echo.Group, h upload.Handler) {
	uploadGroup.POST("/stream", h.UploadStream())
	uploadGroup.POST("/chunk", h.UploadChunk())
	uploadGroup.POST("/:upload_id/complete", h.CompleteUpload())
	uploadGroup.GET("/:upload_id/status", h.GetUploadStatus())
}
