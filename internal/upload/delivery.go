package upload

import "github.com/labstack/echo/v4"

type Handler interface {
	UploadStream() echo.HandlerFunc
	UploadChunk() echo.HandlerFunc
	CompleteUpload() echo.HandlerFunc
	GetUploadStatus() echo.HandlerFunc
}
