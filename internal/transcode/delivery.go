package transcode

import "github.com/labstack/echo/v4"

type Handler interface {
	CreateJob() echo.HandlerFunc
	CancelJob() echo.HandlerFunc
	GetJobStatus() echo.HandlerFunc
	StreamJobStatus() echo.HandlerFunc
	ListJobs() echo.HandlerFunc
}
