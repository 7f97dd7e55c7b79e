package http

import (
	"github.com/labstack/echo/v4"
	"github.com/streamforge/transcoder/internal/transcode"
)

func MapTranscodeRoutes(jobsGroup *echo.Group, h transcode.Handler) {
	jobsGroup.POST("", h.CreateJob())
	jobsGroup.GET("", h.ListJobs())
	jobsGroup.GET("/:job_id", h.GetJobStatus())
	jobsGroup.GET("/:job_id/stream", h.StreamJobStatus())
	jobsGroup.POST("/:job_id/cancel", h.CancelJob())
}
