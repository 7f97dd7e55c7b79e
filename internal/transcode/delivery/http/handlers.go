package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/streamforge/transcoder/internal/models"
	"github.com/streamforge/transcoder/internal/storage"
	"github.com/streamforge/transcoder/internal/transcode"
	"github.com/streamforge/transcoder/pkg/logger"
)

type transcodeHandler struct {
	transcodeUC transcode.UseCase
	logger      logger.Logger
}

func NewTranscodeHandler(transcodeUC transcode.UseCase, log logger.Logger) transcode.Handler {
	return &transcodeHandler{
		transcodeUC: transcodeUC,
		logger:      log,
	}
}

func (h *transcodeHandler) CreateJob() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.TranscodeInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		resp, err := h.transcodeUC.CreateJob(c.Request().Context(), input)
		if err != nil {
			if errors.Is(err, storage.ErrVideoNotFound) {
				return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
			}
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, resp)
	}
}

func (h *transcodeHandler) CancelJob() echo.HandlerFunc {
	return func(c echo.Context) error {
		resp := h.transcodeUC.Cancel(c.Request().Context(), c.Param("job_id"))
		return c.JSON(http.StatusOK, resp)
	}
}

func (h *transcodeHandler) GetJobStatus() echo.HandlerFunc {
	return func(c echo.Context) error {
		resp := h.transcodeUC.GetJobStatus(c.Request().Context(), c.Param("job_id"))
		return c.JSON(http.StatusOK, resp)
	}
}

// StreamJobStatus pushes job snapshots as server-sent events and ends the
// stream once the job reaches a terminal status.
func (h *transcodeHandler) StreamJobStatus() echo.HandlerFunc {
	return func(c echo.Context) error {
		stream, err := h.transcodeUC.StreamJobStatus(c.Request().Context(), c.Param("job_id"))
		if err != nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Job not found"})
		}

		c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
		c.Response().Header().Set("Cache-Control", "no-cache")
		c.Response().Header().Set("Connection", "keep-alive")
		c.Response().WriteHeader(http.StatusOK)

		for update := range stream {
			data, err := json.Marshal(update)
			if err != nil {
				h.logger.Errorf("StreamJobStatus - Marshal error: %v", err)
				continue
			}
			if _, err := fmt.Fprintf(c.Response(), "data: %s\n\n", data); err != nil {
				return nil
			}
			c.Response().Flush()
		}
		return nil
	}
}

func (h *transcodeHandler) ListJobs() echo.HandlerFunc {
	return func(c echo.Context) error {
		limit := 0
		if raw := c.QueryParam("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid limit"})
			}
			limit = parsed
		}

		var statuses []models.JobStatus
		if raw := c.QueryParam("status"); raw != "" {
			for _, s := range strings.Split(raw, ",") {
				statuses = append(statuses, models.JobStatus(strings.TrimSpace(s)))
			}
		}

		resp, err := h.transcodeUC.ListJobs(c.Request().Context(), limit, statuses, c.QueryParam("page_token"))
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, resp)
	}
}
