package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/streamforge/transcoder/internal/media/ffmpeg"
	"github.com/streamforge/transcoder/internal/middleware"
	"github.com/streamforge/transcoder/internal/storage/filesystem"
	"github.com/streamforge/transcoder/internal/transcode"
	transcodeHttp "github.com/streamforge/transcoder/internal/transcode/delivery/http"
	transcodeRepository "github.com/streamforge/transcoder/internal/transcode/repository"
	transcodeUsecase "github.com/streamforge/transcoder/internal/transcode/usecase"
	uploadHttp "github.com/streamforge/transcoder/internal/upload/delivery/http"
	uploadUsecase "github.com/streamforge/transcoder/internal/upload/usecase"
	"github.com/streamforge/transcoder/pkg/utils"
)

func (s *Server) MapHandlers(e *echo.Echo) error {
	store, err := filesystem.NewFileStorage(s.cfg, s.logger)
	if err != nil {
		return err
	}
	driver := ffmpeg.NewFFmpegDriver(s.cfg, s.logger)

	var jobRepo transcode.JobRepository
	switch s.cfg.JobStore.Driver {
	case "redis":
		jobRepo = transcodeRepository.NewJobRedisRepo(s.redisClient)
	case "postgres":
		jobRepo = transcodeRepository.NewJobPGRepo(s.db)
	default:
		jobRepo = transcodeRepository.NewMemoryJobRepo()
	}
	var awsRepo transcode.AWSRepository
	if s.cfg.S3.Enabled && s.s3Client != nil {
		awsRepo = transcodeRepository.NewAwsRepository(s.s3Client, s.cfg)
	}

	transcodeUC := transcodeUsecase.NewTranscodeUseCase(s.cfg, jobRepo, awsRepo, store, driver, s.logger)
	transcodeUC.Run()
	s.transcodeUC = transcodeUC
	uploadUC := uploadUsecase.NewUploadUseCase(store, s.logger)

	transcodeHandlers := transcodeHttp.NewTranscodeHandler(transcodeUC, s.logger)
	uploadHandlers := uploadHttp.NewUploadHandler(uploadUC, s.logger)

	mw := middleware.NewMiddlewareManager(s.cfg, []string{"*"}, s.logger)
	e.Use(echoMiddleware.RequestID())
	e.Use(mw.RequestLoggerMiddleware)
	e.Use(echoMiddleware.Recover())
	if s.cfg.Server.MaxRequestBody != "" {
		e.Use(echoMiddleware.BodyLimit(s.cfg.Server.MaxRequestBody))
	}

	v1 := e.Group("/api/v1")
	health := v1.Group("/health")
	uploadGroup := v1.Group("/uploads")
	jobsGroup := v1.Group("/jobs")

	uploadHttp.MapUploadRoutes(uploadGroup, uploadHandlers)
	transcodeHttp.MapTranscodeRoutes(jobsGroup, transcodeHandlers)
	health.GET("", func(c echo.Context) error {
		s.logger.Infof("Health check RequestID: %s", utils.GetRequestID(c))
		return c.JSON(http.StatusOK, map[string]string{"status": "OK"})
	})
	return nil
}
