package usecase

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/streamforge/transcoder/internal/config"
	"github.com/streamforge/transcoder/internal/media"
	"github.com/streamforge/transcoder/internal/models"
	"github.com/streamforge/transcoder/internal/storage"
	"github.com/streamforge/transcoder/internal/transcode"
	"github.com/streamforge/transcoder/pkg/logger"
	"github.com/streamforge/transcoder/pkg/utils"
)

const cancelRefusedMessage = "Could not cancel job. It may be completed, failed, or not found."

const cpuBackoff = 5 * time.Second

type transcodeUC struct {
	cfg     *config.Config
	repo    transcode.JobRepository
	awsRepo transcode.AWSRepository
	store   storage.Storage
	driver  media.Driver
	logger  logger.Logger

	queue    *jobQueue
	notifier *statusNotifier

	mu   sync.RWMutex
	live map[string]*models.TranscodeJob

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTranscodeUseCase wires the transcode manager. awsRepo may be nil; when
// set, finished renditions are archived to object storage.
func NewTranscodeUseCase(cfg *config.Config, repo transcode.JobRepository, awsRepo transcode.AWSRepository,
	store storage.Storage, driver media.Driver, log logger.Logger) transcode.UseCase {

	ctx, cancel := context.WithCancel(context.Background())
	return &transcodeUC{
		cfg:      cfg,
		repo:     repo,
		awsRepo:  awsRepo,
		store:    store,
		driver:   driver,
		logger:   log,
		queue:    newJobQueue(),
		notifier: newStatusNotifier(),
		live:     make(map[string]*models.TranscodeJob),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Run starts the worker pool.
func (u *transcodeUC) Run() {
	for i := 0; i < u.cfg.Worker.PoolSize; i++ {
		u.wg.Add(1)
		go u.workerLoop(i)
	}
	u.logger.Infof("started %d transcode workers", u.cfg.Worker.PoolSize)
}

// Stop terminates running encodes and waits for the workers to exit.
func (u *transcodeUC) Stop() {
	u.queue.Close()
	u.cancel()
	u.wg.Wait()
}

func (u *transcodeUC) CreateJob(ctx context.Context, input *models.TranscodeInput) (*models.TranscodeResponse, error) {
	if err := utils.ValidateStruct(ctx, input); err != nil {
		u.logger.Errorf("CreateJob - ValidateStruct error: %v", err)
		return nil, err
	}

	formats, err := u.resolveFormats(input.OutputFormats)
	if err != nil {
		return nil, err
	}
	container := input.OutputContainer
	if container == "" {
		container = "mp4"
	}

	inputPath, err := u.store.LocateVideo(input.VideoID)
	if err != nil {
		u.logger.Errorf("CreateJob - LocateVideo error for %s: %v", input.VideoID, err)
		return nil, err
	}

	metadata, err := u.driver.Probe(ctx, inputPath)
	if err != nil {
		u.logger.Errorf("CreateJob - Probe error for %s: %v", input.VideoID, err)
		return nil, fmt.Errorf("failed to probe source: %w", err)
	}

	job := models.NewTranscodeJob(input.VideoID, inputPath)
	job.OutputFormats = formats
	job.OutputContainer = container
	if input.Options != nil {
		job.Options = *input.Options
	}
	job.Metadata = *metadata
	job.EstimatedTimeRemaining = estimateSeconds(metadata.DurationSeconds, len(formats))

	outputDir, err := u.store.CreateJobOutputDir(job.JobID)
	if err != nil {
		u.logger.Errorf("CreateJob - CreateJobOutputDir error for %s: %v", job.JobID, err)
		return nil, err
	}
	job.OutputDir = outputDir

	u.mu.Lock()
	u.live[job.JobID] = job
	u.mu.Unlock()
	u.persist(job)
	u.queue.Push(job)

	u.logger.Infof("created job %s for video %s with %d formats", job.JobID, job.VideoID, len(formats))
	return &models.TranscodeResponse{
		JobID:         job.JobID,
		Status:        models.JobStatusQueued,
		EstimatedTime: job.EstimatedTimeRemaining,
	}, nil
}

func (u *transcodeUC) Cancel(ctx context.Context, jobID string) *models.CancelResponse {
	u.mu.RLock()
	job := u.live[jobID]
	u.mu.RUnlock()

	if job == nil || !job.MarkCancelled() {
		return &models.CancelResponse{
			Success:      false,
			ErrorMessage: cancelRefusedMessage,
		}
	}
	u.persist(job)
	u.logger.Infof("cancelled job %s", jobID)
	return &models.CancelResponse{Success: true}
}

func (u *transcodeUC) GetJobStatus(ctx context.Context, jobID string) *models.JobStatusResponse {
	snap := u.snapshotByID(ctx, jobID)
	if snap == nil {
		return &models.JobStatusResponse{
			JobID:        jobID,
			Status:       models.JobStatusUnknown,
			ErrorMessage: "Job not found",
		}
	}
	return snap
}

func (u *transcodeUC) StreamJobStatus(ctx context.Context, jobID string) (<-chan *models.JobStatusResponse, error) {
	if u.snapshotByID(ctx, jobID) == nil {
		return nil, transcode.ErrJobNotFound
	}

	sub, unsubscribe := u.notifier.Subscribe(jobID)
	// Snapshot after subscribing so no update between the two is lost.
	current := u.snapshotByID(ctx, jobID)

	out := make(chan *models.JobStatusResponse, 1)
	out <- current
	if current.Status.Terminal() {
		unsubscribe()
		close(out)
		return out, nil
	}

	go func() {
		defer unsubscribe()
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case resp, ok := <-sub:
				if !ok {
					return
				}
				select {
				case out <- resp:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (u *transcodeUC) ListJobs(ctx context.Context, limit int, statusFilter []models.JobStatus, pageToken string) (*models.ListJobsResponse, error) {
	if limit <= 0 {
		limit = 100
	}
	jobs, err := u.repo.List(ctx, transcode.JobFilter{
		Limit:     limit,
		Statuses:  statusFilter,
		PageToken: pageToken,
	})
	if err != nil {
		u.logger.Errorf("ListJobs - List error: %v", err)
		return nil, err
	}
	total, err := u.repo.Count(ctx)
	if err != nil {
		u.logger.Errorf("ListJobs - Count error: %v", err)
		return nil, err
	}

	resp := &models.ListJobsResponse{
		Jobs:       make([]*models.JobStatusResponse, 0, len(jobs)),
		TotalCount: total,
	}
	for _, job := range jobs {
		resp.Jobs = append(resp.Jobs, models.NewJobStatusResponse(job.Snapshot()))
	}
	if len(jobs) == limit {
		resp.NextPageToken = jobs[len(jobs)-1].JobID
	}
	return resp, nil
}

func (u *transcodeUC) workerLoop(id int) {
	defer u.wg.Done()
	for {
		job, ok := u.queue.Pop()
		if !ok {
			return
		}
		u.waitForCPUHeadroom()
		u.runJob(id, job)
	}
}

// runJob executes one job to completion. A panic in job handling fails that
// job only; the worker keeps serving the queue.
func (u *transcodeUC) runJob(workerID int, job *models.TranscodeJob) {
	defer func() {
		if r := recover(); r != nil {
			u.logger.Errorf("worker %d: panic in job %s: %v", workerID, job.JobID, r)
			job.MarkFailed(fmt.Sprintf("internal error: %v", r))
			u.persist(job)
		}
		u.dropLive(job.JobID)
	}()

	if !job.MarkInProgress() {
		// Cancelled while queued; the cancel path already persisted it.
		return
	}
	u.persist(job)
	u.logger.Infof("worker %d: job %s started", workerID, job.JobID)

	n := len(job.OutputFormats)
	for i, format := range job.OutputFormats {
		if job.GetStatus() != models.JobStatusInProgress {
			// A progress save may still be in flight when the cancel path
			// persists; write once more so the last registry write is the
			// terminal snapshot.
			u.persist(job)
			return
		}
		base := 100 * i / n
		next := 100 * (i + 1) / n

		job.UpdateProgress(base, "Processing "+format.Name)
		u.persist(job)

		if err := u.encodeFormat(job, format, base, next); err != nil {
			if job.GetStatus() == models.JobStatusCancelled {
				u.persist(job)
				u.logger.Infof("worker %d: job %s cancelled during %s", workerID, job.JobID, format.Name)
				return
			}
			u.logger.Errorf("worker %d: job %s format %s failed: %v", workerID, job.JobID, format.Name, err)
			job.MarkFailed("Failed to transcode format: " + format.Name)
			u.persist(job)
			return
		}
	}

	completed := job.MarkCompleted()
	u.persist(job)
	if completed {
		u.logger.Infof("worker %d: job %s completed", workerID, job.JobID)
		u.archiveOutputs(job)
	}
}

func (u *transcodeUC) encodeFormat(job *models.TranscodeJob, format models.VideoFormat, base, next int) error {
	encCtx, cancel := context.WithCancel(u.ctx)
	defer cancel()
	job.SetEncodeCancel(cancel)
	defer job.SetEncodeCancel(nil)

	outputPath := u.store.OutputPath(job.JobID, job.VideoID, format.Name, job.OutputContainer)
	onProgress := func(percent int, message string) {
		if percent < 0 || percent > 100 {
			return
		}
		job.UpdateProgress(base+percent*(next-base)/100, message)
		u.persist(job)
	}

	if err := u.driver.Encode(encCtx, job.InputPath, outputPath, format, job.Options, &job.Metadata, onProgress); err != nil {
		return err
	}

	var size int64
	if info, err := os.Stat(outputPath); err == nil {
		size = info.Size()
	}
	job.AddOutputFile(models.OutputFile{
		Format:   format.Name,
		Location: outputPath,
		Size:     size,
		Duration: job.Metadata.DurationSeconds,
		Bitrate:  format.Bitrate,
	})
	u.persist(job)
	return nil
}

func (u *transcodeUC) archiveOutputs(job *models.TranscodeJob) {
	if u.awsRepo == nil {
		return
	}
	if err := u.awsRepo.ArchiveOutputs(u.ctx, job.Snapshot()); err != nil {
		u.logger.Errorf("failed to archive outputs for job %s: %v", job.JobID, err)
	}
}

// persist stores a snapshot in the registry and notifies status streams.
func (u *transcodeUC) persist(job *models.TranscodeJob) {
	snap := job.Snapshot()
	if err := u.repo.Save(context.Background(), snap); err != nil {
		u.logger.Errorf("failed to persist job %s: %v", snap.JobID, err)
	}
	u.notifier.Publish(models.NewJobStatusResponse(snap))
}

func (u *transcodeUC) snapshotByID(ctx context.Context, jobID string) *models.JobStatusResponse {
	u.mu.RLock()
	job := u.live[jobID]
	u.mu.RUnlock()
	if job != nil {
		return models.NewJobStatusResponse(job.Snapshot())
	}
	stored, err := u.repo.FindByID(ctx, jobID)
	if err != nil {
		return nil
	}
	return models.NewJobStatusResponse(stored.Snapshot())
}

func (u *transcodeUC) dropLive(jobID string) {
	u.mu.Lock()
	delete(u.live, jobID)
	u.mu.Unlock()
}

func (u *transcodeUC) waitForCPUHeadroom() {
	if u.cfg.Worker.MaxCPUUsage <= 0 {
		return
	}
	for {
		ok, usage := utils.CheckCPUUsage(u.cfg.Worker.MaxCPUUsage)
		if ok {
			return
		}
		u.logger.Warnf("cpu usage %.1f%% above limit %.1f%%, delaying next job", usage, u.cfg.Worker.MaxCPUUsage)
		select {
		case <-u.ctx.Done():
			return
		case <-time.After(cpuBackoff):
		}
	}
}

func (u *transcodeUC) resolveFormats(requested []models.VideoFormat) ([]models.VideoFormat, error) {
	if len(requested) > 0 {
		return requested, nil
	}
	names := strings.Split(u.cfg.Worker.DefaultFormats, ",")
	formats := make([]models.VideoFormat, 0, len(names))
	for _, name := range names {
		f, err := models.StandardFormat(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	return formats, nil
}

// estimateSeconds approximates the wall time for a job as half a minute of
// work per source minute per format, rounded to whole minutes.
func estimateSeconds(durationSeconds float64, formatCount int) int {
	minutes := durationSeconds / 60
	return int(math.Round(minutes*float64(formatCount)*0.5)) * 60
}
