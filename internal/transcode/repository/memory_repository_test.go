package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/streamforge/transcoder/internal/models"
	"github.com/streamforge/transcoder/internal/transcode"
)

func seedJobs(t *testing.T, repo transcode.JobRepository, n int) []*models.TranscodeJob {
	t.Helper()
	base := time.Now()
	jobs := make([]*models.TranscodeJob, 0, n)
	for i := 0; i < n; i++ {
		job := &models.TranscodeJob{
			JobID:     fmt.Sprintf("job-%03d", i),
			VideoID:   fmt.Sprintf("video-%d", i%2),
			Status:    models.JobStatusQueued,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := repo.Save(context.Background(), job); err != nil {
			t.Fatalf("Save: %v", err)
		}
		jobs = append(jobs, job)
	}
	return jobs
}

func TestMemoryRepoFindByID(t *testing.T) {
	repo := NewMemoryJobRepo()
	seedJobs(t, repo, 3)

	job, err := repo.FindByID(context.Background(), "job-001")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if job.JobID != "job-001" {
		t.Fatalf("got %s, want job-001", job.JobID)
	}

	if _, err := repo.FindByID(context.Background(), "missing"); err != transcode.ErrJobNotFound {
		t.Fatalf("err = %v, want ErrJobNotFound", err)
	}
}

func TestMemoryRepoListPagination(t *testing.T) {
	repo := NewMemoryJobRepo()
	seedJobs(t, repo, 5)
	ctx := context.Background()

	filter := transcode.JobFilter{
		Limit: 2,
		Statuses: []models.JobStatus{
			models.JobStatusQueued, models.JobStatusInProgress, models.JobStatusCompleted,
			models.JobStatusFailed, models.JobStatusCancelled,
		},
	}

	var visited []string
	for {
		page, err := repo.List(ctx, filter)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		for _, job := range page {
			visited = append(visited, job.JobID)
		}
		if len(page) < filter.Limit {
			break
		}
		filter.PageToken = page[len(page)-1].JobID
	}

	if len(visited) != 5 {
		t.Fatalf("visited %d jobs, want 5: %v", len(visited), visited)
	}
	seen := make(map[string]bool)
	for i, id := range visited {
		if seen[id] {
			t.Fatalf("job %s visited twice", id)
		}
		seen[id] = true
		if want := fmt.Sprintf("job-%03d", i); id != want {
			t.Fatalf("position %d: got %s, want %s (ascending created_at)", i, id, want)
		}
	}
}

func TestMemoryRepoListStatusFilter(t *testing.T) {
	repo := NewMemoryJobRepo()
	jobs := seedJobs(t, repo, 4)
	ctx := context.Background()

	jobs[1].Status = models.JobStatusCompleted
	jobs[3].Status = models.JobStatusCompleted

	page, err := repo.List(ctx, transcode.JobFilter{Statuses: []models.JobStatus{models.JobStatusCompleted}})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("got %d jobs, want 2", len(page))
	}
	for _, job := range page {
		if job.Status != models.JobStatusCompleted {
			t.Fatalf("job %s has status %s", job.JobID, job.Status)
		}
	}
}

func TestMemoryRepoListDefaultLimit(t *testing.T) {
	repo := NewMemoryJobRepo()
	seedJobs(t, repo, 3)

	page, err := repo.List(context.Background(), transcode.JobFilter{Limit: -1})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page) != 3 {
		t.Fatalf("got %d jobs, want 3", len(page))
	}
}

func TestMemoryRepoCountAndDelete(t *testing.T) {
	repo := NewMemoryJobRepo()
	seedJobs(t, repo, 3)
	ctx := context.Background()

	if n, _ := repo.Count(ctx); n != 3 {
		t.Fatalf("Count = %d, want 3", n)
	}
	if err := repo.DeleteByID(ctx, "job-000"); err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if n, _ := repo.Count(ctx); n != 2 {
		t.Fatalf("Count = %d, want 2", n)
	}
	if err := repo.DeleteByID(ctx, "job-000"); err != transcode.ErrJobNotFound {
		t.Fatalf("err = %v, want ErrJobNotFound", err)
	}
}

func TestMemoryRepoFindByVideoID(t *testing.T) {
	repo := NewMemoryJobRepo()
	seedJobs(t, repo, 4)

	jobs, err := repo.FindByVideoID(context.Background(), "video-0")
	if err != nil {
		t.Fatalf("FindByVideoID: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(jobs))
	}
	for _, job := range jobs {
		if job.VideoID != "video-0" {
			t.Fatalf("job %s has video %s", job.JobID, job.VideoID)
		}
	}
}
