package models

import (
	"context"
	"testing"
)

func TestJobStateMachineHappyPath(t *testing.T) {
	job := NewTranscodeJob("vid-1", "/staging/vid-1.mp4")
	if job.GetStatus() != JobStatusQueued {
		t.Fatalf("new job status = %s, want queued", job.GetStatus())
	}
	if !job.MarkInProgress() {
		t.Fatal("MarkInProgress should succeed from queued")
	}
	if !job.MarkCompleted() {
		t.Fatal("MarkCompleted should succeed from in_progress")
	}
	if job.GetStatus() != JobStatusCompleted {
		t.Fatalf("status = %s, want completed", job.GetStatus())
	}
}

func TestTerminalStatesAreAbsorbing(t *testing.T) {
	job := NewTranscodeJob("vid-1", "/in")
	job.MarkInProgress()
	job.MarkFailed("boom")

	if job.MarkCompleted() {
		t.Fatal("completed after failed should be refused")
	}
	if job.MarkCancelled() {
		t.Fatal("cancelled after failed should be refused")
	}
	if job.MarkInProgress() {
		t.Fatal("in_progress after failed should be refused")
	}
	if job.GetStatus() != JobStatusFailed {
		t.Fatalf("status = %s, want failed", job.GetStatus())
	}
	if job.ErrorMessage != "boom" {
		t.Fatalf("error message = %q", job.ErrorMessage)
	}
}

func TestMarkInProgressRefusedAfterCancel(t *testing.T) {
	job := NewTranscodeJob("vid-1", "/in")
	if !job.MarkCancelled() {
		t.Fatal("cancel of a queued job should succeed")
	}
	if job.MarkInProgress() {
		t.Fatal("a cancelled job must not start")
	}
}

func TestUpdateProgressMonotonic(t *testing.T) {
	job := NewTranscodeJob("vid-1", "/in")
	job.MarkInProgress()

	job.UpdateProgress(40, "Transcoding 720p")
	job.UpdateProgress(20, "Transcoding 720p")
	if job.Snapshot().Progress != 40 {
		t.Fatalf("progress = %d, want 40", job.Snapshot().Progress)
	}

	job.MarkCancelled()
	job.UpdateProgress(90, "Transcoding 480p")
	if p := job.Snapshot().Progress; p != 40 {
		t.Fatalf("progress moved to %d after terminal state", p)
	}
}

func TestMarkCancelledSignalsRunningEncode(t *testing.T) {
	job := NewTranscodeJob("vid-1", "/in")
	job.MarkInProgress()

	ctx, cancel := context.WithCancel(context.Background())
	job.SetEncodeCancel(cancel)
	if !job.MarkCancelled() {
		t.Fatal("cancel should succeed")
	}
	select {
	case <-ctx.Done():
	default:
		t.Fatal("cancel should terminate the running encode context")
	}
}

func TestJobIDsAscendWithCreationOrder(t *testing.T) {
	// List pagination filters on job_id > page_token while ordering by
	// created_at, so ids must sort in creation order.
	var prev string
	for i := 0; i < 1000; i++ {
		job := NewTranscodeJob("vid-1", "/in")
		if job.JobID <= prev {
			t.Fatalf("job id %q does not sort after %q", job.JobID, prev)
		}
		prev = job.JobID
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	job := NewTranscodeJob("vid-1", "/in")
	job.AddOutputFile(OutputFile{Format: "720p"})

	snap := job.Snapshot()
	job.AddOutputFile(OutputFile{Format: "480p"})
	if len(snap.OutputFiles) != 1 {
		t.Fatalf("snapshot output files = %d, want 1", len(snap.OutputFiles))
	}
}
