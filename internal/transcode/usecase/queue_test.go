package usecase

import (
	"testing"
	"time"

	"github.com/streamforge/transcoder/internal/models"
)

func TestJobQueueFIFO(t *testing.T) {
	q := newJobQueue()
	first := models.NewTranscodeJob("vid-1", "/a")
	second := models.NewTranscodeJob("vid-2", "/b")
	q.Push(first)
	q.Push(second)

	got, ok := q.Pop()
	if !ok || got.JobID != first.JobID {
		t.Fatalf("first Pop = %v, %v", got, ok)
	}
	got, ok = q.Pop()
	if !ok || got.JobID != second.JobID {
		t.Fatalf("second Pop = %v, %v", got, ok)
	}
	if q.Len() != 0 {
		t.Fatalf("Len = %d, want 0", q.Len())
	}
}

func TestJobQueuePopBlocksUntilPush(t *testing.T) {
	q := newJobQueue()
	done := make(chan string, 1)
	go func() {
		job, ok := q.Pop()
		if !ok {
			done <- ""
			return
		}
		done <- job.JobID
	}()

	job := models.NewTranscodeJob("vid-1", "/a")
	q.Push(job)
	select {
	case id := <-done:
		if id != job.JobID {
			t.Fatalf("popped %s, want %s", id, job.JobID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Pop never returned")
	}
}

func TestJobQueueCloseUnblocksPop(t *testing.T) {
	q := newJobQueue()
	done := make(chan bool, 1)
	go func() {
		_, ok := q.Pop()
		done <- ok
	}()

	q.Close()
	select {
	case ok := <-done:
		if ok {
			t.Fatal("Pop on a closed empty queue should report false")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Pop never returned after Close")
	}

	// Pushes after Close are dropped.
	q.Push(models.NewTranscodeJob("vid-1", "/a"))
	if q.Len() != 0 {
		t.Fatalf("Len = %d after Push on closed queue", q.Len())
	}
}

func TestStatusNotifierCoalesces(t *testing.T) {
	n := newStatusNotifier()
	ch, cancel := n.Subscribe("job-1")
	defer cancel()

	n.Publish(&models.JobStatusResponse{JobID: "job-1", Status: models.JobStatusInProgress, Progress: 10})
	n.Publish(&models.JobStatusResponse{JobID: "job-1", Status: models.JobStatusInProgress, Progress: 60})

	// The unread 10% snapshot is replaced by the 60% one.
	got := <-ch
	if got.Progress != 60 {
		t.Fatalf("progress = %d, want 60", got.Progress)
	}
}

func TestStatusNotifierClosesOnTerminal(t *testing.T) {
	n := newStatusNotifier()
	ch, cancel := n.Subscribe("job-1")
	defer cancel()

	n.Publish(&models.JobStatusResponse{JobID: "job-1", Status: models.JobStatusCompleted, Progress: 100})

	got, ok := <-ch
	if !ok || got.Status != models.JobStatusCompleted {
		t.Fatalf("read = %v, %v", got, ok)
	}
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after a terminal snapshot")
	}
}
