package usecase

import (
	"sync"

	"github.com/streamforge/transcoder/internal/models"
)

// jobQueue is an unbounded FIFO handing jobs to the worker pool. Push never
// blocks; Pop blocks until a job is available or the queue is closed.
type jobQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []*models.TranscodeJob
	closed bool
}

func newJobQueue() *jobQueue {
	q := &jobQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *jobQueue) Push(job *models.TranscodeJob) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, job)
	q.cond.Signal()
}

func (q *jobQueue) Pop() (*models.TranscodeJob, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	job := q.items[0]
	q.items = q.items[1:]
	return job, true
}

func (q *jobQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

func (q *jobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
