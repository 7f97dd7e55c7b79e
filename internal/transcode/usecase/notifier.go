package usecase

import (
	"sync"

	"github.com/streamforge/transcoder/internal/models"
)

// statusNotifier fans each job's snapshots out to its status stream
// subscribers. Subscriber channels hold a single entry; when a subscriber
// lags, older snapshots are replaced by newer ones so that a slow reader
// always observes the latest state.
type statusNotifier struct {
	mu   sync.Mutex
	subs map[string]map[chan *models.JobStatusResponse]struct{}
}

func newStatusNotifier() *statusNotifier {
	return &statusNotifier{
		subs: make(map[string]map[chan *models.JobStatusResponse]struct{}),
	}
}

// Subscribe registers a stream for jobID. The returned cancel function must
// be called once the subscriber is done; it is safe to call after the channel
// was closed by a terminal publish.
func (n *statusNotifier) Subscribe(jobID string) (chan *models.JobStatusResponse, func()) {
	ch := make(chan *models.JobStatusResponse, 1)
	n.mu.Lock()
	set, ok := n.subs[jobID]
	if !ok {
		set = make(map[chan *models.JobStatusResponse]struct{})
		n.subs[jobID] = set
	}
	set[ch] = struct{}{}
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if set, ok := n.subs[jobID]; ok {
			if _, live := set[ch]; live {
				delete(set, ch)
				close(ch)
				if len(set) == 0 {
					delete(n.subs, jobID)
				}
			}
		}
	}
	return ch, cancel
}

// Publish delivers the snapshot to every subscriber, coalescing over unread
// entries. A terminal snapshot closes the streams and drops the job entry.
func (n *statusNotifier) Publish(resp *models.JobStatusResponse) {
	n.mu.Lock()
	defer n.mu.Unlock()
	set, ok := n.subs[resp.JobID]
	if !ok {
		return
	}
	for ch := range set {
		select {
		case ch <- resp:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- resp
		}
	}
	if resp.Status.Terminal() {
		for ch := range set {
			close(ch)
		}
		delete(n.subs, resp.JobID)
	}
}
