package progress

import "sync"

// Tracker remembers the latest event of each run so it can be queried while
// the run is in flight.
type Tracker struct {
	mu     sync.RWMutex
	latest map[string]Event
}

func NewTracker() *Tracker {
	return &Tracker{latest: map[string]Event{}}
}

func (t *Tracker) Observe(ev Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.latest[ev.RunID] = ev
}

func (t *Tracker) Latest(runID string) (Event, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ev, ok := t.latest[runID]
	return ev, ok
}

// Tee forwards every event from in to out and records it. out is closed when
// in is closed.
func (t *Tracker) Tee(in <-chan Event, out chan<- Event) {
	defer func() {
		if out != nil {
			close(out)
		}
	}()
	for ev := range in {
		t.Observe(ev)
		if out != nil {
			out <- ev
		}
	}
}
