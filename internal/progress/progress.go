// Package progress carries per-step completion events from a running
// pipeline to whoever watches it.
package progress

import (
	"context"
	"time"
)

// Event is a progress update for one pipeline step. Percent restarts at 0
// for every step.
type Event struct {
	RunID   string    `json:"run_id"`
	Step    string    `json:"step"`
	Percent float64   `json:"percent"`
	Done    bool      `json:"done"`
	Final   bool      `json:"final"`
	Err     string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}

// Reporter sends events for one run. A nil Reporter, or one without a
// channel, drops everything.
type Reporter struct {
	runID string
	ch    chan<- Event
	now   func() time.Time
}

func NewReporter(runID string, ch chan<- Event) *Reporter {
	return &Reporter{runID: runID, ch: ch, now: time.Now}
}

// Step announces step at 0% and returns a callback for incremental updates.
// Incremental updates are dropped rather than blocking when the consumer
// falls behind.
func (r *Reporter) Step(ctx context.Context, step string) func(float64) {
	if r == nil || r.ch == nil {
		return func(float64) {}
	}
	r.send(ctx, Event{Step: step})
	return func(p float64) {
		select {
		case r.ch <- r.stamp(Event{Step: step, Percent: p}):
		default:
		}
	}
}

// Done marks step complete.
func (r *Reporter) Done(ctx context.Context, step string) {
	if r == nil || r.ch == nil {
		return
	}
	r.send(ctx, Event{Step: step, Percent: 100, Done: true})
}

// Finish sends the last event of the run; err may be nil.
func (r *Reporter) Finish(ctx context.Context, err error) {
	if r == nil || r.ch == nil {
		return
	}
	ev := Event{Step: "finished", Percent: 100, Done: true, Final: true}
	if err != nil {
		ev.Step = "failed"
		ev.Percent = 0
		ev.Err = err.Error()
	}
	r.send(ctx, ev)
}

func (r *Reporter) send(ctx context.Context, ev Event) {
	select {
	case r.ch <- r.stamp(ev):
	case <-ctx.Done():
	}
}

func (r *Reporter) stamp(ev Event) Event {
	ev.RunID = r.runID
	ev.At = r.now()
	return ev
}
