package api

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/forPelevin/reelforge/internal/progress"
	"github.com/forPelevin/reelforge/internal/types"
)

// ErrBusy is returned by Submit while another render is in flight.
var ErrBusy = errors.New("a render is already running")

// RenderFunc performs one render, sending progress on events. It must not
// close events.
type RenderFunc func(ctx context.Context, runID string, p types.Project, events chan<- progress.Event) error

// Runner executes submitted renders one at a time in the background.
type Runner struct {
	ctx     context.Context
	render  RenderFunc
	tracker *progress.Tracker
	logger  *slog.Logger

	mu     sync.Mutex
	active string
	wg     sync.WaitGroup
}

// NewRunner ties background renders to ctx; cancelling it stops the active
// render.
func NewRunner(ctx context.Context, render RenderFunc, tracker *progress.Tracker, logger *slog.Logger) *Runner {
	return &Runner{ctx: ctx, render: render, tracker: tracker, logger: logger}
}

// Submit starts p and returns its run ID.
func (r *Runner) Submit(p types.Project) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != "" {
		return "", ErrBusy
	}
	runID := uuid.NewString()
	r.active = runID

	events := make(chan progress.Event, 64)
	r.wg.Add(2)
	go func() {
		defer r.wg.Done()
		r.tracker.Tee(events, nil)
	}()
	go func() {
		defer r.wg.Done()
		err := r.render(r.ctx, runID, p, events)
		close(events)
		if err != nil {
			r.logger.Warn("submitted render failed", "run_id", runID, "error", err)
		} else {
			r.logger.Info("submitted render finished", "run_id", runID)
		}
		r.mu.Lock()
		r.active = ""
		r.mu.Unlock()
	}()
	return runID, nil
}

// Active returns the in-flight run ID, or "".
func (r *Runner) Active() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Wait blocks until background work has drained.
func (r *Runner) Wait() {
	r.wg.Wait()
}
