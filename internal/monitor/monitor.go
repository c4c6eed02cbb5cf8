// Package monitor implements the meeting-activity detection loops: a
// foreground-application monitor and an ambient audio-level monitor,
// each turning noisy per-poll observations into debounced start/stop
// transitions published through a trigger.Publisher.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Snapshot is a read-only view of a monitor's state for the status
// surface. Zero-valued fields are omitted from the JSON encoding.
type Snapshot struct {
	Monitor     string    `json:"monitor"`
	Active      bool      `json:"active"`
	ActiveSince time.Time `json:"active_since,omitzero"`
	LastSignal  time.Time `json:"last_signal,omitzero"`
	LastSample  time.Time `json:"last_sample,omitzero"`
	CurrentApp  string    `json:"current_app,omitempty"`
	LastLevelDB float64   `json:"last_level_db,omitempty"`
}

// Runner drives a monitor step function at a fixed interval until the
// context ends or Stop is called. The loop is single-threaded: one
// step, one sleep, no internal parallelism.
type Runner struct {
	name     string
	interval time.Duration
	step     func(ctx context.Context, now time.Time)
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRunner creates a loop runner.
func NewRunner(name string, interval time.Duration, step func(context.Context, time.Time)) *Runner {
	return &Runner{
		name:     name,
		interval: interval,
		step:     step,
		stopCh:   make(chan struct{}),
	}
}

// Run executes the loop. It returns once the context is done or Stop
// is called; both are graceful.
func (r *Runner) Run(ctx context.Context) {
	slog.Info("monitor started", "monitor", r.name, "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.step(ctx, time.Now())

	for {
		select {
		case <-ctx.Done():
			slog.Info("monitor shutting down", "monitor", r.name)
			return
		case <-r.stopCh:
			slog.Info("monitor shutting down", "monitor", r.name)
			return
		case now := <-ticker.C:
			r.step(ctx, now)
		}
	}
}

// Stop ends the loop. Safe to call more than once.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}
