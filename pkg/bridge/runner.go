package bridge

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// VehicleStatus is a diagnostics snapshot of one bridge.
type VehicleStatus struct {
	Name        string  `json:"name"`
	Speed       float64 `json:"speed"`
	Ticks       uint64  `json:"ticks"`
	DecodeDrops uint64  `json:"decode_drops"`
}

// Runner drives the per-tick entry point of a set of bridges at a fixed
// interval. Steps never overlap: all bridges are stepped sequentially on
// the runner's goroutine. A bridge whose Step fails is closed and
// removed; the transport is assumed broken for that vehicle.
type Runner struct {
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	bridges []*Bridge

	tickCount  atomic.Uint64
	errorCount atomic.Uint64

	lastErrorLog time.Time
}

// NewRunner creates a runner ticking at the given interval.
func NewRunner(interval time.Duration, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		interval: interval,
		logger:   logger,
	}
}

// Add registers a bridge with the runner. Safe before and during Run.
func (r *Runner) Add(b *Bridge) {
	r.mu.Lock()
	r.bridges = append(r.bridges, b)
	r.mu.Unlock()
}

// Run executes the tick loop until ctx is done or no bridges remain.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			elapsed := now.Sub(last).Seconds()
			last = now
			if remaining := r.tick(elapsed); remaining == 0 {
				r.logger.Warn("no vehicle bridges remaining, stopping")
				return nil
			}
		}
	}
}

// tick steps every bridge once and returns how many bridges remain.
func (r *Runner) tick(elapsed float64) int {
	r.mu.Lock()
	bridges := make([]*Bridge, len(r.bridges))
	copy(bridges, r.bridges)
	r.mu.Unlock()

	r.tickCount.Add(1)

	var failed []*Bridge
	for _, b := range bridges {
		if err := b.Step(elapsed); err != nil {
			r.errorCount.Add(1)
			r.logStepError(b, err)
			failed = append(failed, b)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range failed {
		for i, b := range r.bridges {
			if b == f {
				r.bridges = append(r.bridges[:i], r.bridges[i+1:]...)
				break
			}
		}
		if err := f.Close(); err != nil {
			r.logger.Warn("error closing failed bridge", "vehicle", f.Name(), "error", err)
		}
	}
	return len(r.bridges)
}

// logStepError logs a step failure, at most once per second per runner.
func (r *Runner) logStepError(b *Bridge, err error) {
	now := time.Now()
	if now.Sub(r.lastErrorLog) < time.Second {
		return
	}
	r.lastErrorLog = now
	r.logger.Error("bridge step failed, removing vehicle",
		"vehicle", b.Name(),
		"error", err,
		"total_errors", r.errorCount.Load(),
	)
}

// Snapshot returns a diagnostics view of all registered bridges.
func (r *Runner) Snapshot() []VehicleStatus {
	r.mu.Lock()
	bridges := make([]*Bridge, len(r.bridges))
	copy(bridges, r.bridges)
	r.mu.Unlock()

	statuses := make([]VehicleStatus, 0, len(bridges))
	for _, b := range bridges {
		statuses = append(statuses, VehicleStatus{
			Name:        b.Name(),
			Speed:       b.CurrentSpeed(),
			Ticks:       b.Ticks(),
			DecodeDrops: b.DecodeDrops(),
		})
	}
	return statuses
}

// TickCount returns the number of completed runner ticks.
func (r *Runner) TickCount() uint64 {
	return r.tickCount.Load()
}

// ErrorCount returns the number of failed bridge steps.
func (r *Runner) ErrorCount() uint64 {
	return r.errorCount.Load()
}
