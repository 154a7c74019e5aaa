package bridge

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunner_StepsBridges(t *testing.T) {
	b, _, _, _ := newTestBridge(t, nil)

	runner := NewRunner(time.Millisecond, nil)
	runner.Add(b)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := runner.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run: %v", err)
	}

	if b.Ticks() == 0 {
		t.Error("bridge was never stepped")
	}
	if runner.TickCount() == 0 {
		t.Error("runner recorded no ticks")
	}
}

func TestRunner_RemovesFailedBridge(t *testing.T) {
	b, session, _, _ := newTestBridge(t, nil)
	session.publisher.putErr = errors.New("session down")

	runner := NewRunner(time.Millisecond, nil)
	runner.Add(b)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	// Returns nil once the only bridge has been removed.
	if err := runner.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if runner.ErrorCount() == 0 {
		t.Error("expected failed steps to be counted")
	}
	if got := runner.Snapshot(); len(got) != 0 {
		t.Errorf("snapshot: got %d bridges, want 0", len(got))
	}
}

func TestRunner_Snapshot(t *testing.T) {
	b, _, actor, _ := newTestBridge(t, nil)
	actor.velocity.X = 5

	runner := NewRunner(time.Millisecond, nil)
	runner.Add(b)

	if err := b.Step(0.05); err != nil {
		t.Fatalf("Step: %v", err)
	}

	statuses := runner.Snapshot()
	if len(statuses) != 1 {
		t.Fatalf("snapshot: got %d entries, want 1", len(statuses))
	}
	status := statuses[0]
	if status.Name != "v1" || status.Speed != 5 || status.Ticks != 1 {
		t.Errorf("snapshot: got %+v", status)
	}
}
