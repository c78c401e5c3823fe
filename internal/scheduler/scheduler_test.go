package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/sahayog/society-backend/internal/domain"
)

type fakeRunner struct {
	calls []time.Time
	err   error
}

func (f *fakeRunner) RunOnce(_ context.Context, asOf time.Time) (domain.BatchResult, error) {
	f.calls = append(f.calls, asOf)
	return domain.BatchResult{}, f.err
}

func TestTick_OutsideRunHour(t *testing.T) {
	runner := &fakeRunner{}
	s := NewPenaltyScheduler(runner, time.Hour, 2, time.UTC)

	s.tick(time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC))

	if len(runner.calls) != 0 {
		t.Errorf("Expected no run outside the configured hour, got %d", len(runner.calls))
	}
}

func TestTick_DuringRunHour(t *testing.T) {
	runner := &fakeRunner{}
	s := NewPenaltyScheduler(runner, time.Hour, 2, time.UTC)

	now := time.Date(2024, 6, 1, 2, 30, 0, 0, time.UTC)
	s.tick(now)

	if len(runner.calls) != 1 {
		t.Fatalf("Expected 1 run during the configured hour, got %d", len(runner.calls))
	}
	if !runner.calls[0].Equal(now) {
		t.Errorf("Expected the run to use the tick instant, got %v", runner.calls[0])
	}
}

func TestStartStop(t *testing.T) {
	runner := &fakeRunner{}
	s := NewPenaltyScheduler(runner, 10*time.Millisecond, 2, time.UTC)

	s.Start()
	// Starting twice must not spawn a second loop.
	s.Start()
	time.Sleep(30 * time.Millisecond)
	s.Stop()
	// Stopping twice must be safe.
	s.Stop()
}
