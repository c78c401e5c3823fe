package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sahayog/society-backend/internal/domain"
)

// PenaltyRunner is the slice of PenaltyService the scheduler needs.
type PenaltyRunner interface {
	RunOnce(ctx context.Context, asOf time.Time) (domain.BatchResult, error)
}

// PenaltyScheduler periodically triggers the overdue penalty pass. The pass
// itself is idempotent per calendar day, so the scheduler ticks more often
// than once a day and simply skips ticks outside the configured run hour;
// a tick lost to a restart is retried on the next one.
type PenaltyScheduler struct {
	runner   PenaltyRunner
	interval time.Duration
	runHour  int
	location *time.Location

	ticker  *time.Ticker
	stop    chan struct{}
	stopped bool
	wg      sync.WaitGroup
	mu      sync.Mutex
}

// NewPenaltyScheduler creates a scheduler that fires the penalty pass during
// the given hour of the day in the given location.
func NewPenaltyScheduler(runner PenaltyRunner, interval time.Duration, runHour int, location *time.Location) *PenaltyScheduler {
	return &PenaltyScheduler{
		runner:   runner,
		interval: interval,
		runHour:  runHour,
		location: location,
		stop:     make(chan struct{}),
	}
}

// Start begins ticking in a background goroutine.
func (s *PenaltyScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		return
	}
	s.ticker = time.NewTicker(s.interval)
	s.wg.Add(1)
	go s.run()

	log.Info().
		Dur("interval", s.interval).
		Int("run_hour", s.runHour).
		Str("timezone", s.location.String()).
		Msg("Penalty scheduler started")
}

// Stop halts the scheduler and waits for an in-flight pass to finish.
func (s *PenaltyScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker == nil || s.stopped {
		return
	}
	s.stopped = true
	s.ticker.Stop()
	close(s.stop)
	s.wg.Wait()
	log.Info().Msg("Penalty scheduler stopped")
}

func (s *PenaltyScheduler) run() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ticker.C:
			s.tick(time.Now())
		case <-s.stop:
			return
		}
	}
}

func (s *PenaltyScheduler) tick(now time.Time) {
	if now.In(s.location).Hour() != s.runHour {
		return
	}

	result, err := s.runner.RunOnce(context.Background(), now)
	if err != nil {
		log.Error().Err(err).Msg("Scheduled penalty run failed")
		return
	}
	log.Info().
		Int("processed", result.ProcessedCount).
		Int("skipped", result.SkippedCount).
		Int("errors", result.ErrorCount).
		Msg("Scheduled penalty run completed")
}
