package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sahayog/society-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// PenaltyService applies the flat overdue penalty to loans that have passed
// their expected end date. It owns no timer: RunOnce is invoked by the
// scheduler or by the admin trigger endpoint. The per-day idempotency lives
// on the loan itself (LastPenaltyAssessedAt); the mutex additionally
// single-flights concurrent invocations so the check-then-set on that stamp
// cannot race within this process.
type PenaltyService struct {
	loanRepo domain.LoanRepository
	location *time.Location

	mu sync.Mutex
}

// NewPenaltyService creates a new PenaltyService. Batch-day comparisons are
// made in the given location so a run just before and just after midnight
// cannot double-charge.
func NewPenaltyService(loanRepo domain.LoanRepository, location *time.Location) *PenaltyService {
	return &PenaltyService{loanRepo: loanRepo, location: location}
}

// RunOnce processes every penalty candidate as of the given instant. A loan
// already stamped for asOf's calendar date is skipped, so re-invoking with
// the same asOf (or on every scheduler tick within a day) applies the 2%
// penalty exactly once.
func (s *PenaltyService) RunOnce(ctx context.Context, asOf time.Time) (domain.BatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loans, err := s.loanRepo.GetPenaltyCandidates(ctx, asOf)
	if err != nil {
		return domain.BatchResult{}, err
	}

	log.Info().Int("candidates", len(loans)).Time("as_of", asOf).Msg("Processing overdue loans for penalties")

	result := domain.BatchResult{TotalPenaltyApplied: decimal.Zero}
	for _, loan := range loans {
		updated, penalty, applied := domain.ApplyOverduePenalty(loan, asOf, s.location)
		if !applied {
			result.SkippedCount++
			continue
		}

		if _, err := s.loanRepo.Update(ctx, updated); err != nil {
			result.ErrorCount++
			log.Error().Err(err).Str("loan_number", loan.LoanNumber).Msg("Failed to persist overdue penalty")
			continue
		}

		result.ProcessedCount++
		result.TotalPenaltyApplied = result.TotalPenaltyApplied.Add(penalty)
		log.Info().
			Str("loan_number", loan.LoanNumber).
			Str("penalty", penalty.StringFixed(2)).
			Msg("Overdue penalty applied")
	}

	log.Info().
		Int("processed", result.ProcessedCount).
		Int("skipped", result.SkippedCount).
		Int("errors", result.ErrorCount).
		Str("total_penalty", result.TotalPenaltyApplied.StringFixed(2)).
		Msg("Penalty batch completed")

	return result, nil
}
