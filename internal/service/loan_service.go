package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sahayog/society-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// LoanService handles the loan lifecycle: request, approval, payments and
// overdue assessment. All money math is delegated to the domain calculators;
// this layer loads aggregates, applies the pure transforms and persists the
// results.
type LoanService struct {
	loanRepo domain.LoanRepository
}

// NewLoanService creates a new LoanService
func NewLoanService(loanRepo domain.LoanRepository) *LoanService {
	return &LoanService{loanRepo: loanRepo}
}

// RequestLoanInput contains input for a member's loan application
type RequestLoanInput struct {
	MemberID          uuid.UUID
	LoanType          string
	Purpose           *string
	Principal         decimal.Decimal
	AnnualRatePercent decimal.Decimal
	DurationMonths    int
}

// RequestLoan records a new loan application in PENDING state. The schedule
// is not generated until approval.
func (s *LoanService) RequestLoan(ctx context.Context, input RequestLoanInput) (*domain.Loan, error) {
	loan := &domain.Loan{
		ID:                uuid.New(),
		LoanNumber:        newLoanNumber(time.Now()),
		MemberID:          input.MemberID,
		LoanType:          strings.TrimSpace(input.LoanType),
		Purpose:           input.Purpose,
		Principal:         input.Principal,
		AnnualRatePercent: input.AnnualRatePercent,
		DurationMonths:    input.DurationMonths,
		Status:            domain.LoanStatusPending,
		CurrentBalance:    decimal.Zero,
		OverdueAmount:     decimal.Zero,
		TotalLateFee:      decimal.Zero,
	}
	if err := loan.Validate(); err != nil {
		return nil, err
	}

	return s.loanRepo.Create(ctx, loan)
}

// ApproveLoan generates the amortization schedule and activates the loan.
// The current balance is initialized to the schedule's total amount
// (principal plus interest).
func (s *LoanService) ApproveLoan(ctx context.Context, loanID uuid.UUID, startDate time.Time, approvedBy *string) (*domain.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !loan.CanTransitionTo(domain.LoanStatusActive) {
		return nil, domain.ErrInvalidStatusChange
	}

	loan.StartDate = &startDate
	endDate := startDate.AddDate(0, loan.DurationMonths, 0)
	loan.ExpectedEndDate = &endDate

	snap, err := loan.Snapshot()
	if err != nil {
		return nil, err
	}
	schedule, err := domain.BuildSchedule(snap)
	if err != nil {
		return nil, err
	}

	loan.Schedule = schedule
	loan.Status = domain.LoanStatusActive
	loan.CurrentBalance = schedule.TotalAmount
	loan.AddNote(fmt.Sprintf("Loan approved: EMI %s over %d months", schedule.EMIAmount.StringFixed(2), loan.DurationMonths), approvedBy, time.Now())

	updated, err := s.loanRepo.Update(ctx, loan)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("loan_number", loan.LoanNumber).
		Str("emi", schedule.EMIAmount.StringFixed(2)).
		Int("installments", len(schedule.Installments)).
		Msg("Loan approved")

	return updated, nil
}

// RejectLoan declines a pending loan application.
func (s *LoanService) RejectLoan(ctx context.Context, loanID uuid.UUID, reason string, rejectedBy *string) (*domain.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !loan.CanTransitionTo(domain.LoanStatusRejected) {
		return nil, domain.ErrInvalidStatusChange
	}

	loan.Status = domain.LoanStatusRejected
	loan.RejectionReason = &reason
	loan.AddNote("Loan rejected: "+reason, rejectedBy, time.Now())

	return s.loanRepo.Update(ctx, loan)
}

// RecordPayment settles one installment against the loan. Duplicate payments
// on the same installment fail with domain.ErrInstallmentNotFound and leave
// the aggregate untouched. When the final installment is settled the loan
// moves to COMPLETED.
func (s *LoanService) RecordPayment(ctx context.Context, loanID uuid.UUID, installmentNumber int, amount decimal.Decimal, asOf time.Time) (*domain.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Schedule == nil {
		return nil, domain.ErrInstallmentNotFound
	}

	result, err := domain.RecordPayment(loan.Schedule, installmentNumber, amount, loan.CurrentBalance, asOf)
	if err != nil {
		return nil, err
	}

	loan.Schedule = result.Schedule
	loan.CurrentBalance = result.NewBalance
	if result.Completed {
		loan.Status = domain.LoanStatusCompleted
		loan.AddNote("Loan fully repaid", nil, asOf)
	}

	updated, err := s.loanRepo.Update(ctx, loan)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("loan_number", loan.LoanNumber).
		Int("installment", installmentNumber).
		Str("amount", amount.StringFixed(2)).
		Bool("completed", result.Completed).
		Msg("Loan payment recorded")

	return updated, nil
}

// AssessOverdue recomputes the overdue amount and late fees for a loan as of
// the given instant and persists the result. A loan with overdue
// installments moves to OVERDUE.
func (s *LoanService) AssessOverdue(ctx context.Context, loanID uuid.UUID, asOf time.Time) (*domain.Loan, domain.OverdueResult, error) {
	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, domain.OverdueResult{}, err
	}
	if loan.Schedule == nil {
		return nil, domain.OverdueResult{}, domain.ErrInvalidScheduleInput
	}

	result := domain.AssessOverdue(loan.Schedule, asOf)
	loan.Schedule = result.Schedule
	loan.OverdueAmount = result.OverdueAmount
	loan.TotalLateFee = result.TotalLateFee
	if result.OverdueCount > 0 && loan.CanTransitionTo(domain.LoanStatusOverdue) {
		loan.Status = domain.LoanStatusOverdue
	}

	updated, err := s.loanRepo.Update(ctx, loan)
	if err != nil {
		return nil, domain.OverdueResult{}, err
	}

	return updated, result, nil
}

// MarkDefaulted is the administrative action that writes off a loan after
// sustained overdue status. Remaining pending installments are marked
// DEFAULTED.
func (s *LoanService) MarkDefaulted(ctx context.Context, loanID uuid.UUID, markedBy *string) (*domain.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !loan.CanTransitionTo(domain.LoanStatusDefaulted) {
		return nil, domain.ErrInvalidStatusChange
	}

	loan.Status = domain.LoanStatusDefaulted
	if loan.Schedule != nil {
		schedule := loan.Schedule.Clone()
		for i := range schedule.Installments {
			if schedule.Installments[i].Status == domain.InstallmentPending {
				schedule.Installments[i].Status = domain.InstallmentDefaulted
			}
		}
		loan.Schedule = schedule
	}
	loan.AddNote("Loan marked as defaulted", markedBy, time.Now())

	return s.loanRepo.Update(ctx, loan)
}

// GetLoan retrieves a loan by ID.
func (s *LoanService) GetLoan(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	return s.loanRepo.GetByID(ctx, loanID)
}

// GetLoansByMember retrieves all loans for a member.
func (s *LoanService) GetLoansByMember(ctx context.Context, memberID uuid.UUID) ([]*domain.Loan, error) {
	return s.loanRepo.GetByMember(ctx, memberID)
}

// newLoanNumber builds a human-readable loan number: LN + year + month + a
// timestamp-derived suffix.
func newLoanNumber(now time.Time) string {
	suffix := now.UnixMilli() % 1000000
	return fmt.Sprintf("LN%d%02d%06d", now.Year(), int(now.Month()), suffix)
}
