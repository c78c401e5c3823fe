package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sahayog/society-backend/internal/domain"
	"github.com/sahayog/society-backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedOverdueLoan(repo *testutil.MockLoanRepository, principal int64, endDate time.Time) *domain.Loan {
	loan := &domain.Loan{
		ID:              uuid.New(),
		LoanNumber:      "LN202401000001",
		MemberID:        uuid.New(),
		Status:          domain.LoanStatusActive,
		Principal:       decimal.NewFromInt(principal),
		CurrentBalance:  decimal.NewFromInt(principal),
		OverdueAmount:   decimal.Zero,
		TotalLateFee:    decimal.Zero,
		ExpectedEndDate: &endDate,
	}
	repo.AddLoan(loan)
	return loan
}

func TestPenaltyService_RunOnce(t *testing.T) {
	repo := testutil.NewMockLoanRepository()
	svc := NewPenaltyService(repo, time.UTC)

	endDate := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	loan := seedOverdueLoan(repo, 50000, endDate)
	seedOverdueLoan(repo, 10000, endDate)

	asOf := time.Date(2024, 6, 1, 2, 0, 0, 0, time.UTC)
	result, err := svc.RunOnce(context.Background(), asOf)
	require.NoError(t, err)

	assert.Equal(t, 2, result.ProcessedCount)
	assert.Equal(t, 0, result.SkippedCount)
	assert.Equal(t, 0, result.ErrorCount)
	// 2% of 50000 + 2% of 10000.
	assert.True(t, result.TotalPenaltyApplied.Equal(decimal.NewFromInt(1200)))

	stored, err := repo.GetByID(context.Background(), loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusOverdue, stored.Status)
	assert.True(t, stored.OverdueAmount.Equal(decimal.NewFromInt(1000)))
	require.NotNil(t, stored.LastPenaltyAssessedAt)
}

func TestPenaltyService_RunOnce_IdempotentWithinDay(t *testing.T) {
	repo := testutil.NewMockLoanRepository()
	svc := NewPenaltyService(repo, time.UTC)

	endDate := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	loan := seedOverdueLoan(repo, 50000, endDate)

	asOf := time.Date(2024, 6, 1, 2, 0, 0, 0, time.UTC)
	first, err := svc.RunOnce(context.Background(), asOf)
	require.NoError(t, err)
	require.Equal(t, 1, first.ProcessedCount)

	// Same asOf: the loan is already stamped for that date.
	second, err := svc.RunOnce(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, 0, second.ProcessedCount)
	assert.Equal(t, 1, second.SkippedCount)
	assert.True(t, second.TotalPenaltyApplied.IsZero())

	stored, err := repo.GetByID(context.Background(), loan.ID)
	require.NoError(t, err)
	assert.True(t, stored.OverdueAmount.Equal(decimal.NewFromInt(1000)), "penalty must not stack within a day")

	// Next day the penalty accrues again.
	third, err := svc.RunOnce(context.Background(), asOf.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, third.ProcessedCount)

	stored, err = repo.GetByID(context.Background(), loan.ID)
	require.NoError(t, err)
	assert.True(t, stored.OverdueAmount.Equal(decimal.NewFromInt(2000)))
}

func TestPenaltyService_RunOnce_SkipsIneligible(t *testing.T) {
	repo := testutil.NewMockLoanRepository()
	svc := NewPenaltyService(repo, time.UTC)

	// Not yet past its end date.
	future := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	seedOverdueLoan(repo, 50000, future)

	result, err := svc.RunOnce(context.Background(), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0, result.ProcessedCount)
	assert.Equal(t, 0, result.SkippedCount)
}

func TestPenaltyService_RunOnce_CountsPersistErrors(t *testing.T) {
	repo := testutil.NewMockLoanRepository()
	svc := NewPenaltyService(repo, time.UTC)

	endDate := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	seedOverdueLoan(repo, 50000, endDate)
	repo.UpdateFn = func(*domain.Loan) (*domain.Loan, error) {
		return nil, domain.ErrInternalError
	}

	result, err := svc.RunOnce(context.Background(), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0, result.ProcessedCount)
	assert.Equal(t, 1, result.ErrorCount)
	assert.True(t, result.TotalPenaltyApplied.IsZero())
}
