package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func overdueLoan(status LoanStatus, endDate time.Time) *Loan {
	return &Loan{
		ID:             uuid.New(),
		LoanNumber:     "LN202401000001",
		Status:         status,
		Principal:      decimal.NewFromInt(50000),
		CurrentBalance: decimal.NewFromInt(20000),
		OverdueAmount:  decimal.Zero,
		TotalLateFee:   decimal.Zero,
		ExpectedEndDate: func() *time.Time {
			d := endDate
			return &d
		}(),
	}
}

func TestEligibleForOverduePenalty(t *testing.T) {
	asOf := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	past := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	if !EligibleForOverduePenalty(overdueLoan(LoanStatusActive, past), asOf) {
		t.Error("expected ACTIVE loan past end date to be eligible")
	}
	if !EligibleForOverduePenalty(overdueLoan(LoanStatusApproved, past), asOf) {
		t.Error("expected APPROVED loan past end date to be eligible")
	}
	if !EligibleForOverduePenalty(overdueLoan(LoanStatusOverdue, past), asOf) {
		t.Error("expected OVERDUE loan to keep accruing")
	}
	if EligibleForOverduePenalty(overdueLoan(LoanStatusActive, future), asOf) {
		t.Error("expected loan before end date to be ineligible")
	}
	if EligibleForOverduePenalty(overdueLoan(LoanStatusCompleted, past), asOf) {
		t.Error("expected COMPLETED loan to be ineligible")
	}
	if EligibleForOverduePenalty(overdueLoan(LoanStatusDefaulted, past), asOf) {
		t.Error("expected DEFAULTED loan to be ineligible")
	}
}

func TestApplyOverduePenalty(t *testing.T) {
	asOf := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	loan := overdueLoan(LoanStatusActive, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

	updated, penalty, applied := ApplyOverduePenalty(loan, asOf, time.UTC)
	if !applied {
		t.Fatal("expected penalty to be applied")
	}

	// 2% of 50000.
	want := decimal.NewFromInt(1000)
	if !penalty.Equal(want) {
		t.Errorf("expected penalty %s, got %s", want, penalty)
	}
	if !updated.OverdueAmount.Equal(want) {
		t.Errorf("expected overdue amount %s, got %s", want, updated.OverdueAmount)
	}
	if !updated.TotalLateFee.Equal(want) {
		t.Errorf("expected total late fee %s, got %s", want, updated.TotalLateFee)
	}
	if updated.Status != LoanStatusOverdue {
		t.Errorf("expected status OVERDUE, got %s", updated.Status)
	}
	if updated.LastPenaltyAssessedAt == nil || !updated.LastPenaltyAssessedAt.Equal(asOf) {
		t.Errorf("expected penalty stamp %s, got %v", asOf, updated.LastPenaltyAssessedAt)
	}
	if len(updated.Notes) != 1 {
		t.Fatalf("expected one audit note, got %d", len(updated.Notes))
	}

	// Input untouched.
	if !loan.OverdueAmount.IsZero() || loan.Status != LoanStatusActive || len(loan.Notes) != 0 {
		t.Error("input loan mutated by ApplyOverduePenalty")
	}
}

func TestApplyOverduePenalty_OncePerDay(t *testing.T) {
	asOf := time.Date(2024, 6, 1, 2, 0, 0, 0, time.UTC)
	loan := overdueLoan(LoanStatusActive, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

	first, _, applied := ApplyOverduePenalty(loan, asOf, time.UTC)
	if !applied {
		t.Fatal("expected first application")
	}

	// Same day, later tick: skipped.
	later := asOf.Add(6 * time.Hour)
	second, penalty, applied := ApplyOverduePenalty(first, later, time.UTC)
	if applied {
		t.Fatal("expected same-day re-run to be skipped")
	}
	if !penalty.IsZero() {
		t.Errorf("expected zero penalty on skip, got %s", penalty)
	}
	if !second.OverdueAmount.Equal(first.OverdueAmount) {
		t.Errorf("overdue amount changed on skip: %s vs %s", second.OverdueAmount, first.OverdueAmount)
	}

	// Next day: applied again on top.
	nextDay := asOf.AddDate(0, 0, 1)
	third, _, applied := ApplyOverduePenalty(first, nextDay, time.UTC)
	if !applied {
		t.Fatal("expected next-day application")
	}
	if !third.OverdueAmount.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("expected accumulated overdue 2000, got %s", third.OverdueAmount)
	}
}

func TestApplyOverduePenalty_ZoneConsistentDayBoundary(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Skip("tzdata unavailable")
	}

	loan := overdueLoan(LoanStatusActive, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

	// 2024-06-01 21:00 UTC and 2024-06-01 23:00 UTC are both 2024-06-02 in
	// Asia/Kolkata: the second run must be treated as the same batch day.
	first, _, applied := ApplyOverduePenalty(loan, time.Date(2024, 6, 1, 21, 0, 0, 0, time.UTC), kolkata)
	if !applied {
		t.Fatal("expected first application")
	}
	_, _, applied = ApplyOverduePenalty(first, time.Date(2024, 6, 1, 23, 0, 0, 0, time.UTC), kolkata)
	if applied {
		t.Fatal("expected same Kolkata-day re-run to be skipped")
	}
}
