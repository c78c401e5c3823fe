package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func testSchedule(t *testing.T) *LoanSchedule {
	t.Helper()
	schedule, err := BuildSchedule(LoanSnapshot{
		Principal:         decimal.NewFromInt(12000),
		AnnualRatePercent: decimal.NewFromInt(12),
		DurationMonths:    12,
		StartDate:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return schedule
}

func TestIsOverdue(t *testing.T) {
	schedule := testSchedule(t)

	// First installment due 2024-02-01.
	if IsOverdue(schedule, time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)) {
		t.Error("expected not overdue before first due date")
	}
	if IsOverdue(schedule, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("expected not overdue exactly on the due date")
	}
	if !IsOverdue(schedule, time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)) {
		t.Error("expected overdue one day after first due date")
	}
}

func TestAssessOverdue_AccumulatesAmountAndLateFee(t *testing.T) {
	schedule := testSchedule(t)
	asOf := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)

	// Installments 1-3 (due Feb 1, Mar 1, Apr 1) are overdue at asOf.
	result := AssessOverdue(schedule, asOf)

	if result.OverdueCount != 3 {
		t.Fatalf("expected 3 overdue installments, got %d", result.OverdueCount)
	}
	wantOverdue := schedule.EMIAmount.Mul(decimal.NewFromInt(3))
	if !result.OverdueAmount.Equal(wantOverdue) {
		t.Errorf("expected overdue amount %s, got %s", wantOverdue, result.OverdueAmount)
	}

	// Installment 1 is 74 days late → ceil(74/30) = 3 months → 3% of EMI.
	first := result.Schedule.Installments[0]
	wantFee := RoundCents(schedule.EMIAmount.Mul(decimal.NewFromFloat(0.03)))
	if !first.LateFee.Equal(wantFee) {
		t.Errorf("expected late fee %s on installment 1, got %s", wantFee, first.LateFee)
	}

	// Installment 4 (due May 1) is untouched.
	if !result.Schedule.Installments[3].LateFee.IsZero() {
		t.Errorf("expected no late fee on installment 4, got %s", result.Schedule.Installments[3].LateFee)
	}
}

func TestAssessOverdue_DoesNotMutateInput(t *testing.T) {
	schedule := testSchedule(t)
	asOf := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	_ = AssessOverdue(schedule, asOf)

	for _, inst := range schedule.Installments {
		if !inst.LateFee.IsZero() {
			t.Fatalf("input schedule mutated: installment %d has late fee %s", inst.Number, inst.LateFee)
		}
	}
}

func TestAssessOverdue_MonotoneInAsOf(t *testing.T) {
	schedule := testSchedule(t)

	prev := decimal.Zero
	for month := 2; month <= 12; month++ {
		asOf := time.Date(2024, time.Month(month), 15, 0, 0, 0, 0, time.UTC)
		result := AssessOverdue(schedule, asOf)
		if result.OverdueAmount.LessThan(prev) {
			t.Fatalf("overdue amount decreased at %s: %s < %s", asOf, result.OverdueAmount, prev)
		}
		prev = result.OverdueAmount
	}
}

func TestRecordPayment_MarksPaidAndDecrementsBalance(t *testing.T) {
	schedule := testSchedule(t)
	asOf := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	balance := schedule.TotalAmount

	result, err := RecordPayment(schedule, 1, schedule.EMIAmount, balance, asOf)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	paid := result.Schedule.Installments[0]
	if paid.Status != InstallmentPaid {
		t.Errorf("expected installment 1 PAID, got %s", paid.Status)
	}
	if paid.PaidAt == nil || !paid.PaidAt.Equal(asOf) {
		t.Errorf("expected paidAt %s, got %v", asOf, paid.PaidAt)
	}
	if !result.NewBalance.Equal(balance.Sub(schedule.EMIAmount)) {
		t.Errorf("expected balance %s, got %s", balance.Sub(schedule.EMIAmount), result.NewBalance)
	}
	if result.Completed {
		t.Error("expected loan not completed after one payment")
	}

	// Input schedule stays pristine.
	if schedule.Installments[0].Status != InstallmentPending {
		t.Error("input schedule mutated by RecordPayment")
	}
}

func TestRecordPayment_SecondPaymentOnSameInstallmentFails(t *testing.T) {
	schedule := testSchedule(t)
	asOf := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	first, err := RecordPayment(schedule, 1, schedule.EMIAmount, schedule.TotalAmount, asOf)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Retrying against the updated schedule must not reduce the balance again.
	_, err = RecordPayment(first.Schedule, 1, schedule.EMIAmount, first.NewBalance, asOf)
	if !errors.Is(err, ErrInstallmentNotFound) {
		t.Fatalf("expected ErrInstallmentNotFound on duplicate payment, got %v", err)
	}
}

func TestRecordPayment_UnknownInstallment(t *testing.T) {
	schedule := testSchedule(t)

	_, err := RecordPayment(schedule, 99, schedule.EMIAmount, schedule.TotalAmount, time.Now())
	if !errors.Is(err, ErrInstallmentNotFound) {
		t.Fatalf("expected ErrInstallmentNotFound, got %v", err)
	}
}

func TestRecordPayment_BalanceFlooredAtZero(t *testing.T) {
	schedule := testSchedule(t)

	result, err := RecordPayment(schedule, 1, decimal.NewFromInt(1000000), decimal.NewFromInt(500), time.Now())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !result.NewBalance.IsZero() {
		t.Errorf("expected balance floored at 0, got %s", result.NewBalance)
	}
}

func TestRecordPayment_CompletesWhenAllPaid(t *testing.T) {
	schedule, err := BuildSchedule(LoanSnapshot{
		Principal:         decimal.NewFromInt(300),
		AnnualRatePercent: decimal.Zero,
		DurationMonths:    3,
		StartDate:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	balance := schedule.TotalAmount
	current := schedule
	for n := 1; n <= 3; n++ {
		result, err := RecordPayment(current, n, schedule.EMIAmount, balance, time.Date(2024, time.Month(n+1), 1, 0, 0, 0, 0, time.UTC))
		if err != nil {
			t.Fatalf("payment %d: expected no error, got %v", n, err)
		}
		current = result.Schedule
		balance = result.NewBalance

		wantCompleted := n == 3
		if result.Completed != wantCompleted {
			t.Errorf("payment %d: expected completed=%v, got %v", n, wantCompleted, result.Completed)
		}
	}
	if !balance.IsZero() {
		t.Errorf("expected zero balance after full repayment, got %s", balance)
	}
}
