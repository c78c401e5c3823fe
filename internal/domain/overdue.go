package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// LateFeeMonthlyRate is the late fee charged per started month of delay,
// as a fraction of the installment amount (1%).
var LateFeeMonthlyRate = decimal.NewFromFloat(0.01)

// OverdueResult is the outcome of an overdue assessment over a schedule.
type OverdueResult struct {
	OverdueAmount decimal.Decimal `json:"overdueAmount"`
	TotalLateFee  decimal.Decimal `json:"totalLateFee"`
	OverdueCount  int             `json:"overdueCount"`
	Schedule      *LoanSchedule   `json:"schedule"`
}

// PaymentResult is the outcome of recording a payment against a schedule.
type PaymentResult struct {
	Schedule   *LoanSchedule   `json:"schedule"`
	NewBalance decimal.Decimal `json:"newBalance"`
	Completed  bool            `json:"completed"`
}

// IsOverdue reports whether any pending installment fell due before asOf.
func IsOverdue(schedule *LoanSchedule, asOf time.Time) bool {
	for i := range schedule.Installments {
		inst := &schedule.Installments[i]
		if inst.Status == InstallmentPending && inst.DueDate.Before(asOf) {
			return true
		}
	}
	return false
}

// AssessOverdue computes the overdue amount and per-installment late fees for
// every pending installment due before asOf. The late fee is 1% of the
// installment amount per started 30-day month of delay. The input schedule is
// not mutated; the returned result carries an updated copy.
func AssessOverdue(schedule *LoanSchedule, asOf time.Time) OverdueResult {
	out := schedule.Clone()
	overdue := decimal.Zero
	totalLateFee := decimal.Zero
	count := 0

	for i := range out.Installments {
		inst := &out.Installments[i]
		if inst.Status != InstallmentPending || !inst.DueDate.Before(asOf) {
			continue
		}
		overdue = overdue.Add(inst.Amount)
		count++

		monthsLate := monthsLateCeil(inst.DueDate, asOf)
		fee := RoundCents(inst.Amount.Mul(LateFeeMonthlyRate).Mul(decimal.NewFromInt(int64(monthsLate))))
		inst.LateFee = fee
		totalLateFee = totalLateFee.Add(fee)
	}

	return OverdueResult{
		OverdueAmount: overdue,
		TotalLateFee:  totalLateFee,
		OverdueCount:  count,
		Schedule:      out,
	}
}

// RecordPayment marks the given installment as paid at asOf and returns the
// updated schedule together with the new running balance. Paying an absent or
// already settled installment fails with ErrInstallmentNotFound so that a
// retried call cannot reduce the balance twice.
func RecordPayment(schedule *LoanSchedule, installmentNumber int, paidAmount, currentBalance decimal.Decimal, asOf time.Time) (PaymentResult, error) {
	if paidAmount.LessThanOrEqual(decimal.Zero) {
		return PaymentResult{}, ErrPaymentAmountInvalid
	}

	out := schedule.Clone()
	var target *Installment
	for i := range out.Installments {
		if out.Installments[i].Number == installmentNumber {
			target = &out.Installments[i]
			break
		}
	}
	if target == nil || target.Status != InstallmentPending {
		return PaymentResult{}, ErrInstallmentNotFound
	}

	paidAt := asOf
	target.Status = InstallmentPaid
	target.PaidAt = &paidAt

	newBalance := currentBalance.Sub(paidAmount)
	if newBalance.IsNegative() {
		newBalance = decimal.Zero
	}

	completed := true
	for i := range out.Installments {
		if out.Installments[i].Status != InstallmentPaid {
			completed = false
			break
		}
	}

	return PaymentResult{Schedule: out, NewBalance: newBalance, Completed: completed}, nil
}

// monthsLateCeil counts started 30-day periods between due and asOf.
func monthsLateCeil(due, asOf time.Time) int {
	days := asOf.Sub(due).Hours() / 24
	months := int(math.Ceil(days / 30))
	if months < 1 {
		months = 1
	}
	return months
}
