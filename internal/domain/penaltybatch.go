package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OverduePenaltyRatePercent is the flat penalty applied to an overdue loan,
// as a percentage of the original principal (not of the current balance).
var OverduePenaltyRatePercent = decimal.NewFromInt(2)

// BatchResult summarizes one penalty batch invocation.
type BatchResult struct {
	ProcessedCount      int             `json:"processedCount"`
	SkippedCount        int             `json:"skippedCount"`
	ErrorCount          int             `json:"errorCount"`
	TotalPenaltyApplied decimal.Decimal `json:"totalPenaltyApplied"`
}

// EligibleForOverduePenalty reports whether a loan qualifies for the flat
// overdue penalty at asOf: still being repaid (including already OVERDUE,
// which keeps accruing daily) and past its expected end date.
func EligibleForOverduePenalty(loan *Loan, asOf time.Time) bool {
	switch loan.Status {
	case LoanStatusActive, LoanStatusApproved, LoanStatusOverdue:
	default:
		return false
	}
	return loan.ExpectedEndDate != nil && loan.ExpectedEndDate.Before(asOf)
}

// ApplyOverduePenalty applies the 2% overdue penalty to a copy of the loan and
// returns it together with the penalty amount. The penalty is applied at most
// once per calendar day in loc: if the loan already carries a penalty stamp
// for asOf's date the loan is returned unchanged and applied is false. The
// caller persists the returned copy; the input is not mutated.
func ApplyOverduePenalty(loan *Loan, asOf time.Time, loc *time.Location) (updated *Loan, penalty decimal.Decimal, applied bool) {
	if !EligibleForOverduePenalty(loan, asOf) {
		return loan, decimal.Zero, false
	}
	if loan.LastPenaltyAssessedAt != nil && sameDate(*loan.LastPenaltyAssessedAt, asOf, loc) {
		return loan, decimal.Zero, false
	}

	out := *loan
	out.Notes = make([]LoanNote, len(loan.Notes), len(loan.Notes)+1)
	copy(out.Notes, loan.Notes)

	penalty = RoundCents(loan.Principal.Mul(OverduePenaltyRatePercent).Div(hundred))
	daysOverdue := daysCeil(*loan.ExpectedEndDate, asOf)

	out.OverdueAmount = out.OverdueAmount.Add(penalty)
	out.TotalLateFee = out.TotalLateFee.Add(penalty)
	out.Status = LoanStatusOverdue
	stamp := asOf
	out.LastPenaltyAssessedAt = &stamp
	out.AddNote(fmt.Sprintf("Penalty of %s applied for %d days overdue (2%% of loan amount)",
		penalty.StringFixed(2), daysOverdue), nil, asOf)

	return &out, penalty, true
}

// sameDate reports whether two instants fall on the same calendar day in loc.
// Comparing in a fixed zone keeps the daily stamp stable across midnight
// boundaries regardless of the server's local zone.
func sameDate(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
