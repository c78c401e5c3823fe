package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GracePenaltyPerDay is the flat certificate-deposit penalty per chargeable day.
var GracePenaltyPerDay = decimal.NewFromInt(10)

// graceDayOfMonth is the day-of-month up to which a certificate payment due in
// the first half of the month stays penalty-free.
const graceDayOfMonth = 15

// PenaltyAssessment is the result of a grace-period penalty check. It is fully
// derived from the due date and the as-of date; there is no hidden state.
type PenaltyAssessment struct {
	HasPenalty    bool            `json:"hasPenalty"`
	PenaltyAmount decimal.Decimal `json:"penaltyAmount"`
	DaysLate      int             `json:"daysLate"`
	PenaltyDays   int             `json:"penaltyDays"`
	PenaltyPerDay decimal.Decimal `json:"penaltyPerDay"`
	Message       string          `json:"message"`
}

// CalculateGracePenalty applies the certificate-deposit grace rule:
//
//   - on or before the due date there is no penalty;
//   - a payment due on or before the 15th is penalized once the as-of
//     day-of-month passes the 15th, at one day per day past the 15th;
//   - a payment due after the 15th is penalized from the day after the due
//     date onward.
//
// The rule keys on day-of-month only and carries no month or year distance;
// an as-of date several months past the due month is scored as if it were in
// the due month. That is the documented product behavior and is preserved
// as-is (see DESIGN.md, Open Questions).
func CalculateGracePenalty(dueDate, asOf time.Time) PenaltyAssessment {
	if !asOf.After(dueDate) {
		return PenaltyAssessment{
			PenaltyAmount: decimal.Zero,
			PenaltyPerDay: GracePenaltyPerDay,
			Message:       "Payment is not overdue",
		}
	}

	daysLate := daysCeil(dueDate, asOf)

	penaltyDays := 0
	if dueDate.Day() <= graceDayOfMonth {
		if asOf.Day() > graceDayOfMonth {
			penaltyDays = asOf.Day() - graceDayOfMonth
		}
	} else {
		penaltyDays = daysLate
	}

	penaltyAmount := GracePenaltyPerDay.Mul(decimal.NewFromInt(int64(penaltyDays)))
	hasPenalty := penaltyAmount.GreaterThan(decimal.Zero)

	message := "No penalty applicable"
	if hasPenalty {
		message = fmt.Sprintf("Penalty of %s for %d days after grace period", penaltyAmount.StringFixed(2), penaltyDays)
	}

	return PenaltyAssessment{
		HasPenalty:    hasPenalty,
		PenaltyAmount: penaltyAmount,
		DaysLate:      daysLate,
		PenaltyDays:   penaltyDays,
		PenaltyPerDay: GracePenaltyPerDay,
		Message:       message,
	}
}

// NextPenaltyDate returns the next date on which the penalty for a payment
// would start or increase: the due date while still on time, the 16th of the
// due month for first-half due dates, otherwise the day after the due date.
func NextPenaltyDate(dueDate, asOf time.Time) time.Time {
	if !asOf.After(dueDate) {
		return dueDate
	}
	if dueDate.Day() <= graceDayOfMonth {
		return time.Date(dueDate.Year(), dueDate.Month(), graceDayOfMonth+1, 0, 0, 0, 0, dueDate.Location())
	}
	return dueDate.AddDate(0, 0, 1)
}

// DepositPenaltyDetail pairs a deposit request with its penalty assessment.
type DepositPenaltyDetail struct {
	RequestID              uuid.UUID         `json:"requestId"`
	Type                   DepositType       `json:"type"`
	Amount                 decimal.Decimal   `json:"amount"`
	DueDate                time.Time         `json:"dueDate"`
	Status                 DepositStatus     `json:"status"`
	Penalty                PenaltyAssessment `json:"penalty"`
	TotalAmountWithPenalty decimal.Decimal   `json:"totalAmountWithPenalty"`
}

// GracePenaltySummary aggregates per-request assessments for a member.
type GracePenaltySummary struct {
	TotalPayments          int                    `json:"totalPayments"`
	OverdueCount           int                    `json:"overdueCount"`
	OnTimeCount            int                    `json:"onTimeCount"`
	TotalPenalty           decimal.Decimal        `json:"totalPenalty"`
	TotalAmount            decimal.Decimal        `json:"totalAmount"`
	TotalAmountWithPenalty decimal.Decimal        `json:"totalAmountWithPenalty"`
	Breakdown              []DepositPenaltyDetail `json:"breakdown"`
}

// SummarizeGracePenalties assesses every request at asOf and aggregates the
// penalties into a member-level summary.
func SummarizeGracePenalties(requests []*DepositRequest, asOf time.Time) GracePenaltySummary {
	summary := GracePenaltySummary{
		TotalPenalty:           decimal.Zero,
		TotalAmount:            decimal.Zero,
		TotalAmountWithPenalty: decimal.Zero,
		Breakdown:              make([]DepositPenaltyDetail, 0, len(requests)),
	}

	for _, req := range requests {
		penalty := CalculateGracePenalty(req.DueDate, asOf)
		detail := DepositPenaltyDetail{
			RequestID:              req.ID,
			Type:                   req.Type,
			Amount:                 req.Amount,
			DueDate:                req.DueDate,
			Status:                 req.Status,
			Penalty:                penalty,
			TotalAmountWithPenalty: req.Amount.Add(penalty.PenaltyAmount),
		}
		summary.Breakdown = append(summary.Breakdown, detail)

		summary.TotalPayments++
		if penalty.HasPenalty {
			summary.OverdueCount++
		} else {
			summary.OnTimeCount++
		}
		summary.TotalPenalty = summary.TotalPenalty.Add(penalty.PenaltyAmount)
		summary.TotalAmount = summary.TotalAmount.Add(req.Amount)
	}

	summary.TotalAmountWithPenalty = summary.TotalAmount.Add(summary.TotalPenalty)
	return summary
}

// daysCeil counts started 24-hour days between from and to.
func daysCeil(from, to time.Time) int {
	return int(math.Ceil(to.Sub(from).Hours() / 24))
}
