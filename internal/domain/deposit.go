package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DepositType is the payment-request instrument type.
type DepositType string

const (
	DepositRecurring   DepositType = "RECURRING"
	DepositFixed       DepositType = "FIXED"
	DepositOverdraft   DepositType = "OVERDRAFT"
	DepositCertificate DepositType = "CERTIFICATE"
)

// Frequency is the contribution cadence of a recurring deposit.
type Frequency string

const (
	FrequencyMonthly Frequency = "MONTHLY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyDaily   Frequency = "DAILY"
)

// DepositStatus is the lifecycle state of a payment request.
type DepositStatus string

const (
	DepositStatusPending DepositStatus = "PENDING"
	DepositStatusPaid    DepositStatus = "PAID"
	DepositStatusOverdue DepositStatus = "OVERDUE"
)

// DepositRequest is a member's deposit-type payment request. Amount is the
// periodic contribution for RECURRING and the lump sum otherwise.
type DepositRequest struct {
	ID                uuid.UUID       `json:"id"`
	MemberID          uuid.UUID       `json:"memberId"`
	Type              DepositType     `json:"type"`
	Amount            decimal.Decimal `json:"amount"`
	AnnualRatePercent decimal.Decimal `json:"annualRatePercent"`
	DurationMonths    int             `json:"durationMonths,omitempty"`
	Frequency         Frequency       `json:"frequency,omitempty"`
	Days              int             `json:"days,omitempty"`
	DueDate           time.Time       `json:"dueDate"`
	MaturityDate      *time.Time      `json:"maturityDate,omitempty"`
	Status            DepositStatus   `json:"status"`
	LateFee           decimal.Decimal `json:"lateFee"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	PaidAt            *time.Time      `json:"paidAt,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// MaturityResult is the computed maturity of a deposit request.
type MaturityResult struct {
	Type           DepositType     `json:"type"`
	Principal      decimal.Decimal `json:"principal"`
	TotalDeposited decimal.Decimal `json:"totalDeposited"`
	InterestEarned decimal.Decimal `json:"interestEarned"`
	MaturityAmount decimal.Decimal `json:"maturityAmount"`
}

// RecurringScheduleEntry is one contribution of a recurring deposit plan.
type RecurringScheduleEntry struct {
	Installment    int             `json:"installment"`
	Amount         decimal.Decimal `json:"amount"`
	RunningBalance decimal.Decimal `json:"runningBalance"`
	InterestEarned decimal.Decimal `json:"interestEarned"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
}

// OverdraftScheduleEntry is one installment of an overdraft repayment plan.
type OverdraftScheduleEntry struct {
	Installment      int             `json:"installment"`
	EMI              decimal.Decimal `json:"emi"`
	PrincipalPaid    decimal.Decimal `json:"principalPaid"`
	InterestPaid     decimal.Decimal `json:"interestPaid"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
}

// MaxLateFeeFraction caps a deposit late fee at half the request amount.
var MaxLateFeeFraction = decimal.NewFromFloat(0.5)

// DepositLateFeeDailyRate is the daily late fee fraction for deposit requests.
var DepositLateFeeDailyRate = decimal.NewFromFloat(0.01)

// ValidateDepositParams checks calculator inputs and collects field errors
// instead of failing on the first one, so the caller can surface all of them.
func ValidateDepositParams(depositType DepositType, amount, ratePercent decimal.Decimal, durationMonths int, frequency Frequency) ValidationResult {
	result := ValidationResult{IsValid: true}

	switch depositType {
	case DepositRecurring, DepositFixed, DepositOverdraft, DepositCertificate:
	default:
		result.add("type", "Payment type must be RECURRING, FIXED, OVERDRAFT or CERTIFICATE")
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		result.add("amount", "Amount must be greater than 0")
	}
	if ratePercent.IsNegative() || ratePercent.GreaterThan(hundred) {
		result.add("annualRatePercent", "Interest rate must be between 0 and 100")
	}

	if depositType == DepositRecurring || depositType == DepositFixed {
		if durationMonths < 1 || durationMonths > 120 {
			result.add("durationMonths", "Duration must be between 1 and 120 months")
		}
	}

	if depositType == DepositRecurring {
		switch frequency {
		case FrequencyMonthly, FrequencyWeekly, FrequencyDaily:
		default:
			result.add("frequency", "Frequency must be MONTHLY, WEEKLY, or DAILY")
		}
	}

	return result
}

// CalculateDepositMaturity dispatches on the request type and returns the
// maturity breakdown. Inputs are validated first; invalid parameters fail
// with ErrInvalidInput and the caller should run ValidateDepositParams for
// the field-level detail.
func CalculateDepositMaturity(req DepositRequest) (MaturityResult, error) {
	if v := ValidateDepositParams(req.Type, req.Amount, req.AnnualRatePercent, req.DurationMonths, req.Frequency); !v.IsValid {
		return MaturityResult{}, ErrInvalidInput
	}

	switch req.Type {
	case DepositRecurring:
		return recurringMaturity(req.Amount, req.AnnualRatePercent, req.DurationMonths, req.Frequency), nil
	case DepositFixed:
		return fixedMaturity(req.Amount, req.AnnualRatePercent, req.DurationMonths), nil
	case DepositOverdraft, DepositCertificate:
		days := req.Days
		if days <= 0 {
			days = req.DurationMonths * 30
		}
		return dayRateMaturity(req.Type, req.Amount, req.AnnualRatePercent, days), nil
	default:
		return MaturityResult{}, ErrInvalidInput
	}
}

// recurringMaturity accrues each periodic contribution for the periods it
// remains on deposit. Weekly and daily cadences approximate the monthly
// contribution as amount/4 and amount/30 respectively, matching the
// published product terms.
func recurringMaturity(monthlyAmount, ratePercent decimal.Decimal, durationMonths int, frequency Frequency) MaturityResult {
	var contribution, periodRate decimal.Decimal
	var periods int

	switch frequency {
	case FrequencyWeekly:
		contribution = monthlyAmount.Div(decimal.NewFromInt(4))
		periodRate = WeeklyRate(ratePercent)
		periods = durationMonths * 4
	case FrequencyDaily:
		contribution = monthlyAmount.Div(decimal.NewFromInt(30))
		periodRate = DailyRate(ratePercent)
		periods = durationMonths * 30
	default:
		contribution = monthlyAmount
		periodRate = MonthlyRate(ratePercent)
		periods = durationMonths
	}

	totalDeposited := monthlyAmount.Mul(decimal.NewFromInt(int64(durationMonths)))
	interest := decimal.Zero
	for i := 1; i <= periods; i++ {
		periodsRemaining := decimal.NewFromInt(int64(periods - i + 1))
		interest = interest.Add(contribution.Mul(periodRate).Mul(periodsRemaining))
	}

	return MaturityResult{
		Type:           DepositRecurring,
		Principal:      monthlyAmount,
		TotalDeposited: totalDeposited,
		InterestEarned: RoundCents(interest),
		MaturityAmount: RoundCents(totalDeposited.Add(interest)),
	}
}

func fixedMaturity(principal, ratePercent decimal.Decimal, durationMonths int) MaturityResult {
	interest := CompoundInterest(principal, ratePercent, durationMonths, 12)
	return MaturityResult{
		Type:           DepositFixed,
		Principal:      principal,
		TotalDeposited: principal,
		InterestEarned: RoundCents(interest),
		MaturityAmount: RoundCents(principal.Add(interest)),
	}
}

func dayRateMaturity(depositType DepositType, amount, ratePercent decimal.Decimal, days int) MaturityResult {
	interest := amount.Mul(DailyRate(ratePercent)).Mul(decimal.NewFromInt(int64(days)))
	return MaturityResult{
		Type:           depositType,
		Principal:      amount,
		TotalDeposited: amount,
		InterestEarned: RoundCents(interest),
		MaturityAmount: RoundCents(amount.Add(interest)),
	}
}

// RecurringSchedule expands a monthly recurring deposit into per-installment
// running balances with cumulative interest.
func RecurringSchedule(monthlyAmount, ratePercent decimal.Decimal, durationMonths int) []RecurringScheduleEntry {
	monthlyRate := MonthlyRate(ratePercent)
	schedule := make([]RecurringScheduleEntry, 0, durationMonths)

	runningBalance := decimal.Zero
	totalInterest := decimal.Zero
	for i := 1; i <= durationMonths; i++ {
		runningBalance = runningBalance.Add(monthlyAmount)
		monthsRemaining := decimal.NewFromInt(int64(durationMonths - i + 1))
		totalInterest = totalInterest.Add(monthlyAmount.Mul(monthlyRate).Mul(monthsRemaining))

		schedule = append(schedule, RecurringScheduleEntry{
			Installment:    i,
			Amount:         monthlyAmount,
			RunningBalance: RoundCents(runningBalance),
			InterestEarned: RoundCents(totalInterest),
			TotalAmount:    RoundCents(runningBalance.Add(totalInterest)),
		})
	}
	return schedule
}

// OverdraftEMI is the equal monthly repayment for an overdraft balance.
func OverdraftEMI(principal, ratePercent decimal.Decimal, durationMonths int) decimal.Decimal {
	if durationMonths <= 0 {
		return decimal.Zero
	}
	return EMI(principal, ratePercent, durationMonths)
}

// OverdraftSchedule expands an overdraft balance into an EMI repayment plan.
// The remaining balance is floored at zero in the final entries where
// per-installment rounding overshoots.
func OverdraftSchedule(principal, ratePercent decimal.Decimal, durationMonths int) []OverdraftScheduleEntry {
	emi := OverdraftEMI(principal, ratePercent, durationMonths)
	monthlyRate := MonthlyRate(ratePercent)
	schedule := make([]OverdraftScheduleEntry, 0, durationMonths)

	remaining := principal
	for i := 1; i <= durationMonths; i++ {
		interest := remaining.Mul(monthlyRate)
		principalPaid := emi.Sub(interest)
		remaining = remaining.Sub(principalPaid)

		floored := remaining
		if floored.IsNegative() {
			floored = decimal.Zero
		}
		schedule = append(schedule, OverdraftScheduleEntry{
			Installment:      i,
			EMI:              emi,
			PrincipalPaid:    RoundCents(principalPaid),
			InterestPaid:     RoundCents(interest),
			RemainingBalance: RoundCents(floored),
		})
	}
	return schedule
}

// DepositLateFee is 1% of the amount per day late, capped at 50% of the amount.
func DepositLateFee(amount decimal.Decimal, daysLate int) decimal.Decimal {
	if daysLate <= 0 {
		return decimal.Zero
	}
	fee := amount.Mul(DepositLateFeeDailyRate).Mul(decimal.NewFromInt(int64(daysLate)))
	maxFee := amount.Mul(MaxLateFeeFraction)
	if fee.GreaterThan(maxFee) {
		fee = maxFee
	}
	return RoundCents(fee)
}

// DepositRepository persists deposit-type payment requests.
type DepositRepository interface {
	Create(ctx context.Context, req *DepositRequest) (*DepositRequest, error)
	GetByID(ctx context.Context, id uuid.UUID) (*DepositRequest, error)
	GetByMember(ctx context.Context, memberID uuid.UUID) ([]*DepositRequest, error)
	GetByMemberAndType(ctx context.Context, memberID uuid.UUID, depositType DepositType) ([]*DepositRequest, error)
	Update(ctx context.Context, req *DepositRequest) (*DepositRequest, error)
}
