package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanStatus is the lifecycle state of a loan.
type LoanStatus string

const (
	LoanStatusPending   LoanStatus = "PENDING"
	LoanStatusApproved  LoanStatus = "APPROVED"
	LoanStatusActive    LoanStatus = "ACTIVE"
	LoanStatusOverdue   LoanStatus = "OVERDUE"
	LoanStatusCompleted LoanStatus = "COMPLETED"
	LoanStatusDefaulted LoanStatus = "DEFAULTED"
	LoanStatusRejected  LoanStatus = "REJECTED"
	LoanStatusCancelled LoanStatus = "CANCELLED"
)

// InstallmentStatus is the state of a single scheduled installment.
// Transitions are PENDING→PAID or PENDING→DEFAULTED only; both are terminal.
type InstallmentStatus string

const (
	InstallmentPending   InstallmentStatus = "PENDING"
	InstallmentPaid      InstallmentStatus = "PAID"
	InstallmentDefaulted InstallmentStatus = "DEFAULTED"
)

// LoanSnapshot is the immutable input the amortization engine works from.
type LoanSnapshot struct {
	Principal         decimal.Decimal
	AnnualRatePercent decimal.Decimal
	DurationMonths    int
	StartDate         time.Time
}

// Installment is one entry of a loan's payment schedule.
type Installment struct {
	Number           int               `json:"number"`
	DueDate          time.Time         `json:"dueDate"`
	Amount           decimal.Decimal   `json:"amount"`
	PrincipalPortion decimal.Decimal   `json:"principalPortion"`
	InterestPortion  decimal.Decimal   `json:"interestPortion"`
	Status           InstallmentStatus `json:"status"`
	PaidAt           *time.Time        `json:"paidAt,omitempty"`
	LateFee          decimal.Decimal   `json:"lateFee"`
}

// LoanSchedule is the full amortization plan for a loan.
type LoanSchedule struct {
	Installments  []Installment   `json:"installments"`
	EMIAmount     decimal.Decimal `json:"emiAmount"`
	TotalInterest decimal.Decimal `json:"totalInterest"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
}

// Clone returns a deep copy of the schedule so that assessments and payments
// can be computed without mutating the caller's snapshot.
func (s *LoanSchedule) Clone() *LoanSchedule {
	out := &LoanSchedule{
		Installments:  make([]Installment, len(s.Installments)),
		EMIAmount:     s.EMIAmount,
		TotalInterest: s.TotalInterest,
		TotalAmount:   s.TotalAmount,
	}
	copy(out.Installments, s.Installments)
	return out
}

// NextPending returns the earliest unpaid installment, or nil when none remain.
func (s *LoanSchedule) NextPending() *Installment {
	for i := range s.Installments {
		if s.Installments[i].Status == InstallmentPending {
			return &s.Installments[i]
		}
	}
	return nil
}

// PaidCount returns how many installments have been settled.
func (s *LoanSchedule) PaidCount() int {
	n := 0
	for i := range s.Installments {
		if s.Installments[i].Status == InstallmentPaid {
			n++
		}
	}
	return n
}

// BuildSchedule computes the EMI for the snapshot and expands it into a full
// amortization schedule. Interest and principal portions are rounded to cents
// per installment, so the running balance does not land on exactly zero; the
// final installment's principal portion absorbs the rounding residual so that
// the portions sum back to the principal.
func BuildSchedule(snap LoanSnapshot) (*LoanSchedule, error) {
	if snap.Principal.LessThanOrEqual(decimal.Zero) || snap.DurationMonths < 1 ||
		snap.AnnualRatePercent.IsNegative() || snap.StartDate.IsZero() {
		return nil, ErrInvalidScheduleInput
	}

	emi := EMI(snap.Principal, snap.AnnualRatePercent, snap.DurationMonths)
	duration := decimal.NewFromInt(int64(snap.DurationMonths))
	totalInterest := RoundCents(emi.Mul(duration).Sub(snap.Principal))
	totalAmount := RoundCents(snap.Principal.Add(totalInterest))

	monthlyRate := MonthlyRate(snap.AnnualRatePercent)
	remaining := snap.Principal
	installments := make([]Installment, 0, snap.DurationMonths)

	for i := 1; i <= snap.DurationMonths; i++ {
		interest := RoundCents(remaining.Mul(monthlyRate))
		principal := RoundCents(emi.Sub(interest))
		if i == snap.DurationMonths {
			// Absorb the rounding residual in the last installment.
			principal = remaining
		}
		remaining = remaining.Sub(principal)

		installments = append(installments, Installment{
			Number:           i,
			DueDate:          snap.StartDate.AddDate(0, i, 0),
			Amount:           emi,
			PrincipalPortion: principal,
			InterestPortion:  interest,
			Status:           InstallmentPending,
			LateFee:          decimal.Zero,
		})
	}

	return &LoanSchedule{
		Installments:  installments,
		EMIAmount:     emi,
		TotalInterest: totalInterest,
		TotalAmount:   totalAmount,
	}, nil
}

// LoanNote is an audit note attached to a loan.
type LoanNote struct {
	Note    string    `json:"note"`
	AddedBy *string   `json:"addedBy,omitempty"`
	AddedAt time.Time `json:"addedAt"`
}

// Loan is the ledger aggregate for a member's loan. The schedule is generated
// at approval; CurrentBalance, OverdueAmount and TotalLateFee are updated by
// payments and overdue assessments.
type Loan struct {
	ID                    uuid.UUID       `json:"id"`
	LoanNumber            string          `json:"loanNumber"`
	MemberID              uuid.UUID       `json:"memberId"`
	LoanType              string          `json:"loanType"`
	Purpose               *string         `json:"purpose,omitempty"`
	Principal             decimal.Decimal `json:"principal"`
	AnnualRatePercent     decimal.Decimal `json:"annualRatePercent"`
	DurationMonths        int             `json:"durationMonths"`
	Status                LoanStatus      `json:"status"`
	StartDate             *time.Time      `json:"startDate,omitempty"`
	ExpectedEndDate       *time.Time      `json:"expectedEndDate,omitempty"`
	Schedule              *LoanSchedule   `json:"schedule,omitempty"`
	CurrentBalance        decimal.Decimal `json:"currentBalance"`
	OverdueAmount         decimal.Decimal `json:"overdueAmount"`
	TotalLateFee          decimal.Decimal `json:"totalLateFee"`
	LastPenaltyAssessedAt *time.Time      `json:"lastPenaltyAssessedAt,omitempty"`
	RejectionReason       *string         `json:"rejectionReason,omitempty"`
	Notes                 []LoanNote      `json:"notes,omitempty"`
	CreatedAt             time.Time       `json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`
}

// Validate checks the request-time fields of a loan.
func (l *Loan) Validate() error {
	if l.Principal.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidScheduleInput
	}
	if l.DurationMonths < 1 {
		return ErrInvalidScheduleInput
	}
	if l.AnnualRatePercent.IsNegative() || l.AnnualRatePercent.GreaterThan(hundred) {
		return ErrInvalidScheduleInput
	}
	return nil
}

// Snapshot returns the immutable calculation input for this loan.
// The loan must have a start date (set at approval).
func (l *Loan) Snapshot() (LoanSnapshot, error) {
	if l.StartDate == nil {
		return LoanSnapshot{}, ErrInvalidScheduleInput
	}
	return LoanSnapshot{
		Principal:         l.Principal,
		AnnualRatePercent: l.AnnualRatePercent,
		DurationMonths:    l.DurationMonths,
		StartDate:         *l.StartDate,
	}, nil
}

// CanTransitionTo reports whether the loan status machine allows moving to next.
func (l *Loan) CanTransitionTo(next LoanStatus) bool {
	switch l.Status {
	case LoanStatusPending:
		return next == LoanStatusApproved || next == LoanStatusActive ||
			next == LoanStatusRejected || next == LoanStatusCancelled
	case LoanStatusApproved:
		return next == LoanStatusActive || next == LoanStatusOverdue || next == LoanStatusCancelled
	case LoanStatusActive:
		return next == LoanStatusOverdue || next == LoanStatusCompleted
	case LoanStatusOverdue:
		return next == LoanStatusCompleted || next == LoanStatusDefaulted || next == LoanStatusActive
	default:
		// COMPLETED, DEFAULTED, REJECTED and CANCELLED are terminal.
		return false
	}
}

// AddNote appends an audit note. addedBy is nil for system-generated notes.
func (l *Loan) AddNote(note string, addedBy *string, at time.Time) {
	l.Notes = append(l.Notes, LoanNote{Note: note, AddedBy: addedBy, AddedAt: at})
}

// LoanRepository persists loan aggregates.
type LoanRepository interface {
	Create(ctx context.Context, loan *Loan) (*Loan, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Loan, error)
	GetByLoanNumber(ctx context.Context, loanNumber string) (*Loan, error)
	GetByMember(ctx context.Context, memberID uuid.UUID) ([]*Loan, error)
	GetPenaltyCandidates(ctx context.Context, asOf time.Time) ([]*Loan, error)
	Update(ctx context.Context, loan *Loan) (*Loan, error)
}
