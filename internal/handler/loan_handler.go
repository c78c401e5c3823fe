package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/sahayog/society-backend/internal/domain"
	"github.com/sahayog/society-backend/internal/service"
	"github.com/shopspring/decimal"
)

// LoanHandler handles loan-related HTTP requests
type LoanHandler struct {
	loanService *service.LoanService
}

// NewLoanHandler creates a new LoanHandler
func NewLoanHandler(loanService *service.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// RequestLoanRequest represents the loan application request body
type RequestLoanRequest struct {
	MemberID          string  `json:"memberId"`
	LoanType          string  `json:"loanType"`
	Purpose           *string `json:"purpose,omitempty"`
	Principal         string  `json:"principal"`
	AnnualRatePercent string  `json:"annualRatePercent"`
	DurationMonths    int     `json:"durationMonths"`
}

// PreviewScheduleRequest represents the schedule preview request body
type PreviewScheduleRequest struct {
	Principal         string `json:"principal"`
	AnnualRatePercent string `json:"annualRatePercent"`
	DurationMonths    int    `json:"durationMonths"`
	StartDate         string `json:"startDate"`
}

// ApproveLoanRequest represents the approval request body
type ApproveLoanRequest struct {
	StartDate  string  `json:"startDate"`
	ApprovedBy *string `json:"approvedBy,omitempty"`
}

// RejectLoanRequest represents the rejection request body
type RejectLoanRequest struct {
	Reason     string  `json:"reason"`
	RejectedBy *string `json:"rejectedBy,omitempty"`
}

// RecordPaymentRequest represents the installment payment request body
type RecordPaymentRequest struct {
	InstallmentNumber int     `json:"installmentNumber"`
	Amount            string  `json:"amount"`
	PaidAt            *string `json:"paidAt,omitempty"`
}

// InstallmentResponse represents one schedule entry in API responses
type InstallmentResponse struct {
	Number           int     `json:"number"`
	DueDate          string  `json:"dueDate"`
	Amount           string  `json:"amount"`
	PrincipalPortion string  `json:"principalPortion"`
	InterestPortion  string  `json:"interestPortion"`
	Status           string  `json:"status"`
	PaidAt           *string `json:"paidAt,omitempty"`
	LateFee          string  `json:"lateFee"`
}

// ScheduleResponse represents an amortization schedule in API responses
type ScheduleResponse struct {
	EMIAmount     string                `json:"emiAmount"`
	TotalInterest string                `json:"totalInterest"`
	TotalAmount   string                `json:"totalAmount"`
	Installments  []InstallmentResponse `json:"installments"`
}

// LoanNoteResponse represents an audit note in API responses
type LoanNoteResponse struct {
	Note    string  `json:"note"`
	AddedBy *string `json:"addedBy,omitempty"`
	AddedAt string  `json:"addedAt"`
}

// LoanResponse represents a loan in API responses
type LoanResponse struct {
	ID                    string             `json:"id"`
	LoanNumber            string             `json:"loanNumber"`
	MemberID              string             `json:"memberId"`
	LoanType              string             `json:"loanType"`
	Purpose               *string            `json:"purpose,omitempty"`
	Principal             string             `json:"principal"`
	AnnualRatePercent     string             `json:"annualRatePercent"`
	DurationMonths        int                `json:"durationMonths"`
	Status                string             `json:"status"`
	StartDate             *string            `json:"startDate,omitempty"`
	ExpectedEndDate       *string            `json:"expectedEndDate,omitempty"`
	Schedule              *ScheduleResponse  `json:"schedule,omitempty"`
	CurrentBalance        string             `json:"currentBalance"`
	OverdueAmount         string             `json:"overdueAmount"`
	TotalLateFee          string             `json:"totalLateFee"`
	LastPenaltyAssessedAt *string            `json:"lastPenaltyAssessedAt,omitempty"`
	RejectionReason       *string            `json:"rejectionReason,omitempty"`
	Notes                 []LoanNoteResponse `json:"notes,omitempty"`
	CreatedAt             string             `json:"createdAt"`
	UpdatedAt             string             `json:"updatedAt"`
}

// OverdueAssessmentResponse represents an overdue assessment result
type OverdueAssessmentResponse struct {
	OverdueCount  int          `json:"overdueCount"`
	OverdueAmount string       `json:"overdueAmount"`
	TotalLateFee  string       `json:"totalLateFee"`
	Loan          LoanResponse `json:"loan"`
}

// RequestLoan handles POST /api/v1/loans
func (h *LoanHandler) RequestLoan(c echo.Context) error {
	var req RequestLoanRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	memberID, err := uuid.Parse(req.MemberID)
	if err != nil {
		return NewValidationError(c, "Invalid member ID", []ValidationError{
			{Field: "memberId", Message: "Must be a valid UUID"},
		})
	}

	principal, err := decimal.NewFromString(req.Principal)
	if err != nil {
		return NewValidationError(c, "Invalid principal", []ValidationError{
			{Field: "principal", Message: "Must be a valid decimal number"},
		})
	}

	rate, err := decimal.NewFromString(req.AnnualRatePercent)
	if err != nil {
		return NewValidationError(c, "Invalid interest rate", []ValidationError{
			{Field: "annualRatePercent", Message: "Must be a valid decimal number"},
		})
	}

	loan, err := h.loanService.RequestLoan(c.Request().Context(), service.RequestLoanInput{
		MemberID:          memberID,
		LoanType:          req.LoanType,
		Purpose:           req.Purpose,
		Principal:         principal,
		AnnualRatePercent: rate,
		DurationMonths:    req.DurationMonths,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidScheduleInput) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "principal", Message: "Principal, rate and duration must describe a repayable loan"},
			})
		}
		log.Error().Err(err).Str("member_id", req.MemberID).Msg("Failed to create loan application")
		return NewInternalError(c, "Failed to create loan application")
	}

	log.Info().Str("loan_number", loan.LoanNumber).Str("member_id", req.MemberID).Msg("Loan application created")

	return c.JSON(http.StatusCreated, toLoanResponse(loan))
}

// PreviewSchedule handles POST /api/v1/loans/preview
// Computes the amortization schedule without persisting anything.
func (h *LoanHandler) PreviewSchedule(c echo.Context) error {
	var req PreviewScheduleRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	principal, err := decimal.NewFromString(req.Principal)
	if err != nil {
		return NewValidationError(c, "Invalid principal", []ValidationError{
			{Field: "principal", Message: "Must be a valid decimal number"},
		})
	}
	rate, err := decimal.NewFromString(req.AnnualRatePercent)
	if err != nil {
		return NewValidationError(c, "Invalid interest rate", []ValidationError{
			{Field: "annualRatePercent", Message: "Must be a valid decimal number"},
		})
	}
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return NewValidationError(c, "Invalid start date", []ValidationError{
			{Field: "startDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	schedule, err := domain.BuildSchedule(domain.LoanSnapshot{
		Principal:         principal,
		AnnualRatePercent: rate,
		DurationMonths:    req.DurationMonths,
		StartDate:         startDate,
	})
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "principal", Message: "Principal, rate and duration must describe a repayable loan"},
		})
	}

	return c.JSON(http.StatusOK, toScheduleResponse(schedule))
}

// GetLoan handles GET /api/v1/loans/:id
func (h *LoanHandler) GetLoan(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	loan, err := h.loanService.GetLoan(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		log.Error().Err(err).Str("loan_id", id.String()).Msg("Failed to get loan")
		return NewInternalError(c, "Failed to get loan")
	}

	return c.JSON(http.StatusOK, toLoanResponse(loan))
}

// GetLoansByMember handles GET /api/v1/members/:memberId/loans
func (h *LoanHandler) GetLoansByMember(c echo.Context) error {
	memberID, err := uuid.Parse(c.Param("memberId"))
	if err != nil {
		return NewValidationError(c, "Invalid member ID", nil)
	}

	loans, err := h.loanService.GetLoansByMember(c.Request().Context(), memberID)
	if err != nil {
		log.Error().Err(err).Str("member_id", memberID.String()).Msg("Failed to get loans")
		return NewInternalError(c, "Failed to get loans")
	}

	response := make([]LoanResponse, len(loans))
	for i, loan := range loans {
		response[i] = toLoanResponse(loan)
	}
	return c.JSON(http.StatusOK, response)
}

// ApproveLoan handles POST /api/v1/loans/:id/approve
func (h *LoanHandler) ApproveLoan(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	var req ApproveLoanRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return NewValidationError(c, "Invalid start date", []ValidationError{
			{Field: "startDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	loan, err := h.loanService.ApproveLoan(c.Request().Context(), id, startDate, req.ApprovedBy)
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		if errors.Is(err, domain.ErrInvalidStatusChange) {
			return NewConflictError(c, "Loan cannot be approved in its current status")
		}
		if errors.Is(err, domain.ErrInvalidScheduleInput) {
			return NewValidationError(c, "Loan parameters cannot produce a schedule", nil)
		}
		log.Error().Err(err).Str("loan_id", id.String()).Msg("Failed to approve loan")
		return NewInternalError(c, "Failed to approve loan")
	}

	return c.JSON(http.StatusOK, toLoanResponse(loan))
}

// RejectLoan handles POST /api/v1/loans/:id/reject
func (h *LoanHandler) RejectLoan(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	var req RejectLoanRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if req.Reason == "" {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "reason", Message: "Rejection reason is required"},
		})
	}

	loan, err := h.loanService.RejectLoan(c.Request().Context(), id, req.Reason, req.RejectedBy)
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		if errors.Is(err, domain.ErrInvalidStatusChange) {
			return NewConflictError(c, "Loan cannot be rejected in its current status")
		}
		log.Error().Err(err).Str("loan_id", id.String()).Msg("Failed to reject loan")
		return NewInternalError(c, "Failed to reject loan")
	}

	return c.JSON(http.StatusOK, toLoanResponse(loan))
}

// RecordPayment handles POST /api/v1/loans/:id/payments
func (h *LoanHandler) RecordPayment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	var req RecordPaymentRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	paidAt := time.Now()
	if req.PaidAt != nil && *req.PaidAt != "" {
		paidAt, err = time.Parse("2006-01-02", *req.PaidAt)
		if err != nil {
			return NewValidationError(c, "Invalid payment date", []ValidationError{
				{Field: "paidAt", Message: "Must be in YYYY-MM-DD format"},
			})
		}
	}

	loan, err := h.loanService.RecordPayment(c.Request().Context(), id, req.InstallmentNumber, amount, paidAt)
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		if errors.Is(err, domain.ErrInstallmentNotFound) {
			return NewConflictError(c, "Installment not found or already paid")
		}
		if errors.Is(err, domain.ErrPaymentAmountInvalid) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "amount", Message: "Payment amount must be positive"},
			})
		}
		log.Error().Err(err).Str("loan_id", id.String()).Int("installment", req.InstallmentNumber).Msg("Failed to record payment")
		return NewInternalError(c, "Failed to record payment")
	}

	return c.JSON(http.StatusOK, toLoanResponse(loan))
}

// AssessOverdue handles POST /api/v1/loans/:id/assess-overdue
// The optional asOf query parameter (YYYY-MM-DD) defaults to now.
func (h *LoanHandler) AssessOverdue(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	asOf, err := parseAsOf(c.QueryParam("asOf"))
	if err != nil {
		return NewValidationError(c, "Invalid asOf date", []ValidationError{
			{Field: "asOf", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	loan, result, err := h.loanService.AssessOverdue(c.Request().Context(), id, asOf)
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		if errors.Is(err, domain.ErrInvalidScheduleInput) {
			return NewConflictError(c, "Loan has no schedule to assess")
		}
		log.Error().Err(err).Str("loan_id", id.String()).Msg("Failed to assess overdue")
		return NewInternalError(c, "Failed to assess overdue")
	}

	return c.JSON(http.StatusOK, OverdueAssessmentResponse{
		OverdueCount:  result.OverdueCount,
		OverdueAmount: result.OverdueAmount.StringFixed(2),
		TotalLateFee:  result.TotalLateFee.StringFixed(2),
		Loan:          toLoanResponse(loan),
	})
}

// MarkDefaulted handles POST /api/v1/loans/:id/default
func (h *LoanHandler) MarkDefaulted(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid loan ID", nil)
	}

	var markedBy *string
	if by := c.QueryParam("markedBy"); by != "" {
		markedBy = &by
	}

	loan, err := h.loanService.MarkDefaulted(c.Request().Context(), id, markedBy)
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return NewNotFoundError(c, "Loan not found")
		}
		if errors.Is(err, domain.ErrInvalidStatusChange) {
			return NewConflictError(c, "Only overdue loans can be marked defaulted")
		}
		log.Error().Err(err).Str("loan_id", id.String()).Msg("Failed to mark loan defaulted")
		return NewInternalError(c, "Failed to mark loan defaulted")
	}

	return c.JSON(http.StatusOK, toLoanResponse(loan))
}

func parseAsOf(param string) (time.Time, error) {
	if param == "" {
		return time.Now(), nil
	}
	return time.Parse("2006-01-02", param)
}

func toScheduleResponse(schedule *domain.LoanSchedule) *ScheduleResponse {
	installments := make([]InstallmentResponse, len(schedule.Installments))
	for i, inst := range schedule.Installments {
		installments[i] = InstallmentResponse{
			Number:           inst.Number,
			DueDate:          inst.DueDate.Format("2006-01-02"),
			Amount:           inst.Amount.StringFixed(2),
			PrincipalPortion: inst.PrincipalPortion.StringFixed(2),
			InterestPortion:  inst.InterestPortion.StringFixed(2),
			Status:           string(inst.Status),
			LateFee:          inst.LateFee.StringFixed(2),
		}
		if inst.PaidAt != nil {
			paidAt := inst.PaidAt.Format(time.RFC3339)
			installments[i].PaidAt = &paidAt
		}
	}
	return &ScheduleResponse{
		EMIAmount:     schedule.EMIAmount.StringFixed(2),
		TotalInterest: schedule.TotalInterest.StringFixed(2),
		TotalAmount:   schedule.TotalAmount.StringFixed(2),
		Installments:  installments,
	}
}

func toLoanResponse(loan *domain.Loan) LoanResponse {
	resp := LoanResponse{
		ID:                loan.ID.String(),
		LoanNumber:        loan.LoanNumber,
		MemberID:          loan.MemberID.String(),
		LoanType:          loan.LoanType,
		Purpose:           loan.Purpose,
		Principal:         loan.Principal.StringFixed(2),
		AnnualRatePercent: loan.AnnualRatePercent.StringFixed(2),
		DurationMonths:    loan.DurationMonths,
		Status:            string(loan.Status),
		CurrentBalance:    loan.CurrentBalance.StringFixed(2),
		OverdueAmount:     loan.OverdueAmount.StringFixed(2),
		TotalLateFee:      loan.TotalLateFee.StringFixed(2),
		RejectionReason:   loan.RejectionReason,
		CreatedAt:         loan.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         loan.UpdatedAt.Format(time.RFC3339),
	}
	if loan.StartDate != nil {
		startDate := loan.StartDate.Format("2006-01-02")
		resp.StartDate = &startDate
	}
	if loan.ExpectedEndDate != nil {
		endDate := loan.ExpectedEndDate.Format("2006-01-02")
		resp.ExpectedEndDate = &endDate
	}
	if loan.LastPenaltyAssessedAt != nil {
		stamp := loan.LastPenaltyAssessedAt.Format(time.RFC3339)
		resp.LastPenaltyAssessedAt = &stamp
	}
	if loan.Schedule != nil {
		resp.Schedule = toScheduleResponse(loan.Schedule)
	}
	if len(loan.Notes) > 0 {
		resp.Notes = make([]LoanNoteResponse, len(loan.Notes))
		for i, note := range loan.Notes {
			resp.Notes[i] = LoanNoteResponse{
				Note:    note.Note,
				AddedBy: note.AddedBy,
				AddedAt: note.AddedAt.Format(time.RFC3339),
			}
		}
	}
	return resp
}
