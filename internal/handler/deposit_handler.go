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

// DepositHandler handles deposit-request HTTP requests
type DepositHandler struct {
	depositService *service.DepositService
}

// NewDepositHandler creates a new DepositHandler
func NewDepositHandler(depositService *service.DepositService) *DepositHandler {
	return &DepositHandler{depositService: depositService}
}

// CreateDepositRequest represents the create deposit request body
type CreateDepositRequest struct {
	MemberID          string `json:"memberId"`
	Type              string `json:"type"`
	Amount            string `json:"amount"`
	AnnualRatePercent string `json:"annualRatePercent"`
	DurationMonths    int    `json:"durationMonths,omitempty"`
	Frequency         string `json:"frequency,omitempty"`
	Days              int    `json:"days,omitempty"`
	DueDate           string `json:"dueDate"`
}

// PreviewMaturityRequest represents the maturity preview request body
type PreviewMaturityRequest struct {
	Type              string `json:"type"`
	Amount            string `json:"amount"`
	AnnualRatePercent string `json:"annualRatePercent"`
	DurationMonths    int    `json:"durationMonths,omitempty"`
	Frequency         string `json:"frequency,omitempty"`
	Days              int    `json:"days,omitempty"`
}

// MarkPaidRequest represents the settle request body
type MarkPaidRequest struct {
	PaidAt *string `json:"paidAt,omitempty"`
}

// MaturityResponse represents a maturity calculation in API responses
type MaturityResponse struct {
	Type           string `json:"type"`
	Principal      string `json:"principal"`
	TotalDeposited string `json:"totalDeposited"`
	InterestEarned string `json:"interestEarned"`
	MaturityAmount string `json:"maturityAmount"`
}

// DepositResponse represents a deposit request in API responses
type DepositResponse struct {
	ID                string  `json:"id"`
	MemberID          string  `json:"memberId"`
	Type              string  `json:"type"`
	Amount            string  `json:"amount"`
	AnnualRatePercent string  `json:"annualRatePercent"`
	DurationMonths    int     `json:"durationMonths,omitempty"`
	Frequency         string  `json:"frequency,omitempty"`
	Days              int     `json:"days,omitempty"`
	DueDate           string  `json:"dueDate"`
	MaturityDate      *string `json:"maturityDate,omitempty"`
	Status            string  `json:"status"`
	LateFee           string  `json:"lateFee"`
	TotalAmount       string  `json:"totalAmount"`
	PaidAt            *string `json:"paidAt,omitempty"`
	CreatedAt         string  `json:"createdAt"`
	UpdatedAt         string  `json:"updatedAt"`
}

// PenaltyDetailResponse represents one request's penalty in the summary
type PenaltyDetailResponse struct {
	RequestID              string `json:"requestId"`
	Type                   string `json:"type"`
	Amount                 string `json:"amount"`
	DueDate                string `json:"dueDate"`
	Status                 string `json:"status"`
	HasPenalty             bool   `json:"hasPenalty"`
	PenaltyAmount          string `json:"penaltyAmount"`
	PenaltyDays            int    `json:"penaltyDays"`
	Message                string `json:"message"`
	TotalAmountWithPenalty string `json:"totalAmountWithPenalty"`
}

// PenaltySummaryResponse represents a member's certificate penalty summary
type PenaltySummaryResponse struct {
	TotalPayments          int                     `json:"totalPayments"`
	OverdueCount           int                     `json:"overdueCount"`
	OnTimeCount            int                     `json:"onTimeCount"`
	TotalPenalty           string                  `json:"totalPenalty"`
	TotalAmount            string                  `json:"totalAmount"`
	TotalAmountWithPenalty string                  `json:"totalAmountWithPenalty"`
	Breakdown              []PenaltyDetailResponse `json:"breakdown"`
}

// PreviewMaturity handles POST /api/v1/deposits/preview
func (h *DepositHandler) PreviewMaturity(c echo.Context) error {
	var req PreviewMaturityRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, verr := depositInputFromRequest(CreateDepositRequest{
		Type:              req.Type,
		Amount:            req.Amount,
		AnnualRatePercent: req.AnnualRatePercent,
		DurationMonths:    req.DurationMonths,
		Frequency:         req.Frequency,
		Days:              req.Days,
	})
	if verr != nil {
		return NewValidationError(c, "Validation failed", verr)
	}

	result, validation, err := h.depositService.PreviewMaturity(input)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return NewValidationError(c, "Validation failed", toValidationErrors(validation.Errors))
		}
		log.Error().Err(err).Str("type", req.Type).Msg("Failed to preview maturity")
		return NewInternalError(c, "Failed to preview maturity")
	}

	return c.JSON(http.StatusOK, toMaturityResponse(result))
}

// CreateRequest handles POST /api/v1/deposits
func (h *DepositHandler) CreateRequest(c echo.Context) error {
	var req CreateDepositRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	memberID, err := uuid.Parse(req.MemberID)
	if err != nil {
		return NewValidationError(c, "Invalid member ID", []ValidationError{
			{Field: "memberId", Message: "Must be a valid UUID"},
		})
	}
	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		return NewValidationError(c, "Invalid due date", []ValidationError{
			{Field: "dueDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	input, verr := depositInputFromRequest(req)
	if verr != nil {
		return NewValidationError(c, "Validation failed", verr)
	}
	input.MemberID = memberID
	input.DueDate = dueDate

	created, validation, err := h.depositService.CreateRequest(c.Request().Context(), input)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return NewValidationError(c, "Validation failed", toValidationErrors(validation.Errors))
		}
		log.Error().Err(err).Str("member_id", req.MemberID).Msg("Failed to create deposit request")
		return NewInternalError(c, "Failed to create deposit request")
	}

	return c.JSON(http.StatusCreated, toDepositResponse(created))
}

// GetRequest handles GET /api/v1/deposits/:id
func (h *DepositHandler) GetRequest(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid request ID", nil)
	}

	req, err := h.depositService.GetRequest(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrDepositNotFound) {
			return NewNotFoundError(c, "Deposit request not found")
		}
		log.Error().Err(err).Str("request_id", id.String()).Msg("Failed to get deposit request")
		return NewInternalError(c, "Failed to get deposit request")
	}

	return c.JSON(http.StatusOK, toDepositResponse(req))
}

// GetRequestsByMember handles GET /api/v1/members/:memberId/deposits
func (h *DepositHandler) GetRequestsByMember(c echo.Context) error {
	memberID, err := uuid.Parse(c.Param("memberId"))
	if err != nil {
		return NewValidationError(c, "Invalid member ID", nil)
	}

	requests, err := h.depositService.GetRequestsByMember(c.Request().Context(), memberID)
	if err != nil {
		log.Error().Err(err).Str("member_id", memberID.String()).Msg("Failed to get deposit requests")
		return NewInternalError(c, "Failed to get deposit requests")
	}

	response := make([]DepositResponse, len(requests))
	for i, req := range requests {
		response[i] = toDepositResponse(req)
	}
	return c.JSON(http.StatusOK, response)
}

// MarkPaid handles POST /api/v1/deposits/:id/pay
func (h *DepositHandler) MarkPaid(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid request ID", nil)
	}

	var req MarkPaidRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
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

	updated, err := h.depositService.MarkPaid(c.Request().Context(), id, paidAt)
	if err != nil {
		if errors.Is(err, domain.ErrDepositNotFound) {
			return NewNotFoundError(c, "Deposit request not found")
		}
		if errors.Is(err, domain.ErrDepositAlreadyPaid) {
			return NewConflictError(c, "Deposit request is already paid")
		}
		log.Error().Err(err).Str("request_id", id.String()).Msg("Failed to mark deposit request paid")
		return NewInternalError(c, "Failed to mark deposit request paid")
	}

	return c.JSON(http.StatusOK, toDepositResponse(updated))
}

// GetPenaltySummary handles GET /api/v1/members/:memberId/deposits/penalties
// The optional asOf query parameter (YYYY-MM-DD) defaults to now.
func (h *DepositHandler) GetPenaltySummary(c echo.Context) error {
	memberID, err := uuid.Parse(c.Param("memberId"))
	if err != nil {
		return NewValidationError(c, "Invalid member ID", nil)
	}

	asOf, err := parseAsOf(c.QueryParam("asOf"))
	if err != nil {
		return NewValidationError(c, "Invalid asOf date", []ValidationError{
			{Field: "asOf", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	summary, err := h.depositService.GracePenaltySummary(c.Request().Context(), memberID, asOf)
	if err != nil {
		log.Error().Err(err).Str("member_id", memberID.String()).Msg("Failed to get penalty summary")
		return NewInternalError(c, "Failed to get penalty summary")
	}

	breakdown := make([]PenaltyDetailResponse, len(summary.Breakdown))
	for i, d := range summary.Breakdown {
		breakdown[i] = PenaltyDetailResponse{
			RequestID:              d.RequestID.String(),
			Type:                   string(d.Type),
			Amount:                 d.Amount.StringFixed(2),
			DueDate:                d.DueDate.Format("2006-01-02"),
			Status:                 string(d.Status),
			HasPenalty:             d.Penalty.HasPenalty,
			PenaltyAmount:          d.Penalty.PenaltyAmount.StringFixed(2),
			PenaltyDays:            d.Penalty.PenaltyDays,
			Message:                d.Penalty.Message,
			TotalAmountWithPenalty: d.TotalAmountWithPenalty.StringFixed(2),
		}
	}

	return c.JSON(http.StatusOK, PenaltySummaryResponse{
		TotalPayments:          summary.TotalPayments,
		OverdueCount:           summary.OverdueCount,
		OnTimeCount:            summary.OnTimeCount,
		TotalPenalty:           summary.TotalPenalty.StringFixed(2),
		TotalAmount:            summary.TotalAmount.StringFixed(2),
		TotalAmountWithPenalty: summary.TotalAmountWithPenalty.StringFixed(2),
		Breakdown:              breakdown,
	})
}

// depositInputFromRequest parses the decimal fields shared by the preview and
// create request bodies. Member ID and due date are handled by the callers.
func depositInputFromRequest(req CreateDepositRequest) (service.CreateDepositInput, []ValidationError) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return service.CreateDepositInput{}, []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		}
	}
	rate, err := decimal.NewFromString(req.AnnualRatePercent)
	if err != nil {
		return service.CreateDepositInput{}, []ValidationError{
			{Field: "annualRatePercent", Message: "Must be a valid decimal number"},
		}
	}

	return service.CreateDepositInput{
		Type:              domain.DepositType(req.Type),
		Amount:            amount,
		AnnualRatePercent: rate,
		DurationMonths:    req.DurationMonths,
		Frequency:         domain.Frequency(req.Frequency),
		Days:              req.Days,
	}, nil
}

func toMaturityResponse(result domain.MaturityResult) MaturityResponse {
	return MaturityResponse{
		Type:           string(result.Type),
		Principal:      result.Principal.StringFixed(2),
		TotalDeposited: result.TotalDeposited.StringFixed(2),
		InterestEarned: result.InterestEarned.StringFixed(2),
		MaturityAmount: result.MaturityAmount.StringFixed(2),
	}
}

func toDepositResponse(req *domain.DepositRequest) DepositResponse {
	resp := DepositResponse{
		ID:                req.ID.String(),
		MemberID:          req.MemberID.String(),
		Type:              string(req.Type),
		Amount:            req.Amount.StringFixed(2),
		AnnualRatePercent: req.AnnualRatePercent.StringFixed(2),
		DurationMonths:    req.DurationMonths,
		Frequency:         string(req.Frequency),
		Days:              req.Days,
		DueDate:           req.DueDate.Format("2006-01-02"),
		Status:            string(req.Status),
		LateFee:           req.LateFee.StringFixed(2),
		TotalAmount:       req.TotalAmount.StringFixed(2),
		CreatedAt:         req.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         req.UpdatedAt.Format(time.RFC3339),
	}
	if req.MaturityDate != nil {
		maturity := req.MaturityDate.Format("2006-01-02")
		resp.MaturityDate = &maturity
	}
	if req.PaidAt != nil {
		paidAt := req.PaidAt.Format(time.RFC3339)
		resp.PaidAt = &paidAt
	}
	return resp
}
