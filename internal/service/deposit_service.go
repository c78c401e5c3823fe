package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sahayog/society-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// DepositService handles deposit-type payment requests (recurring, fixed,
// overdraft and certificate instruments).
type DepositService struct {
	depositRepo domain.DepositRepository
}

// NewDepositService creates a new DepositService
func NewDepositService(depositRepo domain.DepositRepository) *DepositService {
	return &DepositService{depositRepo: depositRepo}
}

// CreateDepositInput contains input for creating a deposit request
type CreateDepositInput struct {
	MemberID          uuid.UUID
	Type              domain.DepositType
	Amount            decimal.Decimal
	AnnualRatePercent decimal.Decimal
	DurationMonths    int
	Frequency         domain.Frequency
	Days              int
	DueDate           time.Time
}

// PreviewMaturity validates the parameters and computes the maturity
// breakdown without persisting anything. Invalid parameters are reported via
// the returned ValidationResult, never coerced.
func (s *DepositService) PreviewMaturity(input CreateDepositInput) (domain.MaturityResult, domain.ValidationResult, error) {
	validation := domain.ValidateDepositParams(input.Type, input.Amount, input.AnnualRatePercent, input.DurationMonths, input.Frequency)
	if !validation.IsValid {
		return domain.MaturityResult{}, validation, domain.ErrInvalidInput
	}

	result, err := domain.CalculateDepositMaturity(domain.DepositRequest{
		Type:              input.Type,
		Amount:            input.Amount,
		AnnualRatePercent: input.AnnualRatePercent,
		DurationMonths:    input.DurationMonths,
		Frequency:         input.Frequency,
		Days:              input.Days,
		DueDate:           input.DueDate,
	})
	if err != nil {
		return domain.MaturityResult{}, validation, err
	}
	return result, validation, nil
}

// CreateRequest validates and persists a new payment request. For term
// deposits the maturity date is derived from the due date plus the duration.
func (s *DepositService) CreateRequest(ctx context.Context, input CreateDepositInput) (*domain.DepositRequest, domain.ValidationResult, error) {
	validation := domain.ValidateDepositParams(input.Type, input.Amount, input.AnnualRatePercent, input.DurationMonths, input.Frequency)
	if !validation.IsValid {
		return nil, validation, domain.ErrInvalidInput
	}

	req := &domain.DepositRequest{
		ID:                uuid.New(),
		MemberID:          input.MemberID,
		Type:              input.Type,
		Amount:            input.Amount,
		AnnualRatePercent: input.AnnualRatePercent,
		DurationMonths:    input.DurationMonths,
		Frequency:         input.Frequency,
		Days:              input.Days,
		DueDate:           input.DueDate,
		Status:            domain.DepositStatusPending,
		LateFee:           decimal.Zero,
		TotalAmount:       input.Amount,
	}
	if input.Type == domain.DepositRecurring || input.Type == domain.DepositFixed {
		maturity := input.DueDate.AddDate(0, input.DurationMonths, 0)
		req.MaturityDate = &maturity
	}

	created, err := s.depositRepo.Create(ctx, req)
	if err != nil {
		return nil, validation, err
	}

	log.Info().
		Str("request_id", created.ID.String()).
		Str("type", string(created.Type)).
		Str("amount", created.Amount.StringFixed(2)).
		Msg("Deposit request created")

	return created, validation, nil
}

// GetRequest retrieves a deposit request by ID.
func (s *DepositService) GetRequest(ctx context.Context, id uuid.UUID) (*domain.DepositRequest, error) {
	return s.depositRepo.GetByID(ctx, id)
}

// GetRequestsByMember retrieves all deposit requests for a member.
func (s *DepositService) GetRequestsByMember(ctx context.Context, memberID uuid.UUID) ([]*domain.DepositRequest, error) {
	return s.depositRepo.GetByMember(ctx, memberID)
}

// MarkPaid settles a pending request at asOf. Certificate requests settled
// past their grace window carry the day-rate penalty as a late fee; other
// overdue types carry the capped percentage late fee. Marking an already
// settled request fails with ErrDepositAlreadyPaid so that the gateway
// callback can be retried safely.
func (s *DepositService) MarkPaid(ctx context.Context, id uuid.UUID, asOf time.Time) (*domain.DepositRequest, error) {
	req, err := s.depositRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status == domain.DepositStatusPaid {
		return nil, domain.ErrDepositAlreadyPaid
	}

	if asOf.After(req.DueDate) {
		if req.Type == domain.DepositCertificate {
			penalty := domain.CalculateGracePenalty(req.DueDate, asOf)
			req.LateFee = penalty.PenaltyAmount
		} else {
			daysLate := int(asOf.Sub(req.DueDate).Hours() / 24)
			req.LateFee = domain.DepositLateFee(req.Amount, daysLate)
		}
	}
	req.TotalAmount = req.Amount.Add(req.LateFee)
	req.Status = domain.DepositStatusPaid
	paidAt := asOf
	req.PaidAt = &paidAt

	updated, err := s.depositRepo.Update(ctx, req)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("request_id", req.ID.String()).
		Str("late_fee", req.LateFee.StringFixed(2)).
		Str("total", req.TotalAmount.StringFixed(2)).
		Msg("Deposit request paid")

	return updated, nil
}

// GracePenaltySummary assesses all of a member's certificate requests at
// asOf and aggregates the penalties.
func (s *DepositService) GracePenaltySummary(ctx context.Context, memberID uuid.UUID, asOf time.Time) (domain.GracePenaltySummary, error) {
	requests, err := s.depositRepo.GetByMemberAndType(ctx, memberID, domain.DepositCertificate)
	if err != nil {
		return domain.GracePenaltySummary{}, err
	}
	return domain.SummarizeGracePenalties(requests, asOf), nil
}
