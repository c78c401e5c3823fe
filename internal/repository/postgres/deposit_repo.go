package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sahayog/society-backend/internal/domain"
)

// DepositRepository implements domain.DepositRepository using PostgreSQL
type DepositRepository struct {
	pool *pgxpool.Pool
}

// NewDepositRepository creates a new DepositRepository
func NewDepositRepository(pool *pgxpool.Pool) *DepositRepository {
	return &DepositRepository{pool: pool}
}

const depositColumns = `id, member_id, type, amount, annual_rate_percent,
	duration_months, frequency, days, due_date, maturity_date, status,
	late_fee, total_amount, paid_at, created_at, updated_at`

// Create inserts a new deposit request.
func (r *DepositRepository) Create(ctx context.Context, req *domain.DepositRequest) (*domain.DepositRequest, error) {
	amount, err := decimalToPgNumeric(req.Amount)
	if err != nil {
		return nil, err
	}
	rate, err := decimalToPgNumeric(req.AnnualRatePercent)
	if err != nil {
		return nil, err
	}
	lateFee, err := decimalToPgNumeric(req.LateFee)
	if err != nil {
		return nil, err
	}
	total, err := decimalToPgNumeric(req.TotalAmount)
	if err != nil {
		return nil, err
	}

	frequency := pgtype.Text{}
	if req.Frequency != "" {
		frequency.String = string(req.Frequency)
		frequency.Valid = true
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO deposit_requests (
			id, member_id, type, amount, annual_rate_percent, duration_months,
			frequency, days, due_date, maturity_date, status, late_fee, total_amount
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+depositColumns,
		req.ID, req.MemberID, req.Type, amount, rate, req.DurationMonths,
		frequency, req.Days, req.DueDate, req.MaturityDate, req.Status,
		lateFee, total,
	)
	return scanDepositRequest(row)
}

// GetByID retrieves a deposit request by ID.
func (r *DepositRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DepositRequest, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+depositColumns+` FROM deposit_requests WHERE id = $1`, id)
	req, err := scanDepositRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDepositNotFound
		}
		return nil, err
	}
	return req, nil
}

// GetByMember retrieves all deposit requests for a member, due-soonest first.
func (r *DepositRepository) GetByMember(ctx context.Context, memberID uuid.UUID) ([]*domain.DepositRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+depositColumns+` FROM deposit_requests
		WHERE member_id = $1
		ORDER BY due_date`, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDepositRequests(rows)
}

// GetByMemberAndType retrieves a member's deposit requests of one instrument type.
func (r *DepositRepository) GetByMemberAndType(ctx context.Context, memberID uuid.UUID, depositType domain.DepositType) ([]*domain.DepositRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+depositColumns+` FROM deposit_requests
		WHERE member_id = $1 AND type = $2
		ORDER BY due_date`, memberID, depositType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDepositRequests(rows)
}

// Update persists the mutable fields of a deposit request.
func (r *DepositRepository) Update(ctx context.Context, req *domain.DepositRequest) (*domain.DepositRequest, error) {
	lateFee, err := decimalToPgNumeric(req.LateFee)
	if err != nil {
		return nil, err
	}
	total, err := decimalToPgNumeric(req.TotalAmount)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE deposit_requests SET
			status = $2,
			late_fee = $3,
			total_amount = $4,
			maturity_date = $5,
			paid_at = $6,
			updated_at = now()
		WHERE id = $1
		RETURNING `+depositColumns,
		req.ID, req.Status, lateFee, total, req.MaturityDate, req.PaidAt,
	)
	updated, err := scanDepositRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDepositNotFound
		}
		return nil, err
	}
	return updated, nil
}

func scanDepositRequest(row pgx.Row) (*domain.DepositRequest, error) {
	var (
		req       domain.DepositRequest
		amount    pgtype.Numeric
		rate      pgtype.Numeric
		lateFee   pgtype.Numeric
		total     pgtype.Numeric
		frequency pgtype.Text
	)

	err := row.Scan(
		&req.ID, &req.MemberID, &req.Type, &amount, &rate,
		&req.DurationMonths, &frequency, &req.Days, &req.DueDate,
		&req.MaturityDate, &req.Status, &lateFee, &total, &req.PaidAt,
		&req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.Amount = pgNumericToDecimal(amount)
	req.AnnualRatePercent = pgNumericToDecimal(rate)
	req.LateFee = pgNumericToDecimal(lateFee)
	req.TotalAmount = pgNumericToDecimal(total)
	if frequency.Valid {
		req.Frequency = domain.Frequency(frequency.String)
	}
	return &req, nil
}

func scanDepositRequests(rows pgx.Rows) ([]*domain.DepositRequest, error) {
	var requests []*domain.DepositRequest
	for rows.Next() {
		req, err := scanDepositRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}
