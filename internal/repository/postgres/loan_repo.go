package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sahayog/society-backend/internal/domain"
)

// LoanRepository implements domain.LoanRepository using PostgreSQL.
// The amortization schedule and audit notes are stored as jsonb documents;
// they are always read and written as a whole with the aggregate.
type LoanRepository struct {
	pool *pgxpool.Pool
}

// NewLoanRepository creates a new LoanRepository
func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{pool: pool}
}

const loanColumns = `id, loan_number, member_id, loan_type, purpose, principal,
	annual_rate_percent, duration_months, status, start_date, expected_end_date,
	schedule, current_balance, overdue_amount, total_late_fee,
	last_penalty_assessed_at, rejection_reason, notes, created_at, updated_at`

// Create inserts a new loan aggregate.
func (r *LoanRepository) Create(ctx context.Context, loan *domain.Loan) (*domain.Loan, error) {
	principal, err := decimalToPgNumeric(loan.Principal)
	if err != nil {
		return nil, err
	}
	rate, err := decimalToPgNumeric(loan.AnnualRatePercent)
	if err != nil {
		return nil, err
	}
	balance, err := decimalToPgNumeric(loan.CurrentBalance)
	if err != nil {
		return nil, err
	}
	overdue, err := decimalToPgNumeric(loan.OverdueAmount)
	if err != nil {
		return nil, err
	}
	lateFee, err := decimalToPgNumeric(loan.TotalLateFee)
	if err != nil {
		return nil, err
	}

	scheduleJSON, notesJSON, err := marshalLoanDocuments(loan)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO loans (
			id, loan_number, member_id, loan_type, purpose, principal,
			annual_rate_percent, duration_months, status, start_date,
			expected_end_date, schedule, current_balance, overdue_amount,
			total_late_fee, last_penalty_assessed_at, rejection_reason, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING `+loanColumns,
		loan.ID, loan.LoanNumber, loan.MemberID, loan.LoanType, loan.Purpose,
		principal, rate, loan.DurationMonths, loan.Status, loan.StartDate,
		loan.ExpectedEndDate, scheduleJSON, balance, overdue, lateFee,
		loan.LastPenaltyAssessedAt, loan.RejectionReason, notesJSON,
	)
	return scanLoan(row)
}

// GetByID retrieves a loan by its ID.
func (r *LoanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1`, id)
	loan, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return loan, nil
}

// GetByLoanNumber retrieves a loan by its human-readable number.
func (r *LoanRepository) GetByLoanNumber(ctx context.Context, loanNumber string) (*domain.Loan, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE loan_number = $1`, loanNumber)
	loan, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return loan, nil
}

// GetByMember retrieves all loans for a member, newest first.
func (r *LoanRepository) GetByMember(ctx context.Context, memberID uuid.UUID) ([]*domain.Loan, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+loanColumns+` FROM loans
		WHERE member_id = $1
		ORDER BY created_at DESC`, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLoans(rows)
}

// GetPenaltyCandidates retrieves loans eligible for the daily overdue penalty:
// repayable statuses whose expected end date has passed. Loans already
// stamped for asOf's date are still returned; the idempotency check belongs
// to the domain layer, which knows the batch time zone.
func (r *LoanRepository) GetPenaltyCandidates(ctx context.Context, asOf time.Time) ([]*domain.Loan, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+loanColumns+` FROM loans
		WHERE status IN ($1, $2, $3)
		  AND expected_end_date IS NOT NULL
		  AND expected_end_date < $4
		ORDER BY expected_end_date`,
		domain.LoanStatusActive, domain.LoanStatusApproved, domain.LoanStatusOverdue, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLoans(rows)
}

// Update persists the full loan aggregate, schedule and notes included.
func (r *LoanRepository) Update(ctx context.Context, loan *domain.Loan) (*domain.Loan, error) {
	balance, err := decimalToPgNumeric(loan.CurrentBalance)
	if err != nil {
		return nil, err
	}
	overdue, err := decimalToPgNumeric(loan.OverdueAmount)
	if err != nil {
		return nil, err
	}
	lateFee, err := decimalToPgNumeric(loan.TotalLateFee)
	if err != nil {
		return nil, err
	}

	scheduleJSON, notesJSON, err := marshalLoanDocuments(loan)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE loans SET
			status = $2,
			start_date = $3,
			expected_end_date = $4,
			schedule = $5,
			current_balance = $6,
			overdue_amount = $7,
			total_late_fee = $8,
			last_penalty_assessed_at = $9,
			rejection_reason = $10,
			notes = $11,
			updated_at = now()
		WHERE id = $1
		RETURNING `+loanColumns,
		loan.ID, loan.Status, loan.StartDate, loan.ExpectedEndDate,
		scheduleJSON, balance, overdue, lateFee,
		loan.LastPenaltyAssessedAt, loan.RejectionReason, notesJSON,
	)
	updated, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return updated, nil
}

func marshalLoanDocuments(loan *domain.Loan) (scheduleJSON, notesJSON []byte, err error) {
	if loan.Schedule != nil {
		scheduleJSON, err = json.Marshal(loan.Schedule)
		if err != nil {
			return nil, nil, err
		}
	}
	if len(loan.Notes) > 0 {
		notesJSON, err = json.Marshal(loan.Notes)
		if err != nil {
			return nil, nil, err
		}
	}
	return scheduleJSON, notesJSON, nil
}

func scanLoan(row pgx.Row) (*domain.Loan, error) {
	var (
		loan         domain.Loan
		principal    pgtype.Numeric
		rate         pgtype.Numeric
		balance      pgtype.Numeric
		overdue      pgtype.Numeric
		lateFee      pgtype.Numeric
		scheduleJSON []byte
		notesJSON    []byte
	)

	err := row.Scan(
		&loan.ID, &loan.LoanNumber, &loan.MemberID, &loan.LoanType, &loan.Purpose,
		&principal, &rate, &loan.DurationMonths, &loan.Status, &loan.StartDate,
		&loan.ExpectedEndDate, &scheduleJSON, &balance, &overdue, &lateFee,
		&loan.LastPenaltyAssessedAt, &loan.RejectionReason, &notesJSON,
		&loan.CreatedAt, &loan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	loan.Principal = pgNumericToDecimal(principal)
	loan.AnnualRatePercent = pgNumericToDecimal(rate)
	loan.CurrentBalance = pgNumericToDecimal(balance)
	loan.OverdueAmount = pgNumericToDecimal(overdue)
	loan.TotalLateFee = pgNumericToDecimal(lateFee)

	if len(scheduleJSON) > 0 {
		var schedule domain.LoanSchedule
		if err := json.Unmarshal(scheduleJSON, &schedule); err != nil {
			return nil, err
		}
		loan.Schedule = &schedule
	}
	if len(notesJSON) > 0 {
		if err := json.Unmarshal(notesJSON, &loan.Notes); err != nil {
			return nil, err
		}
	}
	return &loan, nil
}

func scanLoans(rows pgx.Rows) ([]*domain.Loan, error) {
	var loans []*domain.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}
