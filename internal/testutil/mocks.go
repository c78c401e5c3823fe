package testutil

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sahayog/society-backend/internal/domain"
)

// MockLoanRepository is an in-memory implementation of domain.LoanRepository
type MockLoanRepository struct {
	Loans    map[uuid.UUID]*domain.Loan
	UpdateFn func(loan *domain.Loan) (*domain.Loan, error)
}

// NewMockLoanRepository creates a new MockLoanRepository
func NewMockLoanRepository() *MockLoanRepository {
	return &MockLoanRepository{Loans: make(map[uuid.UUID]*domain.Loan)}
}

// AddLoan seeds a loan into the store.
func (m *MockLoanRepository) AddLoan(loan *domain.Loan) {
	m.Loans[loan.ID] = loan
}

// Create stores a new loan
func (m *MockLoanRepository) Create(_ context.Context, loan *domain.Loan) (*domain.Loan, error) {
	m.Loans[loan.ID] = loan
	return loan, nil
}

// GetByID retrieves a loan by ID
func (m *MockLoanRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Loan, error) {
	if loan, ok := m.Loans[id]; ok {
		return loan, nil
	}
	return nil, domain.ErrLoanNotFound
}

// GetByLoanNumber retrieves a loan by its loan number
func (m *MockLoanRepository) GetByLoanNumber(_ context.Context, loanNumber string) (*domain.Loan, error) {
	for _, loan := range m.Loans {
		if loan.LoanNumber == loanNumber {
			return loan, nil
		}
	}
	return nil, domain.ErrLoanNotFound
}

// GetByMember retrieves all loans for a member
func (m *MockLoanRepository) GetByMember(_ context.Context, memberID uuid.UUID) ([]*domain.Loan, error) {
	var out []*domain.Loan
	for _, loan := range m.Loans {
		if loan.MemberID == memberID {
			out = append(out, loan)
		}
	}
	return out, nil
}

// GetPenaltyCandidates retrieves loans eligible for the overdue penalty pass
func (m *MockLoanRepository) GetPenaltyCandidates(_ context.Context, asOf time.Time) ([]*domain.Loan, error) {
	var out []*domain.Loan
	for _, loan := range m.Loans {
		if domain.EligibleForOverduePenalty(loan, asOf) {
			out = append(out, loan)
		}
	}
	return out, nil
}

// Update replaces a stored loan
func (m *MockLoanRepository) Update(_ context.Context, loan *domain.Loan) (*domain.Loan, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(loan)
	}
	if _, ok := m.Loans[loan.ID]; !ok {
		return nil, domain.ErrLoanNotFound
	}
	m.Loans[loan.ID] = loan
	return loan, nil
}

// MockDepositRepository is an in-memory implementation of domain.DepositRepository
type MockDepositRepository struct {
	Requests map[uuid.UUID]*domain.DepositRequest
}

// NewMockDepositRepository creates a new MockDepositRepository
func NewMockDepositRepository() *MockDepositRepository {
	return &MockDepositRepository{Requests: make(map[uuid.UUID]*domain.DepositRequest)}
}

// AddRequest seeds a deposit request into the store.
func (m *MockDepositRepository) AddRequest(req *domain.DepositRequest) {
	m.Requests[req.ID] = req
}

// Create stores a new deposit request
func (m *MockDepositRepository) Create(_ context.Context, req *domain.DepositRequest) (*domain.DepositRequest, error) {
	m.Requests[req.ID] = req
	return req, nil
}

// GetByID retrieves a deposit request by ID
func (m *MockDepositRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.DepositRequest, error) {
	if req, ok := m.Requests[id]; ok {
		return req, nil
	}
	return nil, domain.ErrDepositNotFound
}

// GetByMember retrieves all deposit requests for a member
func (m *MockDepositRepository) GetByMember(_ context.Context, memberID uuid.UUID) ([]*domain.DepositRequest, error) {
	var out []*domain.DepositRequest
	for _, req := range m.Requests {
		if req.MemberID == memberID {
			out = append(out, req)
		}
	}
	return out, nil
}

// GetByMemberAndType retrieves a member's deposit requests of one type
func (m *MockDepositRepository) GetByMemberAndType(_ context.Context, memberID uuid.UUID, depositType domain.DepositType) ([]*domain.DepositRequest, error) {
	var out []*domain.DepositRequest
	for _, req := range m.Requests {
		if req.MemberID == memberID && req.Type == depositType {
			out = append(out, req)
		}
	}
	return out, nil
}

// Update replaces a stored deposit request
func (m *MockDepositRepository) Update(_ context.Context, req *domain.DepositRequest) (*domain.DepositRequest, error) {
	if _, ok := m.Requests[req.ID]; !ok {
		return nil, domain.ErrDepositNotFound
	}
	m.Requests[req.ID] = req
	return req, nil
}
