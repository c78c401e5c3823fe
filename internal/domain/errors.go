package domain

import "errors"

// Domain errors
var (
	ErrNotFound             = errors.New("resource not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInternalError        = errors.New("internal error")
	ErrLoanNotFound         = errors.New("loan not found")
	ErrDepositNotFound      = errors.New("deposit request not found")
	ErrInvalidScheduleInput = errors.New("cannot build schedule: principal, rate and duration must be set")
	ErrInstallmentNotFound  = errors.New("installment not found or already paid")
	ErrInvalidStatusChange  = errors.New("invalid loan status transition")
	ErrPaymentAmountInvalid = errors.New("payment amount must be positive")
	ErrDepositAlreadyPaid   = errors.New("deposit request already paid")
	ErrComputation          = errors.New("computation failed")
)

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult is the outcome of validating calculator parameters.
// IsValid is true iff Errors is empty.
type ValidationResult struct {
	IsValid bool              `json:"isValid"`
	Errors  []ValidationError `json:"errors"`
}

func (r *ValidationResult) add(field, message string) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: message})
	r.IsValid = false
}
