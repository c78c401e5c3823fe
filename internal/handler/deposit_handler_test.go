package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sahayog/society-backend/internal/domain"
	"github.com/sahayog/society-backend/internal/service"
	"github.com/sahayog/society-backend/internal/testutil"
	"github.com/shopspring/decimal"
)

func newDepositHandler() (*DepositHandler, *service.DepositService, *testutil.MockDepositRepository) {
	repo := testutil.NewMockDepositRepository()
	depositService := service.NewDepositService(repo)
	return NewDepositHandler(depositService), depositService, repo
}

func TestPreviewMaturity_Recurring(t *testing.T) {
	e := echo.New()
	handler, _, _ := newDepositHandler()

	reqBody := `{
		"type": "RECURRING",
		"amount": "1000",
		"annualRatePercent": "12",
		"durationMonths": 12,
		"frequency": "MONTHLY"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/deposits/preview", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.PreviewMaturity(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var response MaturityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	// 1000 monthly at 12% over 12 months: 78 contribution-months of 1% each.
	if response.InterestEarned != "780.00" {
		t.Errorf("Expected interest '780.00', got %s", response.InterestEarned)
	}
	if response.TotalDeposited != "12000.00" {
		t.Errorf("Expected deposits '12000.00', got %s", response.TotalDeposited)
	}
}

func TestPreviewMaturity_MissingFrequency(t *testing.T) {
	e := echo.New()
	handler, _, _ := newDepositHandler()

	reqBody := `{
		"type": "RECURRING",
		"amount": "1000",
		"annualRatePercent": "12",
		"durationMonths": 12
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/deposits/preview", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.PreviewMaturity(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}

	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(problem.Errors) == 0 || problem.Errors[0].Field != "frequency" {
		t.Errorf("Expected a frequency field error, got %+v", problem.Errors)
	}
}

func TestCreateDepositRequest(t *testing.T) {
	e := echo.New()
	handler, _, _ := newDepositHandler()

	reqBody := `{
		"memberId": "` + uuid.NewString() + `",
		"type": "FIXED",
		"amount": "100000",
		"annualRatePercent": "9.5",
		"durationMonths": 12,
		"dueDate": "2024-03-01"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/deposits", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.CreateRequest(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rec.Code)
	}

	var response DepositResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Status != "PENDING" {
		t.Errorf("Expected status PENDING, got %s", response.Status)
	}
	if response.MaturityDate == nil || *response.MaturityDate != "2025-03-01" {
		t.Errorf("Expected maturity date 2025-03-01, got %v", response.MaturityDate)
	}
}

func TestMarkPaid_CertificateGracePenalty(t *testing.T) {
	e := echo.New()
	handler, depositService, _ := newDepositHandler()

	created, _, err := depositService.CreateRequest(context.Background(), service.CreateDepositInput{
		MemberID:          uuid.New(),
		Type:              domain.DepositCertificate,
		Amount:            decimal.NewFromInt(5000),
		AnnualRatePercent: decimal.NewFromFloat(7.3),
		DueDate:           time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Failed to seed request: %v", err)
	}

	reqBody := `{"paidAt": "2024-01-20"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/deposits/"+created.ID.String()+"/pay", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(created.ID.String())

	if err := handler.MarkPaid(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var response DepositResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	// Due the 10th, paid the 20th: 5 days past the 15th at 10 per day.
	if response.LateFee != "50.00" {
		t.Errorf("Expected late fee '50.00', got %s", response.LateFee)
	}
	if response.TotalAmount != "5050.00" {
		t.Errorf("Expected total '5050.00', got %s", response.TotalAmount)
	}

	// Retrying the settlement must conflict, not double-charge.
	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodPost, "/api/v1/deposits/"+created.ID.String()+"/pay", strings.NewReader(reqBody)), rec)
	c.Request().Header.Set("Content-Type", "application/json")
	c.SetParamNames("id")
	c.SetParamValues(created.ID.String())

	if err := handler.MarkPaid(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", rec.Code)
	}
}

func TestGetPenaltySummary(t *testing.T) {
	e := echo.New()
	handler, _, repo := newDepositHandler()

	memberID := uuid.New()
	repo.AddRequest(&domain.DepositRequest{
		ID:       uuid.New(),
		MemberID: memberID,
		Type:     domain.DepositCertificate,
		Amount:   decimal.NewFromInt(1000),
		DueDate:  time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		Status:   domain.DepositStatusPending,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/members/"+memberID.String()+"/deposits/penalties?asOf=2024-01-20", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("memberId")
	c.SetParamValues(memberID.String())

	if err := handler.GetPenaltySummary(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var response PenaltySummaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.OverdueCount != 1 {
		t.Errorf("Expected 1 overdue request, got %d", response.OverdueCount)
	}
	if response.TotalPenalty != "50.00" {
		t.Errorf("Expected total penalty '50.00', got %s", response.TotalPenalty)
	}
}
