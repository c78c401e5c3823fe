package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/sahayog/society-backend/internal/service"
)

// PenaltyHandler exposes the administrative trigger for the overdue penalty
// batch. The batch itself is idempotent per day, so firing this endpoint more
// than once is harmless.
type PenaltyHandler struct {
	penaltyService *service.PenaltyService
}

// NewPenaltyHandler creates a new PenaltyHandler
func NewPenaltyHandler(penaltyService *service.PenaltyService) *PenaltyHandler {
	return &PenaltyHandler{penaltyService: penaltyService}
}

// BatchResultResponse represents a penalty batch run in API responses
type BatchResultResponse struct {
	ProcessedCount      int    `json:"processedCount"`
	SkippedCount        int    `json:"skippedCount"`
	ErrorCount          int    `json:"errorCount"`
	TotalPenaltyApplied string `json:"totalPenaltyApplied"`
}

// RunPenaltyBatch handles POST /api/v1/admin/penalties/run
// The optional asOf query parameter (YYYY-MM-DD) defaults to now.
func (h *PenaltyHandler) RunPenaltyBatch(c echo.Context) error {
	asOf, err := parseAsOf(c.QueryParam("asOf"))
	if err != nil {
		return NewValidationError(c, "Invalid asOf date", []ValidationError{
			{Field: "asOf", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	result, err := h.penaltyService.RunOnce(c.Request().Context(), asOf)
	if err != nil {
		log.Error().Err(err).Msg("Penalty batch failed")
		return NewInternalError(c, "Penalty batch failed")
	}

	return c.JSON(http.StatusOK, BatchResultResponse{
		ProcessedCount:      result.ProcessedCount,
		SkippedCount:        result.SkippedCount,
		ErrorCount:          result.ErrorCount,
		TotalPenaltyApplied: result.TotalPenaltyApplied.StringFixed(2),
	})
}
