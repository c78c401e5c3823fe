package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/sahayog/society-backend/internal/middleware"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, rateLimiter *middleware.RateLimiter, loanHandler *LoanHandler, depositHandler *DepositHandler, penaltyHandler *PenaltyHandler) {
	// API version 1
	api := e.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(rateLimiter))

	// Loan routes
	loans := api.Group("/loans")
	loans.POST("", loanHandler.RequestLoan)
	loans.POST("/preview", loanHandler.PreviewSchedule)
	loans.GET("/:id", loanHandler.GetLoan)
	loans.POST("/:id/approve", loanHandler.ApproveLoan)
	loans.POST("/:id/reject", loanHandler.RejectLoan)
	loans.POST("/:id/payments", loanHandler.RecordPayment)
	loans.POST("/:id/assess-overdue", loanHandler.AssessOverdue)
	loans.POST("/:id/default", loanHandler.MarkDefaulted)

	// Deposit request routes
	deposits := api.Group("/deposits")
	deposits.POST("", depositHandler.CreateRequest)
	deposits.POST("/preview", depositHandler.PreviewMaturity)
	deposits.GET("/:id", depositHandler.GetRequest)
	deposits.POST("/:id/pay", depositHandler.MarkPaid)

	// Member-scoped listings
	members := api.Group("/members")
	members.GET("/:memberId/loans", loanHandler.GetLoansByMember)
	members.GET("/:memberId/deposits", depositHandler.GetRequestsByMember)
	members.GET("/:memberId/deposits/penalties", depositHandler.GetPenaltySummary)

	// Administrative batch trigger
	admin := api.Group("/admin")
	admin.POST("/penalties/run", penaltyHandler.RunPenaltyBatch)
}
