package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/ledgerworks/partner_ledger/controllers"
	"github.com/ledgerworks/partner_ledger/middleware"
)

// RegisterPayoutRoutes sets up payout batch operations
func RegisterPayoutRoutes(e *echo.Echo, payoutController *controllers.PayoutController) {
	payouts := e.Group("/api/payouts")
	payouts.Use(middleware.JWTMiddleware())

	payouts.POST("/run", payoutController.RunBatcher)
	payouts.GET("", payoutController.ListBatches)
	payouts.GET("/:id", payoutController.GetBatch)
	payouts.PUT("/:id/status", payoutController.UpdateBatchStatus)
}
