package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/ledgerworks/partner_ledger/controllers"
	"github.com/ledgerworks/partner_ledger/middleware"
)

// RegisterPartnerRoutes sets up partner management, reporting and the
// metrics snapshot feed
func RegisterPartnerRoutes(e *echo.Echo, partnerController *controllers.PartnerController) {
	partners := e.Group("/api/partners")
	partners.Use(middleware.JWTMiddleware())

	partners.POST("", partnerController.CreatePartner)
	partners.GET("/:id", partnerController.GetPartner)
	partners.GET("/:id/entries", partnerController.GetPartnerEntries)
	partners.GET("/:id/balance", partnerController.GetPartnerBalance)
	partners.POST("/:id/refresh-tier", partnerController.RefreshTier)
	partners.PUT("/:id/metrics", partnerController.UpsertMetrics)

	companies := e.Group("/api/companies")
	companies.Use(middleware.JWTMiddleware())

	companies.POST("", partnerController.CreateCompany)
}
