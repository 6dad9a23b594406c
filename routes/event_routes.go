package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/ledgerworks/partner_ledger/controllers"
	"github.com/ledgerworks/partner_ledger/middleware"
)

// RegisterEventRoutes sets up the event ingestion and review endpoints
func RegisterEventRoutes(e *echo.Echo, eventController *controllers.EventController) {
	events := e.Group("/api/events")
	events.Use(middleware.JWTMiddleware())

	events.POST("", eventController.IngestEvent)
	events.GET("/rejected", eventController.GetRejectedEvents)
}
