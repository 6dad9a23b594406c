package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/ledgerworks/partner_ledger/config"
	"github.com/ledgerworks/partner_ledger/controllers"
	"github.com/ledgerworks/partner_ledger/middleware"
	"github.com/ledgerworks/partner_ledger/repositories"
	"github.com/ledgerworks/partner_ledger/routes"
	"github.com/ledgerworks/partner_ledger/services"
	"github.com/ledgerworks/partner_ledger/utils"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found")
	}

	// Connect to Redis (optional, metrics snapshot cache)
	redisClient := config.ConnectRedis()

	// Connect to database
	client := config.ConnectDB()

	// Commission configuration, read once and injected everywhere
	engineCfg := config.LoadEngineConfig()

	// Create a new Echo instance
	e := echo.New()

	// Initialize custom validator
	customValidator := &CustomValidator{validator: validator.New()}
	e.Validator = customValidator

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.Secure())
	e.Use(rateLimiter.RateLimit())

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "Partner Ledger is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	// Initialize repositories
	ledgerRepo := repositories.NewLedgerRepository(client)
	partnerRepo := repositories.NewPartnerRepository(client)
	metricsRepo := repositories.NewMetricsRepository(client, redisClient)

	// Initialize services
	engine := services.NewEngine(ledgerRepo, partnerRepo, metricsRepo, engineCfg)
	batcher := services.NewPayoutBatcher(ledgerRepo, engineCfg)
	evaluator := services.NewEligibilityEvaluator(engineCfg)

	// Initialize controllers
	eventController := controllers.NewEventController(engine, ledgerRepo)
	partnerController := controllers.NewPartnerController(partnerRepo, metricsRepo, ledgerRepo, evaluator)
	payoutController := controllers.NewPayoutController(batcher, ledgerRepo)

	// Register routes
	routes.RegisterEventRoutes(e, eventController)
	routes.RegisterPartnerRoutes(e, partnerController)
	routes.RegisterPayoutRoutes(e, payoutController)

	// Start the payout schedule in a goroutine. The batch uniqueness on
	// (partnerId, period) keeps an overlapping manual run harmless.
	go runPayoutSchedule(batcher, engineCfg)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}

// runPayoutSchedule wakes hourly and runs the batcher during the
// configured day-of-month and hour
func runPayoutSchedule(batcher *services.PayoutBatcher, cfg config.EngineConfig) {
	payoutHour := 3
	if t, err := time.Parse("15:04", cfg.PayoutTime); err == nil {
		payoutHour = t.Hour()
	} else {
		log.Printf("Warning: invalid PAYOUT_TIME %q, using 03:00", cfg.PayoutTime)
	}

	for {
		now := time.Now()
		if now.Day() == cfg.PayoutDay && now.Hour() == payoutHour {
			period := utils.PeriodOf(now)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			result, err := batcher.Run(ctx, period)
			cancel()
			if err != nil {
				log.Printf("Error in scheduled payout run for %s: %v", period, err)
			} else {
				log.Printf("Scheduled payout run for %s: %d batches created, %d partners below minimum",
					period, result.BatchesCreated, result.PartnersSkipped)
			}
		}
		time.Sleep(1 * time.Hour)
	}
}
