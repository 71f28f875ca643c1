package routes

import (
	"app/handlers"
	"app/middleware"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes defines all the routes for the application.
func SetupRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	// --- Merchant Routes ---
	merchant := api.Group("/merchant", middleware.Authenticate, middleware.CheckRole("merchant"))

	// Stock-out inference
	merchant.Get("/products/:productId/stockouts", handlers.HandleInferStockouts)

	// Persisted reports
	merchant.Get("/stockout-reports", handlers.HandleListStockoutReports)
	merchant.Get("/stockout-reports/:reportId", handlers.HandleGetStockoutReport)
	merchant.Post("/stockout-reports/:reportId/narrative", handlers.HandleGenerateStockoutNarrative)
}
