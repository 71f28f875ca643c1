package handlers

import (
	"app/config"
	"app/database"
	"app/inference"
	"app/middleware"
	"app/models"
	"app/shopclient"
	"app/utils"
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// newInferenceEngine builds an engine backed by the configured shop API.
// A package variable so tests can substitute a fake order source.
var newInferenceEngine = func() *inference.Engine {
	return inference.NewEngine(shopclient.NewClient(config.AppConfig.ShopAPIURL, config.AppConfig.ShopAPIToken))
}

// HandleInferStockouts runs a stock-out inference for one product and
// persists the resulting report.
func HandleInferStockouts(c *fiber.Ctx) error {
	db := database.GetDB()
	ctx := context.Background()

	claims, err := middleware.ExtractClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}
	merchantID := claims.UserID

	productID, err := strconv.ParseInt(c.Params("productId"), 10, 64)
	if err != nil || productID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid productId"})
	}

	var variantID *int64
	if v := c.Query("variantId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid variantId"})
		}
		variantID = &id
	}

	// Default analysis window is the last two years.
	startDateStr := c.Query("startDate", time.Now().AddDate(-2, 0, 0).Format(time.RFC3339))
	endDateStr := c.Query("endDate", time.Now().Format(time.RFC3339))

	startDate, err := utils.ParseDate(startDateStr)
	if err != nil {
		log.Printf("❌ [STOCKOUT] Invalid startDate: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid startDate format"})
	}
	endDate, err := utils.ParseDate(endDateStr)
	if err != nil {
		log.Printf("❌ [STOCKOUT] Invalid endDate: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid endDate format"})
	}
	if endDate.Before(startDate) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "endDate must not be before startDate"})
	}

	log.Printf("📊 [STOCKOUT] Request - Merchant: %s, Product: %d, Variant: %v, Range: %s .. %s",
		merchantID, productID, variantID, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))

	engine := newInferenceEngine()
	report, err := engine.Infer(ctx, inference.Request{
		ProductID: productID,
		VariantID: variantID,
		StartDate: startDate,
		EndDate:   endDate,
	})
	if err != nil {
		if errors.Is(err, inference.ErrNoData) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"success": false, "message": "No orders found in the requested range"})
		}
		var fetchErr *inference.FetchError
		if errors.As(err, &fetchErr) {
			log.Printf("❌ [STOCKOUT] Order history fetch failed: %v", err)
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"success": false, "message": "Failed to fetch order history from shop API"})
		}
		log.Printf("❌ [STOCKOUT] Inference failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to run stock-out inference"})
	}

	// Persist the report. A storage hiccup should not cost the caller a
	// two-year analysis, so failures are logged and the report still
	// returned, just without an id.
	var reportID *int64
	payload, err := json.Marshal(report)
	if err == nil {
		var id int64
		insert := `
			INSERT INTO stockout_reports (merchant_id, product_id, variant_id, start_date, end_date, report)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`
		if err := db.QueryRow(ctx, insert, merchantID, productID, variantID, startDate, endDate, payload).Scan(&id); err != nil {
			log.Printf("⚠️ [STOCKOUT] Failed to persist report for product %d: %v", productID, err)
		} else {
			reportID = &id
		}
	} else {
		log.Printf("⚠️ [STOCKOUT] Failed to marshal report for product %d: %v", productID, err)
	}

	log.Printf("✅ [STOCKOUT] Product %d: %d data points, %d inferred periods, confidence %.2f",
		productID, report.DataPoints, len(report.InferredStockOuts), report.Confidence)

	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{
		"reportId": reportID,
		"report":   report,
	}})
}

// HandleListStockoutReports lists the merchant's persisted reports, newest
// first.
func HandleListStockoutReports(c *fiber.Ctx) error {
	db := database.GetDB()
	ctx := context.Background()

	claims, err := middleware.ExtractClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}
	merchantID := claims.UserID

	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("pageSize", 10)
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	offset := (page - 1) * pageSize

	var totalItems int
	if err := db.QueryRow(ctx, "SELECT COUNT(*) FROM stockout_reports WHERE merchant_id = $1", merchantID).Scan(&totalItems); err != nil {
		log.Printf("❌ [STOCKOUT] Count query error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to list reports"})
	}

	query := `
		SELECT id, merchant_id, product_id, variant_id, start_date, end_date, created_at
		FROM stockout_reports
		WHERE merchant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := db.Query(ctx, query, merchantID, pageSize, offset)
	if err != nil {
		log.Printf("❌ [STOCKOUT] List query error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to list reports"})
	}
	defer rows.Close()

	records := make([]models.StockoutReportRecord, 0)
	for rows.Next() {
		var rec models.StockoutReportRecord
		if err := rows.Scan(&rec.ID, &rec.MerchantID, &rec.ProductID, &rec.VariantID, &rec.StartDate, &rec.EndDate, &rec.CreatedAt); err != nil {
			log.Printf("⚠️ [STOCKOUT] Failed to scan report row: %v", err)
			continue
		}
		records = append(records, rec)
	}

	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{
		"reports":    records,
		"pagination": utils.CreatePagination(totalItems, page, pageSize),
	}})
}

// HandleGetStockoutReport returns one persisted report, payload included.
func HandleGetStockoutReport(c *fiber.Ctx) error {
	db := database.GetDB()
	ctx := context.Background()

	claims, err := middleware.ExtractClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}
	merchantID := claims.UserID

	reportID, err := strconv.ParseInt(c.Params("reportId"), 10, 64)
	if err != nil || reportID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid reportId"})
	}

	var payload []byte
	query := "SELECT report FROM stockout_reports WHERE id = $1 AND merchant_id = $2"
	if err := db.QueryRow(ctx, query, reportID, merchantID).Scan(&payload); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Report not found"})
	}

	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{
		"reportId": reportID,
		"report":   json.RawMessage(payload),
	}})
}
