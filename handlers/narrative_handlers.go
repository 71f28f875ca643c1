package handlers

import (
	"app/database"
	"app/middleware"
	"app/models"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// HandleGenerateStockoutNarrative produces a plain-language summary of a
// persisted stock-out report using Gemini.
func HandleGenerateStockoutNarrative(c *fiber.Ctx) error {
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

	// 1. Load the persisted report
	var payload []byte
	query := "SELECT report FROM stockout_reports WHERE id = $1 AND merchant_id = $2"
	if err := db.QueryRow(ctx, query, reportID, merchantID).Scan(&payload); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Report not found"})
	}

	var report models.StockoutInferenceReport
	if err := json.Unmarshal(payload, &report); err != nil {
		log.Printf("❌ [NARRATIVE] Failed to unmarshal report %d: %v", reportID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to read stored report"})
	}

	// 2. Construct the prompt for the Gemini API
	prompt := constructNarrativePrompt(&report)

	// 3. Call the Gemini API
	client, err := genai.NewClient(ctx, option.WithAPIKey(os.Getenv("GEMINI_API_KEY")))
	if err != nil {
		log.Printf("Error creating Gemini client: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to connect to AI service"})
	}
	defer client.Close()

	model := client.GenerativeModel("gemini-2.5-flash-lite")
	model.SafetySettings = []*genai.SafetySetting{
		{
			Category:  genai.HarmCategoryDangerousContent,
			Threshold: genai.HarmBlockNone,
		},
		{
			Category:  genai.HarmCategoryHarassment,
			Threshold: genai.HarmBlockNone,
		},
		{
			Category:  genai.HarmCategorySexuallyExplicit,
			Threshold: genai.HarmBlockNone,
		},
		{
			Category:  genai.HarmCategoryHateSpeech,
			Threshold: genai.HarmBlockNone,
		},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		log.Printf("Error from Gemini API: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to generate narrative from AI"})
	}

	// 4. Parse the response and format for the frontend
	narrative, err := parseNarrativeResponse(resp, reportID, report.ProductID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true, "data": narrative})
}

// constructNarrativePrompt creates a detailed prompt for the Gemini API.
func constructNarrativePrompt(report *models.StockoutInferenceReport) string {
	periodsStr := ""
	for _, p := range report.InferredStockOuts {
		endStr := "still ongoing"
		if p.EndDate != nil {
			endStr = p.EndDate.Format("2006-01-02")
		}
		periodsStr += fmt.Sprintf("From %s to %s (confidence %.2f): %s\n",
			p.StartDate.Format("2006-01-02"), endStr, p.Confidence, p.Reason)
	}
	if periodsStr == "" {
		periodsStr = "No stock-out periods were inferred for this product."
	}

	jsonFormat := `{"summary":"string","likely_causes":["string",...],"recommendations":["string",...]}`

	return fmt.Sprintf(`
        You are an expert retail data analyst. Your task is to explain a stock-out analysis report to a shop owner in plain language.

        **Analysis Context:**
        - Product ID: %d
        - Analysis Range: %s to %s
        - Average Daily Sales: %.2f units
        - Sales Velocity (recent vs older 30-day average): %.2f
        - Overall Confidence: %.2f
        - Today's Date: %s

        **Inferred Stock-Out Periods:**
        %s

        **Required Output:**
        You must provide a single, minified JSON object with the following exact structure. Do not include any markdown formatting, backticks, or explanatory text before or after the JSON object.

        %s
    `, report.ProductID,
		report.AnalysisRange.StartDate.Format("2006-01-02"), report.AnalysisRange.EndDate.Format("2006-01-02"),
		report.Baseline.AvgDailySales, report.Baseline.SalesVelocity, report.Confidence,
		time.Now().Format("2006-01-02"), periodsStr, jsonFormat)
}

func extractJSON(rawString string) string {
	start := strings.Index(rawString, "{")
	end := strings.LastIndex(rawString, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return rawString[start : end+1]
}

// parseNarrativeResponse parses the JSON from Gemini into a structured response.
func parseNarrativeResponse(resp *genai.GenerateContentResponse, reportID, productID int64) (*models.StockoutNarrativeResponse, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no content received from AI")
	}

	var geminiText string
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			geminiText += string(txt)
		}
	}

	if geminiText == "" {
		return nil, fmt.Errorf("no text content received from AI")
	}

	// Clean the response to get only the JSON object
	jsonStr := extractJSON(geminiText)
	if jsonStr == "" {
		log.Printf("Could not extract JSON from Gemini response: %s", geminiText)
		return nil, fmt.Errorf("failed to parse AI response format")
	}

	var geminiJSON models.AiAnalysis
	if err := json.Unmarshal([]byte(jsonStr), &geminiJSON); err != nil {
		log.Printf("Error parsing Gemini JSON: %v\nRaw JSON: %s", err, jsonStr)
		return nil, fmt.Errorf("failed to parse AI narrative data")
	}

	return &models.StockoutNarrativeResponse{
		ReportID:    reportID,
		ProductID:   productID,
		GeneratedAt: time.Now(),
		AiAnalysis:  geminiJSON,
	}, nil
}
