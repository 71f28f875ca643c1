package models

import "time"

// SalesDataPoint is one calendar day of aggregated sales for a product.
// After series filling the dates are contiguous and strictly increasing.
type SalesDataPoint struct {
	Date               time.Time `json:"date"`
	Quantity           int       `json:"quantity"`
	DistinctOrderCount int       `json:"distinctOrderCount"`
}

// BaselinePattern captures the expected/normal sales pattern for a product,
// derived from its own historical series.
type BaselinePattern struct {
	AvgDailySales   float64 `json:"avgDailySales"`
	AvgWeeklySales  float64 `json:"avgWeeklySales"`
	AvgMonthlySales float64 `json:"avgMonthlySales"`
	// SeasonalFactors maps "spring"/"summer"/"autumn"/"winter" to a
	// multiplier against the yearly average. A missing season means 1.0.
	SeasonalFactors map[string]float64 `json:"seasonalFactors"`
	// WeeklyPattern maps day-of-week (0=Sunday..6=Saturday) to the average
	// quantity sold on that weekday. Weekdays never observed are absent.
	WeeklyPattern map[time.Weekday]float64 `json:"weeklyPattern"`
	SalesVelocity float64                  `json:"salesVelocity"`
}

// Detection methods for inferred stock-out periods.
const (
	DetectionCompleteSalesDrop = "complete_sales_drop"
	DetectionOngoingSalesDrop  = "ongoing_sales_drop"
)

// InferredStockOutPeriod is a zero-sales gap judged likely to reflect
// unavailability rather than organic lack of demand. EndDate and
// DurationDays are nil when the gap is still open at the end of the data.
type InferredStockOutPeriod struct {
	StartDate          time.Time  `json:"startDate"`
	EndDate            *time.Time `json:"endDate"`
	DurationDays       *int       `json:"durationDays"`
	Confidence         float64    `json:"confidence"`
	DetectionMethod    string     `json:"detectionMethod"`
	Reason             string     `json:"reason"`
	ExpectedSales      float64    `json:"expectedSales"`
	ActualSales        float64    `json:"actualSales"`
	SalesGapPercentage float64    `json:"salesGapPercentage"`
}

// AnalysisRange is the inclusive date range a report covers.
type AnalysisRange struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// ReportMetadata records how a report was produced.
type ReportMetadata struct {
	GeneratedAt         time.Time `json:"generatedAt"`
	Methodology         string    `json:"methodology"`
	MinGapDays          int       `json:"minGapDays"`
	ConfidenceThreshold float64   `json:"confidenceThreshold"`
}

// StockoutInferenceReport is the complete result of one inference run.
type StockoutInferenceReport struct {
	ProductID         int64                    `json:"productId"`
	VariantID         *int64                   `json:"variantId,omitempty"`
	AnalysisRange     AnalysisRange            `json:"analysisRange"`
	InferredStockOuts []InferredStockOutPeriod `json:"inferredStockOuts"`
	Baseline          BaselinePattern          `json:"baseline"`
	SalesData         []SalesDataPoint         `json:"salesData"`
	Confidence        float64                  `json:"confidence"`
	DataPoints        int                      `json:"dataPoints"`
	Metadata          ReportMetadata           `json:"metadata"`
}

// StockoutReportRecord is a persisted report row header, without the payload.
type StockoutReportRecord struct {
	ID         int64     `json:"id"`
	MerchantID string    `json:"merchantId"`
	ProductID  int64     `json:"productId"`
	VariantID  *int64    `json:"variantId,omitempty"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
	CreatedAt  time.Time `json:"createdAt"`
}
