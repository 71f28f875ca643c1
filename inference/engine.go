package inference

import (
	"context"
	"log"
	"time"

	"app/models"
)

// Methodology identifies the analysis technique in report metadata.
const Methodology = "sales-gap-analysis"

// Request describes one stock-out inference run.
type Request struct {
	ProductID int64
	VariantID *int64
	StartDate time.Time
	EndDate   time.Time
}

// Engine wires the fetch, aggregate, fill, baseline and detection stages
// into one pipeline. It holds no request state and is safe for concurrent
// use as long as its OrderSource is.
type Engine struct {
	fetcher    *OrderHistoryFetcher
	aggregator *LineItemAggregator
	detector   *GapDetector

	// Now is the clock used for report metadata. Overridable in tests.
	Now func() time.Time
}

func NewEngine(source OrderSource) *Engine {
	return &Engine{
		fetcher:    NewOrderHistoryFetcher(source),
		aggregator: NewLineItemAggregator(source),
		detector:   NewGapDetector(),
		Now:        time.Now,
	}
}

// Fetcher exposes the fetch stage so callers can tune page size and delays.
func (e *Engine) Fetcher() *OrderHistoryFetcher { return e.fetcher }

// Aggregator exposes the line-item stage so callers can tune batching.
func (e *Engine) Aggregator() *LineItemAggregator { return e.aggregator }

// Infer reconstructs the product's daily sales series for the requested
// range and returns the full inference report. It either returns a complete
// report or a single error; there is no partial result.
func (e *Engine) Infer(ctx context.Context, req Request) (*models.StockoutInferenceReport, error) {
	orders, err := e.fetcher.Fetch(ctx, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, ErrNoData
	}

	orderIDs := make([]int64, len(orders))
	for i, o := range orders {
		orderIDs[i] = o.ID
	}
	items := e.aggregator.Fetch(ctx, orderIDs)
	log.Printf("🔎 [STOCKOUT] Product %d: %d orders, %d line items in range", req.ProductID, len(orders), len(items))

	sparse := ExtractProductSales(orders, items, req.ProductID, req.VariantID)
	series := FillDateSeries(sparse, req.StartDate, req.EndDate)
	baseline := EstimateBaseline(series)
	periods := e.detector.Detect(series, baseline)

	var confidence float64
	for _, p := range periods {
		confidence += p.Confidence
	}
	if len(periods) > 0 {
		confidence /= float64(len(periods))
	}

	return &models.StockoutInferenceReport{
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		AnalysisRange: models.AnalysisRange{
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
		},
		InferredStockOuts: periods,
		Baseline:          baseline,
		SalesData:         series,
		Confidence:        confidence,
		DataPoints:        len(series),
		Metadata: models.ReportMetadata{
			GeneratedAt:         e.Now().UTC(),
			Methodology:         Methodology,
			MinGapDays:          e.detector.MinGapDays,
			ConfidenceThreshold: e.detector.ConfidenceThreshold,
		},
	}, nil
}
