package inference

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"app/models"
)

// fakeSource is an in-memory OrderSource with the paging semantics of the
// real shop API.
type fakeSource struct {
	orders     []models.Order
	items      map[int64][]models.LineItem
	failOrders map[int64]bool
	pageErr    error
	pageCalls  int

	mu        sync.Mutex
	itemCalls int
}

func (f *fakeSource) FetchOrderPage(ctx context.Context, startDate, endDate time.Time, sinceID int64, limit int) ([]models.Order, error) {
	f.pageCalls++
	if f.pageErr != nil {
		return nil, f.pageErr
	}
	var page []models.Order
	for _, o := range f.orders {
		if o.ID <= sinceID || o.CreatedAt.Before(startDate) || o.CreatedAt.After(endDate) {
			continue
		}
		page = append(page, o)
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

func (f *fakeSource) FetchLineItems(ctx context.Context, orderID int64) ([]models.LineItem, error) {
	f.mu.Lock()
	f.itemCalls++
	f.mu.Unlock()
	if f.failOrders[orderID] {
		return nil, errors.New("upstream exploded")
	}
	return f.items[orderID], nil
}

// ordersEveryDay builds one order per day over [start, start+days).
func ordersEveryDay(start time.Time, days int) []models.Order {
	orders := make([]models.Order, days)
	for i := range orders {
		orders[i] = models.Order{ID: int64(i + 1), CreatedAt: start.AddDate(0, 0, i).Add(10 * time.Hour)}
	}
	return orders
}

func quietFetcher(source OrderSource) *OrderHistoryFetcher {
	f := NewOrderHistoryFetcher(source)
	f.PageDelay = 0
	return f
}

func TestOrderHistoryFetcherSinglePage(t *testing.T) {
	source := &fakeSource{orders: ordersEveryDay(day("2024-01-01"), 40)}

	orders, err := quietFetcher(source).Fetch(context.Background(), day("2024-01-01"), day("2024-03-01"))

	require.NoError(t, err)
	assert.Len(t, orders, 40)
	assert.Equal(t, 1, source.pageCalls)
}

func TestOrderHistoryFetcherPaginates(t *testing.T) {
	source := &fakeSource{orders: ordersEveryDay(day("2023-01-01"), 130)}
	fetcher := quietFetcher(source)
	fetcher.PageSize = 50

	orders, err := fetcher.Fetch(context.Background(), day("2023-01-01"), day("2023-12-31"))

	require.NoError(t, err)
	assert.Len(t, orders, 130)
	// 50 + 50 + 30: the short third page stops the loop.
	assert.Equal(t, 3, source.pageCalls)
	assert.True(t, sort.SliceIsSorted(orders, func(i, j int) bool {
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	}), "orders must stay in ascending creation order across pages")
}

func TestOrderHistoryFetcherExactPageBoundary(t *testing.T) {
	source := &fakeSource{orders: ordersEveryDay(day("2023-01-01"), 100)}
	fetcher := quietFetcher(source)
	fetcher.PageSize = 50

	orders, err := fetcher.Fetch(context.Background(), day("2023-01-01"), day("2023-12-31"))

	require.NoError(t, err)
	assert.Len(t, orders, 100)
	// Two full pages, then one empty page confirming the end.
	assert.Equal(t, 3, source.pageCalls)
}

func TestOrderHistoryFetcherWrapsTransportError(t *testing.T) {
	source := &fakeSource{pageErr: errors.New("connection refused")}

	_, err := quietFetcher(source).Fetch(context.Background(), day("2024-01-01"), day("2024-02-01"))

	require.Error(t, err)
	var fetchErr *FetchError
	assert.True(t, errors.As(err, &fetchErr))
	assert.ErrorContains(t, err, "connection refused")
	// No retry.
	assert.Equal(t, 1, source.pageCalls)
}

func quietAggregator(source OrderSource) *LineItemAggregator {
	a := NewLineItemAggregator(source)
	a.BatchDelay = 0
	return a
}

func TestLineItemAggregatorFetchesAllOrders(t *testing.T) {
	items := map[int64][]models.LineItem{}
	var ids []int64
	for i := int64(1); i <= 25; i++ {
		ids = append(ids, i)
		items[i] = []models.LineItem{{OrderID: i, ProductID: 42, Quantity: 1}}
	}
	source := &fakeSource{items: items}

	fetched := quietAggregator(source).Fetch(context.Background(), ids)

	assert.Len(t, fetched, 25)
	assert.Equal(t, 25, source.itemCalls)
}

func TestLineItemAggregatorToleratesPartialFailures(t *testing.T) {
	items := map[int64][]models.LineItem{}
	var ids []int64
	for i := int64(1); i <= 12; i++ {
		ids = append(ids, i)
		items[i] = []models.LineItem{{OrderID: i, ProductID: 42, Quantity: 2}}
	}
	source := &fakeSource{items: items, failOrders: map[int64]bool{3: true, 11: true}}

	fetched := quietAggregator(source).Fetch(context.Background(), ids)

	// Failed orders contribute nothing; everything else survives.
	assert.Len(t, fetched, 10)
	seen := map[int64]bool{}
	for _, li := range fetched {
		seen[li.OrderID] = true
	}
	assert.False(t, seen[3])
	assert.False(t, seen[11])
}

func TestExtractProductSalesFiltersAndAggregates(t *testing.T) {
	variant := int64(7)
	other := int64(8)
	orders := []models.Order{
		{ID: 1, CreatedAt: day("2024-06-01").Add(9 * time.Hour)},
		{ID: 2, CreatedAt: day("2024-06-01").Add(17 * time.Hour)},
		{ID: 3, CreatedAt: day("2024-06-03").Add(12 * time.Hour)},
	}
	items := []models.LineItem{
		{OrderID: 1, ProductID: 42, VariantID: &variant, Quantity: 2},
		{OrderID: 2, ProductID: 42, VariantID: &variant, Quantity: 1},
		{OrderID: 2, ProductID: 99, Quantity: 5}, // other product
		{OrderID: 3, ProductID: 42, VariantID: &other, Quantity: 4},
		{OrderID: 9, ProductID: 42, VariantID: &variant, Quantity: 3}, // unknown order
	}

	points := ExtractProductSales(orders, items, 42, nil)
	require.Len(t, points, 2)
	assert.Equal(t, day("2024-06-01"), points[0].Date)
	assert.Equal(t, 3, points[0].Quantity)
	assert.Equal(t, 2, points[0].DistinctOrderCount)
	assert.Equal(t, day("2024-06-03"), points[1].Date)
	assert.Equal(t, 4, points[1].Quantity)

	// Variant filter narrows further.
	points = ExtractProductSales(orders, items, 42, &variant)
	require.Len(t, points, 1)
	assert.Equal(t, 3, points[0].Quantity)
}

func strongSalesSource(start time.Time, days, gapStart, gapLen int) *fakeSource {
	var orders []models.Order
	items := map[int64][]models.LineItem{}
	id := int64(0)
	for i := 0; i < days; i++ {
		if i >= gapStart && i < gapStart+gapLen {
			continue
		}
		id++
		orders = append(orders, models.Order{ID: id, CreatedAt: start.AddDate(0, 0, i).Add(12 * time.Hour)})
		items[id] = []models.LineItem{{OrderID: id, ProductID: 42, Quantity: 2}}
	}
	return &fakeSource{orders: orders, items: items}
}

func quietEngine(source OrderSource) *Engine {
	e := NewEngine(source)
	e.Fetcher().PageDelay = 0
	e.Aggregator().BatchDelay = 0
	e.Now = func() time.Time { return day("2024-07-01") }
	return e
}

func TestEngineInferEndToEnd(t *testing.T) {
	start := day("2024-01-10")
	source := strongSalesSource(start, 90, 40, 12)
	engine := quietEngine(source)

	report, err := engine.Infer(context.Background(), Request{
		ProductID: 42,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 89),
	})

	require.NoError(t, err)
	assert.Equal(t, int64(42), report.ProductID)
	assert.Equal(t, 90, report.DataPoints)
	assert.Len(t, report.SalesData, 90)
	require.Len(t, report.InferredStockOuts, 1)
	p := report.InferredStockOuts[0]
	assert.Equal(t, start.AddDate(0, 0, 40), p.StartDate)
	require.NotNil(t, p.DurationDays)
	assert.Equal(t, 12, *p.DurationDays)
	assert.InDelta(t, p.Confidence, report.Confidence, 1e-9)
	assert.Equal(t, Methodology, report.Metadata.Methodology)
	assert.Equal(t, MinGapDays, report.Metadata.MinGapDays)
	assert.InDelta(t, ConfidenceThreshold, report.Metadata.ConfidenceThreshold, 1e-9)
}

func TestEngineInferNoOrders(t *testing.T) {
	engine := quietEngine(&fakeSource{})

	_, err := engine.Infer(context.Background(), Request{
		ProductID: 42,
		StartDate: day("2024-01-01"),
		EndDate:   day("2024-03-01"),
	})

	assert.ErrorIs(t, err, ErrNoData)
}

func TestEngineInferTransportErrorIsFatal(t *testing.T) {
	engine := quietEngine(&fakeSource{pageErr: errors.New("boom")})

	_, err := engine.Infer(context.Background(), Request{
		ProductID: 42,
		StartDate: day("2024-01-01"),
		EndDate:   day("2024-03-01"),
	})

	var fetchErr *FetchError
	assert.True(t, errors.As(err, &fetchErr))
	assert.NotErrorIs(t, err, ErrNoData)
}

func TestEngineInferNoPeriodsMeansZeroConfidence(t *testing.T) {
	start := day("2024-01-10")
	source := strongSalesSource(start, 60, 0, 0) // sells every day
	engine := quietEngine(source)

	report, err := engine.Infer(context.Background(), Request{
		ProductID: 42,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 59),
	})

	require.NoError(t, err)
	assert.Empty(t, report.InferredStockOuts)
	assert.Zero(t, report.Confidence)
}

func TestEngineInferIsIdempotent(t *testing.T) {
	start := day("2023-05-01")
	req := Request{ProductID: 42, StartDate: start, EndDate: start.AddDate(0, 0, 119)}

	var payloads [][]byte
	for i := 0; i < 2; i++ {
		engine := quietEngine(strongSalesSource(start, 120, 60, 10))
		report, err := engine.Infer(context.Background(), req)
		require.NoError(t, err)
		payload, err := json.Marshal(report)
		require.NoError(t, err)
		payloads = append(payloads, payload)
	}

	assert.Equal(t, payloads[0], payloads[1], "frozen inputs must yield byte-identical reports")
}
