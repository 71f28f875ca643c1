package inference

import (
	"context"
	"log"
	"time"

	"app/models"
)

const (
	// OrderPageSize is the fixed page size used against the order API.
	OrderPageSize = 250
	// DefaultPageDelay is the courtesy pause between page requests so we
	// stay inside the upstream rate limit.
	DefaultPageDelay = 200 * time.Millisecond
)

// OrderHistoryFetcher pages through the order history API for a date range.
// Pages are fetched strictly sequentially since each page's cursor depends
// on the previous page's last order.
type OrderHistoryFetcher struct {
	Source    OrderSource
	PageSize  int
	PageDelay time.Duration
}

func NewOrderHistoryFetcher(source OrderSource) *OrderHistoryFetcher {
	return &OrderHistoryFetcher{
		Source:    source,
		PageSize:  OrderPageSize,
		PageDelay: DefaultPageDelay,
	}
}

// Fetch returns all orders created within [startDate, endDate], in ascending
// creation order. A transport failure aborts the whole fetch; there is no
// retry.
func (f *OrderHistoryFetcher) Fetch(ctx context.Context, startDate, endDate time.Time) ([]models.Order, error) {
	var orders []models.Order
	var sinceID int64

	for page := 1; ; page++ {
		batch, err := f.Source.FetchOrderPage(ctx, startDate, endDate, sinceID, f.PageSize)
		if err != nil {
			return nil, &FetchError{Op: "order page fetch", Err: err}
		}

		orders = append(orders, batch...)
		log.Printf("📦 [ORDER HISTORY] Page %d returned %d orders (total %d)", page, len(batch), len(orders))

		// A short page means we reached the end of the range.
		if len(batch) < f.PageSize {
			break
		}
		sinceID = batch[len(batch)-1].ID

		if f.PageDelay > 0 {
			time.Sleep(f.PageDelay)
		}
	}

	return orders, nil
}
