package inference

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"app/models"
)

const (
	// LineItemBatchSize bounds how many line-item requests run at once.
	LineItemBatchSize = 10
	// DefaultBatchDelay is the courtesy pause between batches.
	DefaultBatchDelay = 100 * time.Millisecond
)

// LineItemAggregator fetches the line items of many orders in small
// concurrent batches. A single order's failure is absorbed as "no items for
// that order" and never fails the batch or the call.
type LineItemAggregator struct {
	Source     OrderSource
	BatchSize  int
	BatchDelay time.Duration
}

func NewLineItemAggregator(source OrderSource) *LineItemAggregator {
	return &LineItemAggregator{
		Source:     source,
		BatchSize:  LineItemBatchSize,
		BatchDelay: DefaultBatchDelay,
	}
}

// Fetch returns the line items of the given orders. Output order is not
// guaranteed; consumers must join on OrderID, not position.
func (a *LineItemAggregator) Fetch(ctx context.Context, orderIDs []int64) []models.LineItem {
	var (
		items []models.LineItem
		mu    sync.Mutex
	)

	for start := 0; start < len(orderIDs); start += a.BatchSize {
		end := start + a.BatchSize
		if end > len(orderIDs) {
			end = len(orderIDs)
		}

		var wg sync.WaitGroup
		for _, orderID := range orderIDs[start:end] {
			wg.Add(1)
			go func(orderID int64) {
				defer wg.Done()
				fetched, err := a.Source.FetchLineItems(ctx, orderID)
				if err != nil {
					log.Printf("⚠️ [LINE ITEMS] Failed to fetch items for order %d, treating as empty: %v", orderID, err)
					return
				}
				mu.Lock()
				items = append(items, fetched...)
				mu.Unlock()
			}(orderID)
		}
		wg.Wait()

		if end < len(orderIDs) && a.BatchDelay > 0 {
			time.Sleep(a.BatchDelay)
		}
	}

	return items
}

type dayAggregate struct {
	quantity int
	orders   map[int64]struct{}
}

// ExtractProductSales filters line items to one product (and optionally one
// variant), joins each to its order's creation day, and aggregates quantity
// and distinct order count per UTC calendar day. The result is sparse: only
// days with at least one matching item appear, sorted ascending. Items whose
// order record is missing are skipped.
func ExtractProductSales(orders []models.Order, items []models.LineItem, productID int64, variantID *int64) []models.SalesDataPoint {
	orderDays := make(map[int64]time.Time, len(orders))
	for _, o := range orders {
		orderDays[o.ID] = calendarDay(o.CreatedAt)
	}

	byDay := make(map[time.Time]*dayAggregate)
	for _, item := range items {
		if item.ProductID != productID {
			continue
		}
		if variantID != nil && (item.VariantID == nil || *item.VariantID != *variantID) {
			continue
		}
		day, ok := orderDays[item.OrderID]
		if !ok {
			continue
		}
		agg := byDay[day]
		if agg == nil {
			agg = &dayAggregate{orders: make(map[int64]struct{})}
			byDay[day] = agg
		}
		agg.quantity += item.Quantity
		agg.orders[item.OrderID] = struct{}{}
	}

	points := make([]models.SalesDataPoint, 0, len(byDay))
	for day, agg := range byDay {
		points = append(points, models.SalesDataPoint{
			Date:               day,
			Quantity:           agg.quantity,
			DistinctOrderCount: len(agg.orders),
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	return points
}

// calendarDay truncates a timestamp to its UTC calendar date.
func calendarDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
