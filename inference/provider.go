package inference

import (
	"context"
	"errors"
	"fmt"
	"time"

	"app/models"
)

// OrderSource is the upstream order-history / line-item provider the engine
// consumes. Implementations talk to the real shop API; tests use fakes.
type OrderSource interface {
	// FetchOrderPage returns up to limit orders created within
	// [startDate, endDate] with ID greater than sinceID, in ascending
	// creation order.
	FetchOrderPage(ctx context.Context, startDate, endDate time.Time, sinceID int64, limit int) ([]models.Order, error)

	// FetchLineItems returns the purchased line items of a single order.
	FetchLineItems(ctx context.Context, orderID int64) ([]models.LineItem, error)
}

// ErrNoData means the order history contained no orders for the requested
// range, so there is nothing to analyze.
var ErrNoData = errors.New("no orders found in range")

// FetchError wraps a transport failure from the order history API. It is
// fatal for the whole inference run and is not retried.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("order history fetch failed during %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
