package shopclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"app/models"
)

// orderResponse mirrors the shop API's order list envelope.
type orderResponse struct {
	Orders []orderPayload `json:"orders"`
}

type orderPayload struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// lineItemResponse mirrors the shop API's order detail envelope.
type lineItemResponse struct {
	Order struct {
		ID        int64             `json:"id"`
		LineItems []lineItemPayload `json:"line_items"`
	} `json:"order"`
}

type lineItemPayload struct {
	ProductID int64  `json:"product_id"`
	VariantID *int64 `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

// Client talks to the external shop API that holds the order history. It
// implements inference.OrderSource.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient builds a client for the given API base URL and access token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: baseURL,
		token:   token,
	}
}

// FetchOrderPage returns up to limit orders created within
// [startDate, endDate] with ID greater than sinceID, ascending by creation
// time. The since_id cursor keeps ordering stable while paging even if new
// orders land mid-scan.
func (c *Client) FetchOrderPage(ctx context.Context, startDate, endDate time.Time, sinceID int64, limit int) ([]models.Order, error) {
	params := url.Values{}
	params.Set("status", "any")
	params.Set("created_at_min", startDate.UTC().Format(time.RFC3339))
	params.Set("created_at_max", endDate.UTC().Format(time.RFC3339))
	params.Set("limit", strconv.Itoa(limit))
	params.Set("order", "created_at asc")
	if sinceID > 0 {
		params.Set("since_id", strconv.FormatInt(sinceID, 10))
	}

	var envelope orderResponse
	if err := c.getJSON(ctx, "/orders.json?"+params.Encode(), &envelope); err != nil {
		return nil, err
	}

	orders := make([]models.Order, len(envelope.Orders))
	for i, o := range envelope.Orders {
		orders[i] = models.Order{ID: o.ID, CreatedAt: o.CreatedAt}
	}
	return orders, nil
}

// FetchLineItems returns the purchased line items of a single order.
func (c *Client) FetchLineItems(ctx context.Context, orderID int64) ([]models.LineItem, error) {
	var envelope lineItemResponse
	path := fmt.Sprintf("/orders/%d.json", orderID)
	if err := c.getJSON(ctx, path, &envelope); err != nil {
		return nil, err
	}

	items := make([]models.LineItem, len(envelope.Order.LineItems))
	for i, li := range envelope.Order.LineItems {
		items[i] = models.LineItem{
			OrderID:   orderID,
			ProductID: li.ProductID,
			VariantID: li.VariantID,
			Quantity:  li.Quantity,
		}
	}
	return items, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Shop-Access-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call shop API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("shop API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode shop API response: %w", err)
	}
	return nil
}
