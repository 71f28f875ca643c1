package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// --- JWT & Auth ---

type JwtClaims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// --- Core Models ---

// Order is a single order record from the upstream order history API.
// Only the fields the inference engine needs are carried.
type Order struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// LineItem is one purchased product line within an order.
type LineItem struct {
	OrderID   int64  `json:"orderId"`
	ProductID int64  `json:"productId"`
	VariantID *int64 `json:"variantId,omitempty"`
	Quantity  int    `json:"quantity"`
}
