package orders

import (
	"context"
	"time"
)

// Order is a shipped store order reduced to what usage needs.
type Order struct {
	Number    string     `json:"order_number"`
	CreatedAt time.Time  `json:"created_at"`
	Status    string     `json:"status"`
	LineItems []LineItem `json:"line_items"`
}

type LineItem struct {
	Title    string `json:"title"`
	Variant  string `json:"variant"`
	Quantity int    `json:"quantity"`
	SKU      string `json:"sku,omitempty"`
}

// Source fetches shipped orders created on or after since.
type Source interface {
	FetchOrders(ctx context.Context, since time.Time) ([]Order, error)
}
