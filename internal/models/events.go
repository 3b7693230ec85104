package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeSaleRecorded   = "SALE_RECORDED"
	EventTypeProductCreated = "PRODUCT_CREATED"
	EventTypeProductDeleted = "PRODUCT_DELETED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// SaleRecordedEvent is published after a sale transaction commits.
// StockRemaining is the product's stock after the decrement.
type SaleRecordedEvent struct {
	BaseEvent
	SaleID         int64           `json:"sale_id"`
	UserID         int64           `json:"user_id"`
	ProductID      int64           `json:"product_id"`
	Quantity       int             `json:"quantity"`
	Price          decimal.Decimal `json:"price"`
	StockRemaining int             `json:"stock_remaining"`
}

// ProductCreatedEvent is published when a catalog entry is created
type ProductCreatedEvent struct {
	BaseEvent
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Stock     int             `json:"stock"`
	Price     decimal.Decimal `json:"price"`
}

// ProductDeletedEvent is published when a catalog entry is deleted
type ProductDeletedEvent struct {
	BaseEvent
	ProductID int64 `json:"product_id"`
}
