package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is a passive identity record referenced by sales. The service never
// mutates users; they are provisioned out of band.
type User struct {
	ID       int64  `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
}

// Product represents a catalog entry. Stock is mutated only by committed
// sales and direct catalog edits.
type Product struct {
	ID        int64           `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Stock     int             `db:"stock" json:"stock"`
	Price     decimal.Decimal `db:"price" json:"price"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// Sale is an immutable ledger row. Price is the total charged, snapshotted
// from the product's unit price at commit time.
type Sale struct {
	ID        int64           `db:"id" json:"id"`
	UserID    int64           `db:"user_id" json:"user_id"`
	ProductID int64           `db:"product_id" json:"product_id"`
	Quantity  int             `db:"quantity" json:"quantity"`
	Price     decimal.Decimal `db:"price" json:"price"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}
