package store

import (
	"context"
	"database/sql"
	"fmt"

	"sales-service/internal/models"

	"github.com/shopspring/decimal"
)

// CreateSale commits a sale in a single transaction: the product row is
// locked with FOR UPDATE, stock is checked, the sale price is snapshotted
// from the product's current unit price, the sale row is inserted, and
// stock is decremented. Either the sale row and the new stock value both
// become durable, or neither does.
//
// The decrement carries a redundant `stock >= quantity` guard so that even
// without the row lock no concurrent pair of sales can drive stock negative.
//
// Returns the remaining stock after the decrement. Business-rule rejections
// surface as models.ErrProductNotFound and models.ErrInsufficientStock and
// never mutate state.
func (s *Store) CreateSale(ctx context.Context, sale *models.Sale) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var product models.Product
	err = tx.GetContext(ctx, &product,
		"SELECT * FROM products WHERE id = $1 FOR UPDATE", sale.ProductID)
	if err == sql.ErrNoRows {
		return 0, models.ErrProductNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to lock product: %w", err)
	}

	if product.Stock < sale.Quantity {
		return 0, models.ErrInsufficientStock
	}

	sale.Price = product.Price.Mul(decimal.NewFromInt(int64(sale.Quantity)))

	query := `
		INSERT INTO sales (user_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err = tx.GetContext(ctx, sale, query,
		sale.UserID, sale.ProductID, sale.Quantity, sale.Price)
	if err != nil {
		return 0, fmt.Errorf("failed to insert sale: %w", err)
	}

	var remaining int
	err = tx.GetContext(ctx, &remaining,
		"UPDATE products SET stock = stock - $1 WHERE id = $2 AND stock >= $1 RETURNING stock",
		sale.Quantity, sale.ProductID)
	if err == sql.ErrNoRows {
		return 0, models.ErrInsufficientStock
	}
	if err != nil {
		return 0, fmt.Errorf("failed to decrement stock: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sale: %w", err)
	}

	return remaining, nil
}

// GetSales retrieves all sales
func (s *Store) GetSales(ctx context.Context) ([]models.Sale, error) {
	var sales []models.Sale
	err := s.db.SelectContext(ctx, &sales, "SELECT * FROM sales ORDER BY id")
	return sales, err
}
