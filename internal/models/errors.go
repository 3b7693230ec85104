package models

import "errors"

// Sentinel errors for business-rule rejections. Handlers map these to HTTP
// status codes; anything else is treated as a persistence failure (500).
var (
	// ErrProductNotFound is returned when a referenced product does not exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrUserNotFound is returned when a sale references a nonexistent user.
	ErrUserNotFound = errors.New("user not found")

	// ErrInsufficientStock is returned when the requested quantity exceeds
	// the product's available stock.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidQuantity is returned for sales with quantity <= 0.
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")

	// ErrProductHasSales is returned when deleting a product that is still
	// referenced by sale rows.
	ErrProductHasSales = errors.New("product has recorded sales")

	// ErrInvalidProduct is returned when a product create request carries a
	// negative stock or price.
	ErrInvalidProduct = errors.New("stock and price must be non-negative")
)
