package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sales-service/internal/models"
	"sales-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Storage is the persistence surface the services operate on. The Postgres
// implementation lives in internal/store; tests supply an in-memory one.
type Storage interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	GetProducts(ctx context.Context) ([]models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	CreateSale(ctx context.Context, sale *models.Sale) (int, error)
	GetSales(ctx context.Context) ([]models.Sale, error)
}

// ProductCache caches the product listing. A nil cache disables caching.
type ProductCache interface {
	GetProducts(ctx context.Context) ([]models.Product, bool, error)
	SetProducts(ctx context.Context, products []models.Product) error
	InvalidateProducts(ctx context.Context) error
}

// EventPublisher publishes domain events. A nil publisher disables events.
type EventPublisher interface {
	PublishSaleRecorded(ctx context.Context, event *models.SaleRecordedEvent) error
	PublishProductCreated(ctx context.Context, event *models.ProductCreatedEvent) error
	PublishProductDeleted(ctx context.Context, event *models.ProductDeletedEvent) error
}

// SalesService handles the sales ledger business logic
type SalesService struct {
	storage Storage
	cache   ProductCache
	events  EventPublisher
	logger  *zap.Logger
}

// NewSalesService creates a new sales service
func NewSalesService(storage Storage, cache ProductCache, events EventPublisher) *SalesService {
	return &SalesService{
		storage: storage,
		cache:   cache,
		events:  events,
		logger:  util.GetLogger(),
	}
}

// CreateSaleRequest represents a request to record a sale
type CreateSaleRequest struct {
	UserID    int64 `json:"user_id" binding:"required"`
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity"`
}

// CreateSaleResponse represents the response after recording a sale
type CreateSaleResponse struct {
	SaleID int64           `json:"sale_id"`
	Price  decimal.Decimal `json:"price"`
}

// CreateSale validates and commits a sale against current product stock.
// The stock check, price snapshot, sale insert, and stock decrement happen
// atomically in the storage layer; rejected sales never mutate state.
func (s *SalesService) CreateSale(ctx context.Context, req *CreateSaleRequest) (*CreateSaleResponse, error) {
	ctx, span := util.StartSpan(ctx, "SalesService.CreateSale")
	defer span.End()

	start := time.Now()
	defer func() {
		util.SaleCommitLatency.Observe(time.Since(start).Seconds())
	}()

	if req.Quantity <= 0 {
		util.SalesRejectedTotal.WithLabelValues("invalid_quantity").Inc()
		return nil, models.ErrInvalidQuantity
	}

	if _, err := s.storage.GetUserByID(ctx, req.UserID); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			util.SalesRejectedTotal.WithLabelValues("user_not_found").Inc()
			return nil, err
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	sale := &models.Sale{
		UserID:    req.UserID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	}

	remaining, err := s.storage.CreateSale(ctx, sale)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrProductNotFound):
			util.SalesRejectedTotal.WithLabelValues("product_not_found").Inc()
			return nil, err
		case errors.Is(err, models.ErrInsufficientStock):
			util.SalesRejectedTotal.WithLabelValues("insufficient_stock").Inc()
			return nil, err
		default:
			util.SalesRejectedTotal.WithLabelValues("db_error").Inc()
			return nil, fmt.Errorf("failed to create sale: %w", err)
		}
	}

	util.SalesRecordedTotal.Inc()
	s.logger.Info("Sale recorded",
		zap.Int64("sale_id", sale.ID),
		zap.Int64("product_id", sale.ProductID),
		zap.Int("quantity", sale.Quantity),
		zap.String("price", sale.Price.StringFixed(2)),
		zap.Int("stock_remaining", remaining))

	s.invalidateCache(ctx)

	if s.events != nil {
		event := &models.SaleRecordedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeSaleRecorded,
				Timestamp: time.Now(),
			},
			SaleID:         sale.ID,
			UserID:         sale.UserID,
			ProductID:      sale.ProductID,
			Quantity:       sale.Quantity,
			Price:          sale.Price,
			StockRemaining: remaining,
		}
		if err := s.events.PublishSaleRecorded(ctx, event); err != nil {
			s.logger.Error("Failed to publish SaleRecorded event", zap.Error(err))
		}
	}

	return &CreateSaleResponse{
		SaleID: sale.ID,
		Price:  sale.Price,
	}, nil
}

// ListSales retrieves all sales. Read-only.
func (s *SalesService) ListSales(ctx context.Context) ([]models.Sale, error) {
	ctx, span := util.StartSpan(ctx, "SalesService.ListSales")
	defer span.End()

	sales, err := s.storage.GetSales(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	return sales, nil
}

// invalidateCache drops the cached product listing after a stock change.
// Cache failures are logged, never surfaced to the caller.
func (s *SalesService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateProducts(ctx); err != nil {
		s.logger.Warn("Failed to invalidate product cache", zap.Error(err))
	}
}
