package service

import (
	"context"
	"fmt"
	"time"

	"sales-service/internal/models"
	"sales-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CatalogService handles product CRUD
type CatalogService struct {
	storage Storage
	cache   ProductCache
	events  EventPublisher
	logger  *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(storage Storage, cache ProductCache, events EventPublisher) *CatalogService {
	return &CatalogService{
		storage: storage,
		cache:   cache,
		events:  events,
		logger:  util.GetLogger(),
	}
}

// CreateProductRequest represents a request to create a product. Stock and
// price are pointers so a missing field can be told apart from a zero value.
type CreateProductRequest struct {
	Name  string           `json:"name" binding:"required"`
	Stock *int             `json:"stock" binding:"required"`
	Price *decimal.Decimal `json:"price" binding:"required"`
}

// CreateProduct creates a new catalog entry and returns it
func (s *CatalogService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateProduct")
	defer span.End()

	if *req.Stock < 0 || req.Price.IsNegative() {
		return nil, models.ErrInvalidProduct
	}

	product := &models.Product{
		Name:  req.Name,
		Stock: *req.Stock,
		Price: *req.Price,
	}

	if err := s.storage.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	util.ProductsCreatedTotal.Inc()
	s.logger.Info("Product created",
		zap.Int64("product_id", product.ID),
		zap.String("name", product.Name),
		zap.Int("stock", product.Stock))

	s.invalidateCache(ctx)

	if s.events != nil {
		event := &models.ProductCreatedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeProductCreated,
				Timestamp: time.Now(),
			},
			ProductID: product.ID,
			Name:      product.Name,
			Stock:     product.Stock,
			Price:     product.Price,
		}
		if err := s.events.PublishProductCreated(ctx, event); err != nil {
			s.logger.Error("Failed to publish ProductCreated event", zap.Error(err))
		}
	}

	return product, nil
}

// ListProducts retrieves all products, served from the cache when warm
func (s *CatalogService) ListProducts(ctx context.Context) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListProducts")
	defer span.End()

	if s.cache != nil {
		products, hit, err := s.cache.GetProducts(ctx)
		if err != nil {
			s.logger.Warn("Product cache read failed, falling back to DB", zap.Error(err))
		} else if hit {
			return products, nil
		}
	}

	products, err := s.storage.GetProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetProducts(ctx, products); err != nil {
			s.logger.Warn("Failed to populate product cache", zap.Error(err))
		}
	}

	return products, nil
}

// DeleteProduct deletes a product. Products referenced by existing sales
// are never deleted (models.ErrProductHasSales); the ledger keeps its
// audit trail intact.
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.DeleteProduct")
	defer span.End()

	if err := s.storage.DeleteProduct(ctx, id); err != nil {
		return err
	}

	util.ProductsDeletedTotal.Inc()
	s.logger.Info("Product deleted", zap.Int64("product_id", id))

	s.invalidateCache(ctx)

	if s.events != nil {
		event := &models.ProductDeletedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeProductDeleted,
				Timestamp: time.Now(),
			},
			ProductID: id,
		}
		if err := s.events.PublishProductDeleted(ctx, event); err != nil {
			s.logger.Error("Failed to publish ProductDeleted event", zap.Error(err))
		}
	}

	return nil
}

func (s *CatalogService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateProducts(ctx); err != nil {
		s.logger.Warn("Failed to invalidate product cache", zap.Error(err))
	}
}
