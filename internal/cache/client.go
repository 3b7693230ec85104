package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sales-service/internal/models"

	"github.com/go-redis/redis/v8"
)

const productsKey = "catalog:products"

// Client caches the product listing in Redis. The database stays the source
// of truth; the cache is dropped on every write that touches stock.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewClient creates a new Redis cache client
func NewClient(addr, password string, db int, ttl time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb, ttl: ttl}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetProducts returns the cached product listing. The second return value
// reports whether the cache was warm.
func (c *Client) GetProducts(ctx context.Context) ([]models.Product, bool, error) {
	payload, err := c.rdb.Get(ctx, productsKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read product cache: %w", err)
	}

	var products []models.Product
	if err := json.Unmarshal(payload, &products); err != nil {
		return nil, false, fmt.Errorf("failed to decode product cache: %w", err)
	}
	return products, true, nil
}

// SetProducts stores the product listing with the configured TTL
func (c *Client) SetProducts(ctx context.Context, products []models.Product) error {
	payload, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("failed to encode product cache: %w", err)
	}
	return c.rdb.Set(ctx, productsKey, payload, c.ttl).Err()
}

// InvalidateProducts drops the cached listing
func (c *Client) InvalidateProducts(ctx context.Context) error {
	return c.rdb.Del(ctx, productsKey).Err()
}
