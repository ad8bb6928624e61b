package cache

import (
	"context"
	"time"

	"github.com/dawitel/paddle-webhook/billing"
)

// NoOpCache is a cache implementation that stores nothing. It is used when
// caching is disabled, so every lookup falls through to the Paddle API.
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// GetCustomer always reports a miss
func (c *NoOpCache) GetCustomer(ctx context.Context, customerID string) (*billing.Customer, error) {
	return nil, ErrCacheMiss
}

// SetCustomer discards the customer profile
func (c *NoOpCache) SetCustomer(ctx context.Context, customerID string, customer *billing.Customer, ttl time.Duration) error {
	return nil
}

// Close closes the cache and releases resources
func (c *NoOpCache) Close() error {
	return nil
}
