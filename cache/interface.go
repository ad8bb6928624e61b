package cache

import (
	"context"
	"errors"
	"time"

	"github.com/dawitel/paddle-webhook/billing"
)

// ErrCacheMiss is returned when no entry exists for the requested customer.
var ErrCacheMiss = errors.New("customer not in cache")

// Cache defines the interface for the customer profile cache
type Cache interface {
	// GetCustomer returns the cached customer profile or ErrCacheMiss
	GetCustomer(ctx context.Context, customerID string) (*billing.Customer, error)

	// SetCustomer stores a customer profile for the given TTL
	SetCustomer(ctx context.Context, customerID string, customer *billing.Customer, ttl time.Duration) error

	// Close closes the cache and releases resources
	Close() error
}
