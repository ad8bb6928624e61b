package cache

import (
	"context"
	"sync"
	"time"

	"github.com/dawitel/paddle-webhook/billing"
)

type memoryEntry struct {
	customer  *billing.Customer
	expiresAt time.Time
}

// MemoryCache is an in-memory cache implementation
type MemoryCache struct {
	mu          sync.Mutex
	entries     map[string]memoryEntry
	maxSize     int
	cleanup     *time.Ticker
	stop        chan struct{}
	enableLRU   bool
	accessOrder []string // For LRU eviction
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(maxSize int, cleanupInterval time.Duration, enableLRU bool) *MemoryCache {
	cache := &MemoryCache{
		entries:     make(map[string]memoryEntry),
		maxSize:     maxSize,
		cleanup:     time.NewTicker(cleanupInterval),
		stop:        make(chan struct{}),
		enableLRU:   enableLRU,
		accessOrder: make([]string, 0, maxSize),
	}

	go cache.cleanupExpired()

	return cache
}

// GetCustomer returns the cached customer profile or ErrCacheMiss. Expired
// entries are dropped lazily on access.
func (c *MemoryCache) GetCustomer(ctx context.Context, customerID string) (*billing.Customer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[customerID]
	if !exists {
		return nil, ErrCacheMiss
	}

	if time.Now().After(entry.expiresAt) {
		delete(c.entries, customerID)
		if c.enableLRU {
			c.removeFromAccessOrder(customerID)
		}
		return nil, ErrCacheMiss
	}

	if c.enableLRU {
		c.updateAccessOrder(customerID)
	}

	return entry.customer, nil
}

// SetCustomer stores a customer profile for the given TTL
func (c *MemoryCache) SetCustomer(ctx context.Context, customerID string, customer *billing.Customer, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[customerID]; !exists && len(c.entries) >= c.maxSize {
		c.evictOne()
	}

	c.entries[customerID] = memoryEntry{
		customer:  customer,
		expiresAt: time.Now().Add(ttl),
	}

	if c.enableLRU {
		c.updateAccessOrder(customerID)
	}

	return nil
}

// Close closes the cache and releases resources
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanup.Stop()
	close(c.stop)
	c.entries = nil
	c.accessOrder = nil

	return nil
}

// evictOne frees one slot, preferring the least recently used entry, then
// any expired entry, then an arbitrary one. Callers must hold the lock.
func (c *MemoryCache) evictOne() {
	if c.enableLRU && len(c.accessOrder) > 0 {
		oldest := c.accessOrder[0]
		delete(c.entries, oldest)
		c.accessOrder = c.accessOrder[1:]
		return
	}

	now := time.Now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			return
		}
	}

	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}

// cleanupExpired periodically removes expired entries
func (c *MemoryCache) cleanupExpired() {
	for {
		select {
		case <-c.cleanup.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if now.After(entry.expiresAt) {
					delete(c.entries, key)
					if c.enableLRU {
						c.removeFromAccessOrder(key)
					}
				}
			}
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}

// updateAccessOrder updates the access order for LRU
func (c *MemoryCache) updateAccessOrder(customerID string) {
	c.removeFromAccessOrder(customerID)
	c.accessOrder = append(c.accessOrder, customerID)
}

// removeFromAccessOrder removes an entry from access order
func (c *MemoryCache) removeFromAccessOrder(customerID string) {
	for i, key := range c.accessOrder {
		if key == customerID {
			c.accessOrder = append(c.accessOrder[:i], c.accessOrder[i+1:]...)
			return
		}
	}
}
