package cache

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dawitel/paddle-webhook/billing"
	"github.com/go-redis/redis/v8"
)

// RedisCache is a Redis-based cache implementation
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates a new Redis cache
func NewRedisCache(config RedisConfig) (*RedisCache, error) {
	opts := &redis.Options{
		Addr:         config.Address,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	if config.EnableTLS {
		if config.TLSConfig != nil {
			opts.TLSConfig = config.TLSConfig
		} else {
			opts.TLSConfig = &tls.Config{
				InsecureSkipVerify: config.TLSSkipVerify,
			}
		}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{
		client: client,
		prefix: "paddle_webhook:customer:",
	}, nil
}

// GetCustomer returns the cached customer profile or ErrCacheMiss
func (c *RedisCache) GetCustomer(ctx context.Context, customerID string) (*billing.Customer, error) {
	key := c.prefix + customerID

	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get Redis key: %w", err)
	}

	var customer billing.Customer
	if err := json.Unmarshal([]byte(val), &customer); err != nil {
		return nil, fmt.Errorf("failed to decode cached customer: %w", err)
	}

	return &customer, nil
}

// SetCustomer stores a customer profile for the given TTL
func (c *RedisCache) SetCustomer(ctx context.Context, customerID string, customer *billing.Customer, ttl time.Duration) error {
	data, err := json.Marshal(customer)
	if err != nil {
		return fmt.Errorf("failed to encode customer: %w", err)
	}

	key := c.prefix + customerID
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set Redis key: %w", err)
	}

	return nil
}

// Close closes the cache and releases resources
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// RedisConfig contains Redis connection configuration
type RedisConfig struct {
	Address       string
	Password      string
	DB            int
	PoolSize      int
	MinIdleConns  int
	DialTimeout   time.Duration
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	EnableTLS     bool
	TLSSkipVerify bool
	TLSConfig     *tls.Config
}
