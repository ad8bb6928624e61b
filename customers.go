package paddlewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dawitel/paddle-webhook/billing"
	"github.com/dawitel/paddle-webhook/cache"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// ErrCustomerNotFound is returned when the Paddle API has no customer for
// the given ID. Not-found is definitive and is never retried.
var ErrCustomerNotFound = errors.New("customer not found")

// CustomerClient fetches customer profiles from the Paddle API
type CustomerClient struct {
	cfg            *Config
	logger         zerolog.Logger
	httpClient     *http.Client
	circuitBreaker *gobreaker.CircuitBreaker
	cache          cache.Cache
}

// NewCustomerClient creates a new Paddle customer API client
func NewCustomerClient(cfg *Config, logger zerolog.Logger, customerCache cache.Cache) *CustomerClient {
	circuitBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "paddle-customers",
		MaxRequests: uint32(cfg.CircuitBreaker.MaxRequests),
		Interval:    cfg.CircuitBreaker.Interval,
		Timeout:     cfg.CircuitBreaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < uint32(cfg.CircuitBreaker.MaxRequests) {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.CircuitBreaker.Threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info().
				Str("name", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Customer API circuit breaker state changed")
		},
	})

	return &CustomerClient{
		cfg:            cfg,
		logger:         logger,
		httpClient:     &http.Client{Timeout: cfg.HTTPClient.Timeout},
		circuitBreaker: circuitBreaker,
		cache:          customerCache,
	}
}

// GetCustomer returns the customer profile for the given Paddle customer ID,
// serving from the cache when possible.
func (cc *CustomerClient) GetCustomer(ctx context.Context, customerID string) (*billing.Customer, error) {
	if customerID == "" {
		return nil, fmt.Errorf("customer ID is empty")
	}

	if cc.cache != nil {
		customer, err := cc.cache.GetCustomer(ctx, customerID)
		if err == nil {
			customerLookups.WithLabelValues("cache_hit").Inc()
			return customer, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			cc.logger.Warn().
				Err(err).
				Str("customer_id", customerID).
				Msg("Customer cache read failed, falling through to API")
		}
	}

	var customer *billing.Customer

	err := cc.executeWithRetry(ctx, "get_customer", func() error {
		_, err := cc.circuitBreaker.Execute(func() (interface{}, error) {
			req, err := http.NewRequestWithContext(ctx, "GET", cc.cfg.PaddleAPIURL+"/customers/"+customerID, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to create request: %w", err)
			}

			req.Header.Set("Authorization", "Bearer "+cc.cfg.PaddleAPIKey)

			resp, err := cc.httpClient.Do(req)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch customer: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusNotFound {
				return nil, fmt.Errorf("%w: %s", ErrCustomerNotFound, customerID)
			}

			if resp.StatusCode != http.StatusOK {
				bodyBytes, _ := io.ReadAll(resp.Body)
				return nil, fmt.Errorf("failed to fetch customer: status %d, body: %s", resp.StatusCode, string(bodyBytes))
			}

			var envelope struct {
				Data billing.Customer `json:"data"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
				return nil, fmt.Errorf("failed to decode customer response: %w", err)
			}

			customer = &envelope.Data
			return nil, nil
		})
		return err
	})

	if err != nil {
		status := "error"
		if errors.Is(err, ErrCustomerNotFound) {
			status = "not_found"
		}
		customerLookups.WithLabelValues(status).Inc()
		return nil, err
	}

	customerLookups.WithLabelValues("ok").Inc()

	if cc.cache != nil {
		ttl := cc.cfg.Cache.DefaultTTL
		if ttl <= 0 {
			ttl = DefaultCacheTTL
		}
		if err := cc.cache.SetCustomer(ctx, customerID, customer, ttl); err != nil {
			cc.logger.Warn().
				Err(err).
				Str("customer_id", customerID).
				Msg("Failed to cache customer profile")
		}
	}

	return customer, nil
}

func (cc *CustomerClient) executeWithRetry(ctx context.Context, operation string, fn func() error) error {
	maxAttempts := cc.cfg.Retry.MaxAttempts
	delay := cc.cfg.Retry.InitialDelay

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if errors.Is(lastErr, ErrCustomerNotFound) {
			return lastErr
		}

		if attempt < maxAttempts-1 {
			cc.logger.Warn().
				Err(lastErr).
				Str("operation", operation).
				Int("attempt", attempt+1).
				Int("max_attempts", maxAttempts).
				Dur("retry_delay", delay).
				Msg("Operation failed, retrying")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}

			delay = time.Duration(float64(delay) * cc.cfg.Retry.Multiplier)
			if delay > cc.cfg.Retry.MaxDelay {
				delay = cc.cfg.Retry.MaxDelay
			}
		}
	}

	return fmt.Errorf("operation %s failed after %d attempts: %w", operation, maxAttempts, lastErr)
}
