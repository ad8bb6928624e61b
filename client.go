package paddlewebhook

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/dawitel/paddle-webhook/billing"
	"github.com/dawitel/paddle-webhook/cache"
	"github.com/dawitel/paddle-webhook/mail"
	"github.com/rs/zerolog"
)

// Client is the main SDK client interface
type Client interface {
	// Start initializes and starts the client
	Start(ctx context.Context) error

	// Stop gracefully stops the client
	Stop() error

	// Health returns the health status
	Health() error

	// HandleWebhook returns the HTTP handler for the webhook endpoint
	HandleWebhook() http.HandlerFunc

	// GetCustomer fetches a customer profile from the Paddle API
	GetCustomer(ctx context.Context, customerID string) (*billing.Customer, error)
}

// WebhookClient is the base implementation of Client
type WebhookClient struct {
	cfg       *Config
	logger    zerolog.Logger
	verifier  *Verifier
	handler   *Handler
	processor *billing.Processor
	customers *CustomerClient
	mailer    *mail.Service
	cache     cache.Cache
	mu        sync.RWMutex
	started   bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a new webhook client wiring verification, event
// processing, customer lookups, and email delivery from the configuration.
func NewClient(cfg *Config, logger zerolog.Logger) (*WebhookClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cacheInstance, err := newCache(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	var customers *CustomerClient
	var lookup billing.CustomerLookup
	if cfg.PaddleAPIKey != "" {
		customers = NewCustomerClient(cfg, logger, cacheInstance)
		lookup = customers
	} else {
		logger.Debug().Msg("Paddle API key not set, customer lookups disabled")
	}

	var sender mail.Sender
	if cfg.Mail.SMTPHost != "" {
		sender = mail.NewSMTPSender(cfg.Mail.SMTPHost, cfg.Mail.SMTPPort, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.From)
	} else {
		sender = mail.NewLogSender(logger, cfg.Mail.From)
	}

	mailer, err := mail.NewService(logger, sender)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail service: %w", err)
	}

	processor := billing.NewProcessor(logger, lookup, mailer, cfg.AdminEmails, cfg.Mail.SupportEmail, nil)
	verifier := NewVerifier(cfg.WebhookSecret, cfg.SignatureTolerance)
	handler := NewHandler(verifier, processor, logger, cfg.HTTPClient.MaxRequestBodySize)

	logger.Debug().
		Str("webhook_secret", RedactSecret(cfg.WebhookSecret)).
		Dur("signature_tolerance", cfg.SignatureTolerance).
		Msg("Webhook client configured")

	return &WebhookClient{
		cfg:       cfg,
		logger:    logger,
		verifier:  verifier,
		handler:   handler,
		processor: processor,
		customers: customers,
		mailer:    mailer,
		cache:     cacheInstance,
	}, nil
}

// Start initializes and starts the client
func (c *WebhookClient) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return fmt.Errorf("client already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.started = true

	c.logger.Info().Msg("Paddle webhook SDK client started")

	return nil
}

// Stop gracefully stops the client
func (c *WebhookClient) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}

	if c.cache != nil {
		if err := c.cache.Close(); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to close cache")
		}
	}

	c.started = false
	c.logger.Info().Msg("Paddle webhook SDK client stopped")

	return nil
}

// Health returns the health status
func (c *WebhookClient) Health() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.started {
		return fmt.Errorf("client not started")
	}

	return nil
}

// HandleWebhook returns the HTTP handler for the webhook endpoint. The
// handler is resolved per request so SetEventHandler takes effect for
// handlers already mounted on a mux.
func (c *WebhookClient) HandleWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.mu.RLock()
		handler := c.handler
		c.mu.RUnlock()
		handler.HandleWebhook(w, r)
	}
}

// GetCustomer fetches a customer profile from the Paddle API
func (c *WebhookClient) GetCustomer(ctx context.Context, customerID string) (*billing.Customer, error) {
	if c.customers == nil {
		return nil, fmt.Errorf("customer lookups disabled: PaddleAPIKey not configured")
	}
	return c.customers.GetCustomer(ctx, customerID)
}

// GetCache returns the cache instance
func (c *WebhookClient) GetCache() cache.Cache {
	return c.cache
}

// SetEventHandler installs a callback invoked for each processed
// transaction event, rebuilding the processing pipeline around it.
func (c *WebhookClient) SetEventHandler(handler billing.EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var lookup billing.CustomerLookup
	if c.customers != nil {
		lookup = c.customers
	}

	c.processor = billing.NewProcessor(c.logger, lookup, c.mailer, c.cfg.AdminEmails, c.cfg.Mail.SupportEmail, handler)
	c.handler = NewHandler(c.verifier, c.processor, c.logger, c.cfg.HTTPClient.MaxRequestBodySize)
}
