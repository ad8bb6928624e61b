package paddlewebhook

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/mail"
	"time"
)

const (
	// Default values
	DefaultPaddleAPIURL       = "https://api.paddle.com"
	DefaultMaxRequestBodySize = 1 * 1024 * 1024 // 1MB
	DefaultCacheTTL           = 24 * time.Hour

	// Circuit breaker defaults
	DefaultCircuitBreakerMaxRequests = 5
	DefaultCircuitBreakerInterval    = 60 * time.Second
	DefaultCircuitBreakerTimeout     = 30 * time.Second
	DefaultCircuitBreakerThreshold   = 0.7

	// Retry defaults
	DefaultRetryInitialDelay = 1 * time.Second
	DefaultRetryMaxDelay     = 30 * time.Second
	DefaultRetryMaxAttempts  = 3
	DefaultRetryMultiplier   = 2.0

	// HTTP client defaults
	DefaultHTTPTimeout = 30 * time.Second

	// SMTP defaults
	DefaultSMTPPort = 587

	// Redis defaults
	DefaultRedisPoolSize     = 10
	DefaultRedisMinIdleConns = 5
	DefaultRedisDialTimeout  = 5 * time.Second
	DefaultRedisReadTimeout  = 3 * time.Second
	DefaultRedisWriteTimeout = 3 * time.Second

	// Memory cache defaults
	DefaultMemoryCacheMaxSize         = 10000
	DefaultMemoryCacheCleanupInterval = 1 * time.Hour
)

// Config represents the main configuration for the SDK
type Config struct {
	PaddleAPIKey string
	PaddleAPIURL string

	WebhookSecret string

	// SignatureTolerance bounds how far an event's signing timestamp may
	// drift from the local clock. Zero disables the check, which keeps
	// provider replays verifiable.
	SignatureTolerance time.Duration

	AdminEmails []string

	Mail MailConfig

	Cache CacheConfig

	CircuitBreaker CircuitBreakerConfig

	Retry RetryConfig

	HTTPClient HTTPClientConfig

	Logging LoggingConfig
}

// MailConfig configures outbound email delivery. An empty SMTPHost disables
// delivery; rendered messages are logged instead of sent.
type MailConfig struct {
	SMTPHost     string
	SMTPPort     int
	Username     string
	Password     string
	From         string
	SupportEmail string
}

// CacheConfig configures customer profile caching
type CacheConfig struct {
	Enabled    bool
	Type       string // "redis" or "memory"
	Redis      RedisConfig
	Memory     MemoryConfig
	DefaultTTL time.Duration
}

// RedisConfig configures Redis connection
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

// MemoryConfig configures in-memory cache
type MemoryConfig struct {
	MaxSize         int
	CleanupInterval time.Duration
	EnableLRU       bool
}

// CircuitBreakerConfig configures circuit breaker
type CircuitBreakerConfig struct {
	MaxRequests int
	Interval    time.Duration
	Timeout     time.Duration
	Threshold   float64 // Failure ratio threshold (0.0-1.0)
}

// RetryConfig configures retry strategy
type RetryConfig struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
	Multiplier   float64
}

// HTTPClientConfig configures HTTP client
type HTTPClientConfig struct {
	Timeout            time.Duration
	MaxRequestBodySize int64
}

// LoggingConfig configures logging
type LoggingConfig struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "json", "console"
}

// ConfigBuilder provides a fluent interface for building Config
type ConfigBuilder struct {
	config *Config
}

// NewConfig creates a new ConfigBuilder with defaults
func NewConfig() *ConfigBuilder {
	return &ConfigBuilder{
		config: &Config{
			PaddleAPIURL: DefaultPaddleAPIURL,
			Mail: MailConfig{
				SMTPPort: DefaultSMTPPort,
			},
			Cache: CacheConfig{
				Enabled:    false,
				Type:       "memory",
				DefaultTTL: DefaultCacheTTL,
				Redis: RedisConfig{
					PoolSize:     DefaultRedisPoolSize,
					MinIdleConns: DefaultRedisMinIdleConns,
					DialTimeout:  DefaultRedisDialTimeout,
					ReadTimeout:  DefaultRedisReadTimeout,
					WriteTimeout: DefaultRedisWriteTimeout,
				},
				Memory: MemoryConfig{
					MaxSize:         DefaultMemoryCacheMaxSize,
					CleanupInterval: DefaultMemoryCacheCleanupInterval,
					EnableLRU:       false,
				},
			},
			CircuitBreaker: CircuitBreakerConfig{
				MaxRequests: DefaultCircuitBreakerMaxRequests,
				Interval:    DefaultCircuitBreakerInterval,
				Timeout:     DefaultCircuitBreakerTimeout,
				Threshold:   DefaultCircuitBreakerThreshold,
			},
			Retry: RetryConfig{
				InitialDelay: DefaultRetryInitialDelay,
				MaxDelay:     DefaultRetryMaxDelay,
				MaxAttempts:  DefaultRetryMaxAttempts,
				Multiplier:   DefaultRetryMultiplier,
			},
			HTTPClient: HTTPClientConfig{
				Timeout:            DefaultHTTPTimeout,
				MaxRequestBodySize: DefaultMaxRequestBodySize,
			},
			Logging: LoggingConfig{
				Level:  "info",
				Format: "json",
			},
		},
	}
}

// WithAPIKey sets the Paddle API key used for customer lookups
func (b *ConfigBuilder) WithAPIKey(key string) *ConfigBuilder {
	b.config.PaddleAPIKey = key
	return b
}

// WithAPIURL sets the Paddle API base URL
func (b *ConfigBuilder) WithAPIURL(url string) *ConfigBuilder {
	b.config.PaddleAPIURL = url
	return b
}

// WithWebhookSecret sets the webhook endpoint secret
func (b *ConfigBuilder) WithWebhookSecret(secret string) *ConfigBuilder {
	b.config.WebhookSecret = secret
	return b
}

// WithSignatureTolerance sets the signature timestamp tolerance
func (b *ConfigBuilder) WithSignatureTolerance(tolerance time.Duration) *ConfigBuilder {
	b.config.SignatureTolerance = tolerance
	return b
}

// WithAdminEmails sets the operator notification recipients
func (b *ConfigBuilder) WithAdminEmails(emails []string) *ConfigBuilder {
	b.config.AdminEmails = emails
	return b
}

// WithMail sets the mail configuration
func (b *ConfigBuilder) WithMail(mail MailConfig) *ConfigBuilder {
	b.config.Mail = mail
	return b
}

// WithCache sets the cache configuration
func (b *ConfigBuilder) WithCache(cache CacheConfig) *ConfigBuilder {
	b.config.Cache = cache
	return b
}

// WithCircuitBreaker sets the circuit breaker configuration
func (b *ConfigBuilder) WithCircuitBreaker(cb CircuitBreakerConfig) *ConfigBuilder {
	b.config.CircuitBreaker = cb
	return b
}

// WithRetry sets the retry configuration
func (b *ConfigBuilder) WithRetry(retry RetryConfig) *ConfigBuilder {
	b.config.Retry = retry
	return b
}

// WithHTTPClient sets the HTTP client configuration
func (b *ConfigBuilder) WithHTTPClient(hc HTTPClientConfig) *ConfigBuilder {
	b.config.HTTPClient = hc
	return b
}

// WithLogging sets the logging configuration
func (b *ConfigBuilder) WithLogging(logging LoggingConfig) *ConfigBuilder {
	b.config.Logging = logging
	return b
}

// Build validates and returns the Config
func (b *ConfigBuilder) Build() (*Config, error) {
	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	return b.config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.WebhookSecret == "" {
		return errors.New("WebhookSecret is required")
	}

	if c.SignatureTolerance < 0 {
		return errors.New("SignatureTolerance must not be negative")
	}

	for _, email := range c.AdminEmails {
		if _, err := mail.ParseAddress(email); err != nil {
			return fmt.Errorf("invalid admin email %q: %w", email, err)
		}
	}

	if c.Mail.SMTPHost != "" {
		if c.Mail.From == "" {
			return errors.New("Mail.From is required when SMTP delivery is enabled")
		}
		if _, err := mail.ParseAddress(c.Mail.From); err != nil {
			return fmt.Errorf("invalid Mail.From address %q: %w", c.Mail.From, err)
		}
	}

	if c.Cache.Enabled {
		if c.Cache.Type != "redis" && c.Cache.Type != "memory" {
			return fmt.Errorf("invalid cache type: %s (must be 'redis' or 'memory')", c.Cache.Type)
		}

		if c.Cache.Type == "redis" {
			if c.Cache.Redis.Address == "" {
				return errors.New("Redis address is required when using Redis cache")
			}
		}
	}

	if c.CircuitBreaker.Threshold < 0 || c.CircuitBreaker.Threshold > 1 {
		return errors.New("circuit breaker threshold must be between 0 and 1")
	}

	if c.Retry.MaxAttempts < 1 {
		return errors.New("retry max attempts must be at least 1")
	}

	if c.Retry.Multiplier <= 0 {
		return errors.New("retry multiplier must be greater than 0")
	}

	return nil
}

// RedactSecret returns a loggable form of a secret, keeping only the first
// four characters. Secrets must never be logged in full.
func RedactSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + "..."
}
