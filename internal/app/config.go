package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (NUVI_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (NUVI_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	BaseURL     string `default:"http://localhost:3000" usage:"Public application URL used to build redirect links" flag:"base-url"`
	Checkout    CheckoutConfig
	Platform    PlatformConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// CheckoutConfig holds the pricing constants injected into the checkout
// pipeline. Values are decimal strings so no precision is lost in transit.
type CheckoutConfig struct {
	ShippingFlatRate string `default:"10.00" usage:"Flat per-order shipping amount" flag:"shipping-flat-rate"`
	TaxRate          string `default:"0.08" usage:"Flat tax rate applied to subtotal minus discount" flag:"tax-rate"`
}

// PlatformConfig holds the platform-level Stripe credentials and default
// commission parameters for the platform-connected payment path.
type PlatformConfig struct {
	StripeSecretKey    string `usage:"Platform Stripe secret key (NUVI_PLATFORM_STRIPE_SECRET_KEY)" flag:"platform-stripe-secret-key"`
	ConnectedAccountID string `usage:"Platform connected Stripe account id" flag:"platform-account-id"`
	CommissionPercent  string `default:"5" usage:"Default platform commission percent" flag:"commission-percent"`
	FixedFee           string `default:"0.30" usage:"Default platform fixed fee per order" flag:"fixed-fee"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "NUVI",
		Files:     []string{"config.yaml", "/etc/nuvi/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set NUVI_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's NUVI_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
