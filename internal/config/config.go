package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/clipforge/clipforge/internal/model"
)

type Config struct {
	// Application
	AppName      string
	AppEnv       string
	AppURL       string
	Port         string
	SupportEmail string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret              string
	JWTExpiry              time.Duration
	TokenEmailVerifyExpiry time.Duration

	// Credits
	SignupCredits   int // starting balance for new accounts
	VideoCreditCost int // deducted per generation job

	// OAuth
	GoogleClientID     string
	GoogleClientSecret string

	// Email
	EmailFrom    string
	ResendAPIKey string

	// Payment
	PaymentProvider       string // "polar" or "stripe"
	// Payment - Polar
	PolarAPIKey           string
	PolarWebhookSecret    string
	PolarSandboxMode      bool
	PolarProductIDStarter string
	PolarProductIDCreator string
	PolarProductIDPro     string
	// Payment - Stripe
	StripeSecretKey       string
	StripeWebhookSecret   string
	StripePriceIDStarter  string
	StripePriceIDCreator  string
	StripePriceIDPro      string

	// Render pipeline
	RenderWebhookSecret string // shared secret for the render worker callback

	// Observability (optional)
	SentryDSN string

	// Storage (S3-compatible: MinIO, AWS S3, Cloudflare R2, etc.)
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string        // Optional: for S3-compatible services
	S3PresignExpiry time.Duration // Expiry for rendered video links
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName:      envString("APP_NAME", "Clipforge"),
		AppEnv:       envRequired("APP_ENV"), // Required: 'development' or 'production'
		AppURL:       envRequired("APP_URL"), // Required: base URL for email links and OAuth redirects
		Port:         envString("PORT", "8090"),
		SupportEmail: envString("SUPPORT_EMAIL", "hello@example.com"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/clipforge.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		// Security
		JWTSecret:              envRequired("JWT_SECRET"),
		JWTExpiry:              envDuration("JWT_EXPIRY", 168*time.Hour),               // 7 days
		TokenEmailVerifyExpiry: envDuration("TOKEN_EMAIL_VERIFY_EXPIRY", 24*time.Hour), // 24 hours

		// Credits
		SignupCredits:   envInt("SIGNUP_CREDITS", 10),
		VideoCreditCost: envInt("VIDEO_CREDIT_COST", 5),

		// OAuth
		GoogleClientID:     envString("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: envString("GOOGLE_CLIENT_SECRET", ""),

		// Email (RESEND_API_KEY optional in development, required in production)
		EmailFrom:    envString("EMAIL_FROM", "noreply@example.com"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),

		// Payment (provider selection and configuration)
		PaymentProvider:       envString("PAYMENT_PROVIDER", "polar"), // Default: polar
		PolarAPIKey:           envString("POLAR_API_KEY", ""),
		PolarWebhookSecret:    envString("POLAR_WEBHOOK_SECRET", ""),
		PolarSandboxMode:      envBool("POLAR_SANDBOX_MODE", envString("APP_ENV", "development") == "development"),
		PolarProductIDStarter: envString("POLAR_PRODUCT_ID_STARTER", ""),
		PolarProductIDCreator: envString("POLAR_PRODUCT_ID_CREATOR", ""),
		PolarProductIDPro:     envString("POLAR_PRODUCT_ID_PRO", ""),
		StripeSecretKey:       envString("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:   envString("STRIPE_WEBHOOK_SECRET", ""),
		StripePriceIDStarter:  envString("STRIPE_PRICE_ID_STARTER", ""),
		StripePriceIDCreator:  envString("STRIPE_PRICE_ID_CREATOR", ""),
		StripePriceIDPro:      envString("STRIPE_PRICE_ID_PRO", ""),

		// Render pipeline
		RenderWebhookSecret: envString("RENDER_WEBHOOK_SECRET", ""),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Storage (S3-compatible - required for rendered videos)
		S3Region:        envRequired("S3_REGION"),
		S3Bucket:        envRequired("S3_BUCKET"),
		S3AccessKey:     envRequired("S3_ACCESS_KEY"),
		S3SecretKey:     envRequired("S3_SECRET_KEY"),
		S3Endpoint:      envString("S3_ENDPOINT", ""), // Optional: for non-AWS providers
		S3PresignExpiry: envDuration("S3_PRESIGN_EXPIRY", 24*time.Hour),
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures all required services are configured for production deployments.
// Development allows some services (like email) to use fallback modes for easier local testing.
func validateProduction(cfg *Config) {
	if cfg.ResendAPIKey == "" {
		slog.Error("production deployment requires RESEND_API_KEY",
			"hint", "set APP_ENV=development for local testing with email log mode")
		os.Exit(1)
	}
}

// ProductCatalog builds the credit-pack table for the active payment
// provider. Product ids come from the environment; credit amounts are the
// published pack sizes.
func (c *Config) ProductCatalog() model.ProductCatalog {
	starterID := c.PolarProductIDStarter
	creatorID := c.PolarProductIDCreator
	proID := c.PolarProductIDPro
	if c.PaymentProvider == model.PaymentProviderStripe {
		starterID = c.StripePriceIDStarter
		creatorID = c.StripePriceIDCreator
		proID = c.StripePriceIDPro
	}

	return model.NewProductCatalog(
		model.Product{ID: starterID, Name: "Starter Pack", Slug: model.ProductSlugStarter, Credits: 60},
		model.Product{ID: creatorID, Name: "Creator Pack", Slug: model.ProductSlugCreator, Credits: 160},
		model.Product{ID: proID, Name: "Pro Pack", Slug: model.ProductSlugPro, Credits: 360},
	)
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Sanitized returns a copy of the config with only public/safe fields.
// All secrets, credentials, and sensitive data are excluded.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:      c.AppName,
		AppEnv:       c.AppEnv,
		AppURL:       c.AppURL,
		Port:         c.Port,
		SupportEmail: c.SupportEmail,

		EmailFrom: c.EmailFrom,

		GoogleClientID: c.GoogleClientID,

		SignupCredits:   c.SignupCredits,
		VideoCreditCost: c.VideoCreditCost,
	}
}
