package payment

import (
	"fmt"
	"log/slog"

	"github.com/clipforge/clipforge/internal/config"
	"github.com/clipforge/clipforge/internal/model"
	"github.com/clipforge/clipforge/internal/service"
)

// NewProvider creates a payment provider based on configuration
func NewProvider(cfg *config.Config, billingService *service.BillingService) (Provider, error) {
	provider := cfg.PaymentProvider

	slog.Info("initializing payment provider", "provider", provider)

	switch provider {
	case model.PaymentProviderPolar:
		if cfg.PolarAPIKey == "" {
			return nil, fmt.Errorf("POLAR_API_KEY is required when using Polar provider")
		}
		return NewPolarProvider(cfg, billingService), nil

	case model.PaymentProviderStripe:
		if cfg.StripeSecretKey == "" {
			return nil, fmt.Errorf("STRIPE_SECRET_KEY is required when using Stripe provider")
		}
		if cfg.StripeWebhookSecret == "" {
			return nil, fmt.Errorf("STRIPE_WEBHOOK_SECRET is required when using Stripe provider")
		}
		return NewStripeProvider(cfg, billingService), nil

	default:
		return nil, fmt.Errorf("unknown payment provider: %s (supported: polar, stripe)", provider)
	}
}
