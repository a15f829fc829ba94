package payment

import "net/http"

// Provider defines the interface that all payment providers must implement
type Provider interface {
	// CreateCheckoutURL creates a checkout session for a credit pack and
	// returns the URL
	CreateCheckoutURL(userID, productSlug, customerEmail string) (string, error)

	// CustomerPortalURL creates a customer portal session and returns the URL
	CustomerPortalURL(userID string) (string, error)

	// HandleWebhook verifies and processes a webhook delivery from the
	// payment provider
	HandleWebhook(payload []byte, headers http.Header) error

	// Name returns the provider name (e.g., "polar", "stripe")
	Name() string
}
