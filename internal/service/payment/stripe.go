package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/stripe/stripe-go/v81"
	portalsession "github.com/stripe/stripe-go/v81/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/clipforge/clipforge/internal/config"
	"github.com/clipforge/clipforge/internal/model"
	"github.com/clipforge/clipforge/internal/repository"
	"github.com/clipforge/clipforge/internal/service"
)

type StripeProvider struct {
	cfg            *config.Config
	billingService *service.BillingService
}

func NewStripeProvider(cfg *config.Config, billingService *service.BillingService) *StripeProvider {
	stripe.Key = cfg.StripeSecretKey

	slog.Info("stripe provider initialized", "app_env", cfg.AppEnv)

	return &StripeProvider{
		cfg:            cfg,
		billingService: billingService,
	}
}

func (s *StripeProvider) Name() string {
	return model.PaymentProviderStripe
}

func (s *StripeProvider) CreateCheckoutURL(userID, productSlug, customerEmail string) (string, error) {
	product, ok := s.billingService.ProductBySlug(productSlug)
	if !ok {
		return "", fmt.Errorf("no price configured for slug: %s", productSlug)
	}

	successURL := fmt.Sprintf("%s/app/billing/success?session_id={CHECKOUT_SESSION_ID}", s.cfg.AppURL)
	cancelURL := fmt.Sprintf("%s/app/billing", s.cfg.AppURL)

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(product.ID),
				Quantity: stripe.Int64(1),
			},
		},
		CustomerEmail:     stripe.String(customerEmail),
		ClientReferenceID: stripe.String(userID),
		Metadata: map[string]string{
			"user_id":  userID,
			"price_id": product.ID,
		},
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	slog.Info("stripe checkout created", "user_id", userID, "product", product.Slug, "session_id", sess.ID)
	return sess.URL, nil
}

func (s *StripeProvider) CustomerPortalURL(userID string) (string, error) {
	customerID, err := s.billingService.BillingCustomerID(userID)
	if err != nil {
		return "", err
	}
	if customerID == "" {
		return "", fmt.Errorf("no customer portal available before the first purchase")
	}

	returnURL := fmt.Sprintf("%s/app/billing", s.cfg.AppURL)

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}

	portalSession, err := portalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create customer portal session: %w", err)
	}

	slog.Info("stripe customer portal session created", "user_id", userID)
	return portalSession.URL, nil
}

func (s *StripeProvider) HandleWebhook(payload []byte, headers http.Header) error {
	signature := headers.Get("Stripe-Signature")

	// ConstructEventWithOptions ignores API version mismatch; Stripe's API
	// versions are backwards compatible, so this is safe.
	event, err := webhook.ConstructEventWithOptions(
		payload,
		signature,
		s.cfg.StripeWebhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to verify webhook signature: %w", err)
	}

	slog.Info("stripe webhook received", "event_type", event.Type)

	switch event.Type {
	case "checkout.session.completed":
		return s.handleCheckoutSessionCompleted(event.ID, event.Data.Raw)
	default:
		slog.Debug("stripe webhook ignoring event type", "event_type", event.Type)
		return nil
	}
}

func (s *StripeProvider) handleCheckoutSessionCompleted(eventID string, data json.RawMessage) error {
	var checkoutSession struct {
		ID                string            `json:"id"`
		CustomerID        string            `json:"customer"`
		ClientReferenceID string            `json:"client_reference_id"`
		PaymentStatus     string            `json:"payment_status"`
		Metadata          map[string]string `json:"metadata"`
	}

	err := json.Unmarshal(data, &checkoutSession)
	if err != nil {
		return fmt.Errorf("failed to parse checkout session: %w", err)
	}

	accountID := checkoutSession.ClientReferenceID
	if accountID == "" {
		accountID = checkoutSession.Metadata["user_id"]
	}

	err = s.billingService.HandleOrderPaid(service.OrderPaid{
		EventID:           eventID,
		ProductID:         checkoutSession.Metadata["price_id"],
		CustomerID:        checkoutSession.CustomerID,
		ExternalAccountID: accountID,
		Paid:              checkoutSession.PaymentStatus == "paid",
		Status:            checkoutSession.PaymentStatus,
	})
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			slog.Error("stripe checkout cannot be attributed to an account",
				"error", err, "session_id", checkoutSession.ID, "customer_id", checkoutSession.CustomerID)
			return nil
		}
		return err
	}

	return nil
}
