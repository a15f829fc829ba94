package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	polargo "github.com/polarsource/polar-go"
	"github.com/polarsource/polar-go/models/components"
	"github.com/polarsource/polar-go/models/operations"
	standardwebhooks "github.com/standard-webhooks/standard-webhooks/libraries/go"

	"github.com/clipforge/clipforge/internal/config"
	"github.com/clipforge/clipforge/internal/model"
	"github.com/clipforge/clipforge/internal/repository"
	"github.com/clipforge/clipforge/internal/service"
)

type PolarProvider struct {
	cfg            *config.Config
	billingService *service.BillingService
	client         *polargo.Polar
}

func NewPolarProvider(cfg *config.Config, billingService *service.BillingService) *PolarProvider {
	var serverOption polargo.SDKOption
	if cfg.PolarSandboxMode {
		serverOption = polargo.WithServer(polargo.ServerSandbox)
		slog.Info("polar using sandbox mode", "app_env", cfg.AppEnv)
	} else {
		serverOption = polargo.WithServer(polargo.ServerProduction)
		slog.Info("polar using production mode", "app_env", cfg.AppEnv)
	}

	client := polargo.New(
		polargo.WithSecurity(cfg.PolarAPIKey),
		serverOption,
	)

	return &PolarProvider{
		cfg:            cfg,
		billingService: billingService,
		client:         client,
	}
}

func (p *PolarProvider) Name() string {
	return model.PaymentProviderPolar
}

func (p *PolarProvider) CreateCheckoutURL(userID, productSlug, customerEmail string) (string, error) {
	ctx := context.Background()

	product, ok := p.billingService.ProductBySlug(productSlug)
	if !ok {
		return "", fmt.Errorf("no product configured for slug: %s", productSlug)
	}

	successURL := fmt.Sprintf("%s/app/billing/success?checkout_id={CHECKOUT_ID}", p.cfg.AppURL)
	returnURL := fmt.Sprintf("%s/app/billing", p.cfg.AppURL)

	// The user id rides along in metadata and comes back on order.paid as the
	// external account id.
	metadata := map[string]components.CheckoutCreateMetadata{
		"user_id":      components.CreateCheckoutCreateMetadataStr(userID),
		"product_slug": components.CreateCheckoutCreateMetadataStr(product.Slug),
	}

	res, err := p.client.Checkouts.Create(ctx, components.CheckoutCreate{
		Products:      []string{product.ID},
		SuccessURL:    polargo.String(successURL),
		ReturnURL:     polargo.String(returnURL),
		CustomerEmail: polargo.String(customerEmail),
		Metadata:      metadata,
	})

	if err != nil {
		return "", fmt.Errorf("failed to create checkout: %w", err)
	}

	if res == nil || res.Checkout == nil {
		return "", fmt.Errorf("checkout response is nil")
	}

	slog.Info("polar checkout created", "user_id", userID, "product", product.Slug, "checkout_id", res.Checkout.ID)
	return res.Checkout.URL, nil
}

func (p *PolarProvider) CustomerPortalURL(userID string) (string, error) {
	ctx := context.Background()

	customerID, err := p.billingService.BillingCustomerID(userID)
	if err != nil {
		return "", err
	}
	if customerID == "" {
		return "", fmt.Errorf("no customer portal available before the first purchase")
	}

	returnURL := fmt.Sprintf("%s/app/billing", p.cfg.AppURL)

	sessionCreate := operations.CreateCustomerSessionsCreateCustomerSessionCreateCustomerSessionCustomerIDCreate(
		components.CustomerSessionCustomerIDCreate{
			CustomerID: customerID,
			ReturnURL:  polargo.String(returnURL),
		},
	)
	res, err := p.client.CustomerSessions.Create(ctx, sessionCreate)

	if err != nil {
		return "", fmt.Errorf("failed to create customer portal session: %w", err)
	}

	if res == nil || res.CustomerSession == nil {
		return "", fmt.Errorf("customer portal response is nil")
	}

	slog.Info("polar customer portal session created", "user_id", userID)
	return res.CustomerSession.CustomerPortalURL, nil
}

func (p *PolarProvider) HandleWebhook(payload []byte, headers http.Header) error {
	webhookID := headers.Get("webhook-id")
	timestamp := headers.Get("webhook-timestamp")
	signature := headers.Get("webhook-signature")

	if p.cfg.PolarWebhookSecret == "" {
		slog.Warn("polar no webhook secret configured, skipping signature verification")
	} else {
		wh, err := standardwebhooks.NewWebhookRaw([]byte(p.cfg.PolarWebhookSecret))
		if err != nil {
			return fmt.Errorf("failed to create webhook verifier: %w", err)
		}

		httpHeaders := http.Header{}
		httpHeaders.Set("webhook-id", webhookID)
		httpHeaders.Set("webhook-timestamp", timestamp)
		httpHeaders.Set("webhook-signature", signature)

		err = wh.Verify(payload, httpHeaders)
		if err != nil {
			return fmt.Errorf("invalid webhook signature: %w", err)
		}
	}

	var event struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}

	err := json.Unmarshal(payload, &event)
	if err != nil {
		return fmt.Errorf("failed to parse webhook: %w", err)
	}

	slog.Info("polar webhook received", "event_type", event.Type)

	switch event.Type {
	case "order.paid":
		return p.handleOrderPaid(event.Data)
	default:
		slog.Debug("polar webhook ignoring event type", "event_type", event.Type)
		return nil
	}
}

func (p *PolarProvider) handleOrderPaid(data json.RawMessage) error {
	var order struct {
		ID         string `json:"id"`
		Paid       bool   `json:"paid"`
		Status     string `json:"status"`
		ProductID  string `json:"product_id"`
		CustomerID string `json:"customer_id"`
		Customer   struct {
			ExternalID *string `json:"external_id"`
		} `json:"customer"`
		Metadata map[string]any `json:"metadata"`
	}

	err := json.Unmarshal(data, &order)
	if err != nil {
		return fmt.Errorf("failed to parse order data: %w", err)
	}

	accountID := ""
	if order.Customer.ExternalID != nil {
		accountID = *order.Customer.ExternalID
	}
	if accountID == "" {
		if v, ok := order.Metadata["user_id"].(string); ok {
			accountID = v
		}
	}

	err = p.billingService.HandleOrderPaid(service.OrderPaid{
		EventID:           order.ID,
		ProductID:         order.ProductID,
		CustomerID:        order.CustomerID,
		ExternalAccountID: accountID,
		Paid:              order.Paid,
		Status:            order.Status,
	})
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Ack anyway: redelivery cannot attribute the order either. The
			// error-level log is the paper trail for the unclaimed payment.
			slog.Error("polar order cannot be attributed to an account",
				"error", err, "order_id", order.ID, "customer_id", order.CustomerID)
			return nil
		}
		return err
	}

	return nil
}
