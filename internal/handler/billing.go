package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/clipforge/clipforge/internal/ctxkeys"
	"github.com/clipforge/clipforge/internal/service"
	"github.com/clipforge/clipforge/internal/service/payment"
)

type BillingHandler struct {
	billingService *service.BillingService
	paymentService payment.Provider
}

func NewBillingHandler(billingService *service.BillingService, paymentService payment.Provider) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
		paymentService: paymentService,
	}
}

func (h *BillingHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req struct {
		Product string `json:"product"`
	}
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, ok := h.billingService.ProductBySlug(req.Product)
	if !ok {
		respondError(w, http.StatusBadRequest, "Unknown product")
		return
	}

	checkoutURL, err := h.paymentService.CreateCheckoutURL(user.ID, product.Slug, user.Email)
	if err != nil {
		slog.Error("failed to create checkout", "error", err, "user_id", user.ID, "product", product.Slug, "provider", h.paymentService.Name())
		respondError(w, http.StatusInternalServerError, "Failed to create checkout session")
		return
	}

	slog.Info("checkout created", "user_id", user.ID, "product", product.Slug, "provider", h.paymentService.Name())
	respondJSON(w, http.StatusOK, map[string]string{"checkout_url": checkoutURL})
}

func (h *BillingHandler) CustomerPortal(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	portalURL, err := h.paymentService.CustomerPortalURL(user.ID)
	if err != nil {
		slog.Error("failed to get customer portal", "error", err, "user_id", user.ID, "provider", h.paymentService.Name())
		respondError(w, http.StatusInternalServerError, "Failed to access customer portal")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"portal_url": portalURL})
}

// Webhook receives payment provider events. A 2xx acknowledges the event; any
// error answer makes the provider retry with the same event id, which the
// reconciler deduplicates.
func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		slog.Error("failed to read webhook payload", "error", err)
		respondError(w, http.StatusBadRequest, "Failed to read payload")
		return
	}
	defer func() {
		closeErr := r.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close request body", "error", closeErr)
		}
	}()

	err = h.paymentService.HandleWebhook(payload, r.Header)
	if err != nil {
		slog.Error("failed to handle webhook", "error", err, "provider", h.paymentService.Name())
		respondError(w, http.StatusBadRequest, "Failed to process webhook")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"received": true})
}
