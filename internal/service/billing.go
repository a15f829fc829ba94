package service

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/clipforge/clipforge/internal/model"
	"github.com/clipforge/clipforge/internal/repository"
)

// OrderPaid is the provider-neutral shape of a paid-order webhook. Providers
// translate their payloads into this before handing off to the reconciler.
type OrderPaid struct {
	EventID           string // provider order/event id, the dedupe key
	ProductID         string
	CustomerID        string // provider's customer id
	ExternalAccountID string // our user id, carried through checkout
	Paid              bool
	Status            string
}

// BillingService reconciles paid orders from the payment provider into
// credit grants. Grants are exactly-once per order: the processed-event
// record and the grant commit in one transaction, and a redelivered event
// hits the unique constraint before any credits move.
type BillingService struct {
	db      *sqlx.DB
	users   repository.UserRepository
	credits repository.CreditRepository
	events  repository.BillingEventRepository
	catalog model.ProductCatalog
}

func NewBillingService(
	db *sqlx.DB,
	users repository.UserRepository,
	credits repository.CreditRepository,
	events repository.BillingEventRepository,
	catalog model.ProductCatalog,
) *BillingService {
	return &BillingService{
		db:      db,
		users:   users,
		credits: credits,
		events:  events,
		catalog: catalog,
	}
}

// HandleOrderPaid applies one paid order. Incomplete orders and unknown
// products are accepted no-ops (the webhook still acks); an order that
// cannot be attributed to an account returns repository.ErrUserNotFound so
// the caller can surface it.
func (s *BillingService) HandleOrderPaid(ev OrderPaid) error {
	if !ev.Paid || ev.Status != "paid" {
		slog.Info("billing order not fully paid, skipping", "event_id", ev.EventID, "status", ev.Status)
		return nil
	}

	product, ok := s.catalog.ByID(ev.ProductID)
	if !ok {
		// Ack the webhook but make the miss loud: an unmapped product id
		// means paid money with no credits attached.
		slog.Error("billing unknown product id", "event_id", ev.EventID, "product_id", ev.ProductID)
		return nil
	}

	user, err := s.resolveAccount(ev)
	if err != nil {
		return fmt.Errorf("billing event %s cannot be attributed: %w", ev.EventID, err)
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = s.events.MarkProcessedTx(tx, &model.BillingEvent{
		EventID:   ev.EventID,
		UserID:    user.ID,
		ProductID: ev.ProductID,
		Credits:   product.Credits,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEventAlreadyProcessed) {
			slog.Info("billing event already processed, skipping", "event_id", ev.EventID, "user_id", user.ID)
			return nil
		}
		return fmt.Errorf("failed to record billing event: %w", err)
	}

	err = s.credits.GrantTx(tx, user.ID, product.Credits)
	if err != nil {
		return fmt.Errorf("failed to grant credits: %w", err)
	}

	if ev.CustomerID != "" {
		updated, err := s.users.SetBillingCustomerID(tx, user.ID, ev.CustomerID)
		if err != nil {
			return fmt.Errorf("failed to set billing customer id: %w", err)
		}
		if !updated {
			// Existing correlation points at a different customer. Keep the
			// grant, keep the old correlation, and flag the mismatch.
			slog.Warn("billing customer id mismatch, keeping existing",
				"user_id", user.ID, "event_customer_id", ev.CustomerID)
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit billing event: %w", err)
	}

	slog.Info("billing credits granted",
		"event_id", ev.EventID,
		"user_id", user.ID,
		"product", product.Slug,
		"credits", product.Credits,
	)
	return nil
}

// resolveAccount prefers the account id carried through checkout metadata
// and falls back to the stored billing-customer correlation.
func (s *BillingService) resolveAccount(ev OrderPaid) (*model.User, error) {
	if ev.ExternalAccountID != "" {
		user, err := s.users.ByID(ev.ExternalAccountID)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, err
		}
	}

	if ev.CustomerID != "" {
		user, err := s.users.ByBillingCustomerID(ev.CustomerID)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, err
		}
	}

	return nil, repository.ErrUserNotFound
}

// ProductBySlug resolves a catalog entry for checkout creation.
func (s *BillingService) ProductBySlug(slug string) (model.Product, bool) {
	return s.catalog.BySlug(slug)
}

// BillingCustomerID returns the stored provider correlation for a user, or
// "" when none has been set yet.
func (s *BillingService) BillingCustomerID(userID string) (string, error) {
	user, err := s.users.ByID(userID)
	if err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	if user.BillingCustomerID == nil {
		return "", nil
	}
	return *user.BillingCustomerID, nil
}
