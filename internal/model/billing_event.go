package model

import (
	"time"
)

// BillingEvent records a provider webhook event that has already been applied
// to the ledger. The primary key on EventID is what makes credit grants
// exactly-once under webhook redelivery.
type BillingEvent struct {
	EventID     string    `db:"event_id"`
	UserID      string    `db:"user_id"`
	ProductID   string    `db:"product_id"`
	Credits     int       `db:"credits"`
	ProcessedAt time.Time `db:"processed_at"`
}

const (
	PaymentProviderPolar  = "polar"
	PaymentProviderStripe = "stripe"
)
