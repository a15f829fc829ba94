package repository

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/clipforge/clipforge/internal/model"
)

var (
	ErrEventAlreadyProcessed = errors.New("billing event already processed")
	ErrEventNotFound         = errors.New("billing event not found")
)

// BillingEventRepository is the dedupe log for provider webhooks. An event id
// can be inserted exactly once; the unique violation on replay is what stops
// a second credit grant.
type BillingEventRepository interface {
	MarkProcessedTx(tx *sqlx.Tx, event *model.BillingEvent) error
	ByEventID(eventID string) (*model.BillingEvent, error)
}

type billingEventRepository struct {
	db *sqlx.DB
}

func NewBillingEventRepository(db *sqlx.DB) BillingEventRepository {
	return &billingEventRepository{db: db}
}

func (r *billingEventRepository) MarkProcessedTx(tx *sqlx.Tx, event *model.BillingEvent) error {
	if event.ProcessedAt.IsZero() {
		event.ProcessedAt = time.Now()
	}

	query := `
		INSERT INTO processed_billing_events (event_id, user_id, product_id, credits, processed_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := tx.Exec(query,
		event.EventID,
		event.UserID,
		event.ProductID,
		event.Credits,
		event.ProcessedAt,
	)
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "duplicate key value") {
			return ErrEventAlreadyProcessed
		}
		return err
	}

	return nil
}

func (r *billingEventRepository) ByEventID(eventID string) (*model.BillingEvent, error) {
	event := &model.BillingEvent{}
	query := `SELECT * FROM processed_billing_events WHERE event_id = $1`

	err := r.db.Get(event, query, eventID)
	if err == sql.ErrNoRows {
		return nil, ErrEventNotFound
	}

	return event, err
}
