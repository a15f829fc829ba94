package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipforge/clipforge/internal/model"
)

func TestBillingEventRepositoryMarkProcessedOnce(t *testing.T) {
	database := newTestDB(t)
	users := NewUserRepository(database)
	events := NewBillingEventRepository(database)

	user := seedUser(t, users, "events@example.com", 0)

	event := &model.BillingEvent{
		EventID:   "order_1",
		UserID:    user.ID,
		ProductID: "prod_starter",
		Credits:   60,
	}

	tx, err := database.Beginx()
	require.NoError(t, err)
	require.NoError(t, events.MarkProcessedTx(tx, event))
	require.NoError(t, tx.Commit())

	stored, err := events.ByEventID("order_1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.UserID)
	assert.Equal(t, 60, stored.Credits)
	assert.False(t, stored.ProcessedAt.IsZero())

	// Replay of the same event id hits the primary key
	tx, err = database.Beginx()
	require.NoError(t, err)
	err = events.MarkProcessedTx(tx, &model.BillingEvent{
		EventID:   "order_1",
		UserID:    user.ID,
		ProductID: "prod_starter",
		Credits:   60,
	})
	assert.ErrorIs(t, err, ErrEventAlreadyProcessed)
	require.NoError(t, tx.Rollback())

	_, err = events.ByEventID("order_missing")
	assert.ErrorIs(t, err, ErrEventNotFound)
}
