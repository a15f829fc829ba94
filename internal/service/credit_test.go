package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipforge/clipforge/internal/repository"
)

func TestCreditServiceGrantDeductBalance(t *testing.T) {
	database := newTestDB(t)
	users := repository.NewUserRepository(database)
	creditService := NewCreditService(repository.NewCreditRepository(database))

	user := seedUser(t, users, "ledger@example.com", 10)

	require.NoError(t, creditService.Grant(user.ID, 60))
	require.NoError(t, creditService.Deduct(user.ID, 5))
	require.NoError(t, creditService.Deduct(user.ID, 5))

	balance, err := creditService.Balance(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, balance)
}

func TestCreditServiceRejectsNonPositiveAmounts(t *testing.T) {
	database := newTestDB(t)
	users := repository.NewUserRepository(database)
	creditService := NewCreditService(repository.NewCreditRepository(database))

	user := seedUser(t, users, "amounts@example.com", 10)

	assert.ErrorIs(t, creditService.Grant(user.ID, 0), ErrInvalidCreditAmount)
	assert.ErrorIs(t, creditService.Grant(user.ID, -5), ErrInvalidCreditAmount)
	assert.ErrorIs(t, creditService.Deduct(user.ID, 0), ErrInvalidCreditAmount)
	assert.ErrorIs(t, creditService.Deduct(user.ID, -5), ErrInvalidCreditAmount)

	balance, err := creditService.Balance(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, balance)
}

func TestCreditServiceDeductInsufficientLeavesBalance(t *testing.T) {
	database := newTestDB(t)
	users := repository.NewUserRepository(database)
	creditService := NewCreditService(repository.NewCreditRepository(database))

	user := seedUser(t, users, "short@example.com", 4)

	err := creditService.Deduct(user.ID, 5)
	assert.ErrorIs(t, err, repository.ErrInsufficientCredits)

	balance, err := creditService.Balance(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, balance)
}
