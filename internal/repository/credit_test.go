package repository

import (
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipforge/clipforge/internal/db"
)

func TestCreditRepositoryGrantAndDeduct(t *testing.T) {
	database := newTestDB(t)
	users := NewUserRepository(database)
	credits := NewCreditRepository(database)

	user := seedUser(t, users, "grant@example.com", 10)

	require.NoError(t, credits.Grant(user.ID, 60))

	balance, err := credits.Balance(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 70, balance)

	require.NoError(t, credits.Deduct(user.ID, 5))

	balance, err = credits.Balance(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 65, balance)
}

func TestCreditRepositoryDeductInsufficient(t *testing.T) {
	database := newTestDB(t)
	users := NewUserRepository(database)
	credits := NewCreditRepository(database)

	user := seedUser(t, users, "poor@example.com", 3)

	err := credits.Deduct(user.ID, 5)
	assert.ErrorIs(t, err, ErrInsufficientCredits)

	// A refused deduction leaves the balance untouched
	balance, err := credits.Balance(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, balance)
}

func TestCreditRepositoryDeductExactBalance(t *testing.T) {
	database := newTestDB(t)
	users := NewUserRepository(database)
	credits := NewCreditRepository(database)

	user := seedUser(t, users, "exact@example.com", 5)

	require.NoError(t, credits.Deduct(user.ID, 5))

	balance, err := credits.Balance(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)

	err = credits.Deduct(user.ID, 1)
	assert.ErrorIs(t, err, ErrInsufficientCredits)
}

func TestCreditRepositoryUnknownUser(t *testing.T) {
	database := newTestDB(t)
	credits := NewCreditRepository(database)

	err := credits.Grant("missing", 10)
	assert.ErrorIs(t, err, ErrUserNotFound)

	err = credits.Deduct("missing", 10)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = credits.Balance("missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

// Fires concurrent grants and deducts at one account over a file-backed
// database with multiple pool connections. The single-statement mutations
// serialize in the database, so the final balance must equal the sum of the
// accepted deltas; a read-modify-write implementation would lose updates here.
func TestCreditRepositoryConcurrentMutations(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "ledger.db") + "?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)"
	database, err := sqlx.Connect("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close()
	})

	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))

	users := NewUserRepository(database)
	credits := NewCreditRepository(database)
	user := seedUser(t, users, "race@example.com", 0)

	const workers = 25
	var wg sync.WaitGroup
	var deductions atomic.Int64

	for i := 0; i < workers; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			grantErr := credits.Grant(user.ID, 4)
			if grantErr != nil {
				t.Errorf("concurrent grant failed: %v", grantErr)
			}
		}()

		go func() {
			defer wg.Done()
			deductErr := credits.Deduct(user.ID, 3)
			switch {
			case deductErr == nil:
				deductions.Add(1)
			case errors.Is(deductErr, ErrInsufficientCredits):
				// refused deductions must leave no trace in the balance
			default:
				t.Errorf("concurrent deduct failed: %v", deductErr)
			}
		}()
	}
	wg.Wait()

	balance, err := credits.Balance(user.ID)
	require.NoError(t, err)
	assert.Equal(t, workers*4-int(deductions.Load())*3, balance)
	assert.GreaterOrEqual(t, balance, 0)
}

func TestCreditRepositoryGrantTxCommitsWithTransaction(t *testing.T) {
	database := newTestDB(t)
	users := NewUserRepository(database)
	credits := NewCreditRepository(database)

	user := seedUser(t, users, "tx@example.com", 0)

	tx, err := database.Beginx()
	require.NoError(t, err)
	require.NoError(t, credits.GrantTx(tx, user.ID, 160))
	require.NoError(t, tx.Rollback())

	// A rolled back grant never lands
	balance, err := credits.Balance(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)

	tx, err = database.Beginx()
	require.NoError(t, err)
	require.NoError(t, credits.GrantTx(tx, user.ID, 160))
	require.NoError(t, tx.Commit())

	balance, err = credits.Balance(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 160, balance)
}
