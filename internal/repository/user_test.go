package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipforge/clipforge/internal/model"
)

func TestUserRepositoryCreateAndLookup(t *testing.T) {
	database := newTestDB(t)
	repo := NewUserRepository(database)

	user := seedUser(t, repo, "alice@example.com", 10)

	byID, err := repo.ByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, byID.Email)
	assert.Equal(t, 10, byID.Credits)
	assert.Equal(t, model.VerificationStateUnverified, byID.VerificationState)

	byEmail, err := repo.ByEmail("alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = repo.ByID("missing")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = repo.ByEmail("nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepositoryDuplicateEmail(t *testing.T) {
	database := newTestDB(t)
	repo := NewUserRepository(database)

	seedUser(t, repo, "taken@example.com", 0)

	dup := &model.User{
		ID:                "user-2",
		Email:             "taken@example.com",
		VerificationState: model.VerificationStateUnverified,
		CreatedAt:         time.Now(),
	}
	err := repo.Create(dup)
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestUserRepositoryConsumeVerifyToken(t *testing.T) {
	database := newTestDB(t)
	repo := NewUserRepository(database)

	user := seedUser(t, repo, "bob@example.com", 10)

	err := repo.SetVerifyToken(user.ID, "tok-abc", time.Now().Add(time.Hour))
	require.NoError(t, err)

	pending, err := repo.ByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationStatePending, pending.VerificationState)
	require.NotNil(t, pending.VerifyToken)
	assert.Equal(t, "tok-abc", *pending.VerifyToken)

	verified, err := repo.ConsumeVerifyToken("tok-abc")
	require.NoError(t, err)
	assert.Equal(t, user.ID, verified.ID)
	assert.Equal(t, model.VerificationStateVerified, verified.VerificationState)
	assert.Nil(t, verified.VerifyToken)
	assert.Nil(t, verified.VerifyTokenExpiresAt)

	// Single use: the same token cannot be consumed twice
	_, err = repo.ConsumeVerifyToken("tok-abc")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepositoryConsumeVerifyTokenExpired(t *testing.T) {
	database := newTestDB(t)
	repo := NewUserRepository(database)

	user := seedUser(t, repo, "late@example.com", 0)

	err := repo.SetVerifyToken(user.ID, "tok-old", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = repo.ConsumeVerifyToken("tok-old")
	assert.ErrorIs(t, err, ErrUserNotFound)

	// The account stays pending, so a resend is still possible
	current, err := repo.ByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationStatePending, current.VerificationState)
}

func TestUserRepositorySetVerifyTokenReplacesOutstanding(t *testing.T) {
	database := newTestDB(t)
	repo := NewUserRepository(database)

	user := seedUser(t, repo, "carol@example.com", 0)

	require.NoError(t, repo.SetVerifyToken(user.ID, "tok-first", time.Now().Add(time.Hour)))
	require.NoError(t, repo.SetVerifyToken(user.ID, "tok-second", time.Now().Add(time.Hour)))

	// The replaced token is dead
	_, err := repo.ConsumeVerifyToken("tok-first")
	assert.ErrorIs(t, err, ErrUserNotFound)

	verified, err := repo.ConsumeVerifyToken("tok-second")
	require.NoError(t, err)
	assert.Equal(t, user.ID, verified.ID)
}

func TestUserRepositoryMarkVerified(t *testing.T) {
	database := newTestDB(t)
	repo := NewUserRepository(database)

	user := seedUser(t, repo, "dave@example.com", 0)
	require.NoError(t, repo.SetVerifyToken(user.ID, "tok-x", time.Now().Add(time.Hour)))

	err := repo.MarkVerified(user.ID)
	require.NoError(t, err)

	current, err := repo.ByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationStateVerified, current.VerificationState)
	assert.Nil(t, current.VerifyToken)

	// The cleared token is no longer consumable
	_, err = repo.ConsumeVerifyToken("tok-x")
	assert.ErrorIs(t, err, ErrUserNotFound)

	err = repo.MarkVerified("missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepositorySetBillingCustomerID(t *testing.T) {
	database := newTestDB(t)
	repo := NewUserRepository(database)

	user := seedUser(t, repo, "eve@example.com", 0)

	tx, err := database.Beginx()
	require.NoError(t, err)
	updated, err := repo.SetBillingCustomerID(tx, user.ID, "cus_1")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.True(t, updated)

	byCustomer, err := repo.ByBillingCustomerID("cus_1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byCustomer.ID)

	// Setting the same value again succeeds
	tx, err = database.Beginx()
	require.NoError(t, err)
	updated, err = repo.SetBillingCustomerID(tx, user.ID, "cus_1")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.True(t, updated)

	// A different value is refused and the stored one kept
	tx, err = database.Beginx()
	require.NoError(t, err)
	updated, err = repo.SetBillingCustomerID(tx, user.ID, "cus_2")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.False(t, updated)

	current, err := repo.ByID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, current.BillingCustomerID)
	assert.Equal(t, "cus_1", *current.BillingCustomerID)
}

func TestUserRepositoryUpdateNeverTouchesCredits(t *testing.T) {
	database := newTestDB(t)
	repo := NewUserRepository(database)

	user := seedUser(t, repo, "frank@example.com", 25)

	name := "Frank"
	user.Name = &name
	user.Credits = 999 // must be ignored
	require.NoError(t, repo.Update(user))

	current, err := repo.ByID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, current.Name)
	assert.Equal(t, "Frank", *current.Name)
	assert.Equal(t, 25, current.Credits)
}
