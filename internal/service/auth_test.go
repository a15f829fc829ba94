package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipforge/clipforge/internal/model"
	"github.com/clipforge/clipforge/internal/repository"
)

func newTestAuthService(t *testing.T) (*AuthService, repository.UserRepository) {
	t.Helper()

	database := newTestDB(t)
	users := repository.NewUserRepository(database)
	verification := NewVerificationService(users, newTestEmailService(), 24*time.Hour)

	return NewAuthService(users, verification, "test-secret", false, 168*time.Hour, 10), users
}

func TestAuthServiceSignup(t *testing.T) {
	authService, users := newTestAuthService(t)

	user, err := authService.Signup("New.User@Example.com", "correct-horse-battery", "New User")
	require.NoError(t, err)

	// Email is normalized, the starting balance applied, and a verification
	// link issued
	assert.Equal(t, "new.user@example.com", user.Email)
	assert.Equal(t, 10, user.Credits)
	assert.False(t, user.IsVerified())

	stored, err := users.ByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationStatePending, stored.VerificationState)
	assert.NotNil(t, stored.VerifyToken)
	assert.True(t, stored.HasPassword())
}

func TestAuthServiceSignupDuplicateEmail(t *testing.T) {
	authService, _ := newTestAuthService(t)

	_, err := authService.Signup("dup@example.com", "correct-horse-battery", "")
	require.NoError(t, err)

	_, err = authService.Signup("DUP@example.com", "another-long-password", "")
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestAuthServiceSignupRejectsBadInput(t *testing.T) {
	authService, _ := newTestAuthService(t)

	_, err := authService.Signup("not-an-email", "correct-horse-battery", "")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = authService.Signup("short@example.com", "tiny", "")
	assert.Error(t, err)
}

func TestAuthServiceLoginRequiresVerification(t *testing.T) {
	authService, users := newTestAuthService(t)

	user, err := authService.Signup("login@example.com", "correct-horse-battery", "")
	require.NoError(t, err)

	_, err = authService.Login("login@example.com", "correct-horse-battery")
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	require.NoError(t, users.MarkVerified(user.ID))

	loggedIn, err := authService.Login("login@example.com", "correct-horse-battery")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
}

func TestAuthServiceLoginWrongCredentials(t *testing.T) {
	authService, users := newTestAuthService(t)

	user, err := authService.Signup("creds@example.com", "correct-horse-battery", "")
	require.NoError(t, err)
	require.NoError(t, users.MarkVerified(user.ID))

	_, err = authService.Login("creds@example.com", "wrong-password-entirely")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = authService.Login("nobody@example.com", "correct-horse-battery")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthServiceUpsertOAuthUser(t *testing.T) {
	authService, users := newTestAuthService(t)

	// New OAuth accounts arrive verified, with the starting balance and no
	// password
	user, err := authService.UpsertOAuthUser("oauth@example.com", "OAuth User")
	require.NoError(t, err)
	assert.True(t, user.IsVerified())
	assert.Equal(t, 10, user.Credits)
	assert.False(t, user.HasPassword())

	again, err := authService.UpsertOAuthUser("oauth@example.com", "OAuth User")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	// No second signup grant on a repeat sign-in
	stored, err := users.ByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.Credits)
}

func TestAuthServiceUpsertOAuthPromotesPendingAccount(t *testing.T) {
	authService, users := newTestAuthService(t)

	signedUp, err := authService.Signup("promote@example.com", "correct-horse-battery", "")
	require.NoError(t, err)
	assert.False(t, signedUp.IsVerified())

	user, err := authService.UpsertOAuthUser("promote@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, signedUp.ID, user.ID)
	assert.True(t, user.IsVerified())

	stored, err := users.ByID(user.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsVerified())
	assert.Nil(t, stored.VerifyToken)
}

func TestAuthServiceJWTRoundTrip(t *testing.T) {
	authService, _ := newTestAuthService(t)

	user := &model.User{ID: "user-1", Email: "jwt@example.com"}

	token, err := authService.GenerateJWT(user)
	require.NoError(t, err)

	claims, err := authService.VerifyJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims["user_id"])
	assert.Equal(t, "jwt@example.com", claims["email"])

	_, err = authService.VerifyJWT(token + "tampered")
	assert.Error(t, err)

	_, err = authService.VerifyJWT("not-a-token")
	assert.Error(t, err)
}
