package model

import (
	"time"
)

// Verification states for a user account. The single state column is the
// source of truth; EmailVerified and IsVerified are projections of it so the
// two flags can never drift apart.
const (
	VerificationStateUnverified = "unverified"
	VerificationStatePending    = "pending"
	VerificationStateVerified   = "verified"
)

type User struct {
	ID                   string     `db:"id"`
	Email                string     `db:"email"`
	Name                 *string    `db:"name"`
	PasswordHash         *string    `db:"password_hash"` // Nullable for OAuth users
	VerificationState    string     `db:"verification_state"`
	VerifyToken          *string    `db:"verify_token"`
	VerifyTokenExpiresAt *time.Time `db:"verify_token_expires_at"`
	Credits              int        `db:"credits"`
	BillingCustomerID    *string    `db:"billing_customer_id"`
	CreatedAt            time.Time  `db:"created_at"`
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// EmailVerified reports whether the user has proven control of their email.
func (u *User) EmailVerified() bool {
	return u.VerificationState == VerificationStateVerified
}

// IsVerified reports whether the account is usable for credit-costed actions.
// It converges with EmailVerified on successful verification.
func (u *User) IsVerified() bool {
	return u.VerificationState == VerificationStateVerified
}

// VerificationPending reports whether a verification link is outstanding.
func (u *User) VerificationPending() bool {
	return u.VerificationState == VerificationStatePending
}

func (u *User) DisplayName() string {
	if u.Name != nil && *u.Name != "" {
		return *u.Name
	}
	return u.Email
}
