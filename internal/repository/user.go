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
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

type UserRepository interface {
	Create(user *model.User) error
	ByID(id string) (*model.User, error)
	ByEmail(email string) (*model.User, error)
	ByBillingCustomerID(customerID string) (*model.User, error)
	Update(user *model.User) error
	Delete(id string) error

	// SetVerifyToken stores a fresh verification token and moves the account
	// to the pending state. A previously outstanding token is overwritten.
	SetVerifyToken(userID, token string, expiresAt time.Time) error

	// ConsumeVerifyToken atomically clears the token and marks the account
	// verified. Only one caller can win; a replayed token misses the WHERE
	// clause and gets ErrUserNotFound.
	ConsumeVerifyToken(token string) (*model.User, error)

	// MarkVerified moves the account straight to the verified state without a
	// token, clearing any outstanding one. Used for OAuth sign-ins where the
	// identity provider has already verified the address.
	MarkVerified(userID string) error

	// SetBillingCustomerID records the provider correlation id inside tx.
	// Setting the same value again is a no-op; a different existing value is
	// left untouched and reported via the returned flag.
	SetBillingCustomerID(tx *sqlx.Tx, userID, customerID string) (updated bool, err error)
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	query := `
		INSERT INTO users (id, email, name, password_hash, verification_state, verify_token, verify_token_expires_at, credits, billing_customer_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.VerificationState,
		user.VerifyToken,
		user.VerifyTokenExpiresAt,
		user.Credits,
		user.BillingCustomerID,
		user.CreatedAt,
	)
	if err != nil {
		// Unique constraint violation (works for both SQLite and PostgreSQL)
		errStr := err.Error()
		if strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "duplicate key value") {
			return ErrDuplicateEmail
		}
		return err
	}

	return nil
}

func (r *userRepository) ByID(id string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE id = $1`

	err := r.db.Get(user, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}

	return user, err
}

func (r *userRepository) ByEmail(email string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE email = $1`

	err := r.db.Get(user, query, email)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}

	return user, err
}

func (r *userRepository) ByBillingCustomerID(customerID string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE billing_customer_id = $1`

	err := r.db.Get(user, query, customerID)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}

	return user, err
}

// Update writes profile and auth fields. The credits column is deliberately
// not part of this statement; balances change only through CreditRepository.
func (r *userRepository) Update(user *model.User) error {
	query := `
		UPDATE users
		SET email = $1, name = $2, password_hash = $3
		WHERE id = $4
	`

	result, err := r.db.Exec(query, user.Email, user.Name, user.PasswordHash, user.ID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *userRepository) Delete(id string) error {
	query := `DELETE FROM users WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *userRepository) SetVerifyToken(userID, token string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET verification_state = $1, verify_token = $2, verify_token_expires_at = $3
		WHERE id = $4
	`

	result, err := r.db.Exec(query, model.VerificationStatePending, token, expiresAt, userID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}

// ConsumeVerifyToken is a single UPDATE ... RETURNING so the clear is durable
// before any concurrent second consumption can observe the row. Expired
// tokens miss the WHERE clause the same way unknown ones do.
func (r *userRepository) ConsumeVerifyToken(token string) (*model.User, error) {
	user := &model.User{}
	now := time.Now()

	query := `
		UPDATE users
		SET verification_state = $1, verify_token = NULL, verify_token_expires_at = NULL
		WHERE verify_token = $2
		AND (verify_token_expires_at IS NULL OR verify_token_expires_at > $3)
		RETURNING *
	`

	err := r.db.Get(user, query, model.VerificationStateVerified, token, now)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *userRepository) MarkVerified(userID string) error {
	query := `
		UPDATE users
		SET verification_state = $1, verify_token = NULL, verify_token_expires_at = NULL
		WHERE id = $2
	`

	result, err := r.db.Exec(query, model.VerificationStateVerified, userID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *userRepository) SetBillingCustomerID(tx *sqlx.Tx, userID, customerID string) (bool, error) {
	query := `
		UPDATE users
		SET billing_customer_id = $1
		WHERE id = $2
		AND (billing_customer_id IS NULL OR billing_customer_id = $1)
	`

	result, err := tx.Exec(query, customerID, userID)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}
