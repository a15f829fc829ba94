package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var (
	ErrInsufficientCredits = errors.New("insufficient credits")
)

// CreditRepository is the only place the credits column changes. Both
// mutations are single guarded UPDATE statements so concurrent grants and
// deducts on one account serialize in the database instead of racing a
// read-modify-write in Go.
type CreditRepository interface {
	Grant(userID string, amount int) error
	GrantTx(tx *sqlx.Tx, userID string, amount int) error
	Deduct(userID string, amount int) error
	Balance(userID string) (int, error)
}

type creditRepository struct {
	db *sqlx.DB
}

func NewCreditRepository(db *sqlx.DB) CreditRepository {
	return &creditRepository{db: db}
}

func (r *creditRepository) Grant(userID string, amount int) error {
	return grant(r.db, userID, amount)
}

// GrantTx applies a grant inside an existing transaction. The billing
// reconciler uses it to commit the grant and the processed-event record
// atomically.
func (r *creditRepository) GrantTx(tx *sqlx.Tx, userID string, amount int) error {
	return grant(tx, userID, amount)
}

func grant(e sqlx.Execer, userID string, amount int) error {
	query := `UPDATE users SET credits = credits + $1 WHERE id = $2`

	result, err := e.Exec(query, amount, userID)
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

// Deduct refuses to take the balance below zero. A guard in the WHERE clause
// means an over-draw is indistinguishable from a missing row at the SQL
// level, so a zero-row result is resolved with one follow-up existence check.
func (r *creditRepository) Deduct(userID string, amount int) error {
	query := `UPDATE users SET credits = credits - $1 WHERE id = $2 AND credits >= $1`

	result, err := r.db.Exec(query, amount, userID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}

	_, err = r.Balance(userID)
	if err != nil {
		return err
	}

	return ErrInsufficientCredits
}

func (r *creditRepository) Balance(userID string) (int, error) {
	var credits int
	query := `SELECT credits FROM users WHERE id = $1`

	err := r.db.Get(&credits, query, userID)
	if err == sql.ErrNoRows {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, err
	}

	return credits, nil
}
