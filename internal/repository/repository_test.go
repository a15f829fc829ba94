package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/clipforge/clipforge/internal/db"
	"github.com/clipforge/clipforge/internal/model"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite", ":memory:")
	require.NoError(t, err)

	// A second pool connection would get its own empty in-memory database
	database.SetMaxOpenConns(1)

	err = db.RunMigrations(database.DB, "sqlite")
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}

func seedUser(t *testing.T, repo UserRepository, email string, credits int) *model.User {
	t.Helper()

	user := &model.User{
		ID:                uuid.New().String(),
		Email:             email,
		VerificationState: model.VerificationStateUnverified,
		Credits:           credits,
		CreatedAt:         time.Now(),
	}
	err := repo.Create(user)
	require.NoError(t, err)

	return user
}
