package service

import (
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/clipforge/clipforge/internal/db"
	"github.com/clipforge/clipforge/internal/model"
	"github.com/clipforge/clipforge/internal/repository"
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

// newTestEmailService runs in dev mode, so sends only log.
func newTestEmailService() *EmailService {
	return NewEmailService("", "noreply@example.com", "http://localhost:8090", "Clipforge", true)
}

func seedUser(t *testing.T, users repository.UserRepository, email string, credits int) *model.User {
	t.Helper()

	user := &model.User{
		ID:                uuid.New().String(),
		Email:             email,
		VerificationState: model.VerificationStateUnverified,
		Credits:           credits,
		CreatedAt:         time.Now(),
	}
	err := users.Create(user)
	require.NoError(t, err)

	return user
}

func testCatalog() model.ProductCatalog {
	return model.NewProductCatalog(
		model.Product{ID: "prod_starter", Name: "Starter Pack", Slug: model.ProductSlugStarter, Credits: 60},
		model.Product{ID: "prod_creator", Name: "Creator Pack", Slug: model.ProductSlugCreator, Credits: 160},
		model.Product{ID: "prod_pro", Name: "Pro Pack", Slug: model.ProductSlugPro, Credits: 360},
	)
}

// memStorage keeps blobs in memory for video service tests.
type memStorage struct {
	objects map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}}
}

func (m *memStorage) Save(key string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[key] = data
	return nil
}

func (m *memStorage) Delete(key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memStorage) PlaybackURL(key string) string {
	return "http://storage.local/" + key
}
