package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipforge/clipforge/internal/config"
	"github.com/clipforge/clipforge/internal/ctxkeys"
)

func TestConfigMiddlewareStripsSecrets(t *testing.T) {
	cfg := &config.Config{
		AppEnv:          "production",
		AppURL:          "https://clipforge.example.com",
		JWTSecret:       "super-secret",
		StripeSecretKey: "sk_live_123",
		PolarAPIKey:     "polar_456",
		S3SecretKey:     "s3-secret",
		ResendAPIKey:    "re_789",
	}

	var fromCtx *config.Config
	handler := Config(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = ctxkeys.Config(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, fromCtx)

	// Public fields survive, so handlers can still branch on environment
	assert.Equal(t, "production", fromCtx.AppEnv)
	assert.True(t, fromCtx.IsProduction())
	assert.Equal(t, "https://clipforge.example.com", fromCtx.AppURL)

	// Secrets never reach the request context
	assert.Empty(t, fromCtx.JWTSecret)
	assert.Empty(t, fromCtx.StripeSecretKey)
	assert.Empty(t, fromCtx.PolarAPIKey)
	assert.Empty(t, fromCtx.S3SecretKey)
	assert.Empty(t, fromCtx.ResendAPIKey)
}
