package middleware

import (
	"net/http"

	"github.com/clipforge/clipforge/internal/config"
	"github.com/clipforge/clipforge/internal/ctxkeys"
)

// Config adds a sanitized copy of the application config to the request
// context. Secrets and credentials never ride along on requests.
func Config(cfg *config.Config) func(http.Handler) http.Handler {
	sanitized := cfg.Sanitized()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := ctxkeys.WithConfig(r.Context(), sanitized)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
