package middleware

import (
	"net/http"

	"github.com/clipforge/clipforge/internal/ctxkeys"
	"github.com/clipforge/clipforge/internal/model"
	"github.com/clipforge/clipforge/internal/service"
)

// UserService is the subset of the user lookup the auth middleware needs.
type UserService interface {
	ByID(id string) (*model.User, error)
}

// AuthMiddleware checks for a JWT cookie and adds the user to the request
// context when valid. Invalid tokens clear the cookie and continue as guest.
func AuthMiddleware(authService *service.AuthService, users UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie("auth_token")
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := authService.VerifyJWT(cookie.Value)
			if err != nil {
				authService.ClearJWTCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			userID, ok := claims["user_id"].(string)
			if !ok {
				authService.ClearJWTCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.ByID(userID)
			if err != nil {
				authService.ClearJWTCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			// Security: keep the password hash out of the request context
			user.PasswordHash = nil

			ctx := ctxkeys.WithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects unauthenticated requests with 401
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := ctxkeys.User(r.Context())
		if user == nil {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	}
}

// RequireVerified rejects requests from accounts that have not completed
// email verification with 403. Implies RequireAuth.
func RequireVerified(next http.HandlerFunc) http.HandlerFunc {
	return RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		user := ctxkeys.User(r.Context())
		if !user.IsVerified() {
			http.Error(w, "Email verification required", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
