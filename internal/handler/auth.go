package handler

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/clipforge/clipforge/internal/config"
	"github.com/clipforge/clipforge/internal/ctxkeys"
	"github.com/clipforge/clipforge/internal/service"
)

type AuthHandler struct {
	authService         *service.AuthService
	verificationService *service.VerificationService
	googleOAuthConfig   *oauth2.Config
	appURL              string
}

func NewAuthHandler(authService *service.AuthService, verificationService *service.VerificationService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService:         authService,
		verificationService: verificationService,
		appURL:              cfg.AppURL,
		googleOAuthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.AppURL + "/auth/google/callback",
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
	}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.authService.Signup(req.Email, req.Password, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailAlreadyExists):
			respondError(w, http.StatusConflict, "An account with this email already exists")
		case errors.Is(err, service.ErrInvalidEmail):
			respondError(w, http.StatusBadRequest, "Please provide a valid email address")
		default:
			// Password validation errors carry a user-facing message
			respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusCreated, newUserResponse(user))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailNotVerified) {
			respondError(w, http.StatusForbidden, "Please verify your email before logging in")
			return
		}
		slog.Warn("login failed", "error", err, "email", req.Email)
		respondError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	jwtToken, err := h.authService.GenerateJWT(user)
	if err != nil {
		slog.Error("failed to generate JWT", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "An error occurred. Please try again.")
		return
	}

	h.authService.SetJWTCookie(w, jwtToken, time.Now().Add(h.authService.JWTExpiry()))

	slog.Info("user logged in", "user_id", user.ID, "email", user.Email)
	respondJSON(w, http.StatusOK, newUserResponse(user))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.ClearJWTCookie(w)
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// VerifyEmail consumes a verification link. The token is single use: a second
// click gets the generic invalid-or-expired answer unless the caller already
// holds a verified session, in which case it is a harmless no-op.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, http.StatusBadRequest, "Missing verification token")
		return
	}

	user, err := h.verificationService.ConsumeToken(token)
	if err != nil {
		if sessionUser := ctxkeys.User(r.Context()); sessionUser != nil && sessionUser.IsVerified() {
			respondJSON(w, http.StatusOK, map[string]string{"status": "already_verified"})
			return
		}
		slog.Warn("email verification failed", "error", err)
		respondError(w, http.StatusBadRequest, "Verification link is invalid or expired")
		return
	}

	jwtToken, err := h.authService.GenerateJWT(user)
	if err != nil {
		slog.Error("failed to generate JWT after verification", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "An error occurred. Please try again.")
		return
	}

	h.authService.SetJWTCookie(w, jwtToken, time.Now().Add(h.authService.JWTExpiry()))

	slog.Info("email verified", "user_id", user.ID, "email", user.Email)
	respondJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

// ResendVerification issues a fresh link for the logged-in account. Issuing a
// new token invalidates any previous one.
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.verificationService.SendVerification(user)
	if err != nil {
		if errors.Is(err, service.ErrAlreadyVerified) {
			respondError(w, http.StatusConflict, "Email is already verified")
			return
		}
		slog.Error("failed to resend verification", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "Failed to send verification email")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// GoogleAuth redirects to the Google OAuth consent screen
func (h *AuthHandler) GoogleAuth(w http.ResponseWriter, r *http.Request) {
	state := generateOAuthState()

	cfg := ctxkeys.Config(r.Context())
	isProduction := cfg != nil && cfg.IsProduction()

	// Store state in secure cookie for CSRF protection
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600, // 10 minutes
	})

	url := h.googleOAuthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// GoogleCallback handles the OAuth callback from Google
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie("oauth_state")
	if err != nil || cookie.Value != state || state == "" {
		slog.Warn("google oauth state validation failed", "error", err)
		respondError(w, http.StatusBadRequest, "OAuth authentication failed. Please try again.")
		return
	}

	// Clear state cookie
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		slog.Warn("google oauth callback missing code")
		respondError(w, http.StatusBadRequest, "OAuth authentication failed. Please try again.")
		return
	}

	token, err := h.googleOAuthConfig.Exchange(context.Background(), code)
	if err != nil {
		slog.Error("google oauth token exchange failed", "error", err)
		respondError(w, http.StatusBadRequest, "OAuth authentication failed. Please try again.")
		return
	}

	client := h.googleOAuthConfig.Client(context.Background(), token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		slog.Error("failed to get google user info", "error", err)
		respondError(w, http.StatusBadGateway, "OAuth authentication failed. Please try again.")
		return
	}
	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close response body", "error", closeErr)
		}
	}()

	var userInfo struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	err = json.NewDecoder(resp.Body).Decode(&userInfo)
	if err != nil {
		slog.Error("failed to decode google user info", "error", err)
		respondError(w, http.StatusBadGateway, "OAuth authentication failed. Please try again.")
		return
	}

	user, err := h.authService.UpsertOAuthUser(userInfo.Email, userInfo.Name)
	if err != nil {
		slog.Error("oauth authentication failed", "error", err, "email", userInfo.Email)
		respondError(w, http.StatusInternalServerError, "Authentication failed. Please try again.")
		return
	}

	jwtToken, err := h.authService.GenerateJWT(user)
	if err != nil {
		slog.Error("failed to generate JWT", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "An error occurred. Please try again.")
		return
	}

	h.authService.SetJWTCookie(w, jwtToken, time.Now().Add(h.authService.JWTExpiry()))

	slog.Info("user logged in with google oauth", "user_id", user.ID, "email", user.Email)
	http.Redirect(w, r, h.appURL+"/dashboard", http.StatusSeeOther)
}

func generateOAuthState() string {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		panic("failed to generate oauth state: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
