package service

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clipforge/clipforge/internal/model"
	"github.com/clipforge/clipforge/internal/repository"
	"github.com/clipforge/clipforge/internal/validation"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrInvalidEmail       = errors.New("invalid email address")
)

type AuthService struct {
	users         repository.UserRepository
	verification  *VerificationService
	jwtSecret     string
	isProduction  bool
	jwtExpiry     time.Duration
	signupCredits int
}

func NewAuthService(
	users repository.UserRepository,
	verification *VerificationService,
	jwtSecret string,
	isProduction bool,
	jwtExpiry time.Duration,
	signupCredits int,
) *AuthService {
	return &AuthService{
		users:         users,
		verification:  verification,
		jwtSecret:     jwtSecret,
		isProduction:  isProduction,
		jwtExpiry:     jwtExpiry,
		signupCredits: signupCredits,
	}
}

// Signup creates an unverified account with the starting credit balance and
// sends the verification email. A failed email send does not roll anything
// back; the account stays pending and can request a resend.
func (s *AuthService) Signup(email, password, name string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, ErrInvalidEmail
	}

	err = validation.ValidatePassword(password)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hashStr := string(hash)

	user := &model.User{
		ID:                uuid.New().String(),
		Email:             email,
		PasswordHash:      &hashStr,
		VerificationState: model.VerificationStateUnverified,
		Credits:           s.signupCredits,
		CreatedAt:         time.Now(),
	}
	if name != "" {
		user.Name = &name
	}

	err = s.users.Create(user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user signed up", "user_id", user.ID, "email", email)

	err = s.verification.SendVerification(user)
	if err != nil {
		slog.Warn("failed to start verification on signup", "error", err, "user_id", user.ID)
	}

	return user, nil
}

func (s *AuthService) Login(email, password string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.ByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.HasPassword() {
		return nil, fmt.Errorf("this account uses Google sign-in: %w", ErrInvalidCredentials)
	}

	err = bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.EmailVerified() {
		return nil, ErrEmailNotVerified
	}

	return user, nil
}

// UpsertOAuthUser logs in or creates an account from a Google profile. The
// identity provider vouches for the address, so new accounts arrive verified
// and an existing pending account is promoted.
func (s *AuthService) UpsertOAuthUser(email, name string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, ErrInvalidEmail
	}

	user, err := s.users.ByEmail(email)
	if err == nil {
		if !user.IsVerified() {
			err = s.users.MarkVerified(user.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to mark user verified: %w", err)
			}
			user.VerificationState = model.VerificationStateVerified
			user.VerifyToken = nil
			user.VerifyTokenExpiresAt = nil
			slog.Info("account verified via oauth", "user_id", user.ID)
		}
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user = &model.User{
		ID:                uuid.New().String(),
		Email:             email,
		VerificationState: model.VerificationStateVerified,
		Credits:           s.signupCredits,
		CreatedAt:         time.Now(),
		// password_hash stays NULL for OAuth accounts
	}
	if name != "" {
		user.Name = &name
	}

	err = s.users.Create(user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new oauth user created", "user_id", user.ID, "email", email)
	return user, nil
}

func (s *AuthService) GenerateJWT(user *model.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     time.Now().Add(s.jwtExpiry).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func (s *AuthService) VerifyJWT(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

func (s *AuthService) JWTExpiry() time.Duration {
	return s.jwtExpiry
}

func (s *AuthService) SetJWTCookie(w http.ResponseWriter, token string, expiry time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		Expires:  expiry,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *AuthService) ClearJWTCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    "",
		Expires:  time.Unix(0, 0),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}
