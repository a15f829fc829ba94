package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipforge/clipforge/internal/model"
	"github.com/clipforge/clipforge/internal/repository"
)

var (
	// ErrInvalidToken covers unknown, replayed and expired tokens alike so
	// callers cannot distinguish "expired" from "never existed".
	ErrInvalidToken = errors.New("verification link is invalid or expired")

	ErrAlreadyVerified = errors.New("email is already verified")
)

// VerificationService drives the per-account verification state machine:
// unverified -> pending (token issued) -> verified (token consumed).
type VerificationService struct {
	users        repository.UserRepository
	emailService *EmailService
	tokenExpiry  time.Duration
}

func NewVerificationService(users repository.UserRepository, emailService *EmailService, tokenExpiry time.Duration) *VerificationService {
	return &VerificationService{
		users:        users,
		emailService: emailService,
		tokenExpiry:  tokenExpiry,
	}
}

// generateToken returns a URL-safe token built from two independent random
// 128-bit values with the separators stripped.
func generateToken() string {
	raw := uuid.New().String() + uuid.New().String()
	return strings.ReplaceAll(raw, "-", "")
}

// IssueToken generates and persists a fresh verification token, replacing
// any outstanding one, and returns it. The account moves to pending.
func (s *VerificationService) IssueToken(userID string) (string, error) {
	token := generateToken()

	err := s.users.SetVerifyToken(userID, token, time.Now().Add(s.tokenExpiry))
	if err != nil {
		return "", fmt.Errorf("failed to store verification token: %w", err)
	}

	return token, nil
}

// SendVerification issues a token and emails the verification link. A failed
// send is logged but not returned: the account stays pending and the resend
// path remains available, so signup must not be rolled back.
func (s *VerificationService) SendVerification(user *model.User) error {
	if user.IsVerified() {
		return ErrAlreadyVerified
	}

	token, err := s.IssueToken(user.ID)
	if err != nil {
		return err
	}

	err = s.emailService.SendVerificationEmail(user.Email, token, user.DisplayName())
	if err != nil {
		slog.Warn("failed to send verification email", "error", err, "user_id", user.ID, "email", user.Email)
	}

	return nil
}

// ConsumeToken validates a token and marks the account verified. The clear
// is a single atomic statement in the store, so a token can only ever be
// consumed once; replays and unknown tokens fail identically.
func (s *VerificationService) ConsumeToken(token string) (*model.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	user, err := s.users.ConsumeVerifyToken(token)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to consume verification token: %w", err)
	}

	slog.Info("email verified", "user_id", user.ID)

	err = s.emailService.SendWelcomeEmail(user.Email, user.DisplayName())
	if err != nil {
		slog.Warn("failed to send welcome email", "error", err, "user_id", user.ID)
	}

	return user, nil
}
