package service

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/clipforge/clipforge/internal/repository"
)

var (
	ErrInvalidCreditAmount = errors.New("credit amount must be positive")
)

// CreditService is the account ledger. Every balance change in the system
// goes through Grant or Deduct; nothing else writes the credits column.
type CreditService struct {
	credits repository.CreditRepository
}

func NewCreditService(credits repository.CreditRepository) *CreditService {
	return &CreditService{credits: credits}
}

func (s *CreditService) Grant(userID string, amount int) error {
	if amount <= 0 {
		return ErrInvalidCreditAmount
	}

	err := s.credits.Grant(userID, amount)
	if err != nil {
		return fmt.Errorf("failed to grant credits: %w", err)
	}

	slog.Info("credits granted", "user_id", userID, "amount", amount)
	return nil
}

// Deduct removes amount from the balance or fails with
// repository.ErrInsufficientCredits, leaving the balance unchanged. There is
// no partial deduction.
func (s *CreditService) Deduct(userID string, amount int) error {
	if amount <= 0 {
		return ErrInvalidCreditAmount
	}

	err := s.credits.Deduct(userID, amount)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientCredits) {
			slog.Info("credit deduction refused", "user_id", userID, "amount", amount)
			return err
		}
		return fmt.Errorf("failed to deduct credits: %w", err)
	}

	slog.Info("credits deducted", "user_id", userID, "amount", amount)
	return nil
}

func (s *CreditService) Balance(userID string) (int, error) {
	credits, err := s.credits.Balance(userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}

	return credits, nil
}
