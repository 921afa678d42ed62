package app

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/RajSoni19/EcoStreak-project-sub000/internal/domain"
)

// ProvisionAccount creates a zero-balance ledger account. Re-provisioning an
// existing account is treated as a no-op so member sign-up retries are safe.
func (s *Service) ProvisionAccount(ctx context.Context, account *domain.Account) error {
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	account.Balance = 0
	account.PointsGiven = 0
	account.CurrentStreak = 0
	account.LongestStreak = 0
	account.Active = true

	if err := s.repo.CreateAccount(ctx, account); err != nil {
		return err
	}

	log.Printf("level=info component=account msg=\"account provisioned\" account_id=%s", account.ID)
	return nil
}

// SetAccountActive flips the account's active flag. A deactivated account
// keeps its balance and streak state but rejects every point movement until
// reactivated.
func (s *Service) SetAccountActive(ctx context.Context, accountID uuid.UUID, active bool) error {
	return s.repo.SetAccountActive(ctx, accountID, active)
}
