/**
 * @description
 * This file implements the account ledger primitives: credit, debit, transfer,
 * and the once-per-day guard. Each single-account operation delegates to one
 * atomic conditional update in the repository. Transfers compose a debit and a
 * credit with a compensating credit on the failure path, so the two-account
 * conservation invariant holds even when the recipient vanishes mid-transfer.
 */

package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/RajSoni19/EcoStreak-project-sub000/internal/domain"
)

// CreditPoints atomically adds points to an account and returns the new balance.
func (s *Service) CreditPoints(ctx context.Context, accountID uuid.UUID, amount int64, reason string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	newBalance, err := s.repo.CreditAccount(ctx, accountID, amount)
	if err != nil {
		return 0, err
	}

	s.publishPointsCredited(ctx, accountID, amount, reason, newBalance)
	return newBalance, nil
}

// DebitPoints atomically removes points from an account. The balance check and
// the decrement are one indivisible repository step; a failed debit leaves the
// balance untouched.
func (s *Service) DebitPoints(ctx context.Context, accountID uuid.UUID, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return s.repo.DebitAccountIfSufficient(ctx, accountID, amount)
}

// TransferPoints moves points between two accounts as one unit of work: debit
// the sender, then credit the recipient. If the debit fails nothing happened.
// If the credit fails after a successful debit, the sender is credited back the
// same amount before the error is returned, keeping transfers zero-sum.
func (s *Service) TransferPoints(ctx context.Context, fromAccountID, toAccountID uuid.UUID, amount int64) (int64, int64, error) {
	if amount <= 0 || fromAccountID == toAccountID {
		return 0, 0, ErrInvalidAmount
	}

	fromBalance, err := s.repo.DebitAccountIfSufficient(ctx, fromAccountID, amount)
	if err != nil {
		return 0, 0, err
	}

	toBalance, err := s.repo.CreditAccount(ctx, toAccountID, amount)
	if err != nil {
		// Compensate: the debit already landed, so the sender must be made
		// whole before we surface the failure.
		if compBalance, compErr := s.repo.CreditAccount(ctx, fromAccountID, amount); compErr != nil {
			log.Printf("level=error component=ledger msg=\"CRITICAL: compensation credit failed after transfer failure\" from=%s to=%s amount=%d err=%v", fromAccountID, toAccountID, amount, compErr)
		} else {
			fromBalance = compBalance
		}
		return 0, 0, fmt.Errorf("failed to credit recipient: %w", err)
	}

	return fromBalance, toBalance, nil
}

// TryOncePerDay is the day-boundary guard used by the streak evaluation: the
// first caller for an account and calendar day gets true, every later caller
// (including concurrent ones) gets false.
func (s *Service) TryOncePerDay(ctx context.Context, accountID uuid.UUID, day time.Time) (bool, error) {
	return s.repo.ClaimStreakDay(ctx, accountID, day)
}

// GetAccount returns a snapshot of an account's ledger state.
func (s *Service) GetAccount(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	return s.repo.FindAccountByID(ctx, accountID)
}

func (s *Service) publishPointsCredited(ctx context.Context, accountID uuid.UUID, amount int64, reason string, newBalance int64) {
	if s.eventProducer == nil {
		return
	}
	payload := domain.PointsCreditedPayload{
		AccountID:  accountID,
		Amount:     amount,
		Reason:     reason,
		NewBalance: newBalance,
		Timestamp:  s.now(),
	}
	if err := s.eventProducer.Publish(ctx, "ecostreak.events", "points.credited", payload); err != nil {
		log.Printf("level=warn component=ledger msg=\"points credited event publish failed\" account_id=%s err=%v", accountID, err)
	}
}
