/**
 * @description
 * This file implements the daily streak state machine. The transition runs at
 * most once per account per calendar day, enforced by the ledger's day marker
 * guard rather than by comparing stored dates, so concurrent same-day
 * invocations collapse to exactly one evaluation.
 *
 * The transition itself: if the account completed a qualifying action yesterday
 * the streak extends by one and bonus credits may fire (weekly and long-streak
 * bonuses stack on the same transition); otherwise the streak resets to zero.
 * lastStreakDate is always advanced to today. The states are just
 * (currentStreak >= 0); there is no terminal state.
 */

package app

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/RajSoni19/EcoStreak-project-sub000/internal/domain"
)

// EvaluateDailyStreak runs the daily streak transition for an account. Callers
// that lose the day guard get the account's current state back with
// Evaluated=false and must treat the call as a no-op.
func (s *Service) EvaluateDailyStreak(ctx context.Context, accountID uuid.UUID) (*domain.StreakEvaluation, error) {
	today := domain.DayOf(s.now())

	account, err := s.repo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	// Gather every fallible input before touching the day marker, so a
	// transient collaborator failure leaves the day unclaimed and a retry can
	// still run today's evaluation.
	yesterday := today.AddDate(0, 0, -1)
	completed := false
	if s.habits != nil {
		completed, err = s.habits.CompletedOn(ctx, accountID, yesterday)
		if err != nil {
			return nil, fmt.Errorf("failed to query qualifying actions: %w", err)
		}
	}

	first, err := s.TryOncePerDay(ctx, accountID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to claim streak day: %w", err)
	}
	if !first {
		// Another caller already evaluated today; re-read and report the state
		// it committed.
		current, err := s.repo.FindAccountByID(ctx, accountID)
		if err != nil {
			return nil, err
		}
		return &domain.StreakEvaluation{
			AccountID:      accountID,
			CurrentStreak:  current.CurrentStreak,
			LongestStreak:  current.LongestStreak,
			LastStreakDate: current.LastStreakDate,
			Evaluated:      false,
		}, nil
	}

	currentStreak := 0
	longestStreak := account.LongestStreak
	extended := false
	if completed {
		currentStreak = account.CurrentStreak + 1
		if currentStreak > longestStreak {
			longestStreak = currentStreak
		}
		extended = true
	}

	if err := s.repo.UpdateStreakState(ctx, accountID, currentStreak, longestStreak, today); err != nil {
		return nil, fmt.Errorf("failed to persist streak state: %w", err)
	}

	var bonusAwarded int64
	if extended {
		// Both bonuses can fire on the same transition, e.g. at streak 21.
		// A bonus configured to zero is disabled, not a zero-amount credit.
		if currentStreak%7 == 0 && s.weeklyStreakBonusPoints > 0 {
			if _, err := s.CreditPoints(ctx, accountID, s.weeklyStreakBonusPoints, "weekly-streak-bonus"); err != nil {
				return nil, fmt.Errorf("failed to credit weekly streak bonus: %w", err)
			}
			bonusAwarded += s.weeklyStreakBonusPoints
		}
		if currentStreak >= s.longStreakThresholdDays && s.longStreakBonusPoints > 0 {
			if _, err := s.CreditPoints(ctx, accountID, s.longStreakBonusPoints, "long-streak-bonus"); err != nil {
				return nil, fmt.Errorf("failed to credit long streak bonus: %w", err)
			}
			bonusAwarded += s.longStreakBonusPoints
		}
		s.publishStreakExtended(ctx, accountID, currentStreak, longestStreak, bonusAwarded)
	}

	return &domain.StreakEvaluation{
		AccountID:      accountID,
		CurrentStreak:  currentStreak,
		LongestStreak:  longestStreak,
		LastStreakDate: &today,
		Extended:       extended,
		BonusAwarded:   bonusAwarded,
		Evaluated:      true,
	}, nil
}

func (s *Service) publishStreakExtended(ctx context.Context, accountID uuid.UUID, currentStreak, longestStreak int, bonusAwarded int64) {
	if s.eventProducer == nil {
		return
	}
	payload := domain.StreakExtendedPayload{
		AccountID:     accountID,
		CurrentStreak: currentStreak,
		LongestStreak: longestStreak,
		BonusAwarded:  bonusAwarded,
		Timestamp:     s.now(),
	}
	if err := s.eventProducer.Publish(ctx, "ecostreak.events", "streak.extended", payload); err != nil {
		log.Printf("level=warn component=streak msg=\"streak extended event publish failed\" account_id=%s err=%v", accountID, err)
	}
}
