/**
 * @description
 * This file defines the core domain models for the points ledger engine.
 * These structs represent the main entities and data transfer objects (DTOs)
 * used throughout the engine's business logic, database interactions, and API layers.
 *
 * @notes
 * - Point amounts are stored as `int64` in whole points. Balances are never
 *   allowed to go negative; the storage layer enforces this with conditional
 *   updates rather than application-side checks.
 * - Streak days are calendar dates (UTC year/month/day), not rolling 24-hour
 *   windows. `DayOf` is the single truncation helper used everywhere so the
 *   day-boundary rule cannot drift between components.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account is a member's ledger record: point balance plus streak state.
// This struct maps directly to the `accounts` table in the database.
type Account struct {
	ID             uuid.UUID  `json:"id"`
	Balance        int64      `json:"balance"`
	PointsGiven    int64      `json:"points_given"`
	CurrentStreak  int        `json:"current_streak"`
	LongestStreak  int        `json:"longest_streak"`
	LastStreakDate *time.Time `json:"last_streak_date,omitempty"`
	Active         bool       `json:"active"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Post is the engine's read view of a community post. Posts are owned by the
// community subsystem; the engine only reads the author and maintains the
// appreciation aggregate.
type Post struct {
	ID                      uuid.UUID `json:"id"`
	AuthorAccountID         uuid.UUID `json:"author_account_id"`
	TotalAppreciationPoints int64     `json:"total_appreciation_points"`
}

// AppreciationRecord is an immutable one-time point gift from one account to a
// post's author. At most one record exists per (from_account, post) pair.
type AppreciationRecord struct {
	ID            uuid.UUID `json:"id"`
	FromAccountID uuid.UUID `json:"from_account_id"`
	PostID        uuid.UUID `json:"post_id"`
	Points        int64     `json:"points"`
	Message       *string   `json:"message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// AppreciateRequest is the DTO for incoming appreciation API requests.
type AppreciateRequest struct {
	PostID  uuid.UUID `json:"post_id"`
	Points  int64     `json:"points"`
	Message *string   `json:"message,omitempty"`
}

// AwardBatchRequest is the DTO for an organizer-initiated batch credit.
// The target list arrives pre-validated by the event/community subsystem.
type AwardBatchRequest struct {
	TargetAccountIDs []uuid.UUID `json:"target_account_ids"`
	PointsPerAccount int64       `json:"points_per_account"`
	Reason           string      `json:"reason"`
	IdempotencyKey   *string     `json:"idempotency_key,omitempty"`
}

// AwardFailure captures one failed target within a batch and the reason.
type AwardFailure struct {
	AccountID uuid.UUID `json:"account_id"`
	Error     string    `json:"error"`
}

// BatchResult summarizes per-target outcomes for an award batch. Failures are
// isolated per target; a failed target never aborts the rest of the batch.
type BatchResult struct {
	BatchID          uuid.UUID      `json:"batch_id"`
	OrganizerID      uuid.UUID      `json:"organizer_id"`
	PointsPerAccount int64          `json:"points_per_account"`
	Reason           string         `json:"reason"`
	Credited         []uuid.UUID    `json:"credited"`
	Failures         []AwardFailure `json:"failures"`
	CreatedAt        time.Time      `json:"created_at"`
}

// StreakEvaluation is the outcome of one daily streak evaluation.
// Evaluated is false when another caller already won the day marker; in that
// case the remaining fields carry the account's current, unmodified state.
type StreakEvaluation struct {
	AccountID      uuid.UUID  `json:"account_id"`
	CurrentStreak  int        `json:"current_streak"`
	LongestStreak  int        `json:"longest_streak"`
	LastStreakDate *time.Time `json:"last_streak_date,omitempty"`
	Extended       bool       `json:"extended"`
	BonusAwarded   int64      `json:"bonus_awarded"`
	Evaluated      bool       `json:"evaluated"`
}

// DayOf truncates an instant to its UTC calendar date. All day-boundary logic
// (streak transitions, once-per-day guards) goes through this helper.
func DayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
