package domain

import (
	"time"

	"github.com/google/uuid"
)

// HabitCompletedPayload is the message body consumed from the habit-tracking
// subsystem when a member logs a qualifying action. It triggers the daily
// streak evaluation for that account.
type HabitCompletedPayload struct {
	AccountID   uuid.UUID `json:"account_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// PointsCreditedPayload is published after any successful credit so that
// read-side collaborators (leaderboards, dashboards) can refresh.
type PointsCreditedPayload struct {
	AccountID  uuid.UUID `json:"account_id"`
	Amount     int64     `json:"amount"`
	Reason     string    `json:"reason"`
	NewBalance int64     `json:"new_balance"`
	Timestamp  time.Time `json:"timestamp"`
}

// AppreciationCreatedPayload is published after an appreciation commits.
type AppreciationCreatedPayload struct {
	FromAccountID   uuid.UUID `json:"from_account_id"`
	AuthorAccountID uuid.UUID `json:"author_account_id"`
	PostID          uuid.UUID `json:"post_id"`
	Points          int64     `json:"points"`
	Timestamp       time.Time `json:"timestamp"`
}

// StreakExtendedPayload is published when a daily evaluation extends a streak.
type StreakExtendedPayload struct {
	AccountID     uuid.UUID `json:"account_id"`
	CurrentStreak int       `json:"current_streak"`
	LongestStreak int       `json:"longest_streak"`
	BonusAwarded  int64     `json:"bonus_awarded"`
	Timestamp     time.Time `json:"timestamp"`
}
