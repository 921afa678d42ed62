/**
 * @description
 * This file contains the core business logic for the points ledger engine. The
 * `Service` struct orchestrates all point movement operations, coordinating
 * between the database repository, the habit-tracking collaborator, and the
 * message broker.
 *
 * Key features:
 * - Atomic credit/debit/transfer ledger primitives (ledger.go).
 * - The daily streak state machine with bonus credits (streak.go).
 * - One-shot peer appreciation transfers tied to posts (appreciation.go).
 * - Organizer award broadcasts with per-target failure isolation (award.go).
 *
 * @dependencies
 * - context, errors, time: Standard Go libraries.
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/rabbitmq: For publishing ledger events.
 */

package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/RajSoni19/EcoStreak-project-sub000/internal/store"
	"github.com/RajSoni19/EcoStreak-project-sub000/pkg/rabbitmq"
)

var (
	ErrInvalidAmount = errors.New("amount must be positive and within range")
	ErrRateLimited   = errors.New("too many appreciation attempts; slow down")
)

// HabitSource answers "did this account complete at least one qualifying action
// on calendar day D?". It is implemented by the habit-tracking subsystem client.
type HabitSource interface {
	CompletedOn(ctx context.Context, accountID uuid.UUID, day time.Time) (bool, error)
}

// RateLimiter is the distributed rate limiting contract used to harden the
// appreciation endpoint. A denied attempt carries a retry-after hint.
type RateLimiter interface {
	AllowAttempt(ctx context.Context, scope string, subject string, limit int, window time.Duration) (allowed bool, retryAfterSeconds int, err error)
}

// Service provides the core business logic for the points ledger.
type Service struct {
	repo          store.Repository
	habits        HabitSource
	eventProducer rabbitmq.Publisher

	weeklyStreakBonusPoints int64
	longStreakBonusPoints   int64
	longStreakThresholdDays int
	appreciationMaxPoints   int64

	appreciationRateLimitPerMinute int
	rateLimiter                    RateLimiter

	now func() time.Time
}

// NewService creates a new points ledger service instance.
func NewService(
	repo store.Repository,
	habits HabitSource,
	producer rabbitmq.Publisher,
	weeklyStreakBonusPoints int64,
	longStreakBonusPoints int64,
	longStreakThresholdDays int,
	appreciationMaxPoints int64,
) *Service {
	return &Service{
		repo:                    repo,
		habits:                  habits,
		eventProducer:           producer,
		weeklyStreakBonusPoints: weeklyStreakBonusPoints,
		longStreakBonusPoints:   longStreakBonusPoints,
		longStreakThresholdDays: longStreakThresholdDays,
		appreciationMaxPoints:   appreciationMaxPoints,
		now:                     func() time.Time { return time.Now().UTC() },
	}
}

// ConfigureAppreciationHardening sets the per-account appreciation rate limit.
// A non-positive limit disables limiting.
func (s *Service) ConfigureAppreciationHardening(ratePerMinute int) {
	s.appreciationRateLimitPerMinute = ratePerMinute
}

// SetRateLimiter installs the distributed rate limiter backend.
func (s *Service) SetRateLimiter(limiter RateLimiter) {
	s.rateLimiter = limiter
}
