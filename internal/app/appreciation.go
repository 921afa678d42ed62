/**
 * @description
 * This file implements peer appreciation: a one-time point gift from one
 * account to a post's author. The precondition checks that matter under
 * concurrency (duplicate record, sufficient balance, self-appreciation against
 * the post's current author) are re-verified inside the repository's atomic
 * commit unit; the checks here only short-circuit the obvious failures before
 * any work is done.
 */

package app

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/RajSoni19/EcoStreak-project-sub000/internal/domain"
	"github.com/RajSoni19/EcoStreak-project-sub000/internal/store"
)

// Appreciate gifts points from an account to the author of a post. The point
// transfer, the giver's pointsGiven increment, the record append, and the post
// total recompute commit as one unit: either all happen or none do.
func (s *Service) Appreciate(ctx context.Context, fromAccountID uuid.UUID, req domain.AppreciateRequest) (*domain.AppreciationRecord, error) {
	if req.Points < 1 || req.Points > s.appreciationMaxPoints {
		return nil, ErrInvalidAmount
	}

	if err := s.consumeAppreciationRateLimit(ctx, fromAccountID); err != nil {
		return nil, err
	}

	post, err := s.repo.FindPostByID(ctx, req.PostID)
	if err != nil {
		return nil, err
	}
	if post.AuthorAccountID == fromAccountID {
		return nil, store.ErrSelfAppreciation
	}

	record, err := s.repo.AppreciatePostAtomic(ctx, store.AppreciationParams{
		FromAccountID:   fromAccountID,
		AuthorAccountID: post.AuthorAccountID,
		PostID:          req.PostID,
		Points:          req.Points,
		Message:         req.Message,
	})
	if err != nil {
		return nil, err
	}

	s.publishAppreciationCreated(ctx, record, post.AuthorAccountID)
	return record, nil
}

// PostAppreciations returns a post's appreciation records in insertion order
// together with the derived total, which always equals the sum of the records.
func (s *Service) PostAppreciations(ctx context.Context, postID uuid.UUID) ([]domain.AppreciationRecord, int64, error) {
	post, err := s.repo.FindPostByID(ctx, postID)
	if err != nil {
		return nil, 0, err
	}
	records, err := s.repo.ListAppreciationsForPost(ctx, postID)
	if err != nil {
		return nil, 0, err
	}
	return records, post.TotalAppreciationPoints, nil
}

func (s *Service) consumeAppreciationRateLimit(ctx context.Context, fromAccountID uuid.UUID) error {
	if s.rateLimiter == nil || s.appreciationRateLimitPerMinute <= 0 {
		return nil
	}
	allowed, _, err := s.rateLimiter.AllowAttempt(ctx, "appreciate", fromAccountID.String(), s.appreciationRateLimitPerMinute, time.Minute)
	if err != nil {
		// Fail open: a limiter outage must not block appreciations.
		log.Printf("level=warn component=appreciation msg=\"rate limiter unavailable\" account_id=%s err=%v", fromAccountID, err)
		return nil
	}
	if !allowed {
		return ErrRateLimited
	}
	return nil
}

func (s *Service) publishAppreciationCreated(ctx context.Context, record *domain.AppreciationRecord, authorAccountID uuid.UUID) {
	if s.eventProducer == nil {
		return
	}
	payload := domain.AppreciationCreatedPayload{
		FromAccountID:   record.FromAccountID,
		AuthorAccountID: authorAccountID,
		PostID:          record.PostID,
		Points:          record.Points,
		Timestamp:       s.now(),
	}
	if err := s.eventProducer.Publish(ctx, "ecostreak.events", "points.appreciated", payload); err != nil {
		log.Printf("level=warn component=appreciation msg=\"appreciation event publish failed\" post_id=%s err=%v", record.PostID, err)
	}
}
