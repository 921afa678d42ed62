/**
 * @description
 * This file implements organizer award broadcasts: crediting the same number of
 * points to a list of pre-validated target accounts. Each target is processed
 * by its own goroutine with its own result slot, so one failed target never
 * blocks or aborts the others; the per-slot outcomes are joined into a single
 * BatchResult. An optional idempotency key makes client retries safe: the key
 * is reserved in storage before any credit runs, so only the reservation winner
 * executes the batch and every other submission under the same key gets the
 * stored result (or ErrConcurrentConflict while the winner is still running).
 */

package app

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/RajSoni19/EcoStreak-project-sub000/internal/domain"
	"github.com/RajSoni19/EcoStreak-project-sub000/internal/store"
)

type awardOutcome struct {
	newBalance int64
	err        error
}

// AwardPointsBatch credits PointsPerAccount to every target account
// independently and reports per-target outcomes.
func (s *Service) AwardPointsBatch(ctx context.Context, organizerID uuid.UUID, req domain.AwardBatchRequest) (*domain.BatchResult, error) {
	if req.PointsPerAccount <= 0 {
		return nil, ErrInvalidAmount
	}

	idempotencyKey := ""
	if req.IdempotencyKey != nil {
		idempotencyKey = strings.TrimSpace(*req.IdempotencyKey)
	}
	if idempotencyKey != "" {
		// Reserve the key before crediting anyone. Two concurrent first-time
		// submissions race on the reservation, not on a read, so exactly one
		// of them executes the batch.
		won, err := s.repo.ReserveAwardBatch(ctx, idempotencyKey)
		if err != nil {
			return nil, err
		}
		if !won {
			prior, err := s.repo.FindAwardBatchByKey(ctx, idempotencyKey)
			if err != nil {
				if errors.Is(err, store.ErrAwardBatchNotFound) {
					return nil, store.ErrConcurrentConflict
				}
				return nil, err
			}
			return prior, nil
		}
	}

	// One goroutine per target, one result slot per target. The slots are the
	// only shared memory, and each goroutine writes exactly one of them.
	outcomes := make([]awardOutcome, len(req.TargetAccountIDs))
	var wg sync.WaitGroup
	for i, targetID := range req.TargetAccountIDs {
		wg.Add(1)
		go func(slot int, target uuid.UUID) {
			defer wg.Done()
			newBalance, err := s.repo.CreditAccount(ctx, target, req.PointsPerAccount)
			outcomes[slot] = awardOutcome{newBalance: newBalance, err: err}
		}(i, targetID)
	}
	wg.Wait()

	result := &domain.BatchResult{
		BatchID:          uuid.New(),
		OrganizerID:      organizerID,
		PointsPerAccount: req.PointsPerAccount,
		Reason:           req.Reason,
		Credited:         make([]uuid.UUID, 0, len(req.TargetAccountIDs)),
		Failures:         make([]domain.AwardFailure, 0),
		CreatedAt:        s.now(),
	}
	for i, targetID := range req.TargetAccountIDs {
		if outcomes[i].err != nil {
			result.Failures = append(result.Failures, domain.AwardFailure{
				AccountID: targetID,
				Error:     outcomes[i].err.Error(),
			})
			continue
		}
		result.Credited = append(result.Credited, targetID)
		s.publishPointsCredited(ctx, targetID, req.PointsPerAccount, req.Reason, outcomes[i].newBalance)
	}

	if idempotencyKey != "" {
		if err := s.repo.SaveAwardBatchResult(ctx, idempotencyKey, result); err != nil {
			// The credits are committed; losing the stored result only weakens
			// retry protection for this key.
			log.Printf("level=error component=award msg=\"CRITICAL: failed to persist award batch result\" idempotency_key=%s batch_id=%s err=%v", idempotencyKey, result.BatchID, err)
		}
	}

	return result, nil
}
