package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/RajSoni19/EcoStreak-project-sub000/internal/domain"
	"github.com/RajSoni19/EcoStreak-project-sub000/internal/store"
)

// HabitEventConsumer reacts to habit completion events from the habit-tracking
// subsystem by running the daily streak evaluation for the acting account.
type HabitEventConsumer struct {
	service *Service
}

// HabitEventConsumer returns the consumer bound to this service.
func (s *Service) HabitEventConsumer() *HabitEventConsumer {
	return &HabitEventConsumer{service: s}
}

// HandleMessage processes one habit completion message. It returns true when
// the message should be acknowledged and false when it should be re-queued.
func (c *HabitEventConsumer) HandleMessage(body []byte) bool {
	var event domain.HabitCompletedPayload
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("habit-consumer: failed to unmarshal payload: %v", err)
		return true
	}

	if event.AccountID == uuid.Nil {
		log.Printf("habit-consumer: missing account id in event %+v", event)
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	evaluation, err := c.service.EvaluateDailyStreak(ctx, event.AccountID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			log.Printf("habit-consumer: no ledger account for %s; acknowledging", event.AccountID)
			return true
		}
		log.Printf("habit-consumer: streak evaluation error for %s: %v", event.AccountID, err)
		return false
	}

	if !evaluation.Evaluated {
		// Same-day duplicate; the day guard already absorbed it.
		return true
	}

	log.Printf("habit-consumer: evaluated streak for %s current=%d longest=%d bonus=%d", event.AccountID, evaluation.CurrentStreak, evaluation.LongestStreak, evaluation.BonusAwarded)
	return true
}
