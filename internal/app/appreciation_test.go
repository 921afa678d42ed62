package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/RajSoni19/EcoStreak-project-sub000/internal/domain"
	"github.com/RajSoni19/EcoStreak-project-sub000/internal/store"
)

func seedPost(t *testing.T, repo *store.MemoryRepository, authorID uuid.UUID) uuid.UUID {
	t.Helper()
	post := &domain.Post{ID: uuid.New(), AuthorAccountID: authorID}
	if err := repo.CreatePost(context.Background(), post); err != nil {
		t.Fatalf("failed to seed post: %v", err)
	}
	return post.ID
}

func TestAppreciate_TransfersPointsAndRecords(t *testing.T) {
	repo := store.NewMemoryRepository()
	svc := newTestService(repo, &fakeHabitSource{})
	giverID := seedAccount(t, repo, 50, 0, 0)
	authorID := seedAccount(t, repo, 0, 0, 0)
	postID := seedPost(t, repo, authorID)

	record, err := svc.Appreciate(context.Background(), giverID, domain.AppreciateRequest{PostID: postID, Points: 30})
	if err != nil {
		t.Fatalf("Appreciate returned error: %v", err)
	}
	if record.Points != 30 {
		t.Fatalf("expected record of 30 points, got %d", record.Points)
	}

	giver, _ := svc.GetAccount(context.Background(), giverID)
	author, _ := svc.GetAccount(context.Background(), authorID)
	if giver.Balance != 20 {
		t.Fatalf("expected giver balance 20, got %d", giver.Balance)
	}
	if giver.PointsGiven != 30 {
		t.Fatalf("expected giver pointsGiven 30, got %d", giver.PointsGiven)
	}
	if author.Balance != 30 {
		t.Fatalf("expected author balance 30, got %d", author.Balance)
	}

	records, total, err := svc.PostAppreciations(context.Background(), postID)
	if err != nil {
		t.Fatalf("PostAppreciations returned error: %v", err)
	}
	if len(records) != 1 || total != 30 {
		t.Fatalf("expected 1 record totalling 30, got %d records totalling %d", len(records), total)
	}
}

func TestAppreciate_DuplicateRejectedWithoutSideEffects(t *testing.T) {
	repo := store.NewMemoryRepository()
	svc := newTestService(repo, &fakeHabitSource{})
	giverID := seedAccount(t, repo, 50, 0, 0)
	authorID := seedAccount(t, repo, 0, 0, 0)
	postID := seedPost(t, repo, authorID)

	if _, err := svc.Appreciate(context.Background(), giverID, domain.AppreciateRequest{PostID: postID, Points: 10}); err != nil {
		t.Fatalf("first appreciation returned error: %v", err)
	}
	if _, err := svc.Appreciate(context.Background(), giverID, domain.AppreciateRequest{PostID: postID, Points: 10}); !errors.Is(err, store.ErrDuplicateAppreciation) {
		t.Fatalf("expected ErrDuplicateAppreciation, got %v", err)
	}

	giver, _ := svc.GetAccount(context.Background(), giverID)
	author, _ := svc.GetAccount(context.Background(), authorID)
	if giver.Balance != 40 || author.Balance != 10 {
		t.Fatalf("expected balances 40/10 after one transfer, got %d/%d", giver.Balance, author.Balance)
	}

	_, total, _ := svc.PostAppreciations(context.Background(), postID)
	if total != 10 {
		t.Fatalf("expected post total 10 after duplicate rejection, got %d", total)
	}
}

func TestAppreciate_SelfAppreciationRejected(t *testing.T) {
	repo := store.NewMemoryRepository()
	svc := newTestService(repo, &fakeHabitSource{})
	authorID := seedAccount(t, repo, 50, 0, 0)
	postID := seedPost(t, repo, authorID)

	if _, err := svc.Appreciate(context.Background(), authorID, domain.AppreciateRequest{PostID: postID, Points: 10}); !errors.Is(err, store.ErrSelfAppreciation) {
		t.Fatalf("expected ErrSelfAppreciation, got %v", err)
	}
}

func TestAppreciate_PointsOutOfRangeRejected(t *testing.T) {
	repo := store.NewMemoryRepository()
	svc := newTestService(repo, &fakeHabitSource{})
	giverID := seedAccount(t, repo, 500, 0, 0)
	authorID := seedAccount(t, repo, 0, 0, 0)
	postID := seedPost(t, repo, authorID)

	for _, points := range []int64{0, -1, 101} {
		if _, err := svc.Appreciate(context.Background(), giverID, domain.AppreciateRequest{PostID: postID, Points: points}); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount for %d points, got %v", points, err)
		}
	}
}

func TestAppreciate_InsufficientBalanceLeavesNoRecord(t *testing.T) {
	repo := store.NewMemoryRepository()
	svc := newTestService(repo, &fakeHabitSource{})
	giverID := seedAccount(t, repo, 40, 0, 0)
	authorID := seedAccount(t, repo, 0, 0, 0)
	postID := seedPost(t, repo, authorID)

	if _, err := svc.Appreciate(context.Background(), giverID, domain.AppreciateRequest{PostID: postID, Points: 100}); !errors.Is(err, store.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	records, total, _ := svc.PostAppreciations(context.Background(), postID)
	if len(records) != 0 || total != 0 {
		t.Fatalf("expected no records after failed appreciation, got %d records totalling %d", len(records), total)
	}

	// A later attempt by the same giver is still allowed.
	if _, err := svc.Appreciate(context.Background(), giverID, domain.AppreciateRequest{PostID: postID, Points: 40}); err != nil {
		t.Fatalf("retry after insufficient balance returned error: %v", err)
	}
}

type fixedRateLimiter struct {
	allowed bool
	err     error
}

func (f *fixedRateLimiter) AllowAttempt(ctx context.Context, scope, subject string, limit int, window time.Duration) (bool, int, error) {
	return f.allowed, 60, f.err
}

func TestAppreciate_RateLimited(t *testing.T) {
	repo := store.NewMemoryRepository()
	svc := newTestService(repo, &fakeHabitSource{})
	svc.ConfigureAppreciationHardening(5)
	svc.SetRateLimiter(&fixedRateLimiter{allowed: false})
	giverID := seedAccount(t, repo, 50, 0, 0)
	authorID := seedAccount(t, repo, 0, 0, 0)
	postID := seedPost(t, repo, authorID)

	if _, err := svc.Appreciate(context.Background(), giverID, domain.AppreciateRequest{PostID: postID, Points: 10}); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestAppreciate_RateLimiterOutageFailsOpen(t *testing.T) {
	repo := store.NewMemoryRepository()
	svc := newTestService(repo, &fakeHabitSource{})
	svc.ConfigureAppreciationHardening(5)
	svc.SetRateLimiter(&fixedRateLimiter{err: errors.New("redis down")})
	giverID := seedAccount(t, repo, 50, 0, 0)
	authorID := seedAccount(t, repo, 0, 0, 0)
	postID := seedPost(t, repo, authorID)

	if _, err := svc.Appreciate(context.Background(), giverID, domain.AppreciateRequest{PostID: postID, Points: 10}); err != nil {
		t.Fatalf("expected appreciation to succeed when limiter is down, got %v", err)
	}
}
