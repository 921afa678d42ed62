package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/RajSoni19/EcoStreak-project-sub000/internal/domain"
)

func seedMemoryAccount(t *testing.T, repo *MemoryRepository, balance int64) uuid.UUID {
	t.Helper()
	account := &domain.Account{ID: uuid.New(), Balance: balance, Active: true}
	if err := repo.CreateAccount(context.Background(), account); err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}
	return account.ID
}

func TestConcurrentDebits_NeverOverdraw(t *testing.T) {
	repo := NewMemoryRepository()
	accountID := seedMemoryAccount(t, repo, 100)

	const workers = 20
	successes := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.DebitAccountIfSufficient(context.Background(), accountID, 10)
			if err == nil {
				successes <- struct{}{}
				return
			}
			if !errors.Is(err, ErrInsufficientFunds) {
				t.Errorf("unexpected debit error: %v", err)
			}
		}()
	}
	wg.Wait()
	close(successes)

	succeeded := 0
	for range successes {
		succeeded++
	}
	if succeeded != 10 {
		t.Fatalf("expected exactly 10 debits of 10 against a balance of 100, got %d", succeeded)
	}

	account, err := repo.FindAccountByID(context.Background(), accountID)
	if err != nil {
		t.Fatalf("FindAccountByID returned error: %v", err)
	}
	if account.Balance != 0 {
		t.Fatalf("expected final balance 0, got %d", account.Balance)
	}
}

func TestConcurrentCreditsAndDebits_ConserveTotal(t *testing.T) {
	repo := NewMemoryRepository()
	accountID := seedMemoryAccount(t, repo, 1000)

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.CreditAccount(context.Background(), accountID, 7); err != nil {
				t.Errorf("credit failed: %v", err)
			}
			if _, err := repo.DebitAccountIfSufficient(context.Background(), accountID, 7); err != nil {
				t.Errorf("debit failed: %v", err)
			}
		}()
	}
	wg.Wait()

	account, _ := repo.FindAccountByID(context.Background(), accountID)
	if account.Balance != 1000 {
		t.Fatalf("expected paired credits and debits to conserve balance 1000, got %d", account.Balance)
	}
}

func TestClaimStreakDay_SingleWinnerUnderConcurrency(t *testing.T) {
	repo := NewMemoryRepository()
	accountID := seedMemoryAccount(t, repo, 0)
	day := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	const workers = 25
	wins := make(chan bool, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := repo.ClaimStreakDay(context.Background(), accountID, day)
			if err != nil {
				t.Errorf("ClaimStreakDay returned error: %v", err)
				return
			}
			wins <- won
		}()
	}
	wg.Wait()
	close(wins)

	winners := 0
	for won := range wins {
		if won {
			winners++
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one day-claim winner, got %d", winners)
	}

	// A different day is a fresh claim.
	won, err := repo.ClaimStreakDay(context.Background(), accountID, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("next-day claim returned error: %v", err)
	}
	if !won {
		t.Fatal("expected next-day claim to win")
	}
}

func TestClaimStreakDay_UnknownAccount(t *testing.T) {
	repo := NewMemoryRepository()
	if _, err := repo.ClaimStreakDay(context.Background(), uuid.New(), time.Now()); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAppreciatePostAtomic_SingleSuccessUnderConcurrency(t *testing.T) {
	repo := NewMemoryRepository()
	giverID := seedMemoryAccount(t, repo, 100)
	authorID := seedMemoryAccount(t, repo, 0)
	post := &domain.Post{ID: uuid.New(), AuthorAccountID: authorID}
	if err := repo.CreatePost(context.Background(), post); err != nil {
		t.Fatalf("failed to seed post: %v", err)
	}

	const workers = 10
	successes := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.AppreciatePostAtomic(context.Background(), AppreciationParams{
				FromAccountID:   giverID,
				AuthorAccountID: authorID,
				PostID:          post.ID,
				Points:          10,
			})
			if err == nil {
				successes <- struct{}{}
				return
			}
			if !errors.Is(err, ErrDuplicateAppreciation) {
				t.Errorf("unexpected appreciation error: %v", err)
			}
		}()
	}
	wg.Wait()
	close(successes)

	succeeded := 0
	for range successes {
		succeeded++
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one appreciation to commit, got %d", succeeded)
	}

	giver, _ := repo.FindAccountByID(context.Background(), giverID)
	author, _ := repo.FindAccountByID(context.Background(), authorID)
	if giver.Balance != 90 || author.Balance != 10 {
		t.Fatalf("expected one 10-point transfer, balances %d/%d", giver.Balance, author.Balance)
	}
	if giver.PointsGiven != 10 {
		t.Fatalf("expected pointsGiven 10, got %d", giver.PointsGiven)
	}
}

func TestAppreciatePostAtomic_TotalMatchesRecordSum(t *testing.T) {
	repo := NewMemoryRepository()
	authorID := seedMemoryAccount(t, repo, 0)
	post := &domain.Post{ID: uuid.New(), AuthorAccountID: authorID}
	if err := repo.CreatePost(context.Background(), post); err != nil {
		t.Fatalf("failed to seed post: %v", err)
	}

	const givers = 12
	var wg sync.WaitGroup
	for i := 0; i < givers; i++ {
		giverID := seedMemoryAccount(t, repo, 50)
		points := int64(i + 1)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.AppreciatePostAtomic(context.Background(), AppreciationParams{
				FromAccountID:   giverID,
				AuthorAccountID: authorID,
				PostID:          post.ID,
				Points:          points,
			}); err != nil {
				t.Errorf("appreciation failed: %v", err)
			}
		}()
	}
	wg.Wait()

	records, err := repo.ListAppreciationsForPost(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("ListAppreciationsForPost returned error: %v", err)
	}
	var sum int64
	for _, record := range records {
		sum += record.Points
	}

	stored, err := repo.FindPostByID(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("FindPostByID returned error: %v", err)
	}
	if stored.TotalAppreciationPoints != sum {
		t.Fatalf("expected post total %d to equal record sum, got %d", sum, stored.TotalAppreciationPoints)
	}

	author, _ := repo.FindAccountByID(context.Background(), authorID)
	if author.Balance != sum {
		t.Fatalf("expected author balance %d, got %d", sum, author.Balance)
	}
}

func TestAppreciatePostAtomic_InactiveAccountRejected(t *testing.T) {
	repo := NewMemoryRepository()
	giverID := seedMemoryAccount(t, repo, 100)
	authorID := seedMemoryAccount(t, repo, 0)
	post := &domain.Post{ID: uuid.New(), AuthorAccountID: authorID}
	if err := repo.CreatePost(context.Background(), post); err != nil {
		t.Fatalf("failed to seed post: %v", err)
	}
	if err := repo.SetAccountActive(context.Background(), authorID, false); err != nil {
		t.Fatalf("SetAccountActive returned error: %v", err)
	}

	_, err := repo.AppreciatePostAtomic(context.Background(), AppreciationParams{
		FromAccountID:   giverID,
		AuthorAccountID: authorID,
		PostID:          post.ID,
		Points:          10,
	})
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound for a deactivated author, got %v", err)
	}

	giver, _ := repo.FindAccountByID(context.Background(), giverID)
	if giver.Balance != 100 {
		t.Fatalf("expected giver balance untouched at 100, got %d", giver.Balance)
	}
}

func TestReserveAwardBatch_SingleWinner(t *testing.T) {
	repo := NewMemoryRepository()
	key := "batch-key"

	won, err := repo.ReserveAwardBatch(context.Background(), key)
	if err != nil {
		t.Fatalf("first reservation returned error: %v", err)
	}
	if !won {
		t.Fatal("expected the first reservation to win")
	}

	won, err = repo.ReserveAwardBatch(context.Background(), key)
	if err != nil {
		t.Fatalf("second reservation returned error: %v", err)
	}
	if won {
		t.Fatal("expected the second reservation to lose")
	}

	// A reserved key with no stored result reports the batch as in flight.
	if _, err := repo.FindAwardBatchByKey(context.Background(), key); !errors.Is(err, ErrConcurrentConflict) {
		t.Fatalf("expected ErrConcurrentConflict for an in-flight reservation, got %v", err)
	}
}

func TestSaveAwardBatchResult_FirstWriterWins(t *testing.T) {
	repo := NewMemoryRepository()
	key := "batch-key"

	first := &domain.BatchResult{BatchID: uuid.New(), PointsPerAccount: 10}
	second := &domain.BatchResult{BatchID: uuid.New(), PointsPerAccount: 99}

	if won, err := repo.ReserveAwardBatch(context.Background(), key); err != nil || !won {
		t.Fatalf("reservation failed: won=%v err=%v", won, err)
	}
	if err := repo.SaveAwardBatchResult(context.Background(), key, first); err != nil {
		t.Fatalf("first save returned error: %v", err)
	}
	if err := repo.SaveAwardBatchResult(context.Background(), key, second); err != nil {
		t.Fatalf("second save returned error: %v", err)
	}

	stored, err := repo.FindAwardBatchByKey(context.Background(), key)
	if err != nil {
		t.Fatalf("FindAwardBatchByKey returned error: %v", err)
	}
	if stored.BatchID != first.BatchID {
		t.Fatalf("expected first writer's result to be kept, got %s", stored.BatchID)
	}
}
