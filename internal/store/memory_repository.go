/**
 * @description
 * This file provides an in-memory implementation of the `Repository` interface.
 * It backs the engine's unit and concurrency tests and local development without
 * a database, while honouring the same atomicity contract as the PostgreSQL
 * implementation: per-account mutexes make each single-account mutation a
 * compare-and-set, and the appreciation commit unit takes ordered account locks
 * under the store lock so duplicates and lost updates are impossible.
 */

package store

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RajSoni19/EcoStreak-project-sub000/internal/domain"
)

type memoryAccount struct {
	mu      sync.Mutex
	account domain.Account
}

type appreciationKey struct {
	fromAccountID uuid.UUID
	postID        uuid.UUID
}

type dayMarkKey struct {
	accountID uuid.UUID
	day       time.Time
}

// MemoryRepository is an in-memory Repository used by tests and local development.
type MemoryRepository struct {
	mu            sync.RWMutex
	accounts      map[uuid.UUID]*memoryAccount
	posts         map[uuid.UUID]*domain.Post
	appreciations map[uuid.UUID][]domain.AppreciationRecord
	appreciated   map[appreciationKey]struct{}
	dayMarks      map[dayMarkKey]struct{}
	batches       map[string]*domain.BatchResult
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		accounts:      make(map[uuid.UUID]*memoryAccount),
		posts:         make(map[uuid.UUID]*domain.Post),
		appreciations: make(map[uuid.UUID][]domain.AppreciationRecord),
		appreciated:   make(map[appreciationKey]struct{}),
		dayMarks:      make(map[dayMarkKey]struct{}),
		batches:       make(map[string]*domain.BatchResult),
	}
}

func (r *MemoryRepository) findAccount(accountID uuid.UUID) (*memoryAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.accounts[accountID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return entry, nil
}

// CreateAccount registers a new ledger account.
func (r *MemoryRepository) CreateAccount(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	stored := *account
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.accounts[account.ID] = &memoryAccount{account: stored}
	return nil
}

// FindAccountByID returns a snapshot of the account's current state.
func (r *MemoryRepository) FindAccountByID(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	entry, err := r.findAccount(accountID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	snapshot := entry.account
	return &snapshot, nil
}

// SetAccountActive flips the deactivation flag.
func (r *MemoryRepository) SetAccountActive(ctx context.Context, accountID uuid.UUID, active bool) error {
	entry, err := r.findAccount(accountID)
	if err != nil {
		return err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.account.Active = active
	entry.account.UpdatedAt = time.Now().UTC()
	return nil
}

// CreditAccount atomically increments the balance of an active account.
func (r *MemoryRepository) CreditAccount(ctx context.Context, accountID uuid.UUID, amount int64) (int64, error) {
	entry, err := r.findAccount(accountID)
	if err != nil {
		return 0, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if !entry.account.Active {
		return 0, ErrAccountNotFound
	}
	entry.account.Balance += amount
	entry.account.UpdatedAt = time.Now().UTC()
	return entry.account.Balance, nil
}

// DebitAccountIfSufficient checks and decrements under the account lock: the
// compare and the decrement are one indivisible step.
func (r *MemoryRepository) DebitAccountIfSufficient(ctx context.Context, accountID uuid.UUID, amount int64) (int64, error) {
	entry, err := r.findAccount(accountID)
	if err != nil {
		return 0, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if !entry.account.Active {
		return 0, ErrAccountNotFound
	}
	if entry.account.Balance < amount {
		return 0, ErrInsufficientFunds
	}
	entry.account.Balance -= amount
	entry.account.UpdatedAt = time.Now().UTC()
	return entry.account.Balance, nil
}

// ClaimStreakDay records the day marker; exactly one caller per account+day
// observes the insert.
func (r *MemoryRepository) ClaimStreakDay(ctx context.Context, accountID uuid.UUID, day time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[accountID]; !ok {
		return false, ErrAccountNotFound
	}
	key := dayMarkKey{accountID: accountID, day: domain.DayOf(day)}
	if _, claimed := r.dayMarks[key]; claimed {
		return false, nil
	}
	r.dayMarks[key] = struct{}{}
	return true, nil
}

// UpdateStreakState persists the streak fields after a daily transition.
func (r *MemoryRepository) UpdateStreakState(ctx context.Context, accountID uuid.UUID, currentStreak, longestStreak int, lastStreakDate time.Time) error {
	entry, err := r.findAccount(accountID)
	if err != nil {
		return err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	day := domain.DayOf(lastStreakDate)
	entry.account.CurrentStreak = currentStreak
	entry.account.LongestStreak = longestStreak
	entry.account.LastStreakDate = &day
	entry.account.UpdatedAt = time.Now().UTC()
	return nil
}

// CreatePost registers a post view. Posts belong to the community subsystem;
// tests and local development seed them through this helper.
func (r *MemoryRepository) CreatePost(ctx context.Context, post *domain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *post
	r.posts[post.ID] = &stored
	return nil
}

// FindPostByID returns a snapshot of the post view.
func (r *MemoryRepository) FindPostByID(ctx context.Context, postID uuid.UUID) (*domain.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	post, ok := r.posts[postID]
	if !ok {
		return nil, ErrPostNotFound
	}
	snapshot := *post
	return &snapshot, nil
}

// AppreciatePostAtomic commits the appreciation unit under the store lock plus
// ordered account locks, mirroring the transactional PostgreSQL path.
func (r *MemoryRepository) AppreciatePostAtomic(ctx context.Context, params AppreciationParams) (*domain.AppreciationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[params.PostID]
	if !ok {
		return nil, ErrPostNotFound
	}
	if post.AuthorAccountID == params.FromAccountID {
		return nil, ErrSelfAppreciation
	}

	from, ok := r.accounts[params.FromAccountID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	author, ok := r.accounts[post.AuthorAccountID]
	if !ok {
		return nil, ErrAccountNotFound
	}

	// Lock both accounts in ascending id order; no other code path holds an
	// account lock while waiting for the store lock, so this cannot deadlock.
	first, second := from, author
	if bytes.Compare(author.account.ID[:], from.account.ID[:]) < 0 {
		first, second = author, from
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	if !from.account.Active || !author.account.Active {
		return nil, ErrAccountNotFound
	}

	key := appreciationKey{fromAccountID: params.FromAccountID, postID: params.PostID}
	if _, exists := r.appreciated[key]; exists {
		return nil, ErrDuplicateAppreciation
	}
	if from.account.Balance < params.Points {
		return nil, ErrInsufficientFunds
	}

	now := time.Now().UTC()
	record := domain.AppreciationRecord{
		ID:            uuid.New(),
		FromAccountID: params.FromAccountID,
		PostID:        params.PostID,
		Points:        params.Points,
		Message:       params.Message,
		CreatedAt:     now,
	}

	from.account.Balance -= params.Points
	from.account.PointsGiven += params.Points
	from.account.UpdatedAt = now
	author.account.Balance += params.Points
	author.account.UpdatedAt = now

	r.appreciated[key] = struct{}{}
	r.appreciations[params.PostID] = append(r.appreciations[params.PostID], record)

	var total int64
	for _, rec := range r.appreciations[params.PostID] {
		total += rec.Points
	}
	post.TotalAppreciationPoints = total

	return &record, nil
}

// ListAppreciationsForPost returns a post's records in insertion order.
func (r *MemoryRepository) ListAppreciationsForPost(ctx context.Context, postID uuid.UUID) ([]domain.AppreciationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	records := r.appreciations[postID]
	out := make([]domain.AppreciationRecord, len(records))
	copy(out, records)
	return out, nil
}

// ReserveAwardBatch claims an idempotency key under the store lock. A nil map
// entry marks a reservation whose result has not been stored yet.
func (r *MemoryRepository) ReserveAwardBatch(ctx context.Context, key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.batches[key]; exists {
		return false, nil
	}
	r.batches[key] = nil
	return true, nil
}

// FindAwardBatchByKey returns a previously stored batch result. A reserved key
// whose batch is still executing reports ErrConcurrentConflict.
func (r *MemoryRepository) FindAwardBatchByKey(ctx context.Context, key string) (*domain.BatchResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result, ok := r.batches[key]
	if !ok {
		return nil, ErrAwardBatchNotFound
	}
	if result == nil {
		return nil, ErrConcurrentConflict
	}
	snapshot := *result
	return &snapshot, nil
}

// SaveAwardBatchResult fills in the result of a reserved batch; the first
// completion for a key wins.
func (r *MemoryRepository) SaveAwardBatchResult(ctx context.Context, key string, result *domain.BatchResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, exists := r.batches[key]; exists && existing != nil {
		return nil
	}
	stored := *result
	r.batches[key] = &stored
	return nil
}
