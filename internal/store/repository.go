/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract for all
 * data access operations required by the points ledger engine. Every balance-touching
 * method is an atomic primitive: the storage implementation must apply the check and
 * the mutation in one indivisible step, never as a separate read followed by a write.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - github.com/google/uuid: For account/post/batch identifiers.
 * - internal/domain: For the engine's domain models.
 */

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/RajSoni19/EcoStreak-project-sub000/internal/domain"
)

var (
	ErrAccountNotFound       = errors.New("account not found")
	ErrPostNotFound          = errors.New("post not found")
	ErrInsufficientFunds     = errors.New("insufficient points")
	ErrDuplicateAppreciation = errors.New("post already appreciated by this account")
	ErrSelfAppreciation      = errors.New("cannot appreciate your own post")
	ErrConcurrentConflict    = errors.New("concurrent update conflict")
	ErrAwardBatchNotFound    = errors.New("award batch not found")
)

// AppreciationParams carries everything the storage layer needs to commit an
// appreciation as one unit: the point transfer, the giver's points_given
// increment, the record insert, and the post total recompute.
type AppreciationParams struct {
	FromAccountID   uuid.UUID
	AuthorAccountID uuid.UUID
	PostID          uuid.UUID
	Points          int64
	Message         *string
}

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Account methods
	CreateAccount(ctx context.Context, account *domain.Account) error
	FindAccountByID(ctx context.Context, accountID uuid.UUID) (*domain.Account, error)
	SetAccountActive(ctx context.Context, accountID uuid.UUID, active bool) error

	// Ledger primitives. CreditAccount and DebitAccountIfSufficient are single
	// conditional updates returning the post-mutation balance. A debit that
	// would go negative fails with ErrInsufficientFunds and leaves the balance
	// untouched. Inactive accounts fail with ErrAccountNotFound.
	CreditAccount(ctx context.Context, accountID uuid.UUID, amount int64) (int64, error)
	DebitAccountIfSufficient(ctx context.Context, accountID uuid.UUID, amount int64) (int64, error)

	// Streak methods. ClaimStreakDay is the once-per-day guard: the first
	// caller for an account+day gets true; everyone else (including concurrent
	// callers) gets false.
	ClaimStreakDay(ctx context.Context, accountID uuid.UUID, day time.Time) (bool, error)
	UpdateStreakState(ctx context.Context, accountID uuid.UUID, currentStreak, longestStreak int, lastStreakDate time.Time) error

	// Appreciation methods. AppreciatePostAtomic commits the whole unit in one
	// transaction; a second record for the same (from_account, post) pair fails
	// with ErrDuplicateAppreciation via the storage-layer uniqueness constraint.
	FindPostByID(ctx context.Context, postID uuid.UUID) (*domain.Post, error)
	AppreciatePostAtomic(ctx context.Context, params AppreciationParams) (*domain.AppreciationRecord, error)
	ListAppreciationsForPost(ctx context.Context, postID uuid.UUID) ([]domain.AppreciationRecord, error)

	// Award batch idempotency storage. ReserveAwardBatch is the atomic gate for
	// a key: exactly one caller wins the reservation and may execute the batch.
	// FindAwardBatchByKey returns ErrConcurrentConflict while a reserved batch
	// has not stored its result yet, and ErrAwardBatchNotFound for unknown keys.
	ReserveAwardBatch(ctx context.Context, key string) (bool, error)
	FindAwardBatchByKey(ctx context.Context, key string) (*domain.BatchResult, error)
	SaveAwardBatchResult(ctx context.Context, key string, result *domain.BatchResult) error
}
