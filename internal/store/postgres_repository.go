/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface.
 * It contains all the necessary SQL queries to interact with the database tables
 * related to accounts, streak day marks, posts, appreciations, and award batches.
 *
 * Balance mutations are conditional single-statement updates (never read-then-write),
 * so two concurrent mutations on the same account can never lose an update. The
 * appreciation commit unit runs in one transaction with ordered row locks and relies
 * on the (from_account_id, post_id) uniqueness constraint rather than an
 * application-side "already appreciated?" check.
 *
 * @dependencies
 * - context, time, errors: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RajSoni19/EcoStreak-project-sub000/internal/domain"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateAccount inserts a new ledger account. Accounts are provisioned at
// registration time and are never deleted, only deactivated.
func (r *PostgresRepository) CreateAccount(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, balance, points_given, current_streak, longest_streak, last_streak_date, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		account.ID,
		account.Balance,
		account.PointsGiven,
		account.CurrentStreak,
		account.LongestStreak,
		account.LastStreakDate,
		account.Active,
	)
	return err
}

// FindAccountByID retrieves a ledger account by its ID.
func (r *PostgresRepository) FindAccountByID(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	var account domain.Account
	query := `
		SELECT id, balance, points_given, current_streak, longest_streak, last_streak_date, active, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, accountID).Scan(
		&account.ID,
		&account.Balance,
		&account.PointsGiven,
		&account.CurrentStreak,
		&account.LongestStreak,
		&account.LastStreakDate,
		&account.Active,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// SetAccountActive flips the deactivation flag on an account.
func (r *PostgresRepository) SetAccountActive(ctx context.Context, accountID uuid.UUID, active bool) error {
	result, err := r.db.Exec(ctx, `UPDATE accounts SET active = $2, updated_at = NOW() WHERE id = $1`, accountID, active)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// CreditAccount atomically increments an active account's balance and returns
// the new balance.
func (r *PostgresRepository) CreditAccount(ctx context.Context, accountID uuid.UUID, amount int64) (int64, error) {
	var balance int64
	query := `
		UPDATE accounts
		SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1 AND active
		RETURNING balance
	`
	err := r.db.QueryRow(ctx, query, accountID, amount).Scan(&balance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}
	return balance, nil
}

// DebitAccountIfSufficient is a compare-and-decrement: the balance check and the
// decrement happen in the same statement, so the balance can never be observed
// negative and a failed debit leaves it untouched.
func (r *PostgresRepository) DebitAccountIfSufficient(ctx context.Context, accountID uuid.UUID, amount int64) (int64, error) {
	var balance int64
	query := `
		UPDATE accounts
		SET balance = balance - $2, updated_at = NOW()
		WHERE id = $1 AND active AND balance >= $2
		RETURNING balance
	`
	err := r.db.QueryRow(ctx, query, accountID, amount).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if err != pgx.ErrNoRows {
		return 0, err
	}

	// The conditional update matched nothing: classify without mutating.
	var exists bool
	if probeErr := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1 AND active)`, accountID).Scan(&exists); probeErr != nil {
		return 0, probeErr
	}
	if !exists {
		return 0, ErrAccountNotFound
	}
	return 0, ErrInsufficientFunds
}

// ClaimStreakDay is the once-per-day guard. The day marker insert either lands
// (first caller today, returns true) or conflicts with an existing marker
// (returns false). Concurrent callers race on the primary key, so exactly one
// wins.
func (r *PostgresRepository) ClaimStreakDay(ctx context.Context, accountID uuid.UUID, day time.Time) (bool, error) {
	query := `
		INSERT INTO streak_day_marks (account_id, day)
		VALUES ($1, $2)
		ON CONFLICT (account_id, day) DO NOTHING
	`
	result, err := r.db.Exec(ctx, query, accountID, domain.DayOf(day))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return false, ErrAccountNotFound
		}
		return false, err
	}
	return result.RowsAffected() == 1, nil
}

// UpdateStreakState persists the streak fields after a daily transition. The
// caller holds the day marker for this account, so no concurrent writer can
// race this update within the same day.
func (r *PostgresRepository) UpdateStreakState(ctx context.Context, accountID uuid.UUID, currentStreak, longestStreak int, lastStreakDate time.Time) error {
	result, err := r.db.Exec(ctx,
		`UPDATE accounts SET current_streak = $2, longest_streak = $3, last_streak_date = $4, updated_at = NOW() WHERE id = $1`,
		accountID, currentStreak, longestStreak, domain.DayOf(lastStreakDate),
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// FindPostByID retrieves the engine's view of a community post.
func (r *PostgresRepository) FindPostByID(ctx context.Context, postID uuid.UUID) (*domain.Post, error) {
	var post domain.Post
	query := `SELECT id, author_account_id, total_appreciation_points FROM posts WHERE id = $1`
	err := r.db.QueryRow(ctx, query, postID).Scan(&post.ID, &post.AuthorAccountID, &post.TotalAppreciationPoints)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// AppreciatePostAtomic commits an appreciation as one unit of work: the point
// transfer, the giver's points_given increment, the record insert, and the
// post total recompute either all happen or none do.
func (r *PostgresRepository) AppreciatePostAtomic(ctx context.Context, params AppreciationParams) (*domain.AppreciationRecord, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// 1. Resolve the post's author inside the transaction so a concurrently
	// edited post cannot invalidate the self-appreciation check.
	var authorID uuid.UUID
	err = tx.QueryRow(ctx, `SELECT author_account_id FROM posts WHERE id = $1`, params.PostID).Scan(&authorID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	if authorID == params.FromAccountID {
		return nil, ErrSelfAppreciation
	}

	// 2. Lock both account rows in ascending id order so two appreciations
	// running in opposite directions cannot deadlock.
	firstID, secondID := params.FromAccountID, authorID
	if bytes.Compare(secondID[:], firstID[:]) < 0 {
		firstID, secondID = secondID, firstID
	}
	for _, id := range []uuid.UUID{firstID, secondID} {
		var active bool
		if err := tx.QueryRow(ctx, `SELECT active FROM accounts WHERE id = $1 FOR UPDATE`, id).Scan(&active); err != nil {
			if err == pgx.ErrNoRows {
				return nil, ErrAccountNotFound
			}
			return nil, err
		}
		if !active {
			return nil, ErrAccountNotFound
		}
	}

	// 3. Insert the record first; the uniqueness constraint on
	// (from_account_id, post_id) is the authoritative duplicate check.
	record := domain.AppreciationRecord{
		ID:            uuid.New(),
		FromAccountID: params.FromAccountID,
		PostID:        params.PostID,
		Points:        params.Points,
		Message:       params.Message,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO appreciations (id, from_account_id, post_id, points, message) VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		record.ID, record.FromAccountID, record.PostID, record.Points, record.Message,
	).Scan(&record.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				return nil, ErrDuplicateAppreciation
			case pgForeignKeyViolation:
				return nil, ErrPostNotFound
			}
		}
		return nil, err
	}

	// 4. Move the points. Both rows are already locked; the balance condition
	// still guards against a concurrent debit that slipped in before our lock.
	tag, err := tx.Exec(ctx,
		`UPDATE accounts SET balance = balance - $2, points_given = points_given + $2, updated_at = NOW() WHERE id = $1 AND balance >= $2`,
		params.FromAccountID, params.Points,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrInsufficientFunds
	}
	if _, err := tx.Exec(ctx,
		`UPDATE accounts SET balance = balance + $2, updated_at = NOW() WHERE id = $1`,
		authorID, params.Points,
	); err != nil {
		return nil, err
	}

	// 5. Recompute the post aggregate from its records rather than trusting a
	// running counter.
	if _, err := tx.Exec(ctx, `
		UPDATE posts
		SET total_appreciation_points = (
			SELECT COALESCE(SUM(points), 0) FROM appreciations WHERE post_id = $1
		)
		WHERE id = $1
	`, params.PostID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListAppreciationsForPost returns a post's appreciation records in insertion order.
func (r *PostgresRepository) ListAppreciationsForPost(ctx context.Context, postID uuid.UUID) ([]domain.AppreciationRecord, error) {
	query := `
		SELECT id, from_account_id, post_id, points, message, created_at
		FROM appreciations
		WHERE post_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.AppreciationRecord
	for rows.Next() {
		var record domain.AppreciationRecord
		if err := rows.Scan(
			&record.ID,
			&record.FromAccountID,
			&record.PostID,
			&record.Points,
			&record.Message,
			&record.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// ReserveAwardBatch claims an idempotency key before any credit runs. The
// insert either lands (this caller executes the batch) or conflicts with an
// earlier reservation, so two concurrent first-time submissions can never both
// credit.
func (r *PostgresRepository) ReserveAwardBatch(ctx context.Context, key string) (bool, error) {
	result, err := r.db.Exec(ctx, `
		INSERT INTO award_batches (idempotency_key)
		VALUES ($1)
		ON CONFLICT (idempotency_key) DO NOTHING
	`, key)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() == 1, nil
}

// FindAwardBatchByKey returns the stored result of a previously completed award
// batch, keyed by the client-supplied idempotency key. A reserved key whose
// batch is still executing reports ErrConcurrentConflict.
func (r *PostgresRepository) FindAwardBatchByKey(ctx context.Context, key string) (*domain.BatchResult, error) {
	var resultJSON []byte
	err := r.db.QueryRow(ctx, `SELECT result FROM award_batches WHERE idempotency_key = $1`, key).Scan(&resultJSON)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAwardBatchNotFound
		}
		return nil, err
	}
	if resultJSON == nil {
		return nil, ErrConcurrentConflict
	}
	var result domain.BatchResult
	if err := json.Unmarshal(resultJSON, &result); err != nil {
		return nil, fmt.Errorf("failed to decode stored batch result: %w", err)
	}
	return &result, nil
}

// SaveAwardBatchResult fills in the result of a reserved batch. Only the first
// completion for a key lands.
func (r *PostgresRepository) SaveAwardBatchResult(ctx context.Context, key string, result *domain.BatchResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode batch result: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		UPDATE award_batches
		SET batch_id = $2, organizer_id = $3, points_per_account = $4, reason = $5, result = $6
		WHERE idempotency_key = $1 AND result IS NULL
	`, key, result.BatchID, result.OrganizerID, result.PointsPerAccount, result.Reason, resultJSON)
	return err
}
