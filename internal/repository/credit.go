package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/creatorkit/backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CreditRepository handles balance deductions and the credit audit trail.
type CreditRepository struct {
	db *pgxpool.Pool
}

// NewCreditRepository creates a new CreditRepository.
func NewCreditRepository(db *pgxpool.Pool) *CreditRepository {
	return &CreditRepository{db: db}
}

// DeductCredits subtracts cost from the balance in a single conditional update.
// ok is false when the balance was lower than cost (or the user has no entitlement);
// nothing is changed in that case.
func (r *CreditRepository) DeductCredits(ctx context.Context, userID string, cost int, at time.Time) (int, bool, error) {
	query := `
		UPDATE entitlements SET credits = credits - $2, updated_at = $3
		WHERE user_id = $1 AND credits >= $2
		RETURNING credits
	`
	var remaining int
	err := r.db.QueryRow(ctx, query, userID, cost, at).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to deduct credits: %w", err)
	}
	return remaining, true, nil
}

// AppendCreditTransaction writes an audit row.
func (r *CreditRepository) AppendCreditTransaction(ctx context.Context, t *domain.CreditTransaction) error {
	query := `
		INSERT INTO credit_transactions (id, user_id, feature, credits_used, credits_remaining, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query, t.ID, t.UserID, t.Feature, t.CreditsUsed, t.CreditsRemaining, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append credit transaction: %w", err)
	}
	return nil
}

// ListCreditTransactions returns a user's most recent transactions, newest first.
func (r *CreditRepository) ListCreditTransactions(ctx context.Context, userID string, limit int) ([]*domain.CreditTransaction, error) {
	query := `
		SELECT id, user_id, feature, credits_used, credits_remaining, created_at
		FROM credit_transactions WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list credit transactions: %w", err)
	}
	defer rows.Close()

	txns := make([]*domain.CreditTransaction, 0)
	for rows.Next() {
		var t domain.CreditTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Feature, &t.CreditsUsed, &t.CreditsRemaining, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan credit transaction: %w", err)
		}
		txns = append(txns, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list credit transactions: %w", err)
	}
	return txns, nil
}
