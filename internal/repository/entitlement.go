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

const entitlementColumns = `user_id, tier, status, expires_at, credits, last_payment_ref, unlimited, created_at, updated_at`

// EntitlementRepository handles database operations for entitlements.
type EntitlementRepository struct {
	db *pgxpool.Pool
}

// NewEntitlementRepository creates a new EntitlementRepository.
func NewEntitlementRepository(db *pgxpool.Pool) *EntitlementRepository {
	return &EntitlementRepository{db: db}
}

// GetEntitlement returns the entitlement for a user, or nil if none exists.
func (r *EntitlementRepository) GetEntitlement(ctx context.Context, userID string) (*domain.Entitlement, error) {
	return getEntitlement(ctx, r.db, userID)
}

// CreateEntitlement inserts a new entitlement. A concurrent insert for the same
// user surfaces as domain.ErrDuplicate.
func (r *EntitlementRepository) CreateEntitlement(ctx context.Context, e *domain.Entitlement) error {
	query := `
		INSERT INTO entitlements (user_id, tier, status, expires_at, credits, last_payment_ref, unlimited, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		e.UserID, string(e.Tier), string(e.Status), e.ExpiresAt, e.Credits,
		e.LastPaymentRef, e.Unlimited, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("failed to create entitlement: %w", err)
	}
	return nil
}

// CancelEntitlement moves an active entitlement to cancelled, leaving expiry untouched.
// Returns nil if the entitlement was not active.
func (r *EntitlementRepository) CancelEntitlement(ctx context.Context, userID string, at time.Time) (*domain.Entitlement, error) {
	query := `
		UPDATE entitlements SET status = 'cancelled', updated_at = $2
		WHERE user_id = $1 AND status = 'active'
		RETURNING ` + entitlementColumns
	e, err := scanEntitlement(r.db.QueryRow(ctx, query, userID, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to cancel entitlement: %w", err)
	}
	return e, nil
}

// SetUnlimited toggles the admin/unlimited flag. Returns nil if the user has no entitlement.
func (r *EntitlementRepository) SetUnlimited(ctx context.Context, userID string, unlimited bool, at time.Time) (*domain.Entitlement, error) {
	query := `
		UPDATE entitlements SET unlimited = $2, updated_at = $3
		WHERE user_id = $1
		RETURNING ` + entitlementColumns
	e, err := scanEntitlement(r.db.QueryRow(ctx, query, userID, unlimited, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update entitlement: %w", err)
	}
	return e, nil
}

// Stats returns system-wide counts.
func (r *EntitlementRepository) Stats(ctx context.Context, now time.Time) (*domain.Stats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM entitlements),
			(SELECT COUNT(*) FROM entitlements WHERE status = 'active' AND expires_at > $1),
			(SELECT COUNT(*) FROM payments),
			(SELECT COUNT(*) FROM credit_transactions)
	`
	var s domain.Stats
	if err := r.db.QueryRow(ctx, query, now).Scan(&s.Entitlements, &s.Paid, &s.Payments, &s.Transactions); err != nil {
		return nil, fmt.Errorf("failed to collect stats: %w", err)
	}
	return &s, nil
}

// Ping checks database connectivity.
func (r *EntitlementRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getEntitlement(ctx context.Context, q querier, userID string) (*domain.Entitlement, error) {
	query := `SELECT ` + entitlementColumns + ` FROM entitlements WHERE user_id = $1`
	e, err := scanEntitlement(q.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find entitlement: %w", err)
	}
	return e, nil
}

func scanEntitlement(row pgx.Row) (*domain.Entitlement, error) {
	var (
		e      domain.Entitlement
		tier   string
		status string
	)
	err := row.Scan(
		&e.UserID, &tier, &status, &e.ExpiresAt, &e.Credits,
		&e.LastPaymentRef, &e.Unlimited, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Tier = domain.Tier(tier)
	e.Status = domain.Status(status)
	return &e, nil
}
