package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/creatorkit/backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PaymentRepository records gateway payments and applies them to entitlements.
type PaymentRepository struct {
	db *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(db *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// FindPayment returns the payment with the given gateway reference, or nil.
func (r *PaymentRepository) FindPayment(ctx context.Context, paymentRef string) (*domain.Payment, error) {
	query := `
		SELECT payment_ref, user_id, order_ref, plan, amount, currency, status, created_at
		FROM payments WHERE payment_ref = $1
	`
	var (
		p    domain.Payment
		plan string
	)
	err := r.db.QueryRow(ctx, query, paymentRef).Scan(
		&p.PaymentRef, &p.UserID, &p.OrderRef, &plan, &p.Amount, &p.Currency, &p.Status, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}
	p.Plan = domain.Tier(plan)
	return &p, nil
}

// ApplyPayment inserts the payment row and activates the entitlement in one transaction.
// If the payment reference already exists nothing is written and domain.ErrDuplicate is returned.
// If the entitlement already records this payment it is returned unchanged.
func (r *PaymentRepository) ApplyPayment(ctx context.Context, p *domain.Payment, act domain.Activation) (*domain.Entitlement, error) {
	var ent *domain.Entitlement
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			INSERT INTO payments (payment_ref, user_id, order_ref, plan, amount, currency, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (payment_ref) DO NOTHING
		`, p.PaymentRef, p.UserID, p.OrderRef, string(p.Plan), p.Amount, p.Currency, p.Status, p.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrDuplicate
		}

		ent, err = scanEntitlement(tx.QueryRow(ctx, `
			UPDATE entitlements
			SET tier = $2, status = 'active', expires_at = $3, last_payment_ref = $4, updated_at = $5
			WHERE user_id = $1 AND last_payment_ref IS DISTINCT FROM $4
			RETURNING `+entitlementColumns,
			act.UserID, string(act.Tier), act.ExpiresAt, act.PaymentRef, act.At,
		))
		if err == nil {
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("failed to activate entitlement: %w", err)
		}

		ent, err = getEntitlement(ctx, tx, act.UserID)
		if err != nil {
			return err
		}
		if ent == nil {
			return fmt.Errorf("entitlement for %s does not exist", act.UserID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ent, nil
}
