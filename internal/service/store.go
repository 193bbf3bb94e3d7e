package service

import (
	"context"
	"time"

	"github.com/creatorkit/backend/internal/domain"
)

// EntitlementStore persists entitlement records. Lookups return (nil, nil) when absent.
type EntitlementStore interface {
	GetEntitlement(ctx context.Context, userID string) (*domain.Entitlement, error)
	// CreateEntitlement returns domain.ErrDuplicate when the user already has a record.
	CreateEntitlement(ctx context.Context, e *domain.Entitlement) error
	CancelEntitlement(ctx context.Context, userID string, at time.Time) (*domain.Entitlement, error)
	SetUnlimited(ctx context.Context, userID string, unlimited bool, at time.Time) (*domain.Entitlement, error)
	Stats(ctx context.Context, now time.Time) (*domain.Stats, error)
}

// CreditStore owns the balance decrement and the audit trail.
type CreditStore interface {
	// DeductCredits must be a single conditional update: decrement where balance >= cost.
	DeductCredits(ctx context.Context, userID string, cost int, at time.Time) (remaining int, ok bool, err error)
	AppendCreditTransaction(ctx context.Context, t *domain.CreditTransaction) error
	ListCreditTransactions(ctx context.Context, userID string, limit int) ([]*domain.CreditTransaction, error)
}

// PaymentStore records payments keyed by gateway reference.
type PaymentStore interface {
	FindPayment(ctx context.Context, paymentRef string) (*domain.Payment, error)
	// ApplyPayment atomically inserts p and applies act. An existing reference yields domain.ErrDuplicate.
	ApplyPayment(ctx context.Context, p *domain.Payment, act domain.Activation) (*domain.Entitlement, error)
}
