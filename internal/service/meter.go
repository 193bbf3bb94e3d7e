package service

import (
	"context"
	"time"

	"github.com/creatorkit/backend/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreditMeter decides whether a feature call may proceed and accounts for it.
type CreditMeter struct {
	costs        *domain.FeatureCosts
	credits      CreditStore
	entitlements EntitlementStore
	logger       *zap.Logger
	now          func() time.Time
}

// NewCreditMeter creates a CreditMeter over a fixed cost table.
func NewCreditMeter(costs *domain.FeatureCosts, credits CreditStore, entitlements EntitlementStore, logger *zap.Logger) *CreditMeter {
	return &CreditMeter{
		costs:        costs,
		credits:      credits,
		entitlements: entitlements,
		logger:       logger,
		now:          time.Now,
	}
}

// Charge allows or denies feature for ent and, on allow, deducts its cost.
func (m *CreditMeter) Charge(ctx context.Context, ent *domain.Entitlement, feature string) (*domain.Charge, error) {
	cost, ok := m.costs.Cost(feature)
	if !ok {
		m.logger.Error("feature has no registered cost", zap.String("feature", feature), zap.String("user_id", ent.UserID))
		return nil, domain.ErrConfiguration("feature is not available")
	}

	if ent.Unlimited {
		m.logger.Info("unlimited usage",
			zap.String("user_id", ent.UserID),
			zap.String("feature", feature),
			zap.Int("cost", cost),
		)
		return &domain.Charge{Feature: feature, Cost: cost, Remaining: ent.Credits, Unlimited: true}, nil
	}

	if ent.Credits < cost {
		return nil, domain.ErrInsufficientCredits(ent.Credits, cost)
	}

	at := m.now()
	remaining, ok, err := m.credits.DeductCredits(ctx, ent.UserID, cost, at)
	if err != nil {
		return nil, domain.ErrInternal("failed to deduct credits", err)
	}
	if !ok {
		// lost a race with a concurrent charge; report the balance as it is now
		balance := 0
		if cur, err := m.entitlements.GetEntitlement(ctx, ent.UserID); err == nil && cur != nil {
			balance = cur.Credits
		}
		return nil, domain.ErrInsufficientCredits(balance, cost)
	}

	txn := &domain.CreditTransaction{
		ID:               uuid.New().String(),
		UserID:           ent.UserID,
		Feature:          feature,
		CreditsUsed:      cost,
		CreditsRemaining: remaining,
		CreatedAt:        at,
	}
	if err := m.credits.AppendCreditTransaction(ctx, txn); err != nil {
		m.logger.Warn("credit transaction not recorded",
			zap.String("user_id", ent.UserID),
			zap.String("feature", feature),
			zap.Int("used", cost),
			zap.Int("remaining", remaining),
			zap.Error(err),
		)
	}

	return &domain.Charge{Feature: feature, Cost: cost, Remaining: remaining}, nil
}
