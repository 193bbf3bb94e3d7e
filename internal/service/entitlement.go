package service

import (
	"context"
	"time"

	"github.com/creatorkit/backend/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// EntitlementService serves entitlement reads and the non-payment state transitions.
type EntitlementService struct {
	provisioner  *Provisioner
	entitlements EntitlementStore
	credits      CreditStore
	logger       *zap.Logger
	now          func() time.Time
}

// NewEntitlementService creates an EntitlementService.
func NewEntitlementService(provisioner *Provisioner, entitlements EntitlementStore, credits CreditStore, logger *zap.Logger) *EntitlementService {
	return &EntitlementService{
		provisioner:  provisioner,
		entitlements: entitlements,
		credits:      credits,
		logger:       logger,
		now:          time.Now,
	}
}

// Snapshot returns the user's entitlement with isPaid evaluated now. Reads never write
// anything beyond first-touch provisioning.
func (s *EntitlementService) Snapshot(ctx context.Context, userID string) (*domain.EntitlementResponse, error) {
	ent, _, err := s.provisioner.Ensure(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ent.ToResponse(s.now()), nil
}

// Cancel stops renewal of an active entitlement. Access continues until expiry.
func (s *EntitlementService) Cancel(ctx context.Context, userID string) (*domain.EntitlementResponse, error) {
	if _, _, err := s.provisioner.Ensure(ctx, userID); err != nil {
		return nil, err
	}
	ent, err := s.entitlements.CancelEntitlement(ctx, userID, s.now())
	if err != nil {
		return nil, domain.ErrInternal("failed to cancel subscription", err)
	}
	if ent == nil {
		return nil, domain.ErrBadRequest("no active subscription to cancel")
	}
	s.logger.Info("subscription cancelled", zap.String("user_id", userID), zap.Timep("expires_at", ent.ExpiresAt))
	return ent.ToResponse(s.now()), nil
}

// History returns the user's most recent credit transactions.
func (s *EntitlementService) History(ctx context.Context, userID string, limit int) ([]*domain.CreditTransaction, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	txns, err := s.credits.ListCreditTransactions(ctx, userID, limit)
	if err != nil {
		return nil, domain.ErrInternal("failed to list credit transactions", err)
	}
	return txns, nil
}

// SetUnlimited grants or revokes unmetered access (admin only).
func (s *EntitlementService) SetUnlimited(ctx context.Context, userID string, unlimited bool) (*domain.EntitlementResponse, error) {
	if _, _, err := s.provisioner.Ensure(ctx, userID); err != nil {
		return nil, err
	}
	ent, err := s.entitlements.SetUnlimited(ctx, userID, unlimited, s.now())
	if err != nil {
		return nil, domain.ErrInternal("failed to update entitlement", err)
	}
	if ent == nil {
		return nil, domain.ErrNotFound("entitlement not found")
	}
	s.logger.Info("unlimited flag changed", zap.String("user_id", userID), zap.Bool("unlimited", unlimited))
	return ent.ToResponse(s.now()), nil
}

// Stats returns system-wide counts.
func (s *EntitlementService) Stats(ctx context.Context) (*domain.Stats, error) {
	st, err := s.entitlements.Stats(ctx, s.now())
	if err != nil {
		return nil, domain.ErrInternal("failed to collect stats", err)
	}
	return st, nil
}
