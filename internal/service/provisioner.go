package service

import (
	"context"
	"errors"
	"time"

	"github.com/creatorkit/backend/internal/domain"
	"go.uber.org/zap"
)

// ProvisionOutcome says how Ensure obtained the entitlement.
type ProvisionOutcome int

const (
	ProvisionFound ProvisionOutcome = iota + 1
	ProvisionCreated
)

func (o ProvisionOutcome) String() string {
	switch o {
	case ProvisionFound:
		return "found"
	case ProvisionCreated:
		return "created"
	default:
		return "unknown"
	}
}

// Provisioner lazily creates entitlement records on first touch.
type Provisioner struct {
	store          EntitlementStore
	defaultCredits int
	logger         *zap.Logger
	now            func() time.Time
}

// NewProvisioner creates a Provisioner granting defaultCredits to new users.
func NewProvisioner(store EntitlementStore, defaultCredits int, logger *zap.Logger) *Provisioner {
	return &Provisioner{
		store:          store,
		defaultCredits: defaultCredits,
		logger:         logger,
		now:            time.Now,
	}
}

// Ensure returns the user's entitlement, creating it with defaults if needed.
// A concurrent creation is resolved by re-reading. Any other failure is terminal:
// no unpersisted default is ever returned.
func (p *Provisioner) Ensure(ctx context.Context, userID string) (*domain.Entitlement, ProvisionOutcome, error) {
	if userID == "" {
		return nil, 0, domain.ErrUnauthorized("unauthorized")
	}

	ent, err := p.store.GetEntitlement(ctx, userID)
	if err != nil {
		return nil, 0, domain.ErrInternal("failed to load entitlement", err)
	}
	if ent != nil {
		return ent, ProvisionFound, nil
	}

	fresh := domain.NewEntitlement(userID, p.defaultCredits, p.now())
	err = p.store.CreateEntitlement(ctx, fresh)
	switch {
	case err == nil:
		p.logger.Info("entitlement provisioned", zap.String("user_id", userID), zap.Int("credits", fresh.Credits))
		return fresh, ProvisionCreated, nil
	case errors.Is(err, domain.ErrDuplicate):
		ent, err = p.store.GetEntitlement(ctx, userID)
		if err != nil {
			return nil, 0, domain.ErrInternal("failed to load entitlement", err)
		}
		if ent == nil {
			return nil, 0, domain.ErrInternal("entitlement vanished after conflicting insert", nil)
		}
		return ent, ProvisionFound, nil
	default:
		p.logger.Error("entitlement provisioning failed", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, domain.ErrInternal("failed to provision entitlement", err)
	}
}
