package service

import (
	"context"
	"encoding/json"

	"github.com/creatorkit/backend/internal/domain"
	"github.com/creatorkit/backend/pkg/generation"
	"go.uber.org/zap"
)

// UsageService runs metered features: provision, charge, then do the paid work.
type UsageService struct {
	provisioner *Provisioner
	meter       *CreditMeter
	generator   generation.Generator
	logger      *zap.Logger
}

// NewUsageService creates a UsageService.
func NewUsageService(provisioner *Provisioner, meter *CreditMeter, generator generation.Generator, logger *zap.Logger) *UsageService {
	return &UsageService{
		provisioner: provisioner,
		meter:       meter,
		generator:   generator,
		logger:      logger,
	}
}

// Consume charges the user for feature and then calls the generator.
// Credits are not refunded when generation fails; fallback content is served instead.
func (s *UsageService) Consume(ctx context.Context, userID, feature string, payload json.RawMessage) (*domain.ConsumeResponse, error) {
	ent, _, err := s.provisioner.Ensure(ctx, userID)
	if err != nil {
		return nil, err
	}

	charge, err := s.meter.Charge(ctx, ent, feature)
	if err != nil {
		return nil, err
	}

	result, err := s.generator.Generate(ctx, feature, payload)
	if err != nil {
		s.logger.Warn("generation failed after charge",
			zap.String("user_id", userID),
			zap.String("feature", feature),
			zap.Int("charged", charge.Cost),
			zap.Error(err),
		)
		resp := &domain.ConsumeResponse{CreditsRemaining: charge.Remaining, Degraded: true}
		if fb, ok := s.generator.(generation.Fallbacker); ok {
			resp.Result = fb.Fallback(feature, payload)
		}
		return resp, nil
	}

	return &domain.ConsumeResponse{Result: result, CreditsRemaining: charge.Remaining}, nil
}
