package service

import (
	"context"
	"errors"
	"time"

	"github.com/creatorkit/backend/internal/domain"
	"github.com/creatorkit/backend/pkg/payment"
	"go.uber.org/zap"
)

// PaymentVerifier turns a client-submitted checkout confirmation into at most one activation.
type PaymentVerifier struct {
	gateway     payment.Gateway
	payments    PaymentStore
	provisioner *Provisioner
	logger      *zap.Logger
	now         func() time.Time
}

// NewPaymentVerifier creates a PaymentVerifier.
func NewPaymentVerifier(gateway payment.Gateway, payments PaymentStore, provisioner *Provisioner, logger *zap.Logger) *PaymentVerifier {
	return &PaymentVerifier{
		gateway:     gateway,
		payments:    payments,
		provisioner: provisioner,
		logger:      logger,
		now:         time.Now,
	}
}

// Verify authenticates the confirmation, checks it with the gateway and applies it once.
// Replays of an already recorded payment return the current state with Replayed set.
func (v *PaymentVerifier) Verify(ctx context.Context, userID string, req *domain.VerifyPaymentRequest, correlationID string) (*domain.VerifyPaymentResponse, error) {
	plan, ok := domain.GetPlan(req.Plan)
	if !ok {
		return nil, domain.ErrValidation("plan", "unknown plan")
	}
	if userID == "" {
		return nil, domain.ErrUnauthorized("unauthorized")
	}

	log := v.logger.With(
		zap.String("correlation_id", correlationID),
		zap.String("user_id", userID),
		zap.String("payment_id", redact(req.PaymentID)),
		zap.String("order_id", redact(req.OrderID)),
	)

	if !v.gateway.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		log.Warn("payment signature mismatch")
		return nil, domain.ErrAuthenticity("payment signature is invalid")
	}

	gp, err := v.gateway.FetchPayment(ctx, req.PaymentID)
	if err != nil {
		return nil, v.gatewayError(log, err)
	}
	if !gp.Settled() {
		log.Info("payment not settled at gateway", zap.String("gateway_status", gp.Status))
		return nil, domain.ErrUpstreamRejection("payment was not captured")
	}
	if gp.OrderID != "" && gp.OrderID != req.OrderID {
		log.Warn("gateway order does not match confirmation")
		return nil, domain.ErrUpstreamRejection("payment does not belong to this order")
	}
	if gp.Currency != plan.Currency || gp.Amount < plan.Amount {
		log.Warn("payment amount does not cover plan",
			zap.Int64("amount", gp.Amount),
			zap.String("currency", gp.Currency),
			zap.String("plan", string(plan.ID)),
		)
		return nil, domain.ErrUpstreamRejection("payment amount does not match plan")
	}

	// From here on money has moved; store failures need reconciliation, not a client retry.
	existing, err := v.payments.FindPayment(ctx, req.PaymentID)
	if err != nil {
		return nil, v.storeError(log, req, err)
	}
	if existing != nil {
		return v.replay(ctx, log, userID, existing, correlationID)
	}

	ent, _, err := v.provisioner.Ensure(ctx, userID)
	if err != nil {
		return nil, v.storeError(log, req, err)
	}
	if ent.AppliedPayment(req.PaymentID) {
		return v.response(ent, correlationID, true), nil
	}

	now := v.now()
	record := &domain.Payment{
		PaymentRef: req.PaymentID,
		UserID:     userID,
		OrderRef:   req.OrderID,
		Plan:       plan.ID,
		Amount:     gp.Amount,
		Currency:   gp.Currency,
		Status:     gp.Status,
		CreatedAt:  now,
	}
	activation := domain.Activation{
		UserID:     userID,
		Tier:       plan.ID,
		ExpiresAt:  now.Add(plan.Validity()),
		PaymentRef: req.PaymentID,
		At:         now,
	}

	ent, err = v.payments.ApplyPayment(ctx, record, activation)
	if errors.Is(err, domain.ErrDuplicate) {
		existing, err = v.payments.FindPayment(ctx, req.PaymentID)
		if err != nil {
			return nil, v.storeError(log, req, err)
		}
		if existing == nil {
			return nil, v.storeError(log, req, errors.New("payment conflict but no row found"))
		}
		return v.replay(ctx, log, userID, existing, correlationID)
	}
	if err != nil {
		return nil, v.storeError(log, req, err)
	}

	log.Info("payment applied",
		zap.String("tier", string(ent.Tier)),
		zap.Timep("expires_at", ent.ExpiresAt),
	)
	return v.response(ent, correlationID, false), nil
}

func (v *PaymentVerifier) replay(ctx context.Context, log *zap.Logger, userID string, existing *domain.Payment, correlationID string) (*domain.VerifyPaymentResponse, error) {
	if existing.UserID != userID {
		log.Warn("payment already recorded for another user")
		return nil, domain.ErrForbidden("payment belongs to another account")
	}
	ent, _, err := v.provisioner.Ensure(ctx, userID)
	if err != nil {
		return nil, err
	}
	log.Info("payment replayed")
	return v.response(ent, correlationID, true), nil
}

func (v *PaymentVerifier) response(ent *domain.Entitlement, correlationID string, replayed bool) *domain.VerifyPaymentResponse {
	return &domain.VerifyPaymentResponse{
		Status:        ent.Status,
		Tier:          ent.Tier,
		ExpiresAt:     ent.ExpiresAt,
		IsPaid:        ent.IsPaid(v.now()),
		Credits:       ent.Credits,
		CorrelationID: correlationID,
		Replayed:      replayed,
	}
}

func (v *PaymentVerifier) gatewayError(log *zap.Logger, err error) error {
	switch {
	case errors.Is(err, payment.ErrNotFound):
		log.Info("payment unknown to gateway")
		return domain.ErrUpstreamRejection("payment not found at gateway")
	case errors.Is(err, payment.ErrInvalidResponse):
		log.Warn("gateway response rejected", zap.Error(err))
		return domain.ErrUpstreamRejection("payment could not be confirmed")
	case errors.Is(err, payment.ErrCredentials):
		log.Error("gateway rejected our credentials", zap.Error(err))
		return domain.ErrConfiguration("payment gateway misconfigured")
	default:
		log.Warn("gateway lookup failed", zap.Error(err))
		return domain.ErrUpstreamUnavailable("payment status unknown, retry later", err)
	}
}

func (v *PaymentVerifier) storeError(log *zap.Logger, req *domain.VerifyPaymentRequest, err error) error {
	// full identifiers on purpose: this line drives manual reconciliation
	log.Error("payment captured but not recorded",
		zap.String("payment_ref", req.PaymentID),
		zap.String("order_ref", req.OrderID),
		zap.String("plan", req.Plan),
		zap.Error(err),
	)
	return domain.ErrStore("payment received but could not be recorded", req.PaymentID, err)
}

// redact keeps only the last four characters of an identifier.
func redact(id string) string {
	if len(id) <= 4 {
		return "****"
	}
	return "****" + id[len(id)-4:]
}
