package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/creatorkit/backend/internal/domain"
	"github.com/creatorkit/backend/internal/repository/memory"
	"github.com/creatorkit/backend/pkg/crypto"
	"github.com/creatorkit/backend/pkg/payment"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func testCosts(t *testing.T) *domain.FeatureCosts {
	t.Helper()
	costs, err := domain.NewFeatureCosts(map[string]int{
		"content_audit":     10,
		"script_generation": 7,
		"free_preview":      0,
	})
	require.NoError(t, err)
	return costs
}

func newTestGateway(t *testing.T) *payment.MockGateway {
	t.Helper()
	signer, err := crypto.NewSigner("gateway-secret")
	require.NoError(t, err)
	return payment.NewMockGateway(signer)
}

func newTestProvisioner(store EntitlementStore) *Provisioner {
	p := NewProvisioner(store, domain.DefaultCredits, zap.NewNop())
	p.now = fixedClock
	return p
}

func newTestMeter(t *testing.T, credits CreditStore, ents EntitlementStore) *CreditMeter {
	m := NewCreditMeter(testCosts(t), credits, ents, zap.NewNop())
	m.now = fixedClock
	return m
}

func newTestVerifier(gw payment.Gateway, payments PaymentStore, ents EntitlementStore) *PaymentVerifier {
	v := NewPaymentVerifier(gw, payments, newTestProvisioner(ents), zap.NewNop())
	v.now = fixedClock
	return v
}

// seed stores an entitlement directly.
func seed(t *testing.T, store *memory.Store, e *domain.Entitlement) {
	t.Helper()
	require.NoError(t, store.CreateEntitlement(context.Background(), e))
}

func mustGet(t *testing.T, store *memory.Store, userID string) *domain.Entitlement {
	t.Helper()
	e, err := store.GetEntitlement(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, e)
	return e
}

func requireKind(t *testing.T, err error, kind domain.ErrorKind) *domain.AppError {
	t.Helper()
	require.Error(t, err)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok, "expected AppError, got %T: %v", err, err)
	require.Equal(t, kind, appErr.Kind, "error: %v", err)
	return appErr
}

var errBoom = errors.New("boom")

// failingTxnStore loses every audit row.
type failingTxnStore struct{ *memory.Store }

func (s failingTxnStore) AppendCreditTransaction(context.Context, *domain.CreditTransaction) error {
	return errBoom
}

// failingCreateStore cannot insert entitlements.
type failingCreateStore struct{ *memory.Store }

func (s failingCreateStore) CreateEntitlement(context.Context, *domain.Entitlement) error {
	return errBoom
}

// failingApplyStore cannot apply payments.
type failingApplyStore struct{ *memory.Store }

func (s failingApplyStore) ApplyPayment(context.Context, *domain.Payment, domain.Activation) (*domain.Entitlement, error) {
	return nil, errBoom
}

// staleReadStore misses the first GetEntitlement, as if another request inserted
// the row between our read and our insert.
type staleReadStore struct {
	*memory.Store
	once sync.Once
}

func (s *staleReadStore) GetEntitlement(ctx context.Context, userID string) (*domain.Entitlement, error) {
	missed := false
	s.once.Do(func() { missed = true })
	if missed {
		return nil, nil
	}
	return s.Store.GetEntitlement(ctx, userID)
}

// stalePaymentStore misses the first FindPayment, so the insert itself hits the conflict.
type stalePaymentStore struct {
	*memory.Store
	once sync.Once
}

func (s *stalePaymentStore) FindPayment(ctx context.Context, ref string) (*domain.Payment, error) {
	missed := false
	s.once.Do(func() { missed = true })
	if missed {
		return nil, nil
	}
	return s.Store.FindPayment(ctx, ref)
}

// stubGenerator returns a fixed result or error and counts calls.
type stubGenerator struct {
	mu     sync.Mutex
	calls  int
	result json.RawMessage
	err    error
}

func (g *stubGenerator) Generate(context.Context, string, json.RawMessage) (json.RawMessage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.result, g.err
}

func (g *stubGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// fallbackGenerator adds template fallback to stubGenerator.
type fallbackGenerator struct{ *stubGenerator }

func (g fallbackGenerator) Fallback(feature string, _ json.RawMessage) json.RawMessage {
	return json.RawMessage(`{"template":"` + feature + `"}`)
}
