package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/creatorkit/backend/internal/domain"
	"github.com/creatorkit/backend/internal/repository/memory"
	"github.com/creatorkit/backend/pkg/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestUsage(t *testing.T, store *memory.Store, gen generation.Generator) *UsageService {
	t.Helper()
	return NewUsageService(newTestProvisioner(store), newTestMeter(t, store, store), gen, zap.NewNop())
}

func TestUsageService_ChargesThenGenerates(t *testing.T) {
	store := memory.New()
	gen := &stubGenerator{result: json.RawMessage(`{"script":"hello"}`)}

	resp, err := newTestUsage(t, store, gen).Consume(context.Background(), "user-1", "content_audit", json.RawMessage(`{"url":"x"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"script":"hello"}`, string(resp.Result))
	assert.Equal(t, 40, resp.CreditsRemaining)
	assert.False(t, resp.Degraded)
	assert.Equal(t, 1, gen.Calls())

	_, txns := store.Counts()
	assert.Equal(t, 1, txns)
}

func TestUsageService_GenerationFailureKeepsCharge(t *testing.T) {
	store := memory.New()
	gen := fallbackGenerator{&stubGenerator{err: generation.ErrUnavailable}}

	resp, err := newTestUsage(t, store, gen).Consume(context.Background(), "user-1", "content_audit", nil)
	require.NoError(t, err)
	assert.True(t, resp.Degraded)
	assert.JSONEq(t, `{"template":"content_audit"}`, string(resp.Result))
	assert.Equal(t, 40, resp.CreditsRemaining)
	assert.Equal(t, 40, mustGet(t, store, "user-1").Credits)
}

func TestUsageService_GenerationFailureWithoutFallback(t *testing.T) {
	store := memory.New()
	gen := &stubGenerator{err: errBoom}

	resp, err := newTestUsage(t, store, gen).Consume(context.Background(), "user-1", "script_generation", nil)
	require.NoError(t, err)
	assert.True(t, resp.Degraded)
	assert.Nil(t, resp.Result)
	assert.Equal(t, 43, resp.CreditsRemaining)
}

func TestUsageService_InsufficientCreditsSkipsGeneration(t *testing.T) {
	store := memory.New()
	e := domain.NewEntitlement("user-1", 3, testNow)
	seed(t, store, e)
	gen := &stubGenerator{result: json.RawMessage(`{}`)}

	_, err := newTestUsage(t, store, gen).Consume(context.Background(), "user-1", "content_audit", nil)
	appErr := requireKind(t, err, domain.KindInsufficientCredits)
	assert.Equal(t, 3, appErr.Details["credits"])
	assert.Equal(t, domain.TierStarter, appErr.Details["requiredPlan"])
	assert.Zero(t, gen.Calls())
}

func TestUsageService_UnknownFeatureSkipsGeneration(t *testing.T) {
	store := memory.New()
	gen := &stubGenerator{result: json.RawMessage(`{}`)}

	_, err := newTestUsage(t, store, gen).Consume(context.Background(), "user-1", "mind_reading", nil)
	requireKind(t, err, domain.KindConfiguration)
	assert.Zero(t, gen.Calls())
	assert.Equal(t, domain.DefaultCredits, mustGet(t, store, "user-1").Credits)
}

func TestUsageService_ProvisioningFailure(t *testing.T) {
	store := failingCreateStore{memory.New()}
	gen := &stubGenerator{}
	svc := NewUsageService(newTestProvisioner(store), newTestMeter(t, store, store), gen, zap.NewNop())

	_, err := svc.Consume(context.Background(), "user-1", "content_audit", nil)
	requireKind(t, err, domain.KindInternal)
	assert.Zero(t, gen.Calls())
}
