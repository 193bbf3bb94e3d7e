package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/creatorkit/backend/internal/domain"
	"github.com/creatorkit/backend/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEntitlements(t *testing.T, store *memory.Store) *EntitlementService {
	t.Helper()
	s := NewEntitlementService(newTestProvisioner(store), store, store, zap.NewNop())
	s.now = fixedClock
	return s
}

func activeEntitlement(userID string, expires time.Time) *domain.Entitlement {
	e := domain.NewEntitlement(userID, 80, testNow.Add(-time.Hour))
	e.Tier = domain.TierPro
	e.Status = domain.StatusActive
	e.ExpiresAt = &expires
	ref := "pay_seed"
	e.LastPaymentRef = &ref
	return e
}

func TestEntitlementService_SnapshotProvisions(t *testing.T) {
	store := memory.New()
	resp, err := newTestEntitlements(t, store).Snapshot(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TierFree, resp.Tier)
	assert.Equal(t, domain.StatusInactive, resp.Status)
	assert.False(t, resp.IsPaid)
	assert.Equal(t, domain.DefaultCredits, resp.Credits)
}

func TestEntitlementService_ExpiryIsDerivedNotWritten(t *testing.T) {
	store := memory.New()
	seed(t, store, activeEntitlement("user-1", testNow.Add(-time.Minute)))
	svc := newTestEntitlements(t, store)

	resp, err := svc.Snapshot(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, resp.IsPaid)
	assert.Equal(t, domain.StatusActive, resp.Status)

	stored := mustGet(t, store, "user-1")
	assert.Equal(t, domain.StatusActive, stored.Status, "read path must not rewrite status")
	assert.Equal(t, testNow.Add(-time.Hour), stored.UpdatedAt)
}

func TestEntitlementService_CancelKeepsExpiry(t *testing.T) {
	store := memory.New()
	expires := testNow.Add(10 * 24 * time.Hour)
	seed(t, store, activeEntitlement("user-1", expires))

	resp, err := newTestEntitlements(t, store).Cancel(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, resp.Status)
	require.NotNil(t, resp.ExpiresAt)
	assert.Equal(t, expires, *resp.ExpiresAt)
	assert.False(t, resp.IsPaid)
	assert.Equal(t, domain.TierPro, resp.Tier)
}

func TestEntitlementService_CancelWithoutSubscription(t *testing.T) {
	store := memory.New()
	svc := newTestEntitlements(t, store)

	_, err := svc.Cancel(context.Background(), "user-1")
	requireKind(t, err, domain.KindBadRequest)

	seed(t, store, activeEntitlement("user-2", testNow.Add(time.Hour)))
	_, err = svc.Cancel(context.Background(), "user-2")
	require.NoError(t, err)
	_, err = svc.Cancel(context.Background(), "user-2")
	requireKind(t, err, domain.KindBadRequest)
}

func TestEntitlementService_HistoryLimits(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	for i := 0; i < 120; i++ {
		require.NoError(t, store.AppendCreditTransaction(ctx, &domain.CreditTransaction{
			ID:               fmt.Sprintf("txn-%03d", i),
			UserID:           "user-1",
			Feature:          "content_audit",
			CreditsUsed:      1,
			CreditsRemaining: 120 - i,
			CreatedAt:        testNow.Add(time.Duration(i) * time.Second),
		}))
	}
	svc := newTestEntitlements(t, store)

	tests := []struct {
		limit int
		want  int
	}{
		{0, 20},
		{-5, 20},
		{7, 7},
		{500, 100},
	}
	for _, tt := range tests {
		txns, err := svc.History(ctx, "user-1", tt.limit)
		require.NoError(t, err)
		assert.Len(t, txns, tt.want, "limit %d", tt.limit)
	}

	txns, err := svc.History(ctx, "user-1", 2)
	require.NoError(t, err)
	assert.True(t, txns[0].CreatedAt.After(txns[1].CreatedAt), "newest first")

	none, err := svc.History(ctx, "user-2", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestEntitlementService_SetUnlimited(t *testing.T) {
	store := memory.New()
	svc := newTestEntitlements(t, store)

	resp, err := svc.SetUnlimited(context.Background(), "user-1", true)
	require.NoError(t, err)
	assert.True(t, resp.Unlimited)
	assert.True(t, mustGet(t, store, "user-1").Unlimited)

	resp, err = svc.SetUnlimited(context.Background(), "user-1", false)
	require.NoError(t, err)
	assert.False(t, resp.Unlimited)
}

func TestEntitlementService_Stats(t *testing.T) {
	store := memory.New()
	seed(t, store, activeEntitlement("paid", testNow.Add(time.Hour)))
	seed(t, store, activeEntitlement("lapsed", testNow.Add(-time.Hour)))
	seed(t, store, domain.NewEntitlement("free", 50, testNow))

	st, err := newTestEntitlements(t, store).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, st.Entitlements)
	assert.Equal(t, 1, st.Paid)
	assert.Zero(t, st.Payments)
}
