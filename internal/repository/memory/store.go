// Package memory is an in-process store with the same atomicity guarantees as the
// Postgres repositories. It backs tests and STORE_DRIVER=memory development runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/creatorkit/backend/internal/domain"
)

// Store keeps entitlements, payments and credit transactions in memory.
// Every method runs under one mutex, which plays the role of the database's row locks
// and unique indexes.
type Store struct {
	mu sync.RWMutex

	entitlements map[string]*domain.Entitlement
	payments     map[string]*domain.Payment
	transactions []domain.CreditTransaction
}

func New() *Store {
	return &Store{
		entitlements: make(map[string]*domain.Entitlement),
		payments:     make(map[string]*domain.Payment),
		transactions: make([]domain.CreditTransaction, 0),
	}
}

// Entitlement methods

func (s *Store) GetEntitlement(_ context.Context, userID string) (*domain.Entitlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, ok := s.entitlements[userID]; ok {
		return copyEntitlement(e), nil
	}
	return nil, nil
}

func (s *Store) CreateEntitlement(_ context.Context, e *domain.Entitlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entitlements[e.UserID]; exists {
		return domain.ErrDuplicate
	}
	if e.Credits < 0 {
		return fmt.Errorf("credits must be non-negative")
	}
	s.entitlements[e.UserID] = copyEntitlement(e)
	return nil
}

func (s *Store) CancelEntitlement(_ context.Context, userID string, at time.Time) (*domain.Entitlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entitlements[userID]
	if !ok || e.Status != domain.StatusActive {
		return nil, nil
	}
	e.Status = domain.StatusCancelled
	e.UpdatedAt = at
	return copyEntitlement(e), nil
}

func (s *Store) SetUnlimited(_ context.Context, userID string, unlimited bool, at time.Time) (*domain.Entitlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entitlements[userID]
	if !ok {
		return nil, nil
	}
	e.Unlimited = unlimited
	e.UpdatedAt = at
	return copyEntitlement(e), nil
}

func (s *Store) Stats(_ context.Context, now time.Time) (*domain.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := &domain.Stats{
		Entitlements: len(s.entitlements),
		Payments:     len(s.payments),
		Transactions: len(s.transactions),
	}
	for _, e := range s.entitlements {
		if e.IsPaid(now) {
			st.Paid++
		}
	}
	return st, nil
}

func (s *Store) Ping(_ context.Context) error {
	return nil
}

// Credit methods

func (s *Store) DeductCredits(_ context.Context, userID string, cost int, at time.Time) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entitlements[userID]
	if !ok || e.Credits < cost {
		return 0, false, nil
	}
	e.Credits -= cost
	e.UpdatedAt = at
	return e.Credits, true, nil
}

func (s *Store) AppendCreditTransaction(_ context.Context, t *domain.CreditTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = append(s.transactions, *t)
	return nil
}

func (s *Store) ListCreditTransactions(_ context.Context, userID string, limit int) ([]*domain.CreditTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.CreditTransaction, 0)
	for i := range s.transactions {
		if s.transactions[i].UserID == userID {
			t := s.transactions[i]
			result = append(result, &t)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Payment methods

func (s *Store) FindPayment(_ context.Context, paymentRef string) (*domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.payments[paymentRef]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (s *Store) ApplyPayment(_ context.Context, p *domain.Payment, act domain.Activation) (*domain.Entitlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.payments[p.PaymentRef]; exists {
		return nil, domain.ErrDuplicate
	}
	e, ok := s.entitlements[act.UserID]
	if !ok {
		return nil, fmt.Errorf("entitlement for %s does not exist", act.UserID)
	}

	cp := *p
	s.payments[p.PaymentRef] = &cp

	if e.AppliedPayment(act.PaymentRef) {
		return copyEntitlement(e), nil
	}
	expires := act.ExpiresAt
	ref := act.PaymentRef
	e.Tier = act.Tier
	e.Status = domain.StatusActive
	e.ExpiresAt = &expires
	e.LastPaymentRef = &ref
	e.UpdatedAt = act.At
	return copyEntitlement(e), nil
}

// Counts returns the number of stored payments and credit transactions.
func (s *Store) Counts() (payments, transactions int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.payments), len(s.transactions)
}

func copyEntitlement(e *domain.Entitlement) *domain.Entitlement {
	cp := *e
	if e.ExpiresAt != nil {
		t := *e.ExpiresAt
		cp.ExpiresAt = &t
	}
	if e.LastPaymentRef != nil {
		r := *e.LastPaymentRef
		cp.LastPaymentRef = &r
	}
	return &cp
}
