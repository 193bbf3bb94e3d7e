package payment

import (
	"context"
	"errors"
	"sync"

	"github.com/creatorkit/backend/pkg/crypto"
)

// Gateway defines the operations needed from a payment provider.
type Gateway interface {
	// VerifySignature checks the checkout signature locally. No network call.
	VerifySignature(orderID, paymentID, signature string) bool
	// FetchPayment returns the provider's authoritative view of a payment. Read-only and idempotent.
	FetchPayment(ctx context.Context, paymentID string) (*Payment, error)
}

// Payment statuses reported by the gateway.
const (
	StatusCreated    = "created"
	StatusAuthorized = "authorized"
	StatusCaptured   = "captured"
	StatusRefunded   = "refunded"
	StatusFailed     = "failed"
)

var (
	// ErrUnavailable means the payment state is unknown (timeout, transport error, 5xx). Retryable.
	ErrUnavailable = errors.New("payment gateway unavailable")
	// ErrNotFound means the gateway has no such payment.
	ErrNotFound = errors.New("payment not found at gateway")
	// ErrInvalidResponse means the gateway answered outside the expected contract.
	ErrInvalidResponse = errors.New("invalid payment gateway response")
	// ErrCredentials means the gateway refused our API credentials.
	ErrCredentials = errors.New("payment gateway rejected credentials")
)

// Payment is the validated boundary contract for a gateway payment lookup.
type Payment struct {
	ID       string `json:"id" validate:"required"`
	OrderID  string `json:"order_id"`
	Status   string `json:"status" validate:"required,oneof=created authorized captured refunded failed"`
	Amount   int64  `json:"amount" validate:"gt=0"`
	Currency string `json:"currency" validate:"required,len=3"`
}

// Settled reports whether funds were authorized or captured.
func (p *Payment) Settled() bool {
	return p.Status == StatusCaptured || p.Status == StatusAuthorized
}

// SignaturePayload is the message the gateway signs at checkout.
func SignaturePayload(orderID, paymentID string) []byte {
	return []byte(orderID + "|" + paymentID)
}

// MockGateway is an in-memory implementation for tests and local development.
type MockGateway struct {
	signer *crypto.Signer

	mu       sync.Mutex
	payments map[string]*Payment
	errs     map[string]error
	calls    int
}

// NewMockGateway creates a mock that signs with the given secret.
func NewMockGateway(signer *crypto.Signer) *MockGateway {
	return &MockGateway{
		signer:   signer,
		payments: make(map[string]*Payment),
		errs:     make(map[string]error),
	}
}

// Put registers a payment the mock will report.
func (g *MockGateway) Put(p Payment) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payments[p.ID] = &p
}

// FailWith makes lookups of paymentID return err.
func (g *MockGateway) FailWith(paymentID string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.errs[paymentID] = err
}

// Sign returns the checkout signature the real provider would hand to the client.
func (g *MockGateway) Sign(orderID, paymentID string) string {
	return g.signer.Sign(SignaturePayload(orderID, paymentID))
}

// Calls returns how many lookups were made.
func (g *MockGateway) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func (g *MockGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return g.signer.Verify(SignaturePayload(orderID, paymentID), signature)
}

func (g *MockGateway) FetchPayment(_ context.Context, paymentID string) (*Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if err, ok := g.errs[paymentID]; ok {
		return nil, err
	}
	p, ok := g.payments[paymentID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}
