package domain

import "time"

// Payment is the immutable record of a gateway payment applied to an entitlement.
// PaymentRef is the idempotency anchor and is unique in the store.
type Payment struct {
	PaymentRef string    `json:"paymentId"`
	UserID     string    `json:"userId"`
	OrderRef   string    `json:"orderId"`
	Plan       Tier      `json:"plan"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

// VerifyPaymentRequest is the client-submitted checkout confirmation.
type VerifyPaymentRequest struct {
	PaymentID string `json:"paymentId" validate:"required,max=64"`
	OrderID   string `json:"orderId" validate:"required,max=64"`
	Signature string `json:"signature" validate:"required,hexadecimal,max=128"`
	Plan      string `json:"plan" validate:"required"`
}

// VerifyPaymentResponse is returned after a payment has been applied (or replayed).
type VerifyPaymentResponse struct {
	Status        Status     `json:"status"`
	Tier          Tier       `json:"tier"`
	ExpiresAt     *time.Time `json:"expiresAt"`
	IsPaid        bool       `json:"isPaid"`
	Credits       int        `json:"credits"`
	CorrelationID string     `json:"correlationId"`
	Replayed      bool       `json:"replayed"`
}
