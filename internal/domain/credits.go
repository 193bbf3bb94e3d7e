package domain

import (
	"encoding/json"
	"time"
)

// CreditTransaction is an append-only audit row. The entitlement balance stays the source of truth.
type CreditTransaction struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	Feature          string    `json:"feature"`
	CreditsUsed      int       `json:"creditsUsed"`
	CreditsRemaining int       `json:"creditsRemaining"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Charge is the outcome of an allowed metering decision.
type Charge struct {
	Feature   string `json:"feature"`
	Cost      int    `json:"cost"`
	Remaining int    `json:"remaining"`
	Unlimited bool   `json:"unlimited"`
}

// ConsumeRequest asks to run a metered feature.
type ConsumeRequest struct {
	Feature string          `json:"feature" validate:"required,max=64"`
	Payload json.RawMessage `json:"payload"`
}

// ConsumeResponse is returned after a feature ran (or fell back) behind a successful charge.
type ConsumeResponse struct {
	Result           json.RawMessage `json:"result"`
	CreditsRemaining int             `json:"creditsRemaining"`
	Degraded         bool            `json:"degraded,omitempty"`
}
