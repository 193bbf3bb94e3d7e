package domain

import "time"

// Tier is the commercial level of an entitlement.
type Tier string

const (
	TierFree    Tier = "free"
	TierStarter Tier = "starter"
	TierPro     Tier = "pro"
)

// Status is the stored lifecycle state of an entitlement.
// There is no "expired" status: expiry is derived from ExpiresAt at read time.
type Status string

const (
	StatusInactive  Status = "inactive"
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
)

// DefaultCredits is the balance granted to a freshly provisioned entitlement.
const DefaultCredits = 50

// Entitlement is the durable per-user record of what a user may do.
type Entitlement struct {
	UserID         string     `json:"userId"`
	Tier           Tier       `json:"tier"`
	Status         Status     `json:"status"`
	ExpiresAt      *time.Time `json:"expiresAt"`
	Credits        int        `json:"credits"`
	LastPaymentRef *string    `json:"lastPaymentRef,omitempty"`
	Unlimited      bool       `json:"unlimited"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// NewEntitlement returns the defaults used on first touch.
func NewEntitlement(userID string, credits int, now time.Time) *Entitlement {
	return &Entitlement{
		UserID:    userID,
		Tier:      TierFree,
		Status:    StatusInactive,
		Credits:   credits,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsPaid is true while the entitlement is active and not yet past its expiry.
func (e *Entitlement) IsPaid(now time.Time) bool {
	return e.Status == StatusActive && e.ExpiresAt != nil && e.ExpiresAt.After(now)
}

// AppliedPayment reports whether ref is the payment that last activated this entitlement.
func (e *Entitlement) AppliedPayment(ref string) bool {
	return e.LastPaymentRef != nil && *e.LastPaymentRef == ref
}

// Activation is the mutation applied by a verified payment.
type Activation struct {
	UserID     string
	Tier       Tier
	ExpiresAt  time.Time
	PaymentRef string
	At         time.Time
}

// EntitlementResponse is the API view of an entitlement, with isPaid derived.
type EntitlementResponse struct {
	UserID    string     `json:"userId"`
	Tier      Tier       `json:"tier"`
	Status    Status     `json:"status"`
	ExpiresAt *time.Time `json:"expiresAt"`
	IsPaid    bool       `json:"isPaid"`
	Credits   int        `json:"credits"`
	Unlimited bool       `json:"unlimited"`
}

// ToResponse builds the API view as of now.
func (e *Entitlement) ToResponse(now time.Time) *EntitlementResponse {
	return &EntitlementResponse{
		UserID:    e.UserID,
		Tier:      e.Tier,
		Status:    e.Status,
		ExpiresAt: e.ExpiresAt,
		IsPaid:    e.IsPaid(now),
		Credits:   e.Credits,
		Unlimited: e.Unlimited,
	}
}

// SetUnlimitedRequest toggles the admin/unlimited flag.
type SetUnlimitedRequest struct {
	Unlimited *bool `json:"unlimited" validate:"required"`
}

// Stats is a system-wide summary for administrators.
type Stats struct {
	Entitlements int `json:"entitlements"`
	Paid         int `json:"paid"`
	Payments     int `json:"payments"`
	Transactions int `json:"transactions"`
}

// Claims is the verified principal extracted from a bearer token.
type Claims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
