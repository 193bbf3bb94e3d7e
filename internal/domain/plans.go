package domain

import "time"

// Plan is a purchasable tier.
type Plan struct {
	ID           Tier   `json:"id"`
	Name         string `json:"name"`
	Amount       int64  `json:"amount"`   // minor units (29900 = ₹299.00)
	Currency     string `json:"currency"` // ISO 4217
	ValidityDays int    `json:"validityDays"`
	Popular      bool   `json:"popular"`
}

// Validity is the access window granted by one verified payment.
func (p Plan) Validity() time.Duration {
	return time.Duration(p.ValidityDays) * 24 * time.Hour
}

// AvailablePlans returns all paid plans.
func AvailablePlans() []Plan {
	return []Plan{
		{
			ID:           TierStarter,
			Name:         "Starter",
			Amount:       29900,
			Currency:     "INR",
			ValidityDays: 30,
		},
		{
			ID:           TierPro,
			Name:         "Pro",
			Amount:       79900,
			Currency:     "INR",
			ValidityDays: 30,
			Popular:      true,
		},
	}
}

// GetPlan returns the paid plan for a given ID. Unknown IDs are not defaulted.
func GetPlan(id string) (Plan, bool) {
	for _, p := range AvailablePlans() {
		if string(p.ID) == id {
			return p, true
		}
	}
	return Plan{}, false
}
