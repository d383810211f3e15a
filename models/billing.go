package models

import "time"

// BillingRow is one provider's bill for a cycle month.
type BillingRow struct {
	ProviderID    ID         `json:"provider_id"`
	ProviderName  string     `json:"provider_name"`
	AccountNumber string     `json:"account_number"`
	Phone         string     `json:"phone,omitempty"`
	AmountDue     float64    `json:"amount_due_gyd"`
	ServiceCharge float64    `json:"service_charge_gyd,omitempty"`
	IsPaid        bool       `json:"is_paid"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	IsSuspended   bool       `json:"is_suspended"`
	CycleMonth    string     `json:"cycle_month,omitempty"` // YYYY-MM-01
}

// ServiceCharge is the platform fee percentage with its provenance.
type ServiceCharge struct {
	Percentage float64 `json:"service_charge_percentage"`
	Stale      bool    `json:"stale"` // true when served from the local cache after a failed fetch
}
