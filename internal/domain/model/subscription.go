package model

import (
	"time"

	"creator-ai-entitlement/internal/domain"
)

// SubscriptionState classifies a record for display and gating decisions.
type SubscriptionState string

const (
	StateNone         SubscriptionState = "none"
	StateActive       SubscriptionState = "active"
	StateExpiringSoon SubscriptionState = "expiring_soon"
	StateOutOfScripts SubscriptionState = "out_of_scripts"
)

// expiringSoonWindow is the lead time within which an active subscription is
// reported as expiring.
const expiringSoonWindow = 7 * 24 * time.Hour

// PaymentRef links a record to the gateway transaction that created it.
// Absent for free-tier records.
type PaymentRef struct {
	PaymentID string `json:"payment_id"`
	OrderID   string `json:"order_id"`
}

// SubscriptionRecord is one user's current entitlement. Exactly one record is
// current per user scope; expired records are treated as absent by every
// reader.
type SubscriptionRecord struct {
	ID               string
	Plan             PlanTier
	ScriptsRemaining int
	TotalScripts     int // UnlimitedQuota when the plan is uncounted
	StartDate        time.Time
	EndDate          time.Time
	PaymentRef       *PaymentRef
	CreatedAt        time.Time
}

// NewSubscriptionRecord builds a fresh full-quota record for a plan. The
// billing window is always 30 days from now; a plan change never rolls
// remaining credits over.
func NewSubscriptionRecord(id string, plan *PlanDefinition, now time.Time, ref *PaymentRef) (*SubscriptionRecord, error) {
	if id == "" || plan == nil {
		return nil, domain.ErrInvalidArgument
	}
	return &SubscriptionRecord{
		ID:               id,
		Plan:             plan.Tier,
		ScriptsRemaining: plan.MonthlyQuota,
		TotalScripts:     plan.MonthlyQuota,
		StartDate:        now,
		EndDate:          now.Add(30 * 24 * time.Hour),
		PaymentRef:       ref,
		CreatedAt:        now,
	}, nil
}

// Unlimited reports whether the record's quota is uncounted.
func (r *SubscriptionRecord) Unlimited() bool { return r.TotalScripts == UnlimitedQuota }

// Expired reports whether the record is past its billing window.
func (r *SubscriptionRecord) Expired(now time.Time) bool { return now.After(r.EndDate) }

// StateAt classifies a live record. Quota exhaustion takes precedence over
// the expiring-soon window: a user with zero credits and ten days left is
// out of scripts, not active.
func (r *SubscriptionRecord) StateAt(now time.Time) SubscriptionState {
	if r == nil || r.Expired(now) {
		return StateNone
	}
	if !r.Unlimited() && r.ScriptsRemaining <= 0 {
		return StateOutOfScripts
	}
	if r.EndDate.Sub(now) <= expiringSoonWindow {
		return StateExpiringSoon
	}
	return StateActive
}

// DaysLeft returns whole days until expiry, never negative.
func (r *SubscriptionRecord) DaysLeft(now time.Time) int {
	d := int(r.EndDate.Sub(now).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}
