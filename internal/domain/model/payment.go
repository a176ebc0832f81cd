package model

import "time"

// CheckoutState tracks one purchase attempt through the gateway.
//
//	Idle -> AwaitingGateway -> Verified -> Committed
//	                        -> Failed    (gateway error, back to idle)
//	                        -> Cancelled (user dismissed, back to idle)
type CheckoutState string

const (
	CheckoutIdle            CheckoutState = "idle"
	CheckoutAwaitingGateway CheckoutState = "awaiting_gateway"
	CheckoutVerified        CheckoutState = "verified"
	CheckoutCommitted       CheckoutState = "committed"
	CheckoutFailed          CheckoutState = "failed"
	CheckoutCancelled       CheckoutState = "cancelled"
)

// OutcomeStatus is the three-way result the gateway adapter reports.
type OutcomeStatus string

const (
	OutcomeSuccess   OutcomeStatus = "success"
	OutcomeFailure   OutcomeStatus = "failure"
	OutcomeCancelled OutcomeStatus = "cancelled"
)

// PaymentOutcome is what the gateway adapter hands back after the buyer is
// done with the external widget. The client-side fields are untrusted until
// independently verified.
type PaymentOutcome struct {
	Status    OutcomeStatus
	PaymentID string
	OrderID   string
	Signature string // provider signature over order|payment, checked server-side
	Reason    string // provider detail on failure
}

// PayerInfo is the buyer identity forwarded to the gateway widget.
type PayerInfo struct {
	UserID string
	Name   string
	Email  string
}

// CheckoutAttempt is the audit trail of one purchase attempt.
type CheckoutAttempt struct {
	ID        string
	UserID    string
	Plan      PlanTier
	State     CheckoutState
	OrderID   string
	PaymentID string
	Reason    string
	StartedAt time.Time
	UpdatedAt time.Time
}
