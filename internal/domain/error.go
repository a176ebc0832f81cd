package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound            = errors.New("entity not found")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrNoSubscription      = errors.New("no current subscription")
	ErrQuotaExhausted      = errors.New("script quota exhausted")
	ErrPaymentVerification = errors.New("payment verification failed")
	ErrGatewayCancelled    = errors.New("payment cancelled by user")
	ErrUnknownPlan         = errors.New("unknown plan tier")
)

// PersistenceError wraps a failed entitlement store read or write. Callers
// that still hold an in-memory record may keep operating on it; the error
// tells them the write did not land.
type PersistenceError struct {
	Op  string // "get" | "set" | "remove"
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("entitlement store %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// GatewayError surfaces a payment provider failure verbatim. No retries are
// attempted on top of it.
type GatewayError struct {
	Provider string
	Reason   string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway %s: %s", e.Provider, e.Reason)
}
