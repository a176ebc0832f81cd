// File: internal/usecase/checkout_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"creator-ai-entitlement/internal/domain"
	"creator-ai-entitlement/internal/domain/model"
	"creator-ai-entitlement/internal/domain/ports/adapter"
)

// recentAttempts bounds the in-memory checkout audit trail.
const recentAttempts = 64

// CheckoutUseCase drives the purchase state machine:
//
//	Idle -> AwaitingGateway -> {Verified -> Committed} | Failed | Cancelled
//
// The Committed transition is the only point at which payment may create a
// SubscriptionRecord. The gateway's client-side success callback is treated
// as untrusted input: the outcome is verified before any record is written,
// and failure or cancellation never mutates entitlement state.
type CheckoutUseCase struct {
	lifecycle *SubscriptionLifecycle
	catalog   *model.Catalog
	gateway   adapter.PaymentGateway
	log       *zerolog.Logger

	mu       sync.Mutex
	attempts []*model.CheckoutAttempt
}

func NewCheckoutUseCase(lifecycle *SubscriptionLifecycle, catalog *model.Catalog, gateway adapter.PaymentGateway, log *zerolog.Logger) *CheckoutUseCase {
	return &CheckoutUseCase{lifecycle: lifecycle, catalog: catalog, gateway: gateway, log: log}
}

// SelectFree grants the free tier directly, bypassing the gateway. The fixed
// small trial quota comes from the catalog's free plan.
func (uc *CheckoutUseCase) SelectFree(ctx context.Context, userID string) (*model.SubscriptionRecord, error) {
	return uc.lifecycle.Upgrade(ctx, userID, model.PlanFree, nil)
}

// Purchase runs one paid checkout attempt end to end. It blocks while the
// buyer interacts with the external widget; cancelling ctx (the buyer
// dismissed the widget) transitions back to idle without touching any
// SubscriptionRecord and returns ErrGatewayCancelled.
func (uc *CheckoutUseCase) Purchase(ctx context.Context, userID string, tier model.PlanTier, payer model.PayerInfo) (*model.SubscriptionRecord, error) {
	if tier == model.PlanFree {
		return uc.SelectFree(ctx, userID)
	}
	plan, err := uc.catalog.Find(tier)
	if err != nil {
		return nil, err
	}

	attempt := &model.CheckoutAttempt{
		ID:        uuid.NewString(),
		UserID:    userID,
		Plan:      tier,
		State:     model.CheckoutAwaitingGateway,
		StartedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	uc.remember(attempt)

	outcome, err := uc.gateway.Collect(ctx, plan, payer)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			uc.transition(attempt, model.CheckoutCancelled, "")
			return nil, domain.ErrGatewayCancelled
		}
		uc.transition(attempt, model.CheckoutFailed, err.Error())
		return nil, &domain.GatewayError{Provider: uc.gateway.Name(), Reason: err.Error()}
	}

	switch outcome.Status {
	case model.OutcomeCancelled:
		uc.transition(attempt, model.CheckoutCancelled, "")
		return nil, domain.ErrGatewayCancelled

	case model.OutcomeFailure:
		uc.transition(attempt, model.CheckoutFailed, outcome.Reason)
		return nil, &domain.GatewayError{Provider: uc.gateway.Name(), Reason: outcome.Reason}

	case model.OutcomeSuccess:
		// Gateway said yes; do not believe it until the signature checks out.
		if err := uc.gateway.VerifyOutcome(outcome); err != nil {
			uc.transition(attempt, model.CheckoutFailed, err.Error())
			uc.log.Warn().
				Err(err).
				Str("order_id", outcome.OrderID).
				Str("payment_id", outcome.PaymentID).
				Msg("payment outcome failed verification")
			return nil, fmt.Errorf("%w: %v", domain.ErrPaymentVerification, err)
		}
		attempt.OrderID = outcome.OrderID
		attempt.PaymentID = outcome.PaymentID
		uc.transition(attempt, model.CheckoutVerified, "")

		rec, err := uc.lifecycle.Upgrade(ctx, userID, tier, &model.PaymentRef{
			PaymentID: outcome.PaymentID,
			OrderID:   outcome.OrderID,
		})
		if err != nil {
			// The payment is verified but the write did not land; hand the
			// in-memory record back with the persistence error.
			return rec, err
		}
		uc.transition(attempt, model.CheckoutCommitted, "")
		return rec, nil

	default:
		uc.transition(attempt, model.CheckoutFailed, "unknown gateway outcome")
		return nil, &domain.GatewayError{Provider: uc.gateway.Name(), Reason: fmt.Sprintf("unknown outcome status %q", outcome.Status)}
	}
}

// Attempts returns a copy of the recent checkout audit trail, newest first.
func (uc *CheckoutUseCase) Attempts() []*model.CheckoutAttempt {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	out := make([]*model.CheckoutAttempt, 0, len(uc.attempts))
	for i := len(uc.attempts) - 1; i >= 0; i-- {
		cp := *uc.attempts[i]
		out = append(out, &cp)
	}
	return out
}

func (uc *CheckoutUseCase) remember(a *model.CheckoutAttempt) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.attempts = append(uc.attempts, a)
	if len(uc.attempts) > recentAttempts {
		uc.attempts = uc.attempts[len(uc.attempts)-recentAttempts:]
	}
}

func (uc *CheckoutUseCase) transition(a *model.CheckoutAttempt, state model.CheckoutState, reason string) {
	uc.mu.Lock()
	a.State = state
	a.Reason = reason
	a.UpdatedAt = time.Now()
	uc.mu.Unlock()
	uc.log.Debug().
		Str("attempt_id", a.ID).
		Str("plan", string(a.Plan)).
		Str("state", string(state)).
		Msg("checkout transition")
}
