package payment

import (
	"context"
	"fmt"
	"sync"

	"creator-ai-entitlement/internal/domain/model"
	"creator-ai-entitlement/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopPaymentGateway)(nil)

// NoopPaymentGateway is a simple in-memory gateway for tests and the demo
// binary. By default every Collect succeeds immediately with a validly
// signed outcome; set OutcomeFunc to script failures and cancellations.
type NoopPaymentGateway struct {
	Secret string

	// OutcomeFunc, when set, decides the outcome per collect call.
	OutcomeFunc func(orderID string, plan *model.PlanDefinition) *model.PaymentOutcome

	mu  sync.Mutex
	seq int64
}

func NewNoopPaymentGateway() *NoopPaymentGateway {
	return &NoopPaymentGateway{Secret: "noop-secret"}
}

func (g *NoopPaymentGateway) Name() string { return "noop" }

func (g *NoopPaymentGateway) next(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s_noop_%d", prefix, g.seq)
}

func (g *NoopPaymentGateway) Collect(ctx context.Context, plan *model.PlanDefinition, payer model.PayerInfo) (*model.PaymentOutcome, error) {
	orderID := g.next("order")
	if err := ctx.Err(); err != nil {
		return &model.PaymentOutcome{Status: model.OutcomeCancelled, OrderID: orderID}, nil
	}
	if g.OutcomeFunc != nil {
		return g.OutcomeFunc(orderID, plan), nil
	}
	paymentID := g.next("pay")
	return &model.PaymentOutcome{
		Status:    model.OutcomeSuccess,
		OrderID:   orderID,
		PaymentID: paymentID,
		Signature: SignCheckout(g.Secret, orderID, paymentID),
	}, nil
}

func (g *NoopPaymentGateway) VerifyOutcome(outcome *model.PaymentOutcome) error {
	if outcome == nil || outcome.Status != model.OutcomeSuccess {
		return fmt.Errorf("noop: outcome is not a success")
	}
	if !VerifyCheckoutSignature(g.Secret, outcome.OrderID, outcome.PaymentID, outcome.Signature) {
		return fmt.Errorf("noop: signature mismatch for order %s", outcome.OrderID)
	}
	return nil
}
