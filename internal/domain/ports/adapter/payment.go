package adapter

import (
	"context"

	"creator-ai-entitlement/internal/domain/model"
)

// PaymentGateway is the hex port for payment providers. Collect owns all
// widget mechanics of the external processor; the engine only consumes the
// three-way outcome.
type PaymentGateway interface {
	Name() string

	// Collect runs the hosted checkout for a plan purchase. It may block for
	// an unbounded, buyer-controlled duration; cancel ctx to abandon it.
	// A nil error with Status != OutcomeSuccess is a normal, non-exceptional
	// result (declined or dismissed).
	Collect(ctx context.Context, plan *model.PlanDefinition, payer model.PayerInfo) (*model.PaymentOutcome, error)

	// VerifyOutcome checks a success outcome server-side. It is a pure
	// function of the payload and the gateway's credentials; the client
	// callback fields are untrusted until this passes.
	VerifyOutcome(outcome *model.PaymentOutcome) error
}
