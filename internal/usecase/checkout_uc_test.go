//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"creator-ai-entitlement/internal/domain"
	"creator-ai-entitlement/internal/domain/model"
	"creator-ai-entitlement/internal/usecase"
)

func newCheckoutFixture(gw *MockPaymentGateway) (*MockEntitlementStore, *usecase.SubscriptionLifecycle, *usecase.CheckoutUseCase) {
	store := NewMockEntitlementStore()
	lifecycle := newLifecycle(store)
	catalog := model.DefaultCatalog()
	return store, lifecycle, usecase.NewCheckoutUseCase(lifecycle, catalog, gw, newTestLogger())
}

func TestCheckoutUseCase_SelectFree(t *testing.T) {
	ctx := context.Background()
	gw := &MockPaymentGateway{}
	_, lifecycle, checkout := newCheckoutFixture(gw)

	rec, err := checkout.SelectFree(ctx, "user-1")
	if err != nil {
		t.Fatalf("expected free selection to succeed, got: %v", err)
	}
	if rec.ScriptsRemaining != 2 || rec.TotalScripts != 2 {
		t.Errorf("expected the fixed free quota of 2, got remaining=%d total=%d", rec.ScriptsRemaining, rec.TotalScripts)
	}
	if got := rec.EndDate.Sub(rec.StartDate); got != 30*24*time.Hour {
		t.Errorf("expected a 30 day window, got %s", got)
	}
	if rec.PaymentRef != nil {
		t.Error("expected no payment ref on a free selection")
	}
	if gw.CollectCalls != 0 {
		t.Errorf("expected the gateway to be bypassed, got %d collect calls", gw.CollectCalls)
	}
	if _, err := lifecycle.Get(ctx, "user-1"); err != nil {
		t.Errorf("expected the free record to be persisted, got: %v", err)
	}
}

func TestCheckoutUseCase_Purchase(t *testing.T) {
	ctx := context.Background()

	t.Run("verified success commits a new record with the payment ref", func(t *testing.T) {
		gw := &MockPaymentGateway{}
		_, lifecycle, checkout := newCheckoutFixture(gw)

		rec, err := checkout.Purchase(ctx, "user-1", model.PlanBasic, model.PayerInfo{UserID: "user-1"})
		if err != nil {
			t.Fatalf("expected purchase to succeed, got: %v", err)
		}
		if rec.Plan != model.PlanBasic || rec.ScriptsRemaining != 50 {
			t.Errorf("expected a fresh basic record, got %+v", rec)
		}
		if rec.PaymentRef == nil || rec.PaymentRef.OrderID != "order_mock" || rec.PaymentRef.PaymentID != "pay_mock" {
			t.Errorf("expected the gateway's ids on the record, got %+v", rec.PaymentRef)
		}
		if gw.VerifyCalls != 1 {
			t.Errorf("expected exactly one verification, got %d", gw.VerifyCalls)
		}
		if _, err := lifecycle.Get(ctx, "user-1"); err != nil {
			t.Errorf("expected the committed record to be persisted, got: %v", err)
		}

		attempts := checkout.Attempts()
		if len(attempts) != 1 || attempts[0].State != model.CheckoutCommitted {
			t.Errorf("expected one committed attempt, got %+v", attempts)
		}
	})

	t.Run("free tier purchase bypasses the gateway", func(t *testing.T) {
		gw := &MockPaymentGateway{}
		_, _, checkout := newCheckoutFixture(gw)
		rec, err := checkout.Purchase(ctx, "user-1", model.PlanFree, model.PayerInfo{UserID: "user-1"})
		if err != nil {
			t.Fatalf("expected free purchase to succeed, got: %v", err)
		}
		if rec.TotalScripts != 2 || gw.CollectCalls != 0 {
			t.Errorf("expected free path, got quota %d and %d collect calls", rec.TotalScripts, gw.CollectCalls)
		}
	})

	t.Run("verification failure grants nothing and keeps the prior record", func(t *testing.T) {
		gw := &MockPaymentGateway{
			VerifyFunc: func(outcome *model.PaymentOutcome) error {
				return errors.New("signature mismatch")
			},
		}
		_, lifecycle, checkout := newCheckoutFixture(gw)
		prior, _ := checkout.SelectFree(ctx, "user-1")

		_, err := checkout.Purchase(ctx, "user-1", model.PlanPro, model.PayerInfo{UserID: "user-1"})
		if !errors.Is(err, domain.ErrPaymentVerification) {
			t.Fatalf("expected ErrPaymentVerification, got: %v", err)
		}

		rec, err := lifecycle.Get(ctx, "user-1")
		if err != nil {
			t.Fatalf("expected the prior record to survive, got: %v", err)
		}
		if rec.ID != prior.ID || rec.Plan != model.PlanFree {
			t.Errorf("expected the free record to be untouched, got %+v", rec)
		}
	})

	t.Run("gateway failure surfaces the provider reason and mutates nothing", func(t *testing.T) {
		gw := &MockPaymentGateway{
			CollectFunc: func(ctx context.Context, plan *model.PlanDefinition, payer model.PayerInfo) (*model.PaymentOutcome, error) {
				return &model.PaymentOutcome{Status: model.OutcomeFailure, Reason: "card declined"}, nil
			},
		}
		_, lifecycle, checkout := newCheckoutFixture(gw)

		_, err := checkout.Purchase(ctx, "user-1", model.PlanBasic, model.PayerInfo{UserID: "user-1"})
		var gwErr *domain.GatewayError
		if !errors.As(err, &gwErr) {
			t.Fatalf("expected GatewayError, got: %v", err)
		}
		if gwErr.Reason != "card declined" {
			t.Errorf("expected the provider reason verbatim, got %q", gwErr.Reason)
		}
		if _, err := lifecycle.Get(ctx, "user-1"); !errors.Is(err, domain.ErrNoSubscription) {
			t.Errorf("expected no record after a failed payment, got: %v", err)
		}
	})

	t.Run("cancelled outcome leaves any prior record retrievable unchanged", func(t *testing.T) {
		gw := &MockPaymentGateway{
			CollectFunc: func(ctx context.Context, plan *model.PlanDefinition, payer model.PayerInfo) (*model.PaymentOutcome, error) {
				return &model.PaymentOutcome{Status: model.OutcomeCancelled}, nil
			},
		}
		_, lifecycle, checkout := newCheckoutFixture(gw)
		prior, _ := checkout.SelectFree(ctx, "user-1")

		_, err := checkout.Purchase(ctx, "user-1", model.PlanPro, model.PayerInfo{UserID: "user-1"})
		if !errors.Is(err, domain.ErrGatewayCancelled) {
			t.Fatalf("expected ErrGatewayCancelled, got: %v", err)
		}
		rec, err := lifecycle.Get(ctx, "user-1")
		if err != nil {
			t.Fatalf("expected the prior record to still be retrievable, got: %v", err)
		}
		if rec.ID != prior.ID || rec.ScriptsRemaining != prior.ScriptsRemaining {
			t.Errorf("expected the prior record unchanged, got %+v", rec)
		}
		if gw.VerifyCalls != 0 {
			t.Errorf("expected no verification for a cancelled outcome, got %d", gw.VerifyCalls)
		}
	})

	t.Run("context cancellation during collect maps to cancelled", func(t *testing.T) {
		gw := &MockPaymentGateway{
			CollectFunc: func(ctx context.Context, plan *model.PlanDefinition, payer model.PayerInfo) (*model.PaymentOutcome, error) {
				return nil, context.Canceled
			},
		}
		_, lifecycle, checkout := newCheckoutFixture(gw)
		if _, err := checkout.Purchase(ctx, "user-1", model.PlanBasic, model.PayerInfo{UserID: "user-1"}); !errors.Is(err, domain.ErrGatewayCancelled) {
			t.Fatalf("expected ErrGatewayCancelled, got: %v", err)
		}
		if _, err := lifecycle.Get(ctx, "user-1"); !errors.Is(err, domain.ErrNoSubscription) {
			t.Errorf("expected no record after cancellation, got: %v", err)
		}
	})

	t.Run("unknown tier is rejected before the gateway is involved", func(t *testing.T) {
		gw := &MockPaymentGateway{}
		_, _, checkout := newCheckoutFixture(gw)
		if _, err := checkout.Purchase(ctx, "user-1", "platinum", model.PayerInfo{UserID: "user-1"}); !errors.Is(err, domain.ErrUnknownPlan) {
			t.Fatalf("expected ErrUnknownPlan, got: %v", err)
		}
		if gw.CollectCalls != 0 {
			t.Errorf("expected no gateway call for an unknown tier, got %d", gw.CollectCalls)
		}
	})

	t.Run("attempt trail records the terminal state per attempt", func(t *testing.T) {
		calls := 0
		gw := &MockPaymentGateway{
			CollectFunc: func(ctx context.Context, plan *model.PlanDefinition, payer model.PayerInfo) (*model.PaymentOutcome, error) {
				calls++
				if calls == 1 {
					return &model.PaymentOutcome{Status: model.OutcomeCancelled}, nil
				}
				return &model.PaymentOutcome{
					Status:    model.OutcomeSuccess,
					OrderID:   "order_2",
					PaymentID: "pay_2",
					Signature: "sig",
				}, nil
			},
		}
		_, _, checkout := newCheckoutFixture(gw)

		_, _ = checkout.Purchase(ctx, "user-1", model.PlanBasic, model.PayerInfo{UserID: "user-1"})
		_, err := checkout.Purchase(ctx, "user-1", model.PlanBasic, model.PayerInfo{UserID: "user-1"})
		if err != nil {
			t.Fatalf("second purchase failed: %v", err)
		}

		attempts := checkout.Attempts()
		if len(attempts) != 2 {
			t.Fatalf("expected 2 attempts, got %d", len(attempts))
		}
		// Newest first.
		if attempts[0].State != model.CheckoutCommitted || attempts[1].State != model.CheckoutCancelled {
			t.Errorf("expected [committed, cancelled], got [%s, %s]", attempts[0].State, attempts[1].State)
		}
	})
}
