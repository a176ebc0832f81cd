// Demo walks the entitlement flows end to end against an in-memory store and
// the noop gateway: free selection, quota burn-down, paid upgrade, and a
// cancelled checkout.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/rs/zerolog"

	"creator-ai-entitlement/internal/domain"
	"creator-ai-entitlement/internal/domain/model"
	"creator-ai-entitlement/internal/infra/payment"
	memstore "creator-ai-entitlement/internal/infra/storage"
	"creator-ai-entitlement/internal/usecase"
)

func main() {
	ctx := context.Background()
	logger := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

	store := memstore.NewMemoryStore()
	catalog := model.DefaultCatalog()
	lifecycle := usecase.NewSubscriptionLifecycle(store, catalog, nil, &logger)
	quota := usecase.NewQuotaEnforcer(lifecycle, &logger)
	gate := usecase.NewFeatureGate(catalog)
	gateway := payment.NewNoopPaymentGateway()
	checkout := usecase.NewCheckoutUseCase(lifecycle, catalog, gateway, &logger)

	userID := "demo-user"

	// 1) Free tier selection
	rec, err := checkout.SelectFree(ctx, userID)
	if err != nil {
		log.Fatalf("select free: %v", err)
	}
	fmt.Printf("free plan: %d scripts, expires %s\n", rec.ScriptsRemaining, rec.EndDate.Format("2006-01-02"))

	// 2) Burn the trial quota down to exhaustion
	for {
		remaining, err := quota.Consume(ctx, userID)
		if err != nil {
			fmt.Printf("consume rejected: %v\n", err)
			break
		}
		fmt.Printf("consumed, %d remaining\n", remaining)
	}
	rec, _ = lifecycle.Get(ctx, userID)
	fmt.Printf("state: %s\n", lifecycle.Classify(rec))

	// 3) Paid upgrade through the (noop) gateway
	rec, err = checkout.Purchase(ctx, userID, model.PlanBasic, model.PayerInfo{UserID: userID, Email: "demo@example.test"})
	if err != nil {
		log.Fatalf("purchase: %v", err)
	}
	fmt.Printf("upgraded to %s: %d scripts, payment %s\n", rec.Plan, rec.ScriptsRemaining, rec.PaymentRef.PaymentID)
	fmt.Printf("premium templates unlocked: %v\n", gate.HasFeature(rec, model.FeaturePremiumTemplates))

	// 4) A cancelled checkout leaves the record untouched
	cancelCtx, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := checkout.Purchase(cancelCtx, userID, model.PlanPro, model.PayerInfo{UserID: userID}); errors.Is(err, domain.ErrGatewayCancelled) {
		fmt.Printf("pro checkout cancelled: %v\n", err)
	}
	rec, _ = lifecycle.Get(ctx, userID)
	fmt.Printf("still on %s with %d scripts\n", rec.Plan, rec.ScriptsRemaining)
}
