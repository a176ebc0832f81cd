package repository

import (
	"context"

	"creator-ai-entitlement/internal/domain/model"
)

// SubscriptionMirror is an optional, write-only backend sync of the locally
// authoritative record. Implementations are best-effort: core operations must
// keep working when the mirror is down or absent.
type SubscriptionMirror interface {
	Record(ctx context.Context, userID string, rec *model.SubscriptionRecord) error
	Clear(ctx context.Context, userID string) error
}
