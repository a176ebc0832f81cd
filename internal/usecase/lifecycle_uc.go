// File: internal/usecase/lifecycle_uc.go
package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"creator-ai-entitlement/internal/domain"
	"creator-ai-entitlement/internal/domain/model"
	"creator-ai-entitlement/internal/domain/ports/repository"
	"creator-ai-entitlement/internal/domain/ports/storage"
)

const (
	// subscriptionKey is the per-scope key the record lives under.
	subscriptionKey = "subscription"
	// legacySubscriptionKey is the single unscoped key older clients wrote.
	// It is migrated to the caller's scope exactly once on first read.
	legacySubscriptionKey = "userSubscription"

	storedSchemaVersion = 1
)

// storedRecord is the versioned wire shape of a SubscriptionRecord inside the
// entitlement store. Older shapes are migrated on read, never trusted as-is.
type storedRecord struct {
	Schema           int               `json:"schema"`
	ID               string            `json:"id"`
	Plan             model.PlanTier    `json:"plan"`
	ScriptsRemaining int               `json:"scripts_remaining"`
	TotalScripts     int               `json:"total_scripts"`
	StartDate        time.Time         `json:"start_date"`
	EndDate          time.Time         `json:"end_date"`
	PaymentRef       *model.PaymentRef `json:"payment_ref,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// legacyStoredRecord is the schema-less blob written before records were
// scoped and versioned: camelCase keys, epoch-millisecond dates, flat
// payment fields.
type legacyStoredRecord struct {
	Plan             model.PlanTier `json:"plan"`
	ScriptsRemaining int            `json:"scriptsRemaining"`
	TotalScripts     int            `json:"totalScripts"`
	StartDate        int64          `json:"startDate"`
	EndDate          int64          `json:"endDate"`
	PaymentID        string         `json:"paymentId"`
	OrderID          string         `json:"orderId"`
}

// SubscriptionLifecycle owns the subscription record: creation, renewal,
// expiry evaluation and status classification. Every read goes through Get so
// expiry is evaluated freshly; there is no background timer.
type SubscriptionLifecycle struct {
	store   storage.EntitlementStore
	catalog *model.Catalog
	mirror  repository.SubscriptionMirror // optional, best-effort
	log     *zerolog.Logger
}

// NewSubscriptionLifecycle constructs the lifecycle manager. mirror may be
// nil when no backend sync is configured.
func NewSubscriptionLifecycle(store storage.EntitlementStore, catalog *model.Catalog, mirror repository.SubscriptionMirror, log *zerolog.Logger) *SubscriptionLifecycle {
	return &SubscriptionLifecycle{store: store, catalog: catalog, mirror: mirror, log: log}
}

// Get reads the stored record for a user. A record past its end date is
// treated as absent: the store is proactively cleared and ErrNoSubscription
// is returned. Returns ErrNoSubscription when nothing is stored.
func (uc *SubscriptionLifecycle) Get(ctx context.Context, userID string) (*model.SubscriptionRecord, error) {
	scope := storage.ScopeFor(userID)

	raw, err := uc.store.Get(ctx, subscriptionKey, scope)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "get", Key: subscriptionKey, Err: err}
	}
	if raw == "" {
		raw, err = uc.migrateLegacy(ctx, scope)
		if err != nil {
			return nil, err
		}
		if raw == "" {
			return nil, domain.ErrNoSubscription
		}
	}

	rec, err := decodeRecord(raw)
	if err != nil {
		// A blob we cannot validate must never grant entitlements.
		uc.log.Warn().Err(err).Str("scope", string(scope)).Msg("discarding unreadable subscription record")
		_ = uc.store.Remove(ctx, subscriptionKey, scope)
		return nil, domain.ErrNoSubscription
	}

	if rec.Expired(time.Now()) {
		if err := uc.store.Remove(ctx, subscriptionKey, scope); err != nil {
			uc.log.Warn().Err(err).Str("scope", string(scope)).Msg("failed to clear expired record")
		}
		uc.mirrorClear(ctx, userID)
		return nil, domain.ErrNoSubscription
	}
	return rec, nil
}

// Save replaces the stored record wholesale. On a store failure the record is
// still valid in memory; the caller decides whether to retry or carry on with
// the in-memory view.
func (uc *SubscriptionLifecycle) Save(ctx context.Context, rec *model.SubscriptionRecord, userID string) error {
	if rec == nil {
		return domain.ErrInvalidArgument
	}
	raw, err := encodeRecord(rec)
	if err != nil {
		return &domain.PersistenceError{Op: "set", Key: subscriptionKey, Err: err}
	}
	scope := storage.ScopeFor(userID)
	if err := uc.store.Set(ctx, subscriptionKey, raw, scope); err != nil {
		return &domain.PersistenceError{Op: "set", Key: subscriptionKey, Err: err}
	}
	uc.mirrorRecord(ctx, userID, rec)
	return nil
}

// Clear removes the record. Idempotent: clearing an absent record succeeds.
func (uc *SubscriptionLifecycle) Clear(ctx context.Context, userID string) error {
	scope := storage.ScopeFor(userID)
	if err := uc.store.Remove(ctx, subscriptionKey, scope); err != nil {
		return &domain.PersistenceError{Op: "remove", Key: subscriptionKey, Err: err}
	}
	uc.mirrorClear(ctx, userID)
	return nil
}

// Classify maps a record (or its absence) to exactly one display state.
// Quota exhaustion takes precedence over the expiring-soon window.
func (uc *SubscriptionLifecycle) Classify(rec *model.SubscriptionRecord) model.SubscriptionState {
	if rec == nil {
		return model.StateNone
	}
	return rec.StateAt(time.Now())
}

// Upgrade replaces the current record with a brand-new full-quota record for
// newTier: fresh 30-day window, no credit rollover. ref is nil for free-tier
// selection. On a store failure the new record is returned alongside the
// error so the caller can keep an in-memory view.
func (uc *SubscriptionLifecycle) Upgrade(ctx context.Context, userID string, newTier model.PlanTier, ref *model.PaymentRef) (*model.SubscriptionRecord, error) {
	plan, err := uc.catalog.Find(newTier)
	if err != nil {
		return nil, err
	}
	rec, err := model.NewSubscriptionRecord(uuid.NewString(), plan, time.Now(), ref)
	if err != nil {
		return nil, err
	}
	if err := uc.Save(ctx, rec, userID); err != nil {
		return rec, err
	}
	uc.log.Info().
		Str("user_id", userID).
		Str("plan", string(newTier)).
		Int("quota", rec.TotalScripts).
		Msg("subscription upgraded")
	return rec, nil
}

// migrateLegacy performs the one-time unscoped->scoped migration: when the
// scoped record is absent but the old unscoped key holds one, copy it into
// the caller's scope and delete the legacy key.
func (uc *SubscriptionLifecycle) migrateLegacy(ctx context.Context, scope storage.Scope) (string, error) {
	raw, err := uc.store.Get(ctx, legacySubscriptionKey, storage.ScopeGlobal)
	if err != nil {
		return "", &domain.PersistenceError{Op: "get", Key: legacySubscriptionKey, Err: err}
	}
	if raw == "" {
		return "", nil
	}
	rec, err := decodeRecord(raw)
	if err != nil {
		// Unreadable legacy blob: drop it rather than carrying it forward.
		_ = uc.store.Remove(ctx, legacySubscriptionKey, storage.ScopeGlobal)
		return "", nil
	}
	migrated, err := encodeRecord(rec)
	if err != nil {
		return "", &domain.PersistenceError{Op: "set", Key: subscriptionKey, Err: err}
	}
	if err := uc.store.Set(ctx, subscriptionKey, migrated, scope); err != nil {
		return "", &domain.PersistenceError{Op: "set", Key: subscriptionKey, Err: err}
	}
	if err := uc.store.Remove(ctx, legacySubscriptionKey, storage.ScopeGlobal); err != nil {
		uc.log.Warn().Err(err).Msg("failed to delete legacy subscription key after migration")
	}
	uc.log.Info().Str("scope", string(scope)).Msg("migrated legacy subscription record")
	return migrated, nil
}

func (uc *SubscriptionLifecycle) mirrorRecord(ctx context.Context, userID string, rec *model.SubscriptionRecord) {
	if uc.mirror == nil {
		return
	}
	if err := uc.mirror.Record(ctx, userID, rec); err != nil {
		uc.log.Warn().Err(err).Str("user_id", userID).Msg("subscription mirror write failed")
	}
}

func (uc *SubscriptionLifecycle) mirrorClear(ctx context.Context, userID string) {
	if uc.mirror == nil {
		return
	}
	if err := uc.mirror.Clear(ctx, userID); err != nil {
		uc.log.Warn().Err(err).Str("user_id", userID).Msg("subscription mirror clear failed")
	}
}

func encodeRecord(rec *model.SubscriptionRecord) (string, error) {
	b, err := json.Marshal(&storedRecord{
		Schema:           storedSchemaVersion,
		ID:               rec.ID,
		Plan:             rec.Plan,
		ScriptsRemaining: rec.ScriptsRemaining,
		TotalScripts:     rec.TotalScripts,
		StartDate:        rec.StartDate,
		EndDate:          rec.EndDate,
		PaymentRef:       rec.PaymentRef,
		CreatedAt:        rec.CreatedAt,
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeRecord validates a stored blob and migrates pre-versioning shapes.
func decodeRecord(raw string) (*model.SubscriptionRecord, error) {
	var sr storedRecord
	if err := json.Unmarshal([]byte(raw), &sr); err != nil {
		return nil, err
	}
	switch sr.Schema {
	case storedSchemaVersion:
		if sr.Plan == "" || sr.EndDate.IsZero() || !sr.EndDate.After(sr.StartDate) {
			return nil, domain.ErrInvalidArgument
		}
		if sr.ScriptsRemaining < 0 && sr.TotalScripts != model.UnlimitedQuota {
			return nil, domain.ErrInvalidArgument
		}
		return &model.SubscriptionRecord{
			ID:               sr.ID,
			Plan:             sr.Plan,
			ScriptsRemaining: sr.ScriptsRemaining,
			TotalScripts:     sr.TotalScripts,
			StartDate:        sr.StartDate,
			EndDate:          sr.EndDate,
			PaymentRef:       sr.PaymentRef,
			CreatedAt:        sr.CreatedAt,
		}, nil
	case 0:
		return decodeLegacyRecord(raw)
	default:
		return nil, domain.ErrInvalidArgument
	}
}

func decodeLegacyRecord(raw string) (*model.SubscriptionRecord, error) {
	var lr legacyStoredRecord
	if err := json.Unmarshal([]byte(raw), &lr); err != nil {
		return nil, err
	}
	if lr.Plan == "" || lr.EndDate <= lr.StartDate {
		return nil, domain.ErrInvalidArgument
	}
	rec := &model.SubscriptionRecord{
		ID:               uuid.NewString(),
		Plan:             lr.Plan,
		ScriptsRemaining: lr.ScriptsRemaining,
		TotalScripts:     lr.TotalScripts,
		StartDate:        time.UnixMilli(lr.StartDate),
		EndDate:          time.UnixMilli(lr.EndDate),
		CreatedAt:        time.UnixMilli(lr.StartDate),
	}
	if lr.PaymentID != "" || lr.OrderID != "" {
		rec.PaymentRef = &model.PaymentRef{PaymentID: lr.PaymentID, OrderID: lr.OrderID}
	}
	return rec, nil
}
