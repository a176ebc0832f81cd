// File: internal/usecase/quota_uc.go
package usecase

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"creator-ai-entitlement/internal/domain"
	"creator-ai-entitlement/internal/domain/model"
	"creator-ai-entitlement/internal/domain/ports/storage"
)

// QuotaEnforcer performs the atomic check-and-decrement of remaining script
// credits. Within one process consumption is strictly sequential per user
// scope so no two decrements are computed from the same stale snapshot.
// Across processes the store stays last-writer-wins.
type QuotaEnforcer struct {
	lifecycle *SubscriptionLifecycle
	log       *zerolog.Logger

	mu    sync.Mutex
	locks map[storage.Scope]*sync.Mutex
}

func NewQuotaEnforcer(lifecycle *SubscriptionLifecycle, log *zerolog.Logger) *QuotaEnforcer {
	return &QuotaEnforcer{
		lifecycle: lifecycle,
		log:       log,
		locks:     make(map[storage.Scope]*sync.Mutex),
	}
}

// CanConsume reports whether a consumption would succeed: the record exists
// and has credits left, or its quota is uncounted.
func (uc *QuotaEnforcer) CanConsume(rec *model.SubscriptionRecord) bool {
	if rec == nil {
		return false
	}
	return rec.Unlimited() || rec.ScriptsRemaining > 0
}

// Consume decrements one credit and returns the remaining count. It reads the
// live record through the lifecycle manager (so expiry is evaluated) and
// fails with ErrQuotaExhausted rather than going below zero. For uncounted
// plans the sentinel remaining value is returned unchanged.
func (uc *QuotaEnforcer) Consume(ctx context.Context, userID string) (int, error) {
	lock := uc.scopeLock(storage.ScopeFor(userID))
	lock.Lock()
	defer lock.Unlock()

	rec, err := uc.lifecycle.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !uc.CanConsume(rec) {
		return 0, domain.ErrQuotaExhausted
	}
	if rec.Unlimited() {
		return rec.ScriptsRemaining, nil
	}

	rec.ScriptsRemaining--
	if err := uc.lifecycle.Save(ctx, rec, userID); err != nil {
		// The decrement did not land; report the write failure together with
		// the in-memory remaining count.
		return rec.ScriptsRemaining, err
	}
	uc.log.Debug().
		Str("user_id", userID).
		Int("remaining", rec.ScriptsRemaining).
		Msg("script credit consumed")
	return rec.ScriptsRemaining, nil
}

func (uc *QuotaEnforcer) scopeLock(scope storage.Scope) *sync.Mutex {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	l, ok := uc.locks[scope]
	if !ok {
		l = &sync.Mutex{}
		uc.locks[scope] = l
	}
	return l
}
