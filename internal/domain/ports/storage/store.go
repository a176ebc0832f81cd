package storage

import "context"

// Scope isolates one user's keys from every other user's. A missing user
// identity falls back to ScopeAnonymous; anonymous state is never merged into
// an authenticated scope implicitly.
type Scope string

const (
	// ScopeAnonymous is the sentinel scope used before sign-in.
	ScopeAnonymous Scope = "local"
	// ScopeGlobal addresses the unscoped key namespace older clients wrote
	// to. Only the legacy-record migration reads or deletes through it.
	ScopeGlobal Scope = ""
)

// ScopeFor returns the scope for a user id, or the anonymous sentinel.
func ScopeFor(userID string) Scope {
	if userID == "" {
		return ScopeAnonymous
	}
	return Scope(userID)
}

// EntitlementStore is the engine's only I/O dependency: a durable, per-scope
// key/value surface. Get returns ("", nil) when the key is absent.
type EntitlementStore interface {
	Get(ctx context.Context, key string, scope Scope) (string, error)
	Set(ctx context.Context, key, value string, scope Scope) error
	Remove(ctx context.Context, key string, scope Scope) error
}
