package redis

import (
	"context"
	"errors"
	"fmt"

	"creator-ai-entitlement/internal/domain/ports/storage"
	"creator-ai-entitlement/internal/infra/metrics"
)

var _ storage.EntitlementStore = (*EntitlementStore)(nil)

// EntitlementStore keeps per-scope entitlement blobs in Redis. Records carry
// their own expiry semantics (lazy expiry on read), so keys are written
// without a TTL.
type EntitlementStore struct {
	client RedisClient
}

func NewEntitlementStore(client RedisClient) *EntitlementStore {
	return &EntitlementStore{client: client}
}

// entKey builds "ent:{scope}:{key}"; the global scope maps to the bare
// unscoped key older deployments wrote.
func entKey(key string, scope storage.Scope) string {
	if scope == storage.ScopeGlobal {
		return fmt.Sprintf("ent:%s", key)
	}
	return fmt.Sprintf("ent:%s:%s", scope, key)
}

func (s *EntitlementStore) Get(ctx context.Context, key string, scope storage.Scope) (string, error) {
	v, err := s.client.Get(ctx, entKey(key, scope))
	if errors.Is(err, Nil) {
		metrics.IncStoreOp("get", nil)
		return "", nil
	}
	metrics.IncStoreOp("get", err)
	if err != nil {
		return "", err
	}
	return v, nil
}

func (s *EntitlementStore) Set(ctx context.Context, key, value string, scope storage.Scope) error {
	err := s.client.Set(ctx, entKey(key, scope), value, 0)
	metrics.IncStoreOp("set", err)
	return err
}

func (s *EntitlementStore) Remove(ctx context.Context, key string, scope storage.Scope) error {
	err := s.client.Del(ctx, entKey(key, scope))
	metrics.IncStoreOp("remove", err)
	return err
}
