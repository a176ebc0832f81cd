//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"creator-ai-entitlement/internal/domain/model"
	"creator-ai-entitlement/internal/domain/ports/adapter"
	"creator-ai-entitlement/internal/domain/ports/storage"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// =============================
// Entitlement store
// =============================

// MockEntitlementStore is an in-memory store with per-method override hooks.
type MockEntitlementStore struct {
	mu   sync.Mutex
	Data map[string]string

	GetFunc    func(ctx context.Context, key string, scope storage.Scope) (string, error)
	SetFunc    func(ctx context.Context, key, value string, scope storage.Scope) error
	RemoveFunc func(ctx context.Context, key string, scope storage.Scope) error
}

var _ storage.EntitlementStore = (*MockEntitlementStore)(nil)

func NewMockEntitlementStore() *MockEntitlementStore {
	return &MockEntitlementStore{Data: make(map[string]string)}
}

func storeKey(key string, scope storage.Scope) string {
	return string(scope) + "|" + key
}

func (m *MockEntitlementStore) Get(ctx context.Context, key string, scope storage.Scope) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key, scope)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Data[storeKey(key, scope)], nil
}

func (m *MockEntitlementStore) Set(ctx context.Context, key, value string, scope storage.Scope) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, scope)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[storeKey(key, scope)] = value
	return nil
}

func (m *MockEntitlementStore) Remove(ctx context.Context, key string, scope storage.Scope) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, key, scope)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Data, storeKey(key, scope))
	return nil
}

// Put seeds a raw value; test helper.
func (m *MockEntitlementStore) Put(key string, scope storage.Scope, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[storeKey(key, scope)] = value
}

// Raw reads a raw value without hooks; test helper.
func (m *MockEntitlementStore) Raw(key string, scope storage.Scope) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.Data[storeKey(key, scope)]
	return v, ok
}

// =============================
// Payment gateway
// =============================

// MockPaymentGateway scripts Collect and VerifyOutcome per test.
type MockPaymentGateway struct {
	CollectFunc func(ctx context.Context, plan *model.PlanDefinition, payer model.PayerInfo) (*model.PaymentOutcome, error)
	VerifyFunc  func(outcome *model.PaymentOutcome) error

	CollectCalls int
	VerifyCalls  int
}

var _ adapter.PaymentGateway = (*MockPaymentGateway)(nil)

func (m *MockPaymentGateway) Name() string { return "mock" }

func (m *MockPaymentGateway) Collect(ctx context.Context, plan *model.PlanDefinition, payer model.PayerInfo) (*model.PaymentOutcome, error) {
	m.CollectCalls++
	if m.CollectFunc != nil {
		return m.CollectFunc(ctx, plan, payer)
	}
	return &model.PaymentOutcome{
		Status:    model.OutcomeSuccess,
		OrderID:   "order_mock",
		PaymentID: "pay_mock",
		Signature: "sig_mock",
	}, nil
}

func (m *MockPaymentGateway) VerifyOutcome(outcome *model.PaymentOutcome) error {
	m.VerifyCalls++
	if m.VerifyFunc != nil {
		return m.VerifyFunc(outcome)
	}
	return nil
}

// =============================
// Subscription mirror
// =============================

type MockMirror struct {
	mu       sync.Mutex
	Recorded []string
	Cleared  []string

	RecordFunc func(ctx context.Context, userID string, rec *model.SubscriptionRecord) error
}

func (m *MockMirror) Record(ctx context.Context, userID string, rec *model.SubscriptionRecord) error {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, userID, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Recorded = append(m.Recorded, userID)
	return nil
}

func (m *MockMirror) Clear(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Cleared = append(m.Cleared, userID)
	return nil
}
