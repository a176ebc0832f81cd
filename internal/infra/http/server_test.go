//go:build !integration

package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"creator-ai-entitlement/internal/config"
	"creator-ai-entitlement/internal/domain/model"
	httpapi "creator-ai-entitlement/internal/infra/http"
	"creator-ai-entitlement/internal/infra/payment"
	memstore "creator-ai-entitlement/internal/infra/storage"
	"creator-ai-entitlement/internal/usecase"
)

type stubResolver struct{ resolved []string }

func (s *stubResolver) Resolve(orderID string, outcome *model.PaymentOutcome) bool {
	s.resolved = append(s.resolved, orderID)
	return orderID == "order_known"
}

func newTestServer(t *testing.T) (*httptest.Server, *stubResolver) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	cfg := &config.Config{
		Admin: config.AdminConfig{
			Password:   "hunter2",
			JWTSecret:  "test-jwt-secret",
			SessionTTL: 10 * time.Minute,
		},
		Runtime: config.RuntimeConfig{Dev: true},
	}

	store := memstore.NewMemoryStore()
	catalog := model.DefaultCatalog()
	lifecycle := usecase.NewSubscriptionLifecycle(store, catalog, nil, &logger)
	quota := usecase.NewQuotaEnforcer(lifecycle, &logger)
	gate := usecase.NewFeatureGate(catalog)
	checkout := usecase.NewCheckoutUseCase(lifecycle, catalog, payment.NewNoopPaymentGateway(), &logger)
	resolver := &stubResolver{}

	srv := httpapi.NewServer(cfg, lifecycle, quota, gate, checkout, resolver, &logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, resolver
}

func doJSON(t *testing.T, method, url, user, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestServer_SubscriptionFlow(t *testing.T) {
	ts, _ := newTestServer(t)

	t.Run("no subscription reads as state none", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/subscription", "user-1", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if body["state"] != "none" {
			t.Errorf("expected state none, got %v", body["state"])
		}
	})

	t.Run("free selection grants the trial quota", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/subscription/free", "user-1", "")
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}
		if body["plan"] != "free" || body["scripts_remaining"] != float64(2) {
			t.Errorf("expected free plan with 2 scripts, got %v", body)
		}
	})

	t.Run("consume burns the quota then rejects with 402", func(t *testing.T) {
		for want := 1; want >= 0; want-- {
			resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/scripts/consume", "user-1", "")
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("expected 200, got %d", resp.StatusCode)
			}
			if body["scripts_remaining"] != float64(want) {
				t.Errorf("expected remaining %d, got %v", want, body["scripts_remaining"])
			}
		}
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/v1/scripts/consume", "user-1", "")
		if resp.StatusCode != http.StatusPaymentRequired {
			t.Errorf("expected 402 once exhausted, got %d", resp.StatusCode)
		}
	})

	t.Run("exhausted subscription classifies as out_of_scripts", func(t *testing.T) {
		_, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/subscription", "user-1", "")
		if body["state"] != "out_of_scripts" {
			t.Errorf("expected out_of_scripts, got %v", body["state"])
		}
	})

	t.Run("checkout upgrades through the gateway", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/checkout", "user-1", `{"plan":"basic","email":"u@example.test"}`)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d (%v)", resp.StatusCode, body)
		}
		if body["plan"] != "basic" || body["scripts_remaining"] != float64(50) {
			t.Errorf("expected a fresh basic record, got %v", body)
		}
	})

	t.Run("feature gate answers per tier", func(t *testing.T) {
		_, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/features/analytics.dashboard", "user-1", "")
		if body["enabled"] != true {
			t.Errorf("expected analytics enabled on basic, got %v", body)
		}
		_, body = doJSON(t, http.MethodGet, ts.URL+"/api/v1/features/export.pdf", "user-1", "")
		if body["enabled"] != false {
			t.Errorf("expected export disabled on basic, got %v", body)
		}
		// Anonymous caller holds no subscription and gets nothing.
		_, body = doJSON(t, http.MethodGet, ts.URL+"/api/v1/features/script.generate", "", "")
		if body["enabled"] != false {
			t.Errorf("expected anonymous caller to be denied, got %v", body)
		}
	})

	t.Run("clear is idempotent and leaves state none", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodDelete, ts.URL+"/api/v1/subscription", "user-1", "")
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", resp.StatusCode)
		}
		resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/v1/subscription", "user-1", "")
		if resp.StatusCode != http.StatusNoContent {
			t.Errorf("expected repeated delete to succeed, got %d", resp.StatusCode)
		}
		_, body := doJSON(t, http.MethodGet, ts.URL+"/api/v1/subscription", "user-1", "")
		if body["state"] != "none" {
			t.Errorf("expected state none after clear, got %v", body["state"])
		}
	})

	t.Run("unknown plan is a bad request", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/v1/checkout", "user-1", `{"plan":"platinum"}`)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400 for an unknown plan, got %d", resp.StatusCode)
		}
	})
}

func TestServer_PaymentCallback(t *testing.T) {
	ts, resolver := newTestServer(t)

	t.Run("known order is accepted", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/v1/payment/callback", "",
			`{"order_id":"order_known","payment_id":"pay_1","signature":"sig","status":"success"}`)
		if resp.StatusCode != http.StatusAccepted {
			t.Errorf("expected 202, got %d", resp.StatusCode)
		}
		if len(resolver.resolved) != 1 || resolver.resolved[0] != "order_known" {
			t.Errorf("expected the resolver to see order_known, got %v", resolver.resolved)
		}
	})

	t.Run("late callback conflicts", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/v1/payment/callback", "",
			`{"order_id":"order_stale","status":"success"}`)
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("expected 409, got %d", resp.StatusCode)
		}
	})

	t.Run("missing order id is a bad request", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/v1/payment/callback", "", `{"status":"success"}`)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestServer_Admin(t *testing.T) {
	ts, _ := newTestServer(t)

	t.Run("attempts endpoint requires a session", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodGet, ts.URL+"/admin/attempts", "", "")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/admin/login", "", `{"password":"nope"}`)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("login mints a bearer token that unlocks the trail", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodPost, ts.URL+"/admin/login", "", `{"password":"hunter2"}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		token, _ := body["token"].(string)
		if token == "" {
			t.Fatal("expected a token in the login response")
		}

		req, _ := http.NewRequest(http.MethodGet, ts.URL+"/admin/attempts", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		authed, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer authed.Body.Close()
		if authed.StatusCode != http.StatusOK {
			t.Errorf("expected 200 with a valid token, got %d", authed.StatusCode)
		}
	})
}

func TestServer_Health(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}
