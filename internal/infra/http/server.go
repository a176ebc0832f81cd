// File: internal/infra/http/server.go
package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"creator-ai-entitlement/internal/config"
	"creator-ai-entitlement/internal/domain/model"
	"creator-ai-entitlement/internal/usecase"
)

// OutcomeResolver hands widget callbacks to the checkout attempt parked on
// the order. The hosted gateway adapter implements it.
type OutcomeResolver interface {
	Resolve(orderID string, outcome *model.PaymentOutcome) bool
}

// Server exposes the entitlement engine to the UI layer plus the operational
// endpoints (health, metrics, admin).
type Server struct {
	cfg       *config.Config
	lifecycle *usecase.SubscriptionLifecycle
	quota     *usecase.QuotaEnforcer
	gate      *usecase.FeatureGate
	checkout  *usecase.CheckoutUseCase
	resolver  OutcomeResolver
	auth      *AuthManager
	log       *zerolog.Logger
	server    *http.Server
}

func NewServer(
	cfg *config.Config,
	lifecycle *usecase.SubscriptionLifecycle,
	quota *usecase.QuotaEnforcer,
	gate *usecase.FeatureGate,
	checkout *usecase.CheckoutUseCase,
	resolver OutcomeResolver,
	log *zerolog.Logger,
) *Server {
	return &Server{
		cfg:       cfg,
		lifecycle: lifecycle,
		quota:     quota,
		gate:      gate,
		checkout:  checkout,
		resolver:  resolver,
		auth:      NewAuthManager(cfg.Admin.JWTSecret, !cfg.Runtime.Dev, cfg.Admin.SessionTTL),
		log:       log,
	}
}

// Handler builds the route table; exposed separately so tests can drive it
// with httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/api/v1/subscription", s.handleSubscription)
	mux.HandleFunc("/api/v1/subscription/free", s.handleSelectFree)
	mux.HandleFunc("/api/v1/scripts/consume", s.handleConsume)
	mux.HandleFunc("/api/v1/features/", s.handleFeature)
	mux.HandleFunc("/api/v1/checkout", s.handleCheckout)
	mux.HandleFunc("/api/v1/payment/callback", s.handlePaymentCallback)

	mux.HandleFunc("/admin/login", s.handleAdminLogin)
	mux.HandleFunc("/admin/attempts", s.auth.RequireAdmin(s.handleAdminAttempts))

	return Chain(mux, Recover(s.log), TraceID(), RequestLog(s.log))
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler: s.Handler(),
	}
	s.log.Info().Int("port", s.cfg.Server.Port).Msg("http server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
