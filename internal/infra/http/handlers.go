// File: internal/infra/http/handlers.go
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"creator-ai-entitlement/internal/domain"
	"creator-ai-entitlement/internal/domain/model"
	"creator-ai-entitlement/internal/infra/logging"
	"creator-ai-entitlement/internal/infra/metrics"
)

// userID extracts the caller identity. An empty id falls back to the
// anonymous scope inside the engine; it is never merged with a signed-in
// user's record.
func userID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

type subscriptionView struct {
	State            model.SubscriptionState `json:"state"`
	Plan             model.PlanTier          `json:"plan,omitempty"`
	ScriptsRemaining int                     `json:"scripts_remaining,omitempty"`
	TotalScripts     int                     `json:"total_scripts,omitempty"`
	EndDate          *time.Time              `json:"end_date,omitempty"`
	DaysLeft         int                     `json:"days_left,omitempty"`
}

func viewOf(rec *model.SubscriptionRecord, state model.SubscriptionState) subscriptionView {
	v := subscriptionView{State: state}
	if rec != nil {
		v.Plan = rec.Plan
		v.ScriptsRemaining = rec.ScriptsRemaining
		v.TotalScripts = rec.TotalScripts
		v.EndDate = &rec.EndDate
		v.DaysLeft = rec.DaysLeft(time.Now())
	}
	return v
}

// GET /api/v1/subscription       current record + classification
// DELETE /api/v1/subscription    clear (idempotent)
func (s *Server) handleSubscription(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	switch r.Method {
	case http.MethodGet:
		rec, err := s.lifecycle.Get(r.Context(), uid)
		if err != nil && !errors.Is(err, domain.ErrNoSubscription) {
			s.writeError(w, r, err)
			return
		}
		state := s.lifecycle.Classify(rec)
		metrics.IncSubscriptionRead(state)
		s.writeJSON(w, http.StatusOK, viewOf(rec, state))

	case http.MethodDelete:
		if err := s.lifecycle.Clear(r.Context(), uid); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// POST /api/v1/subscription/free: free-tier selection, no gateway involved.
func (s *Server) handleSelectFree(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rec, err := s.checkout.SelectFree(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	metrics.IncSubscriptionUpgrade(rec.Plan)
	s.writeJSON(w, http.StatusCreated, viewOf(rec, s.lifecycle.Classify(rec)))
}

// POST /api/v1/scripts/consume: one credit per generation request.
func (s *Server) handleConsume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	remaining, err := s.quota.Consume(r.Context(), userID(r))
	if err != nil {
		if errors.Is(err, domain.ErrQuotaExhausted) {
			metrics.IncQuotaExhausted()
		}
		s.writeError(w, r, err)
		return
	}
	metrics.IncQuotaConsumed()
	s.writeJSON(w, http.StatusOK, map[string]int{"scripts_remaining": remaining})
}

// GET /api/v1/features/{feature}: pure gate check, safe on every render.
func (s *Server) handleFeature(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	feature := strings.TrimPrefix(r.URL.Path, "/api/v1/features/")
	if feature == "" {
		http.Error(w, "missing feature id", http.StatusBadRequest)
		return
	}
	rec, err := s.lifecycle.Get(r.Context(), userID(r))
	if err != nil && !errors.Is(err, domain.ErrNoSubscription) {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{
		"enabled": s.gate.HasFeature(rec, model.FeatureID(feature)),
	})
}

type checkoutRequest struct {
	Plan  model.PlanTier `json:"plan"`
	Name  string         `json:"name"`
	Email string         `json:"email"`
}

// POST /api/v1/checkout: runs a purchase attempt end to end. The request
// blocks while the buyer completes the external widget; closing the request
// (client disconnect) cancels the attempt without mutating any record.
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	uid := userID(r)

	rec, err := s.checkout.Purchase(r.Context(), uid, req.Plan, model.PayerInfo{
		UserID: uid,
		Name:   req.Name,
		Email:  req.Email,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrGatewayCancelled):
			metrics.IncCheckoutOutcome(model.CheckoutCancelled)
			s.writeJSON(w, http.StatusOK, map[string]string{"state": string(model.CheckoutCancelled)})
		case errors.Is(err, domain.ErrPaymentVerification):
			metrics.IncCheckoutOutcome(model.CheckoutFailed)
			metrics.IncPaymentVerifyFailure()
			s.writeError(w, r, err)
		default:
			metrics.IncCheckoutOutcome(model.CheckoutFailed)
			s.writeError(w, r, err)
		}
		return
	}
	metrics.IncCheckoutOutcome(model.CheckoutCommitted)
	metrics.IncSubscriptionUpgrade(rec.Plan)
	s.writeJSON(w, http.StatusCreated, viewOf(rec, s.lifecycle.Classify(rec)))
}

type callbackRequest struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
	Status    string `json:"status"` // "success" | "failure" | "cancelled"
	Reason    string `json:"reason"`
}

// POST /api/v1/payment/callback: the widget's client-side callback. The
// payload is untrusted; it only releases the parked checkout, which then
// verifies the signature before committing anything.
func (s *Server) handlePaymentCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req callbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	if req.OrderID == "" {
		http.Error(w, "missing order_id", http.StatusBadRequest)
		return
	}
	outcome := &model.PaymentOutcome{
		Status:    model.OutcomeStatus(req.Status),
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
		Reason:    req.Reason,
	}
	if !s.resolver.Resolve(req.OrderID, outcome) {
		http.Error(w, "no checkout waiting for this order", http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type adminLoginRequest struct {
	Password string `json:"password"`
}

// POST /admin/login: exchanges the admin password for a session token.
func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	if s.cfg.Admin.Password == "" || req.Password != s.cfg.Admin.Password {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	token, err := s.auth.Mint(w)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// GET /admin/attempts: recent checkout audit trail.
func (s *Server) handleAdminAttempts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, s.checkout.Attempts())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP statuses. Hard failures are never
// downgraded into successful-looking responses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	l := logging.With(r.Context(), s.log)

	var status int
	var gwErr *domain.GatewayError
	var persistErr *domain.PersistenceError
	switch {
	case errors.Is(err, domain.ErrQuotaExhausted):
		status = http.StatusPaymentRequired
	case errors.Is(err, domain.ErrNoSubscription):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownPlan), errors.Is(err, domain.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrPaymentVerification):
		status = http.StatusBadRequest
	case errors.As(err, &gwErr):
		status = http.StatusBadGateway
	case errors.As(err, &persistErr):
		status = http.StatusInternalServerError
	default:
		status = http.StatusInternalServerError
	}

	if status >= 500 {
		l.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	} else {
		l.Debug().Err(err).Str("path", r.URL.Path).Msg("request rejected")
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
