package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"creator-ai-entitlement/internal/domain/model"
	"creator-ai-entitlement/internal/domain/ports/adapter"
)

const razorpayBaseURL = "https://api.razorpay.com/v1"

var _ adapter.PaymentGateway = (*RazorpayGateway)(nil)

// RazorpayGateway implements PaymentGateway against Razorpay's hosted
// checkout. Collect creates an order server-side, then parks until the
// buyer's widget outcome arrives through Resolve (fed by the HTTP callback
// route) or the context is cancelled.
type RazorpayGateway struct {
	keyID     string
	keySecret string
	baseURL   string
	client    *http.Client

	mu      sync.Mutex
	pending map[string]chan *model.PaymentOutcome // order id -> waiter
}

func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   razorpayBaseURL,
		client:    &http.Client{},
		pending:   make(map[string]chan *model.PaymentOutcome),
	}
}

func (g *RazorpayGateway) Name() string { return "razorpay" }

// razorpayOrderResponse is the subset of the order creation response we use.
type razorpayOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

func (g *RazorpayGateway) createOrder(ctx context.Context, plan *model.PlanDefinition, payer model.PayerInfo) (string, error) {
	reqBody := map[string]interface{}{
		"amount":   plan.PriceMinorUnits,
		"currency": plan.Currency,
		"receipt":  fmt.Sprintf("plan-%s-%s", plan.Tier, payer.UserID),
		"notes": map[string]string{
			"plan":  string(plan.Tier),
			"email": payer.Email,
		},
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+"/orders", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(g.keyID, g.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send order request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("razorpay error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var order razorpayOrderResponse
	if err := json.Unmarshal(body, &order); err != nil {
		return "", fmt.Errorf("failed to unmarshal order response: %w, body: %s", err, string(body))
	}
	if order.ID == "" {
		return "", fmt.Errorf("razorpay order response missing id, body: %s", string(body))
	}
	return order.ID, nil
}

// Collect implements PaymentGateway.Collect. The wait is unbounded on
// purpose: the buyer controls how long the widget stays open. ctx
// cancellation yields a Cancelled outcome and never a partial one.
func (g *RazorpayGateway) Collect(ctx context.Context, plan *model.PlanDefinition, payer model.PayerInfo) (*model.PaymentOutcome, error) {
	orderID, err := g.createOrder(ctx, plan, payer)
	if err != nil {
		return nil, err
	}

	ch := make(chan *model.PaymentOutcome, 1)
	g.mu.Lock()
	g.pending[orderID] = ch
	g.mu.Unlock()
	defer func() {
		g.mu.Lock()
		delete(g.pending, orderID)
		g.mu.Unlock()
	}()

	select {
	case outcome := <-ch:
		return outcome, nil
	case <-ctx.Done():
		return &model.PaymentOutcome{Status: model.OutcomeCancelled, OrderID: orderID}, nil
	}
}

// Resolve feeds a widget outcome to the waiter parked on orderID. Returns
// false when no checkout is waiting (late or duplicate callback).
func (g *RazorpayGateway) Resolve(orderID string, outcome *model.PaymentOutcome) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.pending[orderID]
	if !ok {
		return false
	}
	select {
	case ch <- outcome:
		return true
	default:
		return false
	}
}

// VerifyOutcome checks the widget callback's signature server-side:
// HMAC-SHA256(orderID + "|" + paymentID) keyed with the API secret must
// match the signature Razorpay attached. Pure function of the payload.
func (g *RazorpayGateway) VerifyOutcome(outcome *model.PaymentOutcome) error {
	if outcome == nil || outcome.Status != model.OutcomeSuccess {
		return fmt.Errorf("outcome is not a success, nothing to verify")
	}
	if outcome.OrderID == "" || outcome.PaymentID == "" || outcome.Signature == "" {
		return fmt.Errorf("incomplete success outcome: order=%q payment=%q", outcome.OrderID, outcome.PaymentID)
	}
	if !VerifyCheckoutSignature(g.keySecret, outcome.OrderID, outcome.PaymentID, outcome.Signature) {
		return fmt.Errorf("signature mismatch for order %s", outcome.OrderID)
	}
	return nil
}
