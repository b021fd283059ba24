// File: internal/infra/adapters/payment/stripe_gateway.go
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"digital-checkout/internal/domain/model"
	"digital-checkout/internal/domain/ports/adapter"
	"digital-checkout/internal/infra/metrics"
)

var _ adapter.PaymentGateway = (*StripeGateway)(nil)
var _ adapter.StatusSource = (*StripeGateway)(nil)

// StripeGateway implements adapter.PaymentGateway over Stripe Checkout
// Sessions. Card and PIX flows both land here; Stripe picks the method from
// the session's payment_method_types.
type StripeGateway struct {
	secretKey  string
	successURL string
	cancelURL  string
	baseURL    string
	client     *http.Client
}

func NewStripeGateway(secretKey, successURL, cancelURL string) (*StripeGateway, error) {
	if secretKey == "" {
		return nil, errors.New("stripe secret key empty")
	}
	if _, err := url.Parse(successURL); err != nil {
		return nil, fmt.Errorf("invalid success url: %w", err)
	}
	return &StripeGateway{
		secretKey:  secretKey,
		successURL: successURL,
		cancelURL:  cancelURL,
		baseURL:    "https://api.stripe.com/v1",
		client:     &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// SetBaseURL points the gateway at a different API host. Used in tests.
func (g *StripeGateway) SetBaseURL(base string) { g.baseURL = strings.TrimRight(base, "/") }

func (g *StripeGateway) Name() string             { return "stripe" }
func (g *StripeGateway) Kind() model.ProviderKind { return model.ProviderKindCard }

// stripeError is the provider's error envelope; Message is surfaced verbatim.
type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (g *StripeGateway) CreateSession(ctx context.Context, req model.PaymentRequest) (model.ProviderResult, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", g.successURL)
	form.Set("cancel_url", g.cancelURL)
	form.Set("customer_email", req.Email)
	form.Set("line_items[0][price]", req.PriceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("payment_method_types[0]", "card")
	if strings.EqualFold(req.Currency, "BRL") {
		form.Set("payment_method_types[1]", "pix")
	}
	if req.AffiliateCode != "" {
		form.Set("metadata[affiliate_code]", req.AffiliateCode)
	}
	if req.LeadID != "" {
		form.Set("metadata[lead_id]", req.LeadID)
	}

	start := time.Now()
	body, status, err := g.do(ctx, http.MethodPost, "/checkout/sessions", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	metrics.ObserveGatewayLatency(g.Name(), float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.IncGatewaySession(g.Name(), "failed")
		return model.ProviderResult{}, &adapter.GatewayError{Provider: g.Name(), Message: err.Error()}
	}
	if status < 200 || status >= 300 {
		metrics.IncGatewaySession(g.Name(), "failed")
		var e stripeError
		msg := fmt.Sprintf("http %d", status)
		if json.Unmarshal(body, &e) == nil && e.Error.Message != "" {
			msg = e.Error.Message
		}
		return model.ProviderResult{}, &adapter.GatewayError{Provider: g.Name(), StatusCode: status, Message: msg}
	}

	var out struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		metrics.IncGatewaySession(g.Name(), "failed")
		return model.ProviderResult{}, &adapter.GatewayError{Provider: g.Name(), Message: "malformed session response"}
	}
	if out.ID == "" || out.URL == "" {
		metrics.IncGatewaySession(g.Name(), "failed")
		return model.ProviderResult{}, &adapter.GatewayError{Provider: g.Name(), Message: "session response missing id or url"}
	}

	metrics.IncGatewaySession(g.Name(), "created")
	return model.ProviderResult{
		Kind:          model.ProviderKindCard,
		TransactionID: out.ID,
		CheckoutURL:   out.URL,
	}, nil
}

// FetchStatus maps a Checkout Session's payment_status onto the transaction
// lifecycle. "unpaid" on an expired session is a failure; "unpaid" on an open
// one is still pending.
func (g *StripeGateway) FetchStatus(ctx context.Context, transactionID string) (model.TransactionStatus, error) {
	body, status, err := g.do(ctx, http.MethodGet, "/checkout/sessions/"+url.PathEscape(transactionID), nil, "")
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", fmt.Errorf("stripe session fetch: http %d", status)
	}

	var out struct {
		Status        string `json:"status"`         // open | complete | expired
		PaymentStatus string `json:"payment_status"` // paid | unpaid | no_payment_required
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	switch {
	case out.PaymentStatus == "paid" || out.PaymentStatus == "no_payment_required":
		return model.TransactionStatusConfirmed, nil
	case out.Status == "expired":
		return model.TransactionStatusFailed, nil
	default:
		return model.TransactionStatusPending, nil
	}
}

func (g *StripeGateway) do(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return b, resp.StatusCode, nil
}
