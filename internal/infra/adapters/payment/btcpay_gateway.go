// File: internal/infra/adapters/payment/btcpay_gateway.go
package payment

import (
	"bytes"
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

var _ adapter.PaymentGateway = (*BTCPayGateway)(nil)
var _ adapter.StatusSource = (*BTCPayGateway)(nil)

// BTCPayGateway implements adapter.PaymentGateway against the BTCPay Server
// Greenfield API. Invoices are long-lived: the id returned here stays valid
// across page reloads, so a resumed session re-attaches to the same invoice.
type BTCPayGateway struct {
	host    string
	apiKey  string
	storeID string
	client  *http.Client
}

func NewBTCPayGateway(host, apiKey, storeID string) (*BTCPayGateway, error) {
	if apiKey == "" || storeID == "" {
		return nil, errors.New("btcpay api key or store id empty")
	}
	u, err := url.Parse(host)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid btcpay host %q", host)
	}
	return &BTCPayGateway{
		host:    strings.TrimRight(host, "/"),
		apiKey:  apiKey,
		storeID: storeID,
		client:  &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (g *BTCPayGateway) Name() string             { return "btcpay" }
func (g *BTCPayGateway) Kind() model.ProviderKind { return model.ProviderKindCrypto }

func (g *BTCPayGateway) CreateSession(ctx context.Context, req model.PaymentRequest) (model.ProviderResult, error) {
	payload := map[string]any{
		// Greenfield wants the amount in major units as a string.
		"amount":   fmt.Sprintf("%d.%02d", req.Amount/100, req.Amount%100),
		"currency": req.Currency,
		"metadata": map[string]any{
			"buyerEmail": req.Email,
			"buyerName":  req.Name,
			"priceId":    req.PriceID,
			"leadId":     req.LeadID,
		},
		"checkout": map[string]any{
			"expirationMinutes": 60,
		},
	}
	b, _ := json.Marshal(payload)

	start := time.Now()
	body, status, err := g.do(ctx, http.MethodPost, "/api/v1/stores/"+url.PathEscape(g.storeID)+"/invoices", bytes.NewReader(b))
	metrics.ObserveGatewayLatency(g.Name(), float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.IncGatewaySession(g.Name(), "failed")
		return model.ProviderResult{}, &adapter.GatewayError{Provider: g.Name(), Message: err.Error()}
	}
	if status < 200 || status >= 300 {
		metrics.IncGatewaySession(g.Name(), "failed")
		var e struct {
			Message string `json:"message"`
		}
		msg := fmt.Sprintf("http %d", status)
		if json.Unmarshal(body, &e) == nil && e.Message != "" {
			msg = e.Message
		}
		return model.ProviderResult{}, &adapter.GatewayError{Provider: g.Name(), StatusCode: status, Message: msg}
	}

	var out struct {
		ID          string `json:"id"`
		CheckoutURL string `json:"checkoutLink"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.ID == "" {
		metrics.IncGatewaySession(g.Name(), "failed")
		return model.ProviderResult{}, &adapter.GatewayError{Provider: g.Name(), Message: "malformed invoice response"}
	}

	metrics.IncGatewaySession(g.Name(), "created")
	return model.ProviderResult{
		Kind:          model.ProviderKindCrypto,
		TransactionID: out.ID,
		InvoiceID:     out.ID,
		PaymentURL:    out.CheckoutURL,
	}, nil
}

// FetchStatus maps Greenfield invoice states onto the transaction lifecycle.
// Settled confirms; Expired and Invalid fail; everything else is pending.
func (g *BTCPayGateway) FetchStatus(ctx context.Context, transactionID string) (model.TransactionStatus, error) {
	body, status, err := g.do(ctx, http.MethodGet, "/api/v1/stores/"+url.PathEscape(g.storeID)+"/invoices/"+url.PathEscape(transactionID), nil)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", fmt.Errorf("btcpay invoice fetch: http %d", status)
	}

	var out struct {
		Status string `json:"status"` // New | Processing | Settled | Expired | Invalid
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	switch out.Status {
	case "Settled":
		return model.TransactionStatusConfirmed, nil
	case "Expired", "Invalid":
		return model.TransactionStatusFailed, nil
	default:
		return model.TransactionStatusPending, nil
	}
}

func (g *BTCPayGateway) do(ctx context.Context, method, path string, body io.Reader) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, g.host+path, body)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "token "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")
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
