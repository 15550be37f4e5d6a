package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Order is the gateway's handle for a deferred payment.
type Order struct {
	ID          string `json:"id"`
	AmountCents int64  `json:"amount"`
	Currency    string `json:"currency"`
	Receipt     string `json:"receipt"`
}

// Gateway is the external payment processor. It custodies money and signs
// confirmations; the core only ever trusts its signature.
type Gateway interface {
	CreateOrder(ctx context.Context, amountCents int64, currency, receipt string) (*Order, error)
	Refund(ctx context.Context, paymentID string, amountCents int64) (string, error)
}

type httpGateway struct {
	baseURL string
	keyID   string
	secret  string
	client  *http.Client
}

func NewHTTPGateway(baseURL, keyID, secret string) Gateway {
	return &httpGateway{
		baseURL: baseURL,
		keyID:   keyID,
		secret:  secret,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *httpGateway) CreateOrder(ctx context.Context, amountCents int64, currency, receipt string) (*Order, error) {
	payload := map[string]interface{}{
		"amount":   amountCents,
		"currency": currency,
		"receipt":  receipt,
	}

	var order Order
	if err := g.post(ctx, "/v1/orders", payload, &order); err != nil {
		return nil, err
	}
	if order.ID == "" {
		return nil, fmt.Errorf("%w: empty order id", ErrGatewayUnavailable)
	}
	return &order, nil
}

func (g *httpGateway) Refund(ctx context.Context, paymentID string, amountCents int64) (string, error) {
	payload := map[string]interface{}{
		"payment_id": paymentID,
		"amount":     amountCents,
	}

	var refund struct {
		ID string `json:"id"`
	}
	if err := g.post(ctx, "/v1/refunds", payload, &refund); err != nil {
		return "", err
	}
	if refund.ID == "" {
		return "", fmt.Errorf("%w: empty refund id", ErrGatewayUnavailable)
	}
	return refund.ID, nil
}

func (g *httpGateway) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.keyID, g.secret)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: gateway returned %d", ErrGatewayUnavailable, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
