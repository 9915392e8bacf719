// Package payments creates hosted-checkout sessions with the external
// payment provider. The provider hosts the payment page; we only build the
// line-item list and the return URLs, then hand the customer a redirect.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"storefront-api/models"
	"storefront-api/pricing"
)

// LineItem is one checkout position; UnitAmount is in minor currency units.
type LineItem struct {
	Name       string `json:"name"`
	UnitAmount int64  `json:"unit_amount"`
	Quantity   int    `json:"quantity"`
}

// Session is the provider's created checkout session.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CheckoutClient creates hosted checkout sessions.
type CheckoutClient interface {
	CreateSession(ctx context.Context, order *models.Order) (Session, error)
}

// HTTPCheckoutClient posts session requests to a provider endpoint
// authenticated with a bearer secret.
type HTTPCheckoutClient struct {
	Endpoint   string
	SecretKey  string
	SuccessURL string
	CancelURL  string
	Currency   string
	Client     *http.Client
}

func NewHTTPCheckoutClient(endpoint, secretKey, successURL, cancelURL, currency string) *HTTPCheckoutClient {
	return &HTTPCheckoutClient{
		Endpoint:   endpoint,
		SecretKey:  secretKey,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
		Currency:   currency,
		Client:     &http.Client{Timeout: 15 * time.Second},
	}
}

type sessionRequest struct {
	Reference  string     `json:"reference"`
	Currency   string     `json:"currency"`
	LineItems  []LineItem `json:"line_items"`
	SuccessURL string     `json:"success_url"`
	CancelURL  string     `json:"cancel_url"`
}

func (c *HTTPCheckoutClient) CreateSession(ctx context.Context, order *models.Order) (Session, error) {
	lineItems := make([]LineItem, 0, len(order.Items))
	for _, item := range order.Items {
		lineItems = append(lineItems, LineItem{
			Name:       item.Name,
			UnitAmount: pricing.MinorUnits(item.Price),
			Quantity:   item.Quantity,
		})
	}

	body, err := json.Marshal(sessionRequest{
		Reference:  order.OrderNumber,
		Currency:   c.Currency,
		LineItems:  lineItems,
		SuccessURL: c.SuccessURL,
		CancelURL:  c.CancelURL,
	})
	if err != nil {
		return Session{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Session{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)

	resp, err := c.Client.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("checkout session request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Session{}, fmt.Errorf("checkout provider returned status %d", resp.StatusCode)
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return Session{}, fmt.Errorf("checkout session response malformed: %w", err)
	}
	if session.URL == "" {
		return Session{}, fmt.Errorf("checkout provider returned no redirect URL")
	}
	return session, nil
}
