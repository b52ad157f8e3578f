// Package billing integrates the hosted payment provider: checkout session
// creation for plan upgrades and the webhook that reports subscription
// lifecycle changes.
package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	dErrors "spamstopper/pkg/domain-errors"
)

const defaultRequestTimeout = 15 * time.Second

// Client talks to the payment provider's form-encoded REST API.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient constructs a payment API client. Pass a nil httpClient to use a
// default with a request timeout.
func NewClient(baseURL, secretKey string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &Client{
		baseURL:    baseURL,
		secretKey:  secretKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

// CheckoutSession is the provider's hosted payment page for one purchase.
type CheckoutSession struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
}

// CreateSessionParams configures a subscription checkout session.
type CreateSessionParams struct {
	PriceID       string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

// CreateCheckoutSession opens a hosted checkout page for a subscription
// purchase and returns its redirect URL.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CreateSessionParams) (*CheckoutSession, error) {
	if params.PriceID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "price ID required")
	}

	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("payment_method_types[0]", "card")
	form.Set("line_items[0][price]", params.PriceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("customer_email", params.CustomerEmail)
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	for key, value := range params.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", key), value)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "build checkout request")
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "payment provider request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "read payment provider response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if c.logger != nil {
			c.logger.WarnContext(ctx, "payment provider API error",
				"status", resp.StatusCode,
			)
		}
		return nil, dErrors.New(dErrors.CodeUnavailable,
			fmt.Sprintf("payment provider returned status %d", resp.StatusCode))
	}

	var session CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "decode checkout session")
	}
	return &session, nil
}
