// Package stripe talks to the Stripe REST API directly and verifies webhook
// signatures. Only the documented wire surface is used: GET with query
// parameters and form-encoded POST, bearer auth, and a pinned API version.
package stripe

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	defaultAPIBase = "https://api.stripe.com/v1"
	apiVersion     = "2025-04-30.basil"
)

type Config struct {
	SecretKey       string
	WebhookSecret   string
	SuccessURL      string
	CancelURL       string
	PortalReturnURL string
}

type Client struct {
	cfg        Config
	apiBase    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithAPIBase overrides the API base URL. Tests point this at a local fake.
func WithAPIBase(base string) Option {
	return func(cl *Client) {
		cl.apiBase = strings.TrimSuffix(base, "/")
	}
}

func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:        cfg,
		apiBase:    defaultAPIBase,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RequestError is a non-2xx response from the Stripe API.
type RequestError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("stripe %s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Get performs a GET against the API. Array-valued query parameters (such as
// expand[]) are sent as repeated keys.
func (c *Client) Get(path string, query url.Values, out any) error {
	u := c.apiBase + "/" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("stripe GET %s: %w", path, err)
	}
	return c.do(req, path, out)
}

// PostForm performs a form-encoded POST against the API. Array values are
// repeated same-key entries, which is how Stripe spells nested parameters
// like line_items[0][price].
func (c *Client) PostForm(path string, form url.Values, out any) error {
	req, err := http.NewRequest(http.MethodPost, c.apiBase+"/"+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("stripe POST %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, path, out)
}

func (c *Client) do(req *http.Request, path string, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	req.Header.Set("Stripe-Version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stripe %s %s: %w", req.Method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &RequestError{
			Method: req.Method,
			Path:   path,
			Status: resp.StatusCode,
			Body:   string(body),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("stripe %s %s: decode response: %w", req.Method, path, err)
	}
	return nil
}

// RetrieveCheckoutSession fetches a checkout session with its customer and
// subscription expanded.
func (c *Client) RetrieveCheckoutSession(sessionID string) (*CheckoutSession, error) {
	var sess CheckoutSession
	query := url.Values{"expand[]": {"customer", "subscription"}}
	if err := c.Get("checkout/sessions/"+sessionID, query, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// RetrieveSubscription fetches a subscription with the product on its first
// price expanded, so plan details resolve without a second round trip.
func (c *Client) RetrieveSubscription(subscriptionID string) (*Subscription, error) {
	var sub Subscription
	query := url.Values{"expand[]": {"items.data.price.product"}}
	if err := c.Get("subscriptions/"+subscriptionID, query, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// CreateCheckoutSession starts a subscription checkout for the given price.
// clientReferenceID carries the local user id and is echoed back on the
// completed session; customerID, when already bound, keeps repeat checkouts
// on the same Stripe customer.
func (c *Client) CreateCheckoutSession(priceID, customerID, clientReferenceID string) (*CheckoutSession, error) {
	form := url.Values{
		"mode":                    {"subscription"},
		"line_items[0][price]":    {priceID},
		"line_items[0][quantity]": {"1"},
		"success_url":             {c.cfg.SuccessURL},
		"cancel_url":              {c.cfg.CancelURL},
		"allow_promotion_codes":   {"true"},
	}
	if clientReferenceID != "" {
		form.Set("client_reference_id", clientReferenceID)
	}
	if customerID != "" {
		form.Set("customer", customerID)
	}
	var sess CheckoutSession
	if err := c.PostForm("checkout/sessions", form, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// CreateBillingPortalSession creates a self-service portal session for the
// customer and returns it with its hosted URL.
func (c *Client) CreateBillingPortalSession(customerID string) (*BillingPortalSession, error) {
	form := url.Values{
		"customer":   {customerID},
		"return_url": {c.cfg.PortalReturnURL},
	}
	var sess BillingPortalSession
	if err := c.PostForm("billing_portal/sessions", form, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// ListActiveProducts returns active products with their default price expanded.
func (c *Client) ListActiveProducts() ([]Product, error) {
	var list struct {
		Data []Product `json:"data"`
	}
	query := url.Values{
		"active":   {"true"},
		"expand[]": {"data.default_price"},
	}
	if err := c.Get("products", query, &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

// ListActiveRecurringPrices returns active recurring prices with their
// products expanded.
func (c *Client) ListActiveRecurringPrices() ([]Price, error) {
	var list struct {
		Data []Price `json:"data"`
	}
	query := url.Values{
		"active":   {"true"},
		"type":     {"recurring"},
		"expand[]": {"data.product"},
	}
	if err := c.Get("prices", query, &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

// VerifyWebhook checks a webhook payload against the configured signing
// secret with the default freshness tolerance.
func (c *Client) VerifyWebhook(payload []byte, sigHeader string) bool {
	return VerifySignature(payload, sigHeader, c.cfg.WebhookSecret, DefaultTolerance)
}
