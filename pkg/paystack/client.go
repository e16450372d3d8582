package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL            = "https://api.paystack.co"
	defaultTimeout            = 15 * time.Second
	errorBodyReadLimit  int64 = 2048
	dueDateFormat             = "2006-01-02"
)

var errSecretKeyRequired = errors.New("paystack secret key is required")

// Client wraps the payment gateway's REST API. Every call accepts a typed
// request and returns a typed payload or an *APIError classified for retry.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	secretKey     string
	webhookSecret string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithWebhookSecret sets a dedicated key for webhook signature checks.
// Without it the account secret is used, which is what the gateway signs with.
func WithWebhookSecret(secret string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(secret)
		if trimmed != "" {
			c.webhookSecret = trimmed
		}
	}
}

// WithBaseURL overrides the gateway base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the gateway client given the account secret key.
func NewClient(secretKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(secretKey)
	if trimmedKey == "" {
		return nil, errSecretKeyRequired
	}

	client := &Client{
		secretKey:  trimmedKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// WebhookSecret returns the key used to verify webhook signatures.
func (c *Client) WebhookSecret() string {
	if c.webhookSecret != "" {
		return c.webhookSecret
	}
	return c.secretKey
}

// CreatePaymentRequest raises an invoice-style payment request for a customer.
func (c *Client) CreatePaymentRequest(ctx context.Context, params PaymentRequestParams) (*PaymentRequest, error) {
	body := map[string]any{
		"customer":    params.CustomerCode,
		"amount":      ToSubunits(params.Amount),
		"currency":    params.Currency.String(),
		"description": params.Description,
	}
	if !params.DueDate.IsZero() {
		body["due_date"] = params.DueDate.Format(dueDateFormat)
	}
	if len(params.LineItems) > 0 {
		body["line_items"] = params.LineItems
	}

	var out PaymentRequest
	if err := c.post(ctx, "/paymentrequest", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCustomer registers a customer at the gateway.
func (c *Client) CreateCustomer(ctx context.Context, params CustomerParams) (*Customer, error) {
	body := map[string]any{
		"email":      params.Email,
		"first_name": params.FirstName,
		"last_name":  params.LastName,
	}
	if params.Phone != "" {
		body["phone"] = params.Phone
	}

	var out Customer
	if err := c.post(ctx, "/customer", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSubaccount registers a settlement subaccount.
func (c *Client) CreateSubaccount(ctx context.Context, params SubaccountParams) (*Subaccount, error) {
	body := map[string]any{
		"business_name":     params.BusinessName,
		"settlement_bank":   params.BankCode,
		"account_number":    params.AccountNumber,
		"percentage_charge": params.PercentageCharge.InexactFloat64(),
	}

	var out Subaccount
	if err := c.post(ctx, "/subaccount", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSplit creates a split-payment group.
func (c *Client) CreateSplit(ctx context.Context, params SplitParams) (*Split, error) {
	body := map[string]any{
		"name":        params.Name,
		"type":        params.Type,
		"currency":    params.Currency.String(),
		"subaccounts": params.Shares,
	}

	var out Split
	if err := c.post(ctx, "/split", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSubscription subscribes a customer to a plan.
func (c *Client) CreateSubscription(ctx context.Context, params SubscriptionParams) (*Subscription, error) {
	body := map[string]any{
		"customer": params.CustomerCode,
		"plan":     params.PlanCode,
	}
	if params.Authorization != "" {
		body["authorization"] = params.Authorization
	}

	var out Subscription
	if err := c.post(ctx, "/subscription", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// InitializeTransaction starts a hosted checkout transaction.
func (c *Client) InitializeTransaction(ctx context.Context, params TransactionParams) (*TransactionInit, error) {
	body := map[string]any{
		"email":    params.Email,
		"amount":   ToSubunits(params.Amount),
		"currency": params.Currency.String(),
	}
	if params.CallbackURL != "" {
		body["callback_url"] = params.CallbackURL
	}
	if params.Reference != "" {
		body["reference"] = params.Reference
	}

	var out TransactionInit
	if err := c.post(ctx, "/transaction/initialize", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// envelope is the gateway's standard response wrapper.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	if c == nil {
		return &APIError{Kind: ErrorKindClient, Message: "paystack client not configured"}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return &APIError{Kind: ErrorKindClient, Message: fmt.Sprintf("marshal request: %v", err), cause: err}
	}

	url := strings.TrimRight(c.baseURL, "/") + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return &APIError{Kind: ErrorKindClient, Message: fmt.Sprintf("build request: %v", err), cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return networkError(err, fmt.Sprintf("execute %s request", path))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return classifyStatus(resp.StatusCode, gatewayMessage(msg))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &APIError{Kind: ErrorKindServer, StatusCode: resp.StatusCode, Message: "decode response body", cause: err}
	}
	if !env.Status {
		return classifyStatus(http.StatusBadRequest, env.Message)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &APIError{Kind: ErrorKindServer, StatusCode: resp.StatusCode, Message: "decode response data", cause: err}
		}
	}
	return nil
}

func gatewayMessage(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Message != "" {
		return env.Message
	}
	return strings.TrimSpace(string(body))
}
