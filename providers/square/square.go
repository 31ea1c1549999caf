// Package square implements a payment provider backed by the Square
// Checkout API.
package square

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	paymcp "github.com/paymcp/paymcp-go"
	"github.com/paymcp/paymcp-go/envconfig"
	"github.com/paymcp/paymcp-go/logger"
)

const (
	sandboxBaseURL    = "https://connect.squareupsandbox.com"
	productionBaseURL = "https://connect.squareup.com"

	apiVersion = "2024-01-18"
)

// Config holds Square credentials and checkout settings.
type Config struct {
	AccessToken string
	LocationID  string
	RedirectURL string
	Sandbox     bool
	Timeout     time.Duration
}

// Provider creates Square checkouts and tracks their orders.
type Provider struct {
	config     Config
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithLogger sets the provider logger. Defaults to a no-op logger.
func WithLogger(l logger.Logger) ProviderOption {
	return func(p *Provider) {
		p.logger = l
	}
}

// New creates a Square provider.
func New(cfg Config, opts ...ProviderOption) (*Provider, error) {
	if cfg.AccessToken == "" {
		return nil, paymcp.NewConfigurationError("square access token is required")
	}
	if cfg.LocationID == "" {
		return nil, paymcp.NewConfigurationError("square location ID is required")
	}
	if cfg.RedirectURL == "" {
		cfg.RedirectURL = "https://example.com/payment/success"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	baseURL := productionBaseURL
	if cfg.Sandbox {
		baseURL = sandboxBaseURL
	}

	p := &Provider{
		config:     cfg,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.NoopLogger{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// FromEnv creates a Square provider configured from environment variables.
func FromEnv(opts ...ProviderOption) (*Provider, error) {
	if err := envconfig.LoadDotenv(); err != nil {
		return nil, paymcp.NewConfigurationError("square config: %v", err)
	}
	cfg := Config{
		AccessToken: envconfig.Get("", "PAYMCP_SQUARE_ACCESS_TOKEN", "SQUARE_ACCESS_TOKEN"),
		LocationID:  envconfig.Get("", "PAYMCP_SQUARE_LOCATION_ID", "SQUARE_LOCATION_ID"),
		RedirectURL: envconfig.Get("", "PAYMCP_SQUARE_REDIRECT_URL", "SQUARE_REDIRECT_URL"),
		Sandbox:     envconfig.GetBool(true, "PAYMCP_SQUARE_SANDBOX", "SQUARE_SANDBOX"),
		Timeout:     envconfig.GetDuration(30*time.Second, "PAYMCP_SQUARE_TIMEOUT", "SQUARE_TIMEOUT"),
	}
	if cfg.AccessToken == "" || cfg.LocationID == "" {
		return nil, paymcp.NewConfigurationError("SQUARE_ACCESS_TOKEN and SQUARE_LOCATION_ID environment variables are required")
	}
	return New(cfg, opts...)
}

func (p *Provider) Name() string { return "square" }

// CreatePayment creates a Square checkout and returns its ID and payment
// page URL.
func (p *Provider) CreatePayment(ctx context.Context, amount decimal.Decimal, currency, description string) (string, string, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return "", "", paymcp.NewValidationError("amount", "amount must be positive, got %s", amount)
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return "", "", paymcp.NewValidationError("currency", "currency code must be 3 characters, got %q", currency)
	}

	idempotencyKey := uuid.NewString()
	payload := map[string]interface{}{
		"idempotency_key": idempotencyKey,
		"checkout": map[string]interface{}{
			"order": map[string]interface{}{
				"order": map[string]interface{}{
					"location_id": p.config.LocationID,
					"line_items": []map[string]interface{}{
						{
							"name":     description,
							"quantity": "1",
							"base_price_money": map[string]interface{}{
								"amount":   amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart(),
								"currency": currency,
							},
						},
					},
				},
				"idempotency_key": idempotencyKey,
			},
			"redirect_url": p.config.RedirectURL,
		},
	}

	var resp struct {
		Checkout struct {
			ID              string `json:"id"`
			CheckoutPageURL string `json:"checkout_page_url"`
		} `json:"checkout"`
	}
	endpoint := "/v2/locations/" + p.config.LocationID + "/checkouts"
	if err := p.do(ctx, http.MethodPost, endpoint, payload, &resp); err != nil {
		return "", "", err
	}
	if resp.Checkout.ID == "" || resp.Checkout.CheckoutPageURL == "" {
		return "", "", paymcp.NewPaymentError(paymcp.ErrCodeInvalidResponse,
			"square checkout response missing id or checkout_page_url", nil)
	}

	p.logger.Info("square payment created", map[string]interface{}{
		"payment_id": resp.Checkout.ID,
		"amount":     amount.String(),
		"currency":   currency,
	})

	return resp.Checkout.ID, resp.Checkout.CheckoutPageURL, nil
}

// GetPaymentStatus looks up the checkout's order and maps its state.
func (p *Provider) GetPaymentStatus(ctx context.Context, paymentID string) (string, error) {
	if paymentID == "" {
		return "", paymcp.NewValidationError("payment_id", "payment ID cannot be empty")
	}

	var checkoutResp struct {
		Checkout struct {
			Order struct {
				ID string `json:"id"`
			} `json:"order"`
		} `json:"checkout"`
	}
	endpoint := "/v2/locations/" + p.config.LocationID + "/checkouts/" + paymentID
	if err := p.do(ctx, http.MethodGet, endpoint, nil, &checkoutResp); err != nil {
		return "", err
	}

	orderID := checkoutResp.Checkout.Order.ID
	if orderID == "" {
		return paymcp.StatusPending, nil
	}

	var orderResp struct {
		Order struct {
			State string `json:"state"`
		} `json:"order"`
	}
	orderEndpoint := "/v2/orders/" + orderID + "?location_id=" + url.QueryEscape(p.config.LocationID)
	if err := p.do(ctx, http.MethodGet, orderEndpoint, nil, &orderResp); err != nil {
		return "", err
	}

	switch orderResp.Order.State {
	case "COMPLETED":
		return paymcp.StatusPaid, nil
	case "CANCELED":
		return paymcp.StatusCanceled, nil
	default:
		return paymcp.StatusPending, nil
	}
}

func (p *Provider) do(ctx context.Context, method, endpoint string, payload, out interface{}) error {
	var reader io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.config.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Square-Version", apiVersion)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return paymcp.NewPaymentError(paymcp.ErrCodeNetwork,
			fmt.Sprintf("square request failed: %v", err), nil)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return paymcp.NewPaymentError(paymcp.ErrCodeNetwork,
			fmt.Sprintf("failed to read square response: %v", err), nil)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil || len(respBody) == 0 {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return paymcp.NewPaymentError(paymcp.ErrCodeInvalidResponse,
				fmt.Sprintf("failed to decode square response: %v", err), nil)
		}
		return nil

	case resp.StatusCode == http.StatusUnauthorized:
		return &paymcp.AuthenticationError{
			Provider: "square",
			Message:  fmt.Sprintf("request rejected (%d)", resp.StatusCode),
		}

	case resp.StatusCode == http.StatusTooManyRequests:
		return paymcp.NewPaymentError(paymcp.ErrCodeRateLimited,
			"square rate limit exceeded", nil)

	case resp.StatusCode >= 500:
		return paymcp.NewPaymentError(paymcp.ErrCodeProviderUnavailable,
			fmt.Sprintf("square server error (%d): %s", resp.StatusCode, string(respBody)), nil)

	default:
		return paymcp.NewPaymentError(paymcp.ErrCodePaymentFailed,
			fmt.Sprintf("square error (%d): %s", resp.StatusCode, string(respBody)),
			map[string]interface{}{"status_code": resp.StatusCode})
	}
}

var _ paymcp.Provider = (*Provider)(nil)
