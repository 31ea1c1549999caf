// Package walleot implements a payment provider backed by the Walleot
// sessions REST API.
package walleot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	paymcp "github.com/paymcp/paymcp-go"
	"github.com/paymcp/paymcp-go/envconfig"
	"github.com/paymcp/paymcp-go/logger"
)

const (
	defaultBaseURL = "https://api.walleot.com/v1"

	retries        = 3
	retryBaseDelay = 1 * time.Second
)

// Config holds the Walleot API key and endpoint.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Provider creates Walleot payment sessions.
type Provider struct {
	config     Config
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

// New creates a Walleot provider.
func New(cfg Config, opts ...ProviderOption) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, paymcp.NewConfigurationError("walleot API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if !strings.HasPrefix(cfg.BaseURL, "https://") {
		return nil, paymcp.NewConfigurationError("walleot base URL must use HTTPS, got %q", cfg.BaseURL)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	p := &Provider{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.NoopLogger{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// FromEnv creates a Walleot provider configured from environment variables.
func FromEnv(opts ...ProviderOption) (*Provider, error) {
	if err := envconfig.LoadDotenv(); err != nil {
		return nil, paymcp.NewConfigurationError("walleot config: %v", err)
	}
	cfg := Config{
		APIKey:  envconfig.Get("", "PAYMCP_WALLEOT_API_KEY", "WALLEOT_API_KEY"),
		BaseURL: envconfig.Get("", "PAYMCP_WALLEOT_BASE_URL", "WALLEOT_BASE_URL"),
		Timeout: envconfig.GetDuration(30*time.Second, "PAYMCP_WALLEOT_TIMEOUT", "WALLEOT_TIMEOUT"),
	}
	if cfg.APIKey == "" {
		return nil, paymcp.NewConfigurationError("WALLEOT_API_KEY environment variable is required")
	}
	return New(cfg, opts...)
}

func (p *Provider) Name() string { return "walleot" }

type sessionResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
	Status    string `json:"status"`
}

// CreatePayment creates a payment session and returns its ID and URL.
func (p *Provider) CreatePayment(ctx context.Context, amount decimal.Decimal, currency, description string) (string, string, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return "", "", paymcp.NewValidationError("amount", "amount must be positive, got %s", amount)
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return "", "", paymcp.NewValidationError("currency", "currency code must be 3 characters, got %q", currency)
	}

	payload := map[string]interface{}{
		"amount":      amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart(),
		"currency":    strings.ToLower(currency),
		"description": description,
	}

	var resp sessionResponse
	if err := p.do(ctx, http.MethodPost, "/sessions", payload, &resp); err != nil {
		return "", "", err
	}
	if resp.SessionID == "" || resp.URL == "" {
		return "", "", paymcp.NewPaymentError(paymcp.ErrCodeInvalidResponse,
			"walleot session response missing sessionId or url", nil)
	}

	p.logger.Info("walleot payment created", map[string]interface{}{
		"payment_id": resp.SessionID,
		"amount":     amount.String(),
		"currency":   currency,
	})

	return resp.SessionID, resp.URL, nil
}

// GetPaymentStatus returns the status of a payment session.
func (p *Provider) GetPaymentStatus(ctx context.Context, paymentID string) (string, error) {
	if paymentID == "" {
		return "", paymcp.NewValidationError("payment_id", "payment ID cannot be empty")
	}

	var resp sessionResponse
	if err := p.do(ctx, http.MethodGet, "/sessions/"+paymentID, nil, &resp); err != nil {
		return "", err
	}

	switch status := strings.ToLower(resp.Status); status {
	case paymcp.StatusPaid, paymcp.StatusPending, paymcp.StatusCanceled,
		paymcp.StatusExpired, paymcp.StatusFailed, paymcp.StatusCreated:
		return status, nil
	case "":
		return paymcp.StatusUnknown, nil
	default:
		return paymcp.StatusPending, nil
	}
}

// do sends an authenticated request, retrying transient failures with
// exponential backoff.
func (p *Provider) do(ctx context.Context, method, endpoint string, payload, out interface{}) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		retriable, err := p.doOnce(ctx, method, endpoint, body, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retriable {
			return err
		}
	}
	return lastErr
}

func (p *Provider) doOnce(ctx context.Context, method, endpoint string, body []byte, out interface{}) (retriable bool, err error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.config.BaseURL+endpoint, reader)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return true, paymcp.NewPaymentError(paymcp.ErrCodeNetwork,
			fmt.Sprintf("walleot request failed: %v", err), nil)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return true, paymcp.NewPaymentError(paymcp.ErrCodeNetwork,
			fmt.Sprintf("failed to read walleot response: %v", err), nil)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil || len(respBody) == 0 {
			return false, nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return false, paymcp.NewPaymentError(paymcp.ErrCodeInvalidResponse,
				fmt.Sprintf("failed to decode walleot response: %v", err), nil)
		}
		return false, nil

	case resp.StatusCode == http.StatusUnauthorized:
		return false, &paymcp.AuthenticationError{
			Provider: "walleot",
			Message:  fmt.Sprintf("request rejected (%d)", resp.StatusCode),
		}

	case resp.StatusCode == http.StatusTooManyRequests:
		return true, paymcp.NewPaymentError(paymcp.ErrCodeRateLimited,
			"walleot rate limit exceeded", nil)

	case resp.StatusCode >= 500:
		return true, paymcp.NewPaymentError(paymcp.ErrCodeProviderUnavailable,
			fmt.Sprintf("walleot server error (%d): %s", resp.StatusCode, string(respBody)), nil)

	default:
		return false, paymcp.NewPaymentError(paymcp.ErrCodePaymentFailed,
			fmt.Sprintf("walleot error (%d): %s", resp.StatusCode, string(respBody)),
			map[string]interface{}{"status_code": resp.StatusCode})
	}
}

var _ paymcp.Provider = (*Provider)(nil)
