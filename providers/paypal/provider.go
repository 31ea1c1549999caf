package paypal

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	paymcp "github.com/paymcp/paymcp-go"
	"github.com/paymcp/paymcp-go/logger"
)

// statusMap translates PayPal order states to the statuses the payment
// flows understand.
var statusMap = map[string]string{
	"CREATED":               paymcp.StatusCreated,
	"SAVED":                 paymcp.StatusPending,
	"APPROVED":              paymcp.StatusApproved,
	"VOIDED":                paymcp.StatusCanceled,
	"COMPLETED":             paymcp.StatusPaid,
	"PAYER_ACTION_REQUIRED": paymcp.StatusPending,
	"FAILED":                paymcp.StatusFailed,
	"CANCELLED":             paymcp.StatusCanceled,
	"DENIED":                paymcp.StatusFailed,
	"EXPIRED":               paymcp.StatusExpired,
}

func mapStatus(paypalStatus string) string {
	if status, ok := statusMap[paypalStatus]; ok {
		return status
	}
	return paymcp.StatusUnknown
}

// Provider creates and inspects PayPal orders via the Orders v2 API.
type Provider struct {
	config    *Config
	validator *amountValidator
	client    *apiClient
	tokens    *tokenManager
	logger    logger.Logger
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithLogger sets the provider logger. Defaults to a no-op logger.
func WithLogger(l logger.Logger) ProviderOption {
	return func(p *Provider) {
		p.logger = l
	}
}

// New creates a PayPal provider from the given config.
func New(cfg *Config, opts ...ProviderOption) (*Provider, error) {
	if cfg == nil {
		return nil, paymcp.NewConfigurationError("paypal config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, paymcp.NewConfigurationError("%v", err)
	}

	p := &Provider{
		config:    cfg,
		validator: newAmountValidator(cfg),
		logger:    logger.NoopLogger{},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(map[string]interface{}{"provider": "paypal"})

	httpClient := &http.Client{Timeout: cfg.Timeout}
	p.tokens = newTokenManager(cfg, httpClient)
	p.client = newAPIClient(cfg, p.tokens, httpClient, p.logger)

	env := "production"
	if cfg.Sandbox {
		env = "sandbox"
	}
	p.logger.Info("paypal provider initialized", map[string]interface{}{"environment": env})

	return p, nil
}

// FromEnv creates a PayPal provider configured from environment variables.
func FromEnv(opts ...ProviderOption) (*Provider, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, paymcp.NewConfigurationError("%v", err)
	}
	return New(cfg, opts...)
}

func (p *Provider) Name() string { return "paypal" }

type orderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []struct {
		Rel  string `json:"rel"`
		Href string `json:"href"`
	} `json:"links"`
}

// CreatePayment creates a PayPal order and returns its ID and the buyer
// approval URL.
func (p *Provider) CreatePayment(ctx context.Context, amount decimal.Decimal, currency, description string) (string, string, error) {
	currency, err := p.validator.ValidateCurrency(currency)
	if err != nil {
		return "", "", err
	}
	if err := p.validator.ValidateAmount(amount, currency); err != nil {
		return "", "", err
	}
	description, err = p.validator.ValidateDescription(description, maxDescriptionLength)
	if err != nil {
		return "", "", err
	}

	order := map[string]interface{}{
		"intent": "CAPTURE",
		"purchase_units": []map[string]interface{}{
			{
				"amount": map[string]string{
					"currency_code": currency,
					"value":         formatAmount(amount, currency),
				},
				"description": description,
			},
		},
		"application_context": p.applicationContext(),
	}

	var resp orderResponse
	if err := p.client.post(ctx, "/v2/checkout/orders", order, &resp); err != nil {
		return "", "", err
	}

	approvalURL := ""
	for _, link := range resp.Links {
		if link.Rel == "approve" {
			approvalURL = link.Href
			break
		}
	}
	if resp.ID == "" || approvalURL == "" {
		return "", "", paymcp.NewPaymentError(paymcp.ErrCodeInvalidResponse,
			"paypal order response missing id or approval link", nil)
	}

	p.logger.Info("paypal payment created", map[string]interface{}{
		"payment_id": resp.ID,
		"amount":     amount.String(),
		"currency":   currency,
	})

	return resp.ID, approvalURL, nil
}

// GetPaymentStatus returns the current status of a PayPal order.
func (p *Provider) GetPaymentStatus(ctx context.Context, paymentID string) (string, error) {
	paymentID, err := p.validator.ValidateOrderID(paymentID)
	if err != nil {
		return "", err
	}

	var resp orderResponse
	if err := p.client.get(ctx, "/v2/checkout/orders/"+paymentID, &resp); err != nil {
		return "", err
	}

	status := mapStatus(resp.Status)
	p.logger.Debug("paypal payment status", map[string]interface{}{
		"payment_id": paymentID,
		"status":     status,
	})
	return status, nil
}

// CapturePayment captures an approved order and returns its status.
func (p *Provider) CapturePayment(ctx context.Context, paymentID string) (string, error) {
	paymentID, err := p.validator.ValidateOrderID(paymentID)
	if err != nil {
		return "", err
	}

	var resp orderResponse
	if err := p.client.post(ctx, "/v2/checkout/orders/"+paymentID+"/capture", map[string]interface{}{}, &resp); err != nil {
		return "", err
	}
	return mapStatus(resp.Status), nil
}

// RefundPayment refunds a captured payment. A zero amount refunds the full
// capture.
func (p *Provider) RefundPayment(ctx context.Context, captureID string, amount decimal.Decimal, currency, reason string) (string, error) {
	refund := map[string]interface{}{}

	if !amount.IsZero() {
		validCurrency, err := p.validator.ValidateCurrency(currency)
		if err != nil {
			return "", err
		}
		if err := p.validator.ValidateAmount(amount, validCurrency); err != nil {
			return "", err
		}
		refund["amount"] = map[string]string{
			"currency_code": validCurrency,
			"value":         formatAmount(amount, validCurrency),
		}
	}

	if reason != "" {
		validReason, err := p.validator.ValidateDescription(reason, 255)
		if err != nil {
			return "", err
		}
		refund["note_to_payer"] = validReason
	}

	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := p.client.post(ctx, "/v2/payments/captures/"+captureID+"/refund", refund, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// GetOrder returns the raw order details.
func (p *Provider) GetOrder(ctx context.Context, orderID string) (map[string]interface{}, error) {
	orderID, err := p.validator.ValidateOrderID(orderID)
	if err != nil {
		return nil, err
	}

	var resp map[string]interface{}
	if err := p.client.get(ctx, "/v2/checkout/orders/"+orderID, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// HealthCheck verifies the credentials by fetching an access token.
func (p *Provider) HealthCheck(ctx context.Context) error {
	if _, err := p.tokens.Token(ctx); err != nil {
		return fmt.Errorf("paypal health check failed: %w", err)
	}
	return nil
}

func (p *Provider) applicationContext() map[string]interface{} {
	appCtx := map[string]interface{}{
		"locale":              p.config.Locale,
		"landing_page":        "BILLING",
		"shipping_preference": "NO_SHIPPING",
		"user_action":         "PAY_NOW",
	}
	if p.config.ReturnURL != "" {
		appCtx["return_url"] = p.config.ReturnURL
	}
	if p.config.CancelURL != "" {
		appCtx["cancel_url"] = p.config.CancelURL
	}
	if p.config.BrandName != "" {
		appCtx["brand_name"] = p.config.BrandName
	}
	return appCtx
}

// formatAmount renders a decimal for the PayPal API, respecting
// zero-decimal currencies.
func formatAmount(amount decimal.Decimal, currency string) string {
	if _, ok := zeroDecimalCurrencies[currency]; ok {
		return amount.StringFixed(0)
	}
	return amount.StringFixed(2)
}

var _ paymcp.Provider = (*Provider)(nil)
var _ paymcp.PaymentCapturer = (*Provider)(nil)
var _ paymcp.PaymentRefunder = (*Provider)(nil)
var _ paymcp.HealthChecker = (*Provider)(nil)
