// Package stripe implements a payment provider backed by Stripe
// Checkout Sessions.
package stripe

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/refund"

	paymcp "github.com/paymcp/paymcp-go"
	"github.com/paymcp/paymcp-go/envconfig"
	"github.com/paymcp/paymcp-go/logger"
)

// Currencies where Stripe amounts are whole units, not hundredths.
var zeroDecimalCurrencies = map[string]struct{}{
	"BIF": {}, "CLP": {}, "DJF": {}, "GNF": {}, "JPY": {}, "KMF": {},
	"KRW": {}, "MGA": {}, "PYG": {}, "RWF": {}, "UGX": {}, "VND": {},
	"VUV": {}, "XAF": {}, "XOF": {}, "XPF": {},
}

// Config holds the Stripe API key and checkout redirect URLs.
type Config struct {
	APIKey     string
	SuccessURL string
	CancelURL  string
}

// Provider creates Stripe checkout sessions in payment mode.
type Provider struct {
	config Config
	logger logger.Logger
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithLogger sets the provider logger. Defaults to a no-op logger.
func WithLogger(l logger.Logger) ProviderOption {
	return func(p *Provider) {
		p.logger = l
	}
}

// New creates a Stripe provider. The API key is installed globally for the
// stripe-go client, matching how the library is designed to be used.
func New(cfg Config, opts ...ProviderOption) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, paymcp.NewConfigurationError("stripe API key is required")
	}
	if cfg.SuccessURL == "" {
		cfg.SuccessURL = "https://example.com/payment/success"
	}
	if cfg.CancelURL == "" {
		cfg.CancelURL = "https://example.com/payment/cancel"
	}

	stripe.Key = cfg.APIKey

	p := &Provider{config: cfg, logger: logger.NoopLogger{}}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// FromEnv creates a Stripe provider configured from environment variables.
func FromEnv(opts ...ProviderOption) (*Provider, error) {
	if err := envconfig.LoadDotenv(); err != nil {
		return nil, paymcp.NewConfigurationError("stripe config: %v", err)
	}
	cfg := Config{
		APIKey:     envconfig.Get("", "PAYMCP_STRIPE_API_KEY", "STRIPE_API_KEY", "STRIPE_SECRET_KEY"),
		SuccessURL: envconfig.Get("", "PAYMCP_STRIPE_SUCCESS_URL", "STRIPE_SUCCESS_URL"),
		CancelURL:  envconfig.Get("", "PAYMCP_STRIPE_CANCEL_URL", "STRIPE_CANCEL_URL"),
	}
	if cfg.APIKey == "" {
		return nil, paymcp.NewConfigurationError("STRIPE_API_KEY environment variable is required")
	}
	return New(cfg, opts...)
}

func (p *Provider) Name() string { return "stripe" }

// CreatePayment creates a one-time checkout session and returns its ID and
// hosted payment page URL.
func (p *Provider) CreatePayment(ctx context.Context, amount decimal.Decimal, currency, description string) (string, string, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return "", "", paymcp.NewValidationError("amount", "amount must be positive, got %s", amount)
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return "", "", paymcp.NewValidationError("currency", "currency code must be 3 characters, got %q", currency)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(p.config.SuccessURL),
		CancelURL:  stripe.String(p.config.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(currency)),
					UnitAmount: stripe.Int64(minorUnits(amount, currency)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return "", "", wrapStripeError(err)
	}

	p.logger.Info("stripe payment created", map[string]interface{}{
		"payment_id": sess.ID,
		"amount":     amount.String(),
		"currency":   currency,
	})

	return sess.ID, sess.URL, nil
}

// GetPaymentStatus returns the status of a checkout session.
func (p *Provider) GetPaymentStatus(ctx context.Context, paymentID string) (string, error) {
	if paymentID == "" {
		return "", paymcp.NewValidationError("payment_id", "payment ID cannot be empty")
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := session.Get(paymentID, params)
	if err != nil {
		return "", wrapStripeError(err)
	}

	switch sess.PaymentStatus {
	case stripe.CheckoutSessionPaymentStatusPaid,
		stripe.CheckoutSessionPaymentStatusNoPaymentRequired:
		return paymcp.StatusPaid, nil
	}

	if sess.Status == stripe.CheckoutSessionStatusExpired {
		return paymcp.StatusExpired, nil
	}
	return paymcp.StatusPending, nil
}

// RefundPayment refunds a charge by its payment intent ID. A zero amount
// refunds the full charge.
func (p *Provider) RefundPayment(ctx context.Context, paymentIntentID string, amount decimal.Decimal, currency, reason string) (string, error) {
	if paymentIntentID == "" {
		return "", paymcp.NewValidationError("payment_id", "payment intent ID cannot be empty")
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	params.Context = ctx

	if !amount.IsZero() {
		currency = strings.ToUpper(strings.TrimSpace(currency))
		if len(currency) != 3 {
			return "", paymcp.NewValidationError("currency", "currency code must be 3 characters, got %q", currency)
		}
		params.Amount = stripe.Int64(minorUnits(amount, currency))
	}
	if reason != "" {
		params.AddMetadata("reason", reason)
	}

	r, err := refund.New(params)
	if err != nil {
		return "", wrapStripeError(err)
	}

	p.logger.Info("stripe refund created", map[string]interface{}{
		"refund_id":  r.ID,
		"payment_id": paymentIntentID,
	})
	return r.ID, nil
}

// minorUnits converts a decimal amount into Stripe's integer representation.
func minorUnits(amount decimal.Decimal, currency string) int64 {
	if _, ok := zeroDecimalCurrencies[currency]; ok {
		return amount.Round(0).IntPart()
	}
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func wrapStripeError(err error) error {
	if stripeErr, ok := err.(*stripe.Error); ok {
		switch {
		case stripeErr.HTTPStatusCode == 401:
			return &paymcp.AuthenticationError{Provider: "stripe", Message: stripeErr.Msg, Err: err}
		case stripeErr.HTTPStatusCode == 429:
			return &paymcp.PaymentError{Code: paymcp.ErrCodeRateLimited, Message: stripeErr.Msg, Err: err}
		case stripeErr.HTTPStatusCode >= 500:
			return &paymcp.PaymentError{Code: paymcp.ErrCodeProviderUnavailable, Message: stripeErr.Msg, Err: err}
		default:
			return &paymcp.PaymentError{
				Code:    paymcp.ErrCodePaymentFailed,
				Message: stripeErr.Msg,
				Details: map[string]interface{}{"stripe_code": string(stripeErr.Code)},
				Err:     err,
			}
		}
	}
	return &paymcp.PaymentError{
		Code:    paymcp.ErrCodeNetwork,
		Message: fmt.Sprintf("stripe request failed: %v", err),
		Err:     err,
	}
}

var _ paymcp.Provider = (*Provider)(nil)
var _ paymcp.PaymentRefunder = (*Provider)(nil)
