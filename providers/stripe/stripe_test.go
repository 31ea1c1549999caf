package stripe

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	stripe "github.com/stripe/stripe-go/v76"

	paymcp "github.com/paymcp/paymcp-go"
)

func TestMinorUnits(t *testing.T) {
	cases := []struct {
		amount   string
		currency string
		want     int64
	}{
		{"12.50", "USD", 1250},
		{"0.01", "USD", 1},
		{"10", "EUR", 1000},
		{"500", "JPY", 500},
		{"1000", "KRW", 1000},
	}

	for _, tc := range cases {
		got := minorUnits(decimal.RequireFromString(tc.amount), tc.currency)
		if got != tc.want {
			t.Errorf("minorUnits(%s %s) = %d, want %d", tc.amount, tc.currency, got, tc.want)
		}
	}
}

func TestWrapStripeError(t *testing.T) {
	authErr := wrapStripeError(&stripe.Error{HTTPStatusCode: 401, Msg: "invalid key"})
	var wantAuth *paymcp.AuthenticationError
	if !errors.As(authErr, &wantAuth) {
		t.Errorf("401: got %T", authErr)
	}

	rateErr := wrapStripeError(&stripe.Error{HTTPStatusCode: 429, Msg: "slow down"})
	var payErr *paymcp.PaymentError
	if !errors.As(rateErr, &payErr) || payErr.Code != paymcp.ErrCodeRateLimited {
		t.Errorf("429: got %v", rateErr)
	}
	if !payErr.Transient() {
		t.Error("rate limit error should be transient")
	}

	serverErr := wrapStripeError(&stripe.Error{HTTPStatusCode: 503, Msg: "down"})
	if !errors.As(serverErr, &payErr) || payErr.Code != paymcp.ErrCodeProviderUnavailable {
		t.Errorf("503: got %v", serverErr)
	}

	cardErr := wrapStripeError(&stripe.Error{HTTPStatusCode: 402, Msg: "declined", Code: stripe.ErrorCodeCardDeclined})
	if !errors.As(cardErr, &payErr) || payErr.Code != paymcp.ErrCodePaymentFailed {
		t.Errorf("402: got %v", cardErr)
	}
	if payErr.Details["stripe_code"] != string(stripe.ErrorCodeCardDeclined) {
		t.Errorf("stripe code not preserved: %v", payErr.Details)
	}

	netErr := wrapStripeError(errors.New("connection refused"))
	if !errors.As(netErr, &payErr) || payErr.Code != paymcp.ErrCodeNetwork {
		t.Errorf("plain error: got %v", netErr)
	}
}

func TestCreatePaymentValidation(t *testing.T) {
	provider, err := New(Config{APIKey: "sk_test_123"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var valErr *paymcp.ValidationError
	if _, _, err := provider.CreatePayment(nil, decimal.Zero, "USD", "x"); !errors.As(err, &valErr) {
		t.Errorf("zero amount: got %v", err)
	}
	if _, _, err := provider.CreatePayment(nil, decimal.NewFromInt(1), "US", "x"); !errors.As(err, &valErr) {
		t.Errorf("bad currency: got %v", err)
	}
}

func TestRefundPaymentValidation(t *testing.T) {
	provider, err := New(Config{APIKey: "sk_test_123"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var valErr *paymcp.ValidationError
	if _, err := provider.RefundPayment(nil, "", decimal.Zero, "", ""); !errors.As(err, &valErr) {
		t.Errorf("empty payment intent: got %v", err)
	}
	if _, err := provider.RefundPayment(nil, "pi_1", decimal.NewFromInt(1), "DOLLARS", ""); !errors.As(err, &valErr) {
		t.Errorf("bad currency: got %v", err)
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for missing API key")
	}
}
