package paymcp

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestContextMapRoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c := &Context{}
	c.Payment = PaymentInfo{
		PaymentID:  "pay-1",
		Amount:     decimal.NewFromFloat(9.99),
		Currency:   "USD",
		Provider:   "paypal",
		Status:     StatusPaid,
		CreatedAt:  created,
		PaymentURL: "https://pay.example/pay-1",
	}
	c.User = UserInfo{UserID: "u1", SessionID: "s1", IPAddress: "10.0.0.1"}
	c.Execution = ExecutionInfo{RequestID: "r1", ToolName: "echo", StartedAt: created, RetryCount: 2}
	c.Set("note", "hello")

	restored := ContextFromMap(c.ToMap())

	if restored.Payment.PaymentID != "pay-1" || restored.Payment.Provider != "paypal" {
		t.Errorf("payment fields lost: %+v", restored.Payment)
	}
	if !restored.Payment.Amount.Equal(decimal.NewFromFloat(9.99)) {
		t.Errorf("amount lost precision: %s", restored.Payment.Amount)
	}
	if !restored.Payment.CreatedAt.Equal(created) {
		t.Errorf("created_at not preserved: %s", restored.Payment.CreatedAt)
	}
	if restored.User.SessionID != "s1" || restored.User.IPAddress != "10.0.0.1" {
		t.Errorf("user fields lost: %+v", restored.User)
	}
	if restored.Execution.ToolName != "echo" || restored.Execution.RetryCount != 2 {
		t.Errorf("execution fields lost: %+v", restored.Execution)
	}
	if v, ok := restored.Get("note"); !ok || v != "hello" {
		t.Errorf("extra data lost: %v", v)
	}
}

func TestContextFromMapTolerant(t *testing.T) {
	// Malformed fields are dropped, never fatal.
	c := ContextFromMap(map[string]interface{}{
		"payment": map[string]interface{}{
			"payment_id": 42,
			"amount":     "not a number",
			"created_at": "garbage",
		},
		"user":      "not a map",
		"execution": nil,
	})

	if c.Payment.PaymentID != "" {
		t.Errorf("non-string payment_id accepted: %q", c.Payment.PaymentID)
	}
	if !c.Payment.Amount.IsZero() {
		t.Errorf("malformed amount accepted: %s", c.Payment.Amount)
	}
	if !c.Payment.CreatedAt.IsZero() {
		t.Errorf("malformed timestamp accepted: %s", c.Payment.CreatedAt)
	}

	if ContextFromMap(nil) == nil {
		t.Error("nil map must still produce a context")
	}
}

func TestPriceString(t *testing.T) {
	if got := Price(5, "USD").String(); got != "5 USD" {
		t.Errorf("unexpected price format: %q", got)
	}
	if got := Price(0.5, "EUR").String(); got != "0.5 EUR" {
		t.Errorf("unexpected price format: %q", got)
	}
}
