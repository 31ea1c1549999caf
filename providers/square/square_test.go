package square

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	paymcp "github.com/paymcp/paymcp-go"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	provider, err := New(Config{
		AccessToken: "test-token",
		LocationID:  "LOC1",
		Sandbox:     true,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	provider.baseURL = server.URL
	return provider
}

func TestCreatePayment(t *testing.T) {
	var gotPayload map[string]interface{}

	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v2/locations/LOC1/checkouts" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-token" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if version := r.Header.Get("Square-Version"); version != apiVersion {
			t.Errorf("unexpected Square-Version %q", version)
		}
		json.NewDecoder(r.Body).Decode(&gotPayload)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"checkout": map[string]string{
				"id":                "chk-1",
				"checkout_page_url": "https://squareup.com/checkout/chk-1",
			},
		})
	})

	id, url, err := provider.CreatePayment(context.Background(), decimal.NewFromFloat(7.25), "usd", "Premium search")
	if err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}
	if id != "chk-1" || url != "https://squareup.com/checkout/chk-1" {
		t.Errorf("got id=%q url=%q", id, url)
	}

	if key, _ := gotPayload["idempotency_key"].(string); key == "" {
		t.Error("missing idempotency key")
	}
	checkout := gotPayload["checkout"].(map[string]interface{})
	order := checkout["order"].(map[string]interface{})["order"].(map[string]interface{})
	items := order["line_items"].([]interface{})
	money := items[0].(map[string]interface{})["base_price_money"].(map[string]interface{})
	if money["amount"] != float64(725) || money["currency"] != "USD" {
		t.Errorf("base price money = %v", money)
	}
}

func TestGetPaymentStatus(t *testing.T) {
	cases := []struct {
		state string
		want  string
	}{
		{"COMPLETED", paymcp.StatusPaid},
		{"CANCELED", paymcp.StatusCanceled},
		{"OPEN", paymcp.StatusPending},
	}

	for _, tc := range cases {
		state := tc.state
		provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/v2/locations/LOC1/checkouts/chk-1":
				json.NewEncoder(w).Encode(map[string]interface{}{
					"checkout": map[string]interface{}{"order": map[string]string{"id": "ord-1"}},
				})
			case "/v2/orders/ord-1":
				if r.URL.Query().Get("location_id") != "LOC1" {
					t.Errorf("missing location_id query: %s", r.URL.RawQuery)
				}
				json.NewEncoder(w).Encode(map[string]interface{}{
					"order": map[string]string{"state": state},
				})
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		})

		got, err := provider.GetPaymentStatus(context.Background(), "chk-1")
		if err != nil {
			t.Fatalf("GetPaymentStatus(%s) failed: %v", tc.state, err)
		}
		if got != tc.want {
			t.Errorf("state %s mapped to %q, want %q", tc.state, got, tc.want)
		}
	}
}

func TestGetPaymentStatusWithoutOrderIsPending(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"checkout": map[string]interface{}{}})
	})

	got, err := provider.GetPaymentStatus(context.Background(), "chk-1")
	if err != nil {
		t.Fatalf("GetPaymentStatus failed: %v", err)
	}
	if got != paymcp.StatusPending {
		t.Errorf("status = %q, want pending", got)
	}
}

func TestUnauthorized(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := provider.GetPaymentStatus(context.Background(), "chk-1")
	var authErr *paymcp.AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected authentication error, got %v", err)
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New(Config{LocationID: "LOC1"}); err == nil {
		t.Error("expected error for missing access token")
	}
	if _, err := New(Config{AccessToken: "test-token"}); err == nil {
		t.Error("expected error for missing location ID")
	}
}
