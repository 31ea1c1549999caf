// Package http provides paywall middleware that gates HTTP handlers
// behind a payment, for servers exposing paid endpoints outside MCP.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	paymcp "github.com/paymcp/paymcp-go"
)

// PaymentIDHeader carries the payment ID on retried requests.
const PaymentIDHeader = "X-Payment-Id"

const paywallKeyPrefix = "http:"

// PaymentRequiredResponse is the JSON body of a 402 response.
type PaymentRequiredResponse struct {
	Message    string `json:"message"`
	PaymentID  string `json:"payment_id"`
	PaymentURL string `json:"payment_url"`
	Status     string `json:"status,omitempty"`
}

// contextKey for the payment info attached to paid requests.
type contextKey struct{}

// PaymentFromRequest returns the payment details for a request that passed
// the paywall.
func PaymentFromRequest(r *http.Request) (paymcp.PaymentInfo, bool) {
	info, ok := r.Context().Value(contextKey{}).(paymcp.PaymentInfo)
	return info, ok
}

// Paywall gates handlers behind a fixed price. The first request receives
// 402 with a payment link; the client pays and retries with the
// X-Payment-Id header to get through.
type Paywall struct {
	payments    *paymcp.PayMCP
	price       paymcp.PriceInfo
	description string
}

// PaywallOption configures a Paywall.
type PaywallOption func(*Paywall)

// WithDescription sets the payment description shown to the payer.
func WithDescription(description string) PaywallOption {
	return func(pw *Paywall) {
		pw.description = description
	}
}

// NewPaywall creates a paywall charging price per request.
func NewPaywall(p *paymcp.PayMCP, price paymcp.PriceInfo, opts ...PaywallOption) (*Paywall, error) {
	if p == nil {
		return nil, paymcp.NewConfigurationError("paywall requires a PayMCP instance")
	}
	if price.Amount.IsZero() || price.Currency == "" {
		return nil, paymcp.NewConfigurationError("paywall price amount and currency are required")
	}

	pw := &Paywall{
		payments:    p,
		price:       price,
		description: "API access fee",
	}
	for _, opt := range opts {
		opt(pw)
	}
	return pw, nil
}

// Middleware wraps next so it only runs after a completed payment.
func (pw *Paywall) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paymentID := r.Header.Get(PaymentIDHeader)
		if paymentID == "" {
			pw.requirePayment(w, r)
			return
		}

		info, status, err := pw.Check(r.Context(), paymentID)
		if err != nil {
			pw.writeError(w, err)
			return
		}
		if status != paymcp.StatusPaid {
			writeJSON(w, http.StatusPaymentRequired, PaymentRequiredResponse{
				Message:   "Payment not completed yet. Complete payment and retry.",
				PaymentID: paymentID,
				Status:    status,
			})
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, info)))
	})
}

// requirePayment creates a payment and answers 402 with the link.
func (pw *Paywall) requirePayment(w http.ResponseWriter, r *http.Request) {
	paymentID, paymentURL, err := pw.Initiate(r.Context(), r.URL.Path)
	if err != nil {
		pw.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusPaymentRequired, PaymentRequiredResponse{
		Message:    paymcp.OpenLinkMessage(paymentURL, pw.price),
		PaymentID:  paymentID,
		PaymentURL: paymentURL,
		Status:     paymcp.StatusPending,
	})
}

// Initiate creates a payment for the given resource path and records it
// for the later status check.
func (pw *Paywall) Initiate(ctx context.Context, path string) (string, string, error) {
	description := pw.description
	if path != "" {
		description = description + " for " + path
	}

	provider := pw.payments.Provider()
	paymentID, paymentURL, err := provider.CreatePayment(ctx, pw.price.Amount, pw.price.Currency, description)
	if err != nil {
		return "", "", err
	}

	err = pw.payments.Store().Put(ctx, paywallKeyPrefix+paymentID, map[string]interface{}{
		"payment_url": paymentURL,
		"path":        path,
	})
	if err != nil {
		return "", "", err
	}
	return paymentID, paymentURL, nil
}

// Check verifies a payment issued by this paywall. A paid payment is
// consumed atomically so it cannot unlock a second request, even when
// requests carrying the same payment ID race.
func (pw *Paywall) Check(ctx context.Context, paymentID string) (paymcp.PaymentInfo, string, error) {
	entry, err := pw.payments.Store().Get(ctx, paywallKeyPrefix+paymentID)
	if err != nil {
		return paymcp.PaymentInfo{}, "", err
	}
	if entry == nil {
		return paymcp.PaymentInfo{}, "", &paymcp.UnknownPaymentError{PaymentID: paymentID}
	}

	status, err := pw.payments.Provider().GetPaymentStatus(ctx, paymentID)
	if err != nil {
		return paymcp.PaymentInfo{}, "", err
	}
	if status != paymcp.StatusPaid {
		return paymcp.PaymentInfo{}, status, nil
	}

	consumed, err := pw.payments.Store().Consume(ctx, paywallKeyPrefix+paymentID)
	if err != nil {
		return paymcp.PaymentInfo{}, "", err
	}
	if consumed == nil {
		// A concurrent request already spent this payment.
		return paymcp.PaymentInfo{}, "", &paymcp.UnknownPaymentError{PaymentID: paymentID}
	}

	info := paymcp.PaymentInfo{
		PaymentID: paymentID,
		Amount:    pw.price.Amount,
		Currency:  pw.price.Currency,
		Provider:  pw.payments.Provider().Name(),
		Status:    status,
	}
	return info, status, nil
}

func (pw *Paywall) writeError(w http.ResponseWriter, err error) {
	var unknownErr *paymcp.UnknownPaymentError
	if errors.As(err, &unknownErr) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}

	var validationErr *paymcp.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	pw.payments.Logger().Error("paywall error", map[string]interface{}{"error": err.Error()})
	writeJSON(w, http.StatusBadGateway, map[string]string{"error": "payment provider error"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
