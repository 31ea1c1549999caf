package paypal

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

	paymcp "github.com/paymcp/paymcp-go"
	"github.com/paymcp/paymcp-go/logger"
)

// retryBaseDelay is the base delay for exponential backoff on retries.
const retryBaseDelay = 1 * time.Second

// apiClient makes authenticated requests to the PayPal REST API.
// Transient failures (429, 5xx, network errors) are retried with
// exponential backoff up to the configured attempt count; everything
// else fails immediately.
type apiClient struct {
	config     *Config
	tokens     *tokenManager
	httpClient *http.Client
	logger     logger.Logger
}

func newAPIClient(cfg *Config, tokens *tokenManager, httpClient *http.Client, log logger.Logger) *apiClient {
	return &apiClient{
		config:     cfg,
		tokens:     tokens,
		httpClient: httpClient,
		logger:     log,
	}
}

func (c *apiClient) get(ctx context.Context, endpoint string, out interface{}) error {
	return c.do(ctx, http.MethodGet, endpoint, nil, out)
}

func (c *apiClient) post(ctx context.Context, endpoint string, payload, out interface{}) error {
	return c.do(ctx, http.MethodPost, endpoint, payload, out)
}

func (c *apiClient) do(ctx context.Context, method, endpoint string, payload, out interface{}) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	attempts := c.config.MaxRetries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			c.logger.Debug("retrying paypal request", map[string]interface{}{
				"endpoint": endpoint, "attempt": attempt,
			})
		}

		err := c.doOnce(ctx, method, endpoint, body, out)
		if err == nil {
			return nil
		}
		lastErr = err

		var payErr *paymcp.PaymentError
		if !errors.As(err, &payErr) || !payErr.Transient() {
			return err
		}
	}

	return lastErr
}

func (c *apiClient) doOnce(ctx context.Context, method, endpoint string, body []byte, out interface{}) error {
	url := strings.TrimRight(c.config.BaseURL, "/") + endpoint

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("PayPal-Request-Id", fmt.Sprintf("paymcp-%d", time.Now().UnixMilli()))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return paymcp.NewPaymentError(paymcp.ErrCodeNetwork,
			fmt.Sprintf("paypal request failed: %v", err), nil)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return paymcp.NewPaymentError(paymcp.ErrCodeNetwork,
			fmt.Sprintf("failed to read paypal response: %v", err), nil)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil || resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return paymcp.NewPaymentError(paymcp.ErrCodeInvalidResponse,
				fmt.Sprintf("failed to decode paypal response: %v", err), nil)
		}
		return nil

	case resp.StatusCode == http.StatusUnauthorized:
		// The cached token may have been revoked.
		c.tokens.Invalidate()
		return &paymcp.AuthenticationError{
			Provider: "paypal",
			Message:  fmt.Sprintf("request rejected (%d): %s", resp.StatusCode, extractErrorDetails(respBody)),
		}

	case resp.StatusCode == http.StatusTooManyRequests:
		return paymcp.NewPaymentError(paymcp.ErrCodeRateLimited,
			"paypal rate limit exceeded",
			map[string]interface{}{"endpoint": endpoint})

	case resp.StatusCode >= 500:
		return paymcp.NewPaymentError(paymcp.ErrCodeProviderUnavailable,
			fmt.Sprintf("paypal server error (%d): %s", resp.StatusCode, extractErrorDetails(respBody)),
			map[string]interface{}{"endpoint": endpoint})

	default:
		return paymcp.NewPaymentError(paymcp.ErrCodePaymentFailed,
			fmt.Sprintf("paypal error (%d): %s", resp.StatusCode, extractErrorDetails(respBody)),
			map[string]interface{}{"endpoint": endpoint, "status_code": resp.StatusCode})
	}
}

// extractErrorDetails pulls the message and detail descriptions out of a
// PayPal error body, falling back to the raw text.
func extractErrorDetails(body []byte) string {
	var errResp struct {
		Message string `json:"message"`
		Details []struct {
			Description string `json:"description"`
		} `json:"details"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Message == "" {
		if len(body) == 0 {
			return "unknown error"
		}
		return string(body)
	}

	msg := errResp.Message
	if len(errResp.Details) > 0 {
		descriptions := make([]string, 0, len(errResp.Details))
		for _, d := range errResp.Details {
			if d.Description != "" {
				descriptions = append(descriptions, d.Description)
			}
		}
		if len(descriptions) > 0 {
			msg += " details: " + strings.Join(descriptions, ", ")
		}
	}
	return msg
}
