package paymcp

import "fmt"

// PaymentError represents a provider-side payment failure
type PaymentError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

// Transient reports whether the failure is worth retrying (rate limits,
// provider outages, network errors). Validation and auth failures are not.
func (e *PaymentError) Transient() bool {
	switch e.Code {
	case ErrCodeRateLimited, ErrCodeProviderUnavailable, ErrCodeNetwork:
		return true
	}
	return false
}

// Common error codes
const (
	ErrCodePaymentFailed       = "payment_failed"
	ErrCodePaymentCanceled     = "payment_canceled"
	ErrCodePaymentExpired      = "payment_expired"
	ErrCodePaymentTimeout      = "payment_timeout"
	ErrCodeRateLimited         = "rate_limited"
	ErrCodeProviderUnavailable = "provider_unavailable"
	ErrCodeNetwork             = "network_error"
	ErrCodeInvalidResponse     = "invalid_response"
)

// NewPaymentError creates a new payment error
func NewPaymentError(code, message string, details map[string]interface{}) *PaymentError {
	return &PaymentError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// ConfigurationError indicates invalid or missing setup (credentials,
// handler signatures, flow wiring). Never retried.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Message
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...)}
}

// ValidationError indicates a request parameter that failed validation.
// Inputs are rejected, never coerced. Never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for the given field
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// AuthenticationError indicates rejected provider credentials. Never retried.
type AuthenticationError struct {
	Provider string
	Message  string
	Err      error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("%s authentication failed: %s", e.Provider, e.Message)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// UnknownPaymentError indicates a payment ID with no pending call behind it:
// never issued, already consumed, or expired from the state store.
type UnknownPaymentError struct {
	PaymentID string
}

func (e *UnknownPaymentError) Error() string {
	return fmt.Sprintf("unknown or expired payment_id: %s", e.PaymentID)
}

// PaymentPendingError indicates confirmation ran before the payment
// completed. The pending call survives; the caller should retry after paying.
type PaymentPendingError struct {
	PaymentID string
	Status    string
}

func (e *PaymentPendingError) Error() string {
	return fmt.Sprintf("payment %s status is %q, expected %q", e.PaymentID, e.Status, StatusPaid)
}
