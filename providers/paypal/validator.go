package paypal

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	paymcp "github.com/paymcp/paymcp-go"
)

// supportedCurrencies is the set of currencies PayPal accepts.
var supportedCurrencies = map[string]struct{}{
	"AUD": {}, "BRL": {}, "CAD": {}, "CHF": {}, "CNY": {}, "CZK": {},
	"DKK": {}, "EUR": {}, "GBP": {}, "HKD": {}, "HUF": {}, "ILS": {},
	"INR": {}, "JPY": {}, "MXN": {}, "MYR": {}, "NOK": {}, "NZD": {},
	"PHP": {}, "PLN": {}, "RUB": {}, "SEK": {}, "SGD": {}, "THB": {},
	"TWD": {}, "USD": {},
}

// zeroDecimalCurrencies do not allow fractional amounts.
var zeroDecimalCurrencies = map[string]struct{}{
	"JPY": {}, "KRW": {}, "TWD": {}, "HUF": {}, "CLP": {},
}

type currencyLimit struct {
	min float64
	max float64
}

// currencyLimits are PayPal's per-currency transaction bounds in local units.
var currencyLimits = map[string]currencyLimit{
	"USD": {0.01, 10000.00},
	"EUR": {0.01, 8500.00},
	"GBP": {0.01, 8000.00},
	"CAD": {0.01, 12000.00},
	"AUD": {0.01, 12000.00},
	"JPY": {1, 1000000},
	"CHF": {0.01, 9000.00},
	"SEK": {1.00, 85000.00},
	"NOK": {1.00, 85000.00},
	"DKK": {1.00, 60000.00},
}

const (
	maxDescriptionLength = 127

	forbiddenDescriptionChars = "<>\"'&\n\r\t"
)

// Order IDs are either 17 uppercase alphanumerics or UUID-shaped.
var orderIDPattern = regexp.MustCompile(`^[A-Z0-9]{17}$|^[0-9A-Z]{8}-[0-9A-Z]{4}-[0-9A-Z]{4}-[0-9A-Z]{4}-[0-9A-Z]{12}$`)

// amountValidator checks payment parameters against PayPal's rules and
// the configured bounds before any request is sent.
type amountValidator struct {
	currencies map[string]struct{}
	minAmount  float64
	maxAmount  float64
}

func newAmountValidator(cfg *Config) *amountValidator {
	currencies := make(map[string]struct{}, len(cfg.Currencies))
	for _, c := range cfg.Currencies {
		currencies[c] = struct{}{}
	}
	return &amountValidator{
		currencies: currencies,
		minAmount:  cfg.MinAmount,
		maxAmount:  cfg.MaxAmount,
	}
}

// ValidateCurrency normalizes and checks a currency code. It must be one
// PayPal supports and one this provider is configured for.
func (v *amountValidator) ValidateCurrency(currency string) (string, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return "", paymcp.NewValidationError("currency", "currency code must be 3 characters, got %q", currency)
	}
	if _, ok := supportedCurrencies[currency]; !ok {
		return "", paymcp.NewValidationError("currency", "currency %q not supported by PayPal", currency)
	}
	if _, ok := v.currencies[currency]; !ok {
		return "", paymcp.NewValidationError("currency", "currency %q not configured for this provider", currency)
	}
	return currency, nil
}

// ValidateAmount checks an amount against decimal-place rules and both the
// configured and PayPal per-currency bounds. Inputs are rejected, never
// coerced.
func (v *amountValidator) ValidateAmount(amount decimal.Decimal, currency string) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return paymcp.NewValidationError("amount", "amount must be positive, got %s", amount)
	}

	if _, zero := zeroDecimalCurrencies[currency]; zero {
		if !amount.Equal(amount.Truncate(0)) {
			return paymcp.NewValidationError("amount", "currency %s does not support decimal places", currency)
		}
	} else if amount.Exponent() < -2 {
		return paymcp.NewValidationError("amount", "amount cannot have more than 2 decimal places")
	}

	f, _ := amount.Float64()
	if f < v.minAmount {
		return paymcp.NewValidationError("amount", "amount %s below minimum %v", amount, v.minAmount)
	}
	if f > v.maxAmount {
		return paymcp.NewValidationError("amount", "amount %s exceeds maximum %v", amount, v.maxAmount)
	}

	if limit, ok := currencyLimits[currency]; ok {
		if f < limit.min {
			return paymcp.NewValidationError("amount", "amount %s %s below PayPal minimum %v %s", amount, currency, limit.min, currency)
		}
		if f > limit.max {
			return paymcp.NewValidationError("amount", "amount %s %s exceeds PayPal maximum %v %s", amount, currency, limit.max, currency)
		}
	}

	return nil
}

// ValidateDescription trims and checks a payment description.
func (v *amountValidator) ValidateDescription(description string, maxLength int) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", paymcp.NewValidationError("description", "description cannot be empty")
	}
	if len(description) > maxLength {
		return "", paymcp.NewValidationError("description", "description too long: %d > %d characters", len(description), maxLength)
	}
	if strings.ContainsAny(description, forbiddenDescriptionChars) {
		return "", paymcp.NewValidationError("description", "description contains forbidden characters")
	}
	return description, nil
}

// ValidateOrderID checks a PayPal order ID shape.
func (v *amountValidator) ValidateOrderID(orderID string) (string, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return "", paymcp.NewValidationError("payment_id", "order ID cannot be empty")
	}
	if !orderIDPattern.MatchString(orderID) {
		return "", paymcp.NewValidationError("payment_id", "invalid PayPal order ID format: %q", orderID)
	}
	return orderID, nil
}
