// Package paypal implements a payment provider backed by the PayPal
// Orders v2 REST API.
package paypal

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/paymcp/paymcp-go/envconfig"
)

const (
	sandboxBaseURL    = "https://api-m.sandbox.paypal.com"
	productionBaseURL = "https://api-m.paypal.com"

	defaultMinAmount = 0.01
	defaultMaxAmount = 10000.00
)

// Config holds PayPal credentials and behavior settings.
type Config struct {
	ClientID     string `validate:"required,min=10"`
	ClientSecret string `validate:"required,min=10"`

	Sandbox bool

	// BaseURL is derived from Sandbox when empty.
	BaseURL    string `validate:"omitempty,url"`
	ReturnURL  string `validate:"omitempty,url"`
	CancelURL  string `validate:"omitempty,url"`
	WebhookURL string `validate:"omitempty,url,public_url"`

	BrandName string `validate:"omitempty,max=22"`
	Locale    string `validate:"omitempty,bcp47_language_tag"`

	Currencies []string

	MinAmount float64 `validate:"gt=0"`
	MaxAmount float64 `validate:"gtfield=MinAmount,lte=10000"`

	Timeout    time.Duration `validate:"gt=0,lte=300000000000"`
	MaxRetries int           `validate:"gte=0,lte=10"`
}

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	// Webhook endpoints must be reachable by PayPal, so local and
	// private hosts are rejected.
	_ = v.RegisterValidation("public_url", func(fl validator.FieldLevel) bool {
		u, err := url.Parse(fl.Field().String())
		if err != nil {
			return false
		}
		host := u.Hostname()
		if host == "localhost" || host == "127.0.0.1" || host == "0.0.0.0" {
			return false
		}
		for _, prefix := range []string{"192.168.", "10.", "172."} {
			if strings.HasPrefix(host, prefix) {
				return false
			}
		}
		return true
	})
	return v
}

// applyDefaults fills zero values with the documented defaults.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		if c.Sandbox {
			c.BaseURL = sandboxBaseURL
		} else {
			c.BaseURL = productionBaseURL
		}
	}
	if len(c.Currencies) == 0 {
		c.Currencies = []string{"USD"}
	}
	for i, cur := range c.Currencies {
		c.Currencies[i] = strings.ToUpper(strings.TrimSpace(cur))
	}
	if c.Locale == "" {
		c.Locale = "en-US"
	}
	if c.MinAmount == 0 {
		c.MinAmount = defaultMinAmount
	}
	if c.MaxAmount == 0 {
		c.MaxAmount = defaultMaxAmount
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
}

// Validate applies defaults and checks the configuration.
func (c *Config) Validate() error {
	c.applyDefaults()

	if err := validate.Struct(c); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) && len(errs) > 0 {
			fe := errs[0]
			return fmt.Errorf("paypal config: field %s failed %q validation", fe.Field(), fe.Tag())
		}
		return fmt.Errorf("paypal config: %w", err)
	}

	if !c.Sandbox {
		for _, u := range []string{c.ReturnURL, c.CancelURL, c.WebhookURL, c.BaseURL} {
			if u != "" && !strings.HasPrefix(u, "https://") {
				return fmt.Errorf("paypal config: %s must use HTTPS in production", u)
			}
		}
	}

	for _, cur := range c.Currencies {
		if _, ok := supportedCurrencies[cur]; !ok {
			return fmt.Errorf("paypal config: unsupported currency %q", cur)
		}
	}

	return nil
}

// ConfigFromEnv builds a Config from PAYPAL_* environment variables.
// A .env file in the working directory is loaded first.
func ConfigFromEnv() (*Config, error) {
	if err := envconfig.LoadDotenv(); err != nil {
		return nil, fmt.Errorf("paypal config: %w", err)
	}

	cfg := &Config{
		ClientID:     envconfig.Get("", "PAYMCP_PAYPAL_CLIENT_ID", "PAYPAL_CLIENT_ID"),
		ClientSecret: envconfig.Get("", "PAYMCP_PAYPAL_CLIENT_SECRET", "PAYPAL_CLIENT_SECRET"),
		Sandbox:      envconfig.GetBool(true, "PAYMCP_PAYPAL_SANDBOX", "PAYPAL_SANDBOX"),
		BaseURL:      envconfig.Get("", "PAYMCP_PAYPAL_BASE_URL", "PAYPAL_BASE_URL"),
		ReturnURL:    envconfig.Get("", "PAYMCP_PAYPAL_RETURN_URL", "PAYPAL_RETURN_URL"),
		CancelURL:    envconfig.Get("", "PAYMCP_PAYPAL_CANCEL_URL", "PAYPAL_CANCEL_URL"),
		WebhookURL:   envconfig.Get("", "PAYMCP_PAYPAL_WEBHOOK_URL", "PAYPAL_WEBHOOK_URL"),
		BrandName:    envconfig.Get("", "PAYMCP_PAYPAL_BRAND_NAME", "PAYPAL_BRAND_NAME"),
		Locale:       envconfig.Get("en-US", "PAYMCP_PAYPAL_LOCALE", "PAYPAL_LOCALE"),
		MinAmount:    envconfig.GetFloat(defaultMinAmount, "PAYMCP_PAYPAL_MIN_AMOUNT", "PAYPAL_MIN_AMOUNT"),
		MaxAmount:    envconfig.GetFloat(defaultMaxAmount, "PAYMCP_PAYPAL_MAX_AMOUNT", "PAYPAL_MAX_AMOUNT"),
		Timeout:      envconfig.GetDuration(30*time.Second, "PAYMCP_PAYPAL_TIMEOUT", "PAYPAL_TIMEOUT"),
		MaxRetries:   envconfig.GetInt(3, "PAYMCP_PAYPAL_MAX_RETRIES", "PAYPAL_MAX_RETRIES"),
	}

	if raw := envconfig.Get("", "PAYMCP_PAYPAL_CURRENCIES", "PAYPAL_CURRENCIES"); raw != "" {
		cfg.Currencies = strings.Split(raw, ",")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
