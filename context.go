package paymcp

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentInfo describes the payment behind the current tool invocation
type PaymentInfo struct {
	PaymentID  string          `json:"payment_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency,omitempty"`
	Provider   string          `json:"provider,omitempty"`
	Status     string          `json:"status,omitempty"`
	CreatedAt  time.Time       `json:"created_at,omitempty"`
	PaymentURL string          `json:"payment_url,omitempty"`
}

// UserInfo describes the user behind the current tool invocation
type UserInfo struct {
	UserID    string                 `json:"user_id,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`
	IPAddress string                 `json:"ip_address,omitempty"`
	UserAgent string                 `json:"user_agent,omitempty"`
	Prefs     map[string]interface{} `json:"preferences,omitempty"`
}

// ExecutionInfo describes the current execution
type ExecutionInfo struct {
	RequestID  string                 `json:"request_id,omitempty"`
	ToolName   string                 `json:"tool_name,omitempty"`
	StartedAt  time.Time              `json:"started_at,omitempty"`
	RetryCount int                    `json:"retry_count"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// Context carries payment, user, and execution information into wrapped
// functions that declare a *Context parameter. Functions without one never
// see it.
type Context struct {
	Payment   PaymentInfo
	User      UserInfo
	Execution ExecutionInfo
	Extra     map[string]interface{}
}

// Get returns a value from the extra context data
func (c *Context) Get(key string) (interface{}, bool) {
	v, ok := c.Extra[key]
	return v, ok
}

// Set stores a value in the extra context data
func (c *Context) Set(key string, value interface{}) {
	if c.Extra == nil {
		c.Extra = make(map[string]interface{})
	}
	c.Extra[key] = value
}

// ToMap converts the context to the plain-map form held in state stores
func (c *Context) ToMap() map[string]interface{} {
	payment := map[string]interface{}{
		"payment_id":  c.Payment.PaymentID,
		"amount":      c.Payment.Amount.String(),
		"currency":    c.Payment.Currency,
		"provider":    c.Payment.Provider,
		"status":      c.Payment.Status,
		"payment_url": c.Payment.PaymentURL,
	}
	if !c.Payment.CreatedAt.IsZero() {
		payment["created_at"] = c.Payment.CreatedAt.Format(time.RFC3339Nano)
	}

	execution := map[string]interface{}{
		"request_id":  c.Execution.RequestID,
		"tool_name":   c.Execution.ToolName,
		"retry_count": c.Execution.RetryCount,
	}
	if !c.Execution.StartedAt.IsZero() {
		execution["started_at"] = c.Execution.StartedAt.Format(time.RFC3339Nano)
	}
	if c.Execution.Metadata != nil {
		execution["metadata"] = c.Execution.Metadata
	}

	user := map[string]interface{}{
		"user_id":    c.User.UserID,
		"session_id": c.User.SessionID,
	}
	if c.User.IPAddress != "" {
		user["ip_address"] = c.User.IPAddress
	}
	if c.User.UserAgent != "" {
		user["user_agent"] = c.User.UserAgent
	}
	if c.User.Prefs != nil {
		user["preferences"] = c.User.Prefs
	}

	extra := c.Extra
	if extra == nil {
		extra = map[string]interface{}{}
	}

	return map[string]interface{}{
		"payment":   payment,
		"user":      user,
		"execution": execution,
		"extra":     extra,
	}
}

// ContextFromMap rebuilds a Context from its state-store map form.
// Unknown or malformed fields are dropped rather than failing the call.
func ContextFromMap(data map[string]interface{}) *Context {
	c := &Context{Extra: map[string]interface{}{}}
	if data == nil {
		return c
	}

	if p, ok := data["payment"].(map[string]interface{}); ok {
		c.Payment.PaymentID = stringField(p, "payment_id")
		c.Payment.Currency = stringField(p, "currency")
		c.Payment.Provider = stringField(p, "provider")
		c.Payment.Status = stringField(p, "status")
		c.Payment.PaymentURL = stringField(p, "payment_url")
		if s := stringField(p, "amount"); s != "" {
			if amt, err := decimal.NewFromString(s); err == nil {
				c.Payment.Amount = amt
			}
		}
		if s := stringField(p, "created_at"); s != "" {
			if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
				c.Payment.CreatedAt = t
			}
		}
	}

	if u, ok := data["user"].(map[string]interface{}); ok {
		c.User.UserID = stringField(u, "user_id")
		c.User.SessionID = stringField(u, "session_id")
		c.User.IPAddress = stringField(u, "ip_address")
		c.User.UserAgent = stringField(u, "user_agent")
		if prefs, ok := u["preferences"].(map[string]interface{}); ok {
			c.User.Prefs = prefs
		}
	}

	if e, ok := data["execution"].(map[string]interface{}); ok {
		c.Execution.RequestID = stringField(e, "request_id")
		c.Execution.ToolName = stringField(e, "tool_name")
		if n, ok := e["retry_count"].(float64); ok {
			c.Execution.RetryCount = int(n)
		} else if n, ok := e["retry_count"].(int); ok {
			c.Execution.RetryCount = n
		}
		if s := stringField(e, "started_at"); s != "" {
			if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
				c.Execution.StartedAt = t
			}
		}
		if md, ok := e["metadata"].(map[string]interface{}); ok {
			c.Execution.Metadata = md
		}
	}

	if extra, ok := data["extra"].(map[string]interface{}); ok {
		c.Extra = extra
	}

	return c
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

// newPaymentContext builds the Context snapshot taken when a payment flow
// starts for a tool call.
func newPaymentContext(provider Provider, price PriceInfo, toolName, requestID string) *Context {
	now := time.Now().UTC()
	return &Context{
		Payment: PaymentInfo{
			Amount:    price.Amount,
			Currency:  price.Currency,
			Provider:  provider.Name(),
			CreatedAt: now,
		},
		Execution: ExecutionInfo{
			RequestID: requestID,
			ToolName:  toolName,
			StartedAt: now,
		},
		Extra: map[string]interface{}{},
	}
}
