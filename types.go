package paymcp

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Payment status values shared by all providers. Provider-specific API
// statuses are mapped into this set before they reach a flow.
const (
	StatusPaid      = "paid"
	StatusApproved  = "approved"
	StatusCreated   = "created"
	StatusPending   = "pending"
	StatusCanceled  = "canceled"
	StatusExpired   = "expired"
	StatusFailed    = "failed"
	StatusTimeout   = "timeout"
	StatusRequested = "requested"
	StatusUnknown   = "unknown"
)

// FlowType selects how a priced tool collects payment
type FlowType string

const (
	// FlowTwoStep splits the call into an initiate tool and a dynamically
	// registered confirm tool. This is the default.
	FlowTwoStep FlowType = "TWO_STEP"

	// FlowElicitation holds the call open and asks the host client to
	// confirm payment through an Elicitor.
	FlowElicitation FlowType = "ELICITATION"

	// FlowProgress holds the call open and polls the provider, reporting
	// through a ProgressReporter until paid or timed out.
	FlowProgress FlowType = "PROGRESS"
)

// PriceInfo is the price attached to a tool at registration time
type PriceInfo struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// Price builds a PriceInfo from a float amount and currency code.
// Amounts are carried as decimals end to end; the float is only accepted
// here for ergonomics at the registration call site.
func Price(amount float64, currency string) PriceInfo {
	return PriceInfo{Amount: decimal.NewFromFloat(amount), Currency: currency}
}

// String formats the price for user-facing messages, e.g. "5 USD".
func (p PriceInfo) String() string {
	return fmt.Sprintf("%s %s", p.Amount.String(), p.Currency)
}

// ToolDef describes a tool being registered with a price
type ToolDef struct {
	Name        string
	Description string
	// InputSchema is an optional JSON schema for the tool's arguments.
	// When set, arguments are validated against it before any payment
	// is created.
	InputSchema map[string]interface{}
	Price       PriceInfo
}

// Provider is the common contract every payment provider implements
type Provider interface {
	// Name returns the provider identifier, e.g. "paypal".
	Name() string

	// CreatePayment creates a payment and returns the provider's payment ID
	// and the URL where the user completes it.
	CreatePayment(ctx context.Context, amount decimal.Decimal, currency, description string) (paymentID, paymentURL string, err error)

	// GetPaymentStatus returns one of the Status* constants for the payment.
	GetPaymentStatus(ctx context.Context, paymentID string) (string, error)
}

// PaymentCapturer is implemented by providers that support a separate
// capture step after approval.
type PaymentCapturer interface {
	CapturePayment(ctx context.Context, paymentID string) (string, error)
}

// PaymentRefunder is implemented by providers that support refunds.
// A zero amount refunds the full capture. Returns the provider's refund ID.
type PaymentRefunder interface {
	RefundPayment(ctx context.Context, captureID string, amount decimal.Decimal, currency, reason string) (string, error)
}

// HealthChecker is implemented by providers that can verify their
// credentials and connectivity without moving money.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// WrappedTool is the result of wrapping a priced tool with a payment flow.
// Handler replaces the original function at the tool's name; ConfirmTool and
// ConfirmHandler are non-nil only for the two-step flow.
type WrappedTool struct {
	Tool           ToolDef
	Handler        ToolHandler
	ConfirmTool    *ToolDef
	ConfirmHandler ToolHandler
}

// ConfirmedResult wraps the original function's return value after a
// successful payment so transports can surface payment metadata alongside it.
type ConfirmedResult struct {
	Value   interface{}
	Payment PaymentInfo
}

// InitiateResult is returned by the two-step initiate handler and by the
// elicitation flow when payment is still outstanding.
type InitiateResult struct {
	Message    string `json:"message"`
	PaymentURL string `json:"payment_url,omitempty"`
	PaymentID  string `json:"payment_id"`
	NextStep   string `json:"next_step"`
	Status     string `json:"status,omitempty"`
}
