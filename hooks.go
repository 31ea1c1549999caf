package paymcp

import (
	"context"
	"time"
)

// PaymentCreateContext is passed to hooks around payment creation
type PaymentCreateContext struct {
	Ctx         context.Context
	ToolName    string
	Price       PriceInfo
	Description string
	Provider    string
	Timestamp   time.Time
}

// PaymentCreateResultContext carries the created payment and timing
type PaymentCreateResultContext struct {
	PaymentCreateContext
	PaymentID  string
	PaymentURL string
	Duration   time.Duration
}

// PaymentFailureContext carries a payment creation failure
type PaymentFailureContext struct {
	PaymentCreateContext
	Error    error
	Duration time.Duration
}

// BeforeHookResult aborts the operation when Abort is true
type BeforeHookResult struct {
	Abort  bool
	Reason string
}

// PaymentFailureHookResult recovers from a failure when Recovered is true,
// substituting the given payment ID and URL.
type PaymentFailureHookResult struct {
	Recovered  bool
	PaymentID  string
	PaymentURL string
}

// BeforePaymentCreateHook runs before a payment is created with the
// provider. Returning Abort skips creation and fails the call with the
// given reason.
type BeforePaymentCreateHook func(PaymentCreateContext) (*BeforeHookResult, error)

// AfterPaymentCreateHook runs after a payment is created. Errors are
// logged but do not affect the call.
type AfterPaymentCreateHook func(PaymentCreateResultContext) error

// OnPaymentFailureHook runs when payment creation fails. Returning
// Recovered substitutes the provided payment in place of the error.
type OnPaymentFailureHook func(PaymentFailureContext) (*PaymentFailureHookResult, error)

// WithBeforePaymentCreateHook registers a hook to run before payment creation
func WithBeforePaymentCreateHook(hook BeforePaymentCreateHook) Option {
	return func(p *PayMCP) {
		p.beforeCreateHooks = append(p.beforeCreateHooks, hook)
	}
}

// WithAfterPaymentCreateHook registers a hook to run after payment creation
func WithAfterPaymentCreateHook(hook AfterPaymentCreateHook) Option {
	return func(p *PayMCP) {
		p.afterCreateHooks = append(p.afterCreateHooks, hook)
	}
}

// WithOnPaymentFailureHook registers a hook to run when payment creation fails
func WithOnPaymentFailureHook(hook OnPaymentFailureHook) Option {
	return func(p *PayMCP) {
		p.onFailureHooks = append(p.onFailureHooks, hook)
	}
}

// createPayment calls the provider inside the hook pipeline and records
// latency for the metrics recorder.
func (p *PayMCP) createPayment(ctx context.Context, toolName, description string, price PriceInfo) (string, string, error) {
	hookCtx := PaymentCreateContext{
		Ctx:         ctx,
		ToolName:    toolName,
		Price:       price,
		Description: description,
		Provider:    p.provider.Name(),
		Timestamp:   time.Now(),
	}

	for _, hook := range p.beforeCreateHooks {
		result, err := hook(hookCtx)
		if err != nil {
			return "", "", err
		}
		if result != nil && result.Abort {
			return "", "", NewPaymentError(ErrCodePaymentFailed, result.Reason, nil)
		}
	}

	start := time.Now()
	paymentID, paymentURL, err := p.provider.CreatePayment(ctx, price.Amount, price.Currency, description)
	elapsed := time.Since(start)
	p.metrics.ObserveLatency("create_payment", elapsed, map[string]string{"provider": p.provider.Name()})

	if err != nil {
		p.metrics.IncCounter("payment_create_failed", map[string]string{"provider": p.provider.Name()})
		failureCtx := PaymentFailureContext{PaymentCreateContext: hookCtx, Error: err, Duration: elapsed}
		for _, hook := range p.onFailureHooks {
			result, _ := hook(failureCtx)
			if result != nil && result.Recovered {
				return result.PaymentID, result.PaymentURL, nil
			}
		}
		return "", "", err
	}

	p.metrics.IncCounter("payment_created", map[string]string{"provider": p.provider.Name()})
	resultCtx := PaymentCreateResultContext{
		PaymentCreateContext: hookCtx,
		PaymentID:            paymentID,
		PaymentURL:           paymentURL,
		Duration:             elapsed,
	}
	for _, hook := range p.afterCreateHooks {
		if hookErr := hook(resultCtx); hookErr != nil {
			p.logger.Warn("after payment create hook failed", map[string]interface{}{
				"tool": toolName, "error": hookErr.Error(),
			})
		}
	}

	return paymentID, paymentURL, nil
}
