package paymcp

import (
	"context"

	"github.com/google/uuid"
)

// elicitationMaxAttempts bounds how many times the user is asked to
// confirm before the flow gives up and reports pending.
const elicitationMaxAttempts = 5

// wrapElicitation builds the single-step flow that asks the host client to
// confirm payment before running the tool.
func (p *PayMCP) wrapElicitation(def ToolDef, binding *toolBinding) (*WrappedTool, error) {
	handler := func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		if err := binding.validateArgs(def, args); err != nil {
			return nil, err
		}

		elicitor, ok := ElicitorFromContext(ctx)
		if !ok {
			return nil, NewConfigurationError(
				"tool %q: elicitation flow requires an Elicitor on the request context", def.Name)
		}

		requestID := uuid.NewString()
		pctx := newPaymentContext(p.provider, def.Price, def.Name, requestID)

		paymentID, paymentURL, err := p.createPayment(ctx, def.Name, paymentDescription(def.Name), def.Price)
		if err != nil {
			return nil, err
		}
		pctx.Payment.PaymentID = paymentID
		pctx.Payment.PaymentURL = paymentURL

		message := OpenLinkMessage(paymentURL, def.Price)
		status, err := p.runElicitationLoop(ctx, elicitor, message, paymentID)
		if err != nil {
			return nil, err
		}

		switch status {
		case StatusPaid:
			pctx.Payment.Status = status
			p.metrics.IncCounter("payment_confirmed", map[string]string{"provider": p.provider.Name()})
			value, err := binding.invoke(ctx, args, pctx)
			if err != nil {
				return nil, err
			}
			return &ConfirmedResult{Value: value, Payment: pctx.Payment}, nil

		case StatusCanceled:
			return &InitiateResult{
				Status:    StatusCanceled,
				Message:   "Payment canceled by user",
				PaymentID: paymentID,
			}, nil

		default:
			return &InitiateResult{
				Status:    StatusPending,
				Message:   "We haven't received the payment yet. Run the tool again to check.",
				PaymentID: paymentID,
				NextStep:  def.Name,
			}, nil
		}
	}

	return &WrappedTool{Tool: def, Handler: handler}, nil
}

// runElicitationLoop prompts the user up to elicitationMaxAttempts times,
// checking the provider after each accept. Returns the final payment status.
func (p *PayMCP) runElicitationLoop(ctx context.Context, elicitor Elicitor, message, paymentID string) (string, error) {
	for attempt := 0; attempt < elicitationMaxAttempts; attempt++ {
		action, err := elicitor.Confirm(ctx, message)
		if err != nil {
			return "", err
		}

		switch action {
		case ElicitDecline, ElicitCancel:
			p.logger.Info("payment canceled by user", map[string]interface{}{"payment_id": paymentID})
			return StatusCanceled, nil
		}

		status, err := p.provider.GetPaymentStatus(ctx, paymentID)
		if err != nil {
			return "", err
		}
		if status == StatusPaid {
			return StatusPaid, nil
		}
		if status == StatusCanceled || status == StatusExpired || status == StatusFailed {
			return status, nil
		}

		p.logger.Debug("payment not yet complete", map[string]interface{}{
			"payment_id": paymentID,
			"status":     status,
			"attempt":    attempt + 1,
		})
		message = "We haven't received the payment yet. Please complete the payment, then confirm again."
	}

	return StatusPending, nil
}
