package paymcp

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// wrapTwoStep builds the default flow: the tool itself becomes the initiate
// step, and a confirm_<tool>_payment tool is registered alongside it.
func (p *PayMCP) wrapTwoStep(def ToolDef, binding *toolBinding) (*WrappedTool, error) {
	confirmName := fmt.Sprintf("confirm_%s_payment", def.Name)

	initiate := func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		if err := binding.validateArgs(def, args); err != nil {
			return nil, err
		}

		requestID := uuid.NewString()
		pctx := newPaymentContext(p.provider, def.Price, def.Name, requestID)

		paymentID, paymentURL, err := p.createPayment(ctx, def.Name, paymentDescription(def.Name), def.Price)
		if err != nil {
			p.logger.Error("payment creation failed", map[string]interface{}{
				"tool": def.Name, "error": err.Error(),
			})
			return nil, err
		}

		pctx.Payment.PaymentID = paymentID
		pctx.Payment.PaymentURL = paymentURL

		if err := p.stashPending(ctx, paymentID, def.Name, args, pctx); err != nil {
			return nil, fmt.Errorf("failed to stash pending call: %w", err)
		}

		p.logger.Info("payment initiated", map[string]interface{}{
			"tool":       def.Name,
			"payment_id": paymentID,
			"request_id": requestID,
		})

		return &InitiateResult{
			Message:    OpenLinkMessage(paymentURL, def.Price),
			PaymentURL: paymentURL,
			PaymentID:  paymentID,
			NextStep:   confirmName,
		}, nil
	}

	confirm := func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		paymentID, _ := args["payment_id"].(string)
		if paymentID == "" {
			return nil, NewValidationError("payment_id", "required")
		}

		if _, _, err := p.loadPending(ctx, paymentID); err != nil {
			return nil, err
		}

		status, err := p.provider.GetPaymentStatus(ctx, paymentID)
		if err != nil {
			return nil, err
		}
		if status != StatusPaid {
			// The entry stays in the store so the caller can pay and retry.
			p.metrics.IncCounter("payment_confirm_pending", map[string]string{"provider": p.provider.Name()})
			return nil, &PaymentPendingError{PaymentID: paymentID, Status: status}
		}

		// Atomically consume the entry before invoking. Of any concurrent
		// confirmations for the same payment, exactly one gets past this
		// point; the rest fail as unknown.
		origArgs, pctx, err := p.consumePending(ctx, paymentID)
		if err != nil {
			return nil, err
		}

		pctx.Payment.PaymentID = paymentID
		pctx.Payment.Status = status

		p.logger.Info("payment confirmed", map[string]interface{}{
			"tool":       def.Name,
			"payment_id": paymentID,
		})
		p.metrics.IncCounter("payment_confirmed", map[string]string{"provider": p.provider.Name()})

		value, err := binding.invoke(ctx, origArgs, pctx)
		if err != nil {
			return nil, err
		}
		return &ConfirmedResult{Value: value, Payment: pctx.Payment}, nil
	}

	confirmDef := &ToolDef{
		Name:        confirmName,
		Description: fmt.Sprintf("Confirm payment and execute %s()", def.Name),
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"payment_id": map[string]interface{}{
					"type":        "string",
					"description": "Payment ID returned by the initiate step",
				},
			},
			"required": []interface{}{"payment_id"},
		},
	}

	return &WrappedTool{
		Tool:           def,
		Handler:        initiate,
		ConfirmTool:    confirmDef,
		ConfirmHandler: confirm,
	}, nil
}
