package paymcp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// wrapProgress builds the single-step flow that holds the call open,
// polling the provider and reporting progress until the payment completes.
func (p *PayMCP) wrapProgress(def ToolDef, binding *toolBinding) (*WrappedTool, error) {
	handler := func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		if err := binding.validateArgs(def, args); err != nil {
			return nil, err
		}

		reporter, _ := ProgressReporterFromContext(ctx)
		notify := func(message string, progress float64) {
			if reporter == nil {
				return
			}
			if err := reporter.Report(ctx, message, progress, 100); err != nil {
				p.logger.Debug("progress report failed", map[string]interface{}{"error": err.Error()})
			}
		}

		sessionID, _ := SessionIDFromContext(ctx)

		// A pending payment from an earlier timed-out call for this session
		// is resumed instead of charging again.
		paymentID, paymentURL, resumedArgs, done, err := p.resumeSession(ctx, sessionID, def.Name, notify)
		if err != nil {
			return nil, err
		}
		if done {
			if resumedArgs != nil {
				args = resumedArgs
			}
			return p.finishProgress(ctx, def, binding, args, sessionID, paymentID, StatusPaid)
		}

		if paymentID == "" {
			paymentID, paymentURL, err = p.createPayment(ctx, def.Name, paymentDescription(def.Name), def.Price)
			if err != nil {
				return nil, err
			}
			if sessionID != "" {
				if err := p.store.Put(ctx, sessionKey(sessionID), map[string]interface{}{
					"payment_id":  paymentID,
					"payment_url": paymentURL,
					"tool":        def.Name,
					"args":        args,
					"status":      StatusRequested,
				}); err != nil {
					return nil, fmt.Errorf("failed to store session state: %w", err)
				}
			}
		}

		notify(OpenLinkMessage(paymentURL, def.Price), 0)

		status, err := p.pollUntilPaid(ctx, paymentID, paymentURL, sessionID, notify)
		if err != nil {
			return nil, err
		}
		return p.finishProgress(ctx, def, binding, args, sessionID, paymentID, status)
	}

	return &WrappedTool{Tool: def, Handler: handler}, nil
}

// resumeSession checks the state store for a payment left over from an
// earlier call in the same session. Returns done=true when that payment is
// already paid and execution should proceed with the stored arguments.
func (p *PayMCP) resumeSession(ctx context.Context, sessionID, toolName string, notify func(string, float64)) (paymentID, paymentURL string, args map[string]interface{}, done bool, err error) {
	if sessionID == "" {
		return "", "", nil, false, nil
	}

	state, err := p.store.Get(ctx, sessionKey(sessionID))
	if err != nil || state == nil {
		return "", "", nil, false, err
	}

	paymentID, _ = state["payment_id"].(string)
	paymentURL, _ = state["payment_url"].(string)
	storedTool, _ := state["tool"].(string)

	status, statusErr := p.provider.GetPaymentStatus(ctx, paymentID)
	if statusErr != nil {
		// If the stored payment cannot be checked, start over.
		p.logger.Warn("stored payment status check failed", map[string]interface{}{
			"session_id": sessionID, "payment_id": paymentID, "error": statusErr.Error(),
		})
		_ = p.store.Delete(ctx, sessionKey(sessionID))
		return "", "", nil, false, nil
	}

	switch status {
	case StatusPaid:
		notify("Previous payment detected, executing with original request", 100)
		if storedTool == toolName {
			args, _ = state["args"].(map[string]interface{})
		}
		return paymentID, paymentURL, args, true, nil

	case StatusPending, StatusCreated, StatusApproved, StatusRequested:
		notify(fmt.Sprintf("Payment still pending, please complete payment at: %s", paymentURL), 50)
		return paymentID, paymentURL, nil, false, nil

	default:
		p.logger.Info("previous payment unusable, creating a new one", map[string]interface{}{
			"session_id": sessionID, "status": status,
		})
		_ = p.store.Delete(ctx, sessionKey(sessionID))
		return "", "", nil, false, nil
	}
}

// pollUntilPaid polls the provider until the payment is paid, fails, or the
// wait budget is exhausted. Timeout keeps the session state so a follow-up
// call can resume the same payment.
func (p *PayMCP) pollUntilPaid(ctx context.Context, paymentID, paymentURL, sessionID string, notify func(string, float64)) (string, error) {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	deadline := time.Now().Add(p.maxWait)
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		status, err := p.provider.GetPaymentStatus(ctx, paymentID)
		if err != nil {
			return "", err
		}

		switch status {
		case StatusPaid:
			notify("Payment received, generating result", 100)
			return StatusPaid, nil

		case StatusCanceled, StatusExpired, StatusFailed:
			if sessionID != "" {
				_ = p.store.Delete(ctx, sessionKey(sessionID))
			}
			return "", NewPaymentError(ErrCodePaymentFailed,
				fmt.Sprintf("payment status is %q, expected %q", status, StatusPaid),
				map[string]interface{}{"payment_id": paymentID, "status": status})
		}

		if time.Now().After(deadline) {
			// Keep the session entry; the payment may still complete and a
			// later call can pick it up.
			if sessionID != "" {
				if state, _ := p.store.Get(ctx, sessionKey(sessionID)); state != nil {
					state["status"] = StatusTimeout
					_ = p.store.Put(ctx, sessionKey(sessionID), state)
				}
			}
			return "", NewPaymentError(ErrCodePaymentTimeout, "payment timeout reached",
				map[string]interface{}{"payment_id": paymentID, "payment_url": paymentURL})
		}

		elapsed := p.maxWait - time.Until(deadline)
		notify(fmt.Sprintf("Waiting for payment (%ds elapsed)", int(elapsed.Seconds())), 0)
	}
}

// finishProgress runs the original function after payment and clears the
// session state.
func (p *PayMCP) finishProgress(ctx context.Context, def ToolDef, binding *toolBinding, args map[string]interface{}, sessionID, paymentID, status string) (interface{}, error) {
	pctx := newPaymentContext(p.provider, def.Price, def.Name, uuid.NewString())
	pctx.Payment.PaymentID = paymentID
	pctx.Payment.Status = status
	if sessionID != "" {
		pctx.User.SessionID = sessionID
	}

	p.metrics.IncCounter("payment_confirmed", map[string]string{"provider": p.provider.Name()})

	value, err := binding.invoke(ctx, args, pctx)
	if err != nil {
		return nil, err
	}
	if sessionID != "" {
		_ = p.store.Delete(ctx, sessionKey(sessionID))
	}
	return &ConfirmedResult{Value: value, Payment: pctx.Payment}, nil
}
