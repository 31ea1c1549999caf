package paymcp

import (
	"context"
	"fmt"
	"time"
)

// Flow timing defaults, shared by the progress flow and the paywall.
const (
	DefaultPollInterval = 3 * time.Second
	DefaultMaxWait      = 15 * time.Minute
)

// pendingKey namespaces two-step pending call entries in the state store.
func pendingKey(paymentID string) string {
	return "pending:" + paymentID
}

// sessionKey namespaces progress-flow session entries in the state store.
func sessionKey(sessionID string) string {
	return "session:" + sessionID
}

// paymentDescription is the charge description sent to the provider for a
// tool invocation.
func paymentDescription(toolName string) string {
	return fmt.Sprintf("%s() execution fee", toolName)
}

// stashPending records the original call (args plus context snapshot) under
// the payment ID so confirmation can replay it exactly once.
func (p *PayMCP) stashPending(ctx context.Context, paymentID, toolName string, args map[string]interface{}, pctx *Context) error {
	return p.store.Put(ctx, pendingKey(paymentID), map[string]interface{}{
		"tool":    toolName,
		"args":    args,
		"context": pctx.ToMap(),
	})
}

// loadPending returns the stashed call for the payment ID, or an
// UnknownPaymentError when no entry exists (never issued, already
// consumed, or expired). The entry stays in the store.
func (p *PayMCP) loadPending(ctx context.Context, paymentID string) (args map[string]interface{}, pctx *Context, err error) {
	entry, err := p.store.Get(ctx, pendingKey(paymentID))
	if err != nil {
		return nil, nil, err
	}
	return decodePending(paymentID, entry)
}

// consumePending atomically removes and returns the stashed call. When
// confirmations race for the same payment ID, exactly one gets the entry;
// the rest get UnknownPaymentError.
func (p *PayMCP) consumePending(ctx context.Context, paymentID string) (args map[string]interface{}, pctx *Context, err error) {
	entry, err := p.store.Consume(ctx, pendingKey(paymentID))
	if err != nil {
		return nil, nil, err
	}
	return decodePending(paymentID, entry)
}

func decodePending(paymentID string, entry map[string]interface{}) (map[string]interface{}, *Context, error) {
	if entry == nil {
		return nil, nil, &UnknownPaymentError{PaymentID: paymentID}
	}

	args, _ := entry["args"].(map[string]interface{})
	if args == nil {
		args = map[string]interface{}{}
	}
	ctxMap, _ := entry["context"].(map[string]interface{})
	return args, ContextFromMap(ctxMap), nil
}
