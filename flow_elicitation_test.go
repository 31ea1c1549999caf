package paymcp

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

// scriptedElicitor returns the scripted actions in order, then keeps
// repeating the last one.
type scriptedElicitor struct {
	actions []ElicitAction
	calls   int
	// onConfirm runs before each answer, letting tests flip payment state.
	onConfirm func(call int)
}

func (e *scriptedElicitor) Confirm(_ context.Context, _ string) (ElicitAction, error) {
	if e.onConfirm != nil {
		e.onConfirm(e.calls)
	}
	action := e.actions[len(e.actions)-1]
	if e.calls < len(e.actions) {
		action = e.actions[e.calls]
	}
	e.calls++
	return action, nil
}

func newElicitationTool(t *testing.T, provider *fakeProvider, fn interface{}) *WrappedTool {
	t.Helper()

	p, err := New(provider, WithFlow(FlowElicitation))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	wrapped, err := p.WrapTool(ToolDef{
		Name:  "report",
		Price: Price(2, "USD"),
	}, fn)
	if err != nil {
		t.Fatalf("WrapTool failed: %v", err)
	}
	return wrapped
}

func TestElicitationPaidRunsTool(t *testing.T) {
	provider := newFakeProvider()
	var calls atomic.Int64

	wrapped := newElicitationTool(t, provider, func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		calls.Add(1)
		return "report ready", nil
	})

	elicitor := &scriptedElicitor{
		actions: []ElicitAction{ElicitAccept},
		onConfirm: func(int) {
			// The user pays before confirming.
			provider.setStatus("pay-1", StatusPaid)
		},
	}

	ctx := WithElicitor(context.Background(), elicitor)
	result, err := wrapped.Handler(ctx, map[string]interface{}{})
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	cr, ok := result.(*ConfirmedResult)
	if !ok {
		t.Fatalf("expected *ConfirmedResult, got %T", result)
	}
	if cr.Value != "report ready" {
		t.Errorf("unexpected value: %v", cr.Value)
	}
	if calls.Load() != 1 {
		t.Errorf("expected exactly one invocation, got %d", calls.Load())
	}
}

func TestElicitationDeclineCancels(t *testing.T) {
	provider := newFakeProvider()
	var calls atomic.Int64

	wrapped := newElicitationTool(t, provider, func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		calls.Add(1)
		return nil, nil
	})

	ctx := WithElicitor(context.Background(), &scriptedElicitor{actions: []ElicitAction{ElicitDecline}})
	result, err := wrapped.Handler(ctx, map[string]interface{}{})
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	initiate, ok := result.(*InitiateResult)
	if !ok {
		t.Fatalf("expected *InitiateResult, got %T", result)
	}
	if initiate.Status != StatusCanceled {
		t.Errorf("unexpected status: %s", initiate.Status)
	}
	if calls.Load() != 0 {
		t.Error("tool ran after the user declined")
	}
}

func TestElicitationExhaustsAttempts(t *testing.T) {
	provider := newFakeProvider()
	wrapped := newElicitationTool(t, provider, func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return nil, nil
	})

	elicitor := &scriptedElicitor{actions: []ElicitAction{ElicitAccept}}
	ctx := WithElicitor(context.Background(), elicitor)
	result, err := wrapped.Handler(ctx, map[string]interface{}{})
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	initiate, ok := result.(*InitiateResult)
	if !ok {
		t.Fatalf("expected *InitiateResult, got %T", result)
	}
	if initiate.Status != StatusPending {
		t.Errorf("unexpected status: %s", initiate.Status)
	}
	if elicitor.calls != elicitationMaxAttempts {
		t.Errorf("expected %d prompts, got %d", elicitationMaxAttempts, elicitor.calls)
	}
}

func TestElicitationRequiresElicitor(t *testing.T) {
	provider := newFakeProvider()
	wrapped := newElicitationTool(t, provider, func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return nil, nil
	})

	_, err := wrapped.Handler(context.Background(), map[string]interface{}{})
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError without an elicitor, got %v", err)
	}
	if provider.createdCount() != 0 {
		t.Error("payment was created without an elicitor")
	}
}
