package paymcp

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func newProgressPayMCP(t *testing.T, provider *fakeProvider) *PayMCP {
	t.Helper()

	p, err := New(provider,
		WithFlow(FlowProgress),
		WithPollInterval(2*time.Millisecond),
		WithMaxWait(60*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p
}

func TestProgressRunsToolOncePaid(t *testing.T) {
	provider := newFakeProvider()
	p := newProgressPayMCP(t, provider)

	var calls atomic.Int64
	wrapped, err := p.WrapTool(ToolDef{Name: "render", Price: Price(1, "USD")},
		func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			calls.Add(1)
			return "rendered", nil
		})
	if err != nil {
		t.Fatalf("WrapTool failed: %v", err)
	}

	// Pay shortly after the payment is created.
	go func() {
		time.Sleep(10 * time.Millisecond)
		provider.setStatus("pay-1", StatusPaid)
	}()

	result, err := wrapped.Handler(context.Background(), map[string]interface{}{})
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	cr, ok := result.(*ConfirmedResult)
	if !ok {
		t.Fatalf("expected *ConfirmedResult, got %T", result)
	}
	if cr.Value != "rendered" {
		t.Errorf("unexpected value: %v", cr.Value)
	}
	if calls.Load() != 1 {
		t.Errorf("expected exactly one invocation, got %d", calls.Load())
	}
}

func TestProgressTimeoutKeepsSessionState(t *testing.T) {
	provider := newFakeProvider()
	p := newProgressPayMCP(t, provider)

	wrapped, err := p.WrapTool(ToolDef{Name: "render", Price: Price(1, "USD")},
		func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return nil, nil
		})
	if err != nil {
		t.Fatalf("WrapTool failed: %v", err)
	}

	ctx := WithSessionID(context.Background(), "sess-1")
	_, err = wrapped.Handler(ctx, map[string]interface{}{"q": "x"})

	var payErr *PaymentError
	if !errors.As(err, &payErr) || payErr.Code != ErrCodePaymentTimeout {
		t.Fatalf("expected payment timeout error, got %v", err)
	}

	// The session entry survives a timeout so a later call can resume it.
	state, err := p.Store().Get(context.Background(), sessionKey("sess-1"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if state == nil {
		t.Fatal("session state was dropped on timeout")
	}
	if state["status"] != StatusTimeout {
		t.Errorf("unexpected session status: %v", state["status"])
	}
}

func TestProgressResumesPaidSession(t *testing.T) {
	provider := newFakeProvider()
	p := newProgressPayMCP(t, provider)

	var gotArgs map[string]interface{}
	wrapped, err := p.WrapTool(ToolDef{Name: "render", Price: Price(1, "USD")},
		func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			gotArgs = args
			return "rendered", nil
		})
	if err != nil {
		t.Fatalf("WrapTool failed: %v", err)
	}

	// First call times out, leaving session state behind.
	ctx := WithSessionID(context.Background(), "sess-1")
	if _, err := wrapped.Handler(ctx, map[string]interface{}{"q": "original"}); err == nil {
		t.Fatal("expected first call to time out")
	}

	// The user pays out of band; the next call resumes without a new charge.
	provider.setStatus("pay-1", StatusPaid)
	createdBefore := provider.createdCount()

	result, err := wrapped.Handler(ctx, map[string]interface{}{"q": "retry"})
	if err != nil {
		t.Fatalf("resumed call failed: %v", err)
	}
	if _, ok := result.(*ConfirmedResult); !ok {
		t.Fatalf("expected *ConfirmedResult, got %T", result)
	}
	if provider.createdCount() != createdBefore {
		t.Error("a second payment was created for a paid session")
	}
	if gotArgs["q"] != "original" {
		t.Errorf("expected the original call's arguments, got %v", gotArgs)
	}

	// Completion clears the session.
	state, _ := p.Store().Get(context.Background(), sessionKey("sess-1"))
	if state != nil {
		t.Errorf("session state not cleared after completion: %v", state)
	}
}

func TestProgressFailedPaymentClearsSession(t *testing.T) {
	provider := newFakeProvider()
	p := newProgressPayMCP(t, provider)

	wrapped, err := p.WrapTool(ToolDef{Name: "render", Price: Price(1, "USD")},
		func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return nil, nil
		})
	if err != nil {
		t.Fatalf("WrapTool failed: %v", err)
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		provider.setStatus("pay-1", StatusCanceled)
	}()

	ctx := WithSessionID(context.Background(), "sess-1")
	_, err = wrapped.Handler(ctx, map[string]interface{}{})

	var payErr *PaymentError
	if !errors.As(err, &payErr) || payErr.Code != ErrCodePaymentFailed {
		t.Fatalf("expected payment failed error, got %v", err)
	}

	state, _ := p.Store().Get(context.Background(), sessionKey("sess-1"))
	if state != nil {
		t.Errorf("session state not cleared after cancellation: %v", state)
	}
}
