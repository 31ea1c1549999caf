package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger() (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return Wrap(zap.New(core)), logs
}

func TestWithStampsEveryLine(t *testing.T) {
	base, logs := newObservedLogger()
	child := base.With(map[string]any{"provider": "paypal"})

	child.Info("payment created", map[string]any{"payment_id": "pay-1"})
	child.Warn("payment pending", nil)

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	for _, e := range entries {
		if e.ContextMap()["provider"] != "paypal" {
			t.Errorf("entry %q missing provider field: %v", e.Message, e.ContextMap())
		}
	}
	if entries[0].ContextMap()["payment_id"] != "pay-1" {
		t.Errorf("call-site field lost: %v", entries[0].ContextMap())
	}
}

func TestWithEmptyFieldsReturnsSameLogger(t *testing.T) {
	base, _ := newObservedLogger()
	if base.With(nil) != base {
		t.Error("With(nil) should not allocate a child")
	}
}

func TestFieldsAreSortedByKey(t *testing.T) {
	base, logs := newObservedLogger()

	base.Info("event", map[string]any{"c": 3, "a": 1, "b": 2})

	ctx := logs.All()[0].Context
	for i := 1; i < len(ctx); i++ {
		if ctx[i-1].Key > ctx[i].Key {
			t.Fatalf("fields out of order: %q before %q", ctx[i-1].Key, ctx[i].Key)
		}
	}
}

func TestLevelsAreFiltered(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	log := Wrap(zap.New(core))

	log.Debug("dropped", nil)
	log.Info("dropped", nil)
	log.Warn("kept", nil)
	log.Error("kept", nil)

	if got := len(logs.All()); got != 2 {
		t.Errorf("got %d entries, want 2", got)
	}
}

func TestNoopLoggerIsSafe(t *testing.T) {
	var log Logger = NoopLogger{}
	log = log.With(map[string]any{"provider": "fake"})
	log.Debug("x", nil)
	log.Info("x", map[string]any{"k": "v"})
	log.Warn("x", nil)
	log.Error("x", nil)
}
