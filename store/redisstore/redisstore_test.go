package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(client, ttl), mr
}

func TestPutGetDelete(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)
	ctx := context.Background()

	state := map[string]interface{}{
		"payment_id": "pay-1",
		"tool":       "echo",
		"args":       map[string]interface{}{"q": "hello"},
	}
	if err := store.Put(ctx, "pending:pay-1", state); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, "pending:pay-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got["payment_id"] != "pay-1" || got["tool"] != "echo" {
		t.Errorf("got %v", got)
	}
	if args, ok := got["args"].(map[string]interface{}); !ok || args["q"] != "hello" {
		t.Errorf("nested args not preserved: %v", got["args"])
	}

	if err := store.Delete(ctx, "pending:pay-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if got, err := store.Get(ctx, "pending:pay-1"); err != nil || got != nil {
		t.Errorf("after delete: got %v, %v", got, err)
	}
}

func TestConsumeRemovesEntry(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	ctx := context.Background()

	if err := store.Put(ctx, "pending:pay-1", map[string]interface{}{"tool": "echo"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Consume(ctx, "pending:pay-1")
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if got == nil || got["tool"] != "echo" {
		t.Errorf("got %v", got)
	}
	if mr.Exists("paymcp:pending:pay-1") {
		t.Error("entry still present after consume")
	}

	got, err = store.Consume(ctx, "pending:pay-1")
	if err != nil {
		t.Fatalf("second Consume failed: %v", err)
	}
	if got != nil {
		t.Errorf("second consume returned %v, want nil", got)
	}
}

func TestGetMissingKeyReturnsNil(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)

	got, err := store.Get(context.Background(), "pending:absent")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestKeysArePrefixed(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)

	if err := store.Put(context.Background(), "session:abc", map[string]interface{}{"x": 1}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if !mr.Exists("paymcp:session:abc") {
		t.Errorf("key not namespaced, have %v", mr.Keys())
	}
}

func TestEntriesExpire(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	ctx := context.Background()

	if err := store.Put(ctx, "pending:pay-1", map[string]interface{}{"x": 1}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	got, err := store.Get(ctx, "pending:pay-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("entry survived TTL: %v", got)
	}
}

func TestNewFromURL(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := NewFromURL("redis://"+mr.Addr(), 0)
	if err != nil {
		t.Fatalf("NewFromURL failed: %v", err)
	}
	if err := store.Put(context.Background(), "k", map[string]interface{}{"v": true}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if _, err := NewFromURL("not a url", 0); err == nil {
		t.Error("expected error for invalid URL")
	}
}
