package paymcp

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// fakeProvider is an in-memory Provider for flow tests.
type fakeProvider struct {
	mu       sync.Mutex
	statuses map[string]string
	created  int

	createErr error
	statusErr error

	// onStatus, when set, runs at the start of every GetPaymentStatus
	// call, outside the lock. Tests use it to line up racing callers.
	onStatus func()
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{statuses: make(map[string]string)}
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) CreatePayment(_ context.Context, amount decimal.Decimal, currency, description string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return "", "", f.createErr
	}

	f.created++
	id := fmt.Sprintf("pay-%d", f.created)
	f.statuses[id] = StatusPending
	return id, "https://pay.example/" + id, nil
}

func (f *fakeProvider) GetPaymentStatus(_ context.Context, paymentID string) (string, error) {
	if f.onStatus != nil {
		f.onStatus()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.statusErr != nil {
		return "", f.statusErr
	}
	status, ok := f.statuses[paymentID]
	if !ok {
		return StatusUnknown, nil
	}
	return status, nil
}

func (f *fakeProvider) setStatus(paymentID, status string) {
	f.mu.Lock()
	f.statuses[paymentID] = status
	f.mu.Unlock()
}

func (f *fakeProvider) createdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created
}
