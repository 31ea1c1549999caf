package paymcp

import "context"

// ElicitAction is the user's response to a payment confirmation prompt
type ElicitAction string

const (
	ElicitAccept  ElicitAction = "accept"
	ElicitDecline ElicitAction = "decline"
	ElicitCancel  ElicitAction = "cancel"
)

// Elicitor asks the host client to confirm a payment. The elicitation flow
// requires one on the request context; transports provide it.
type Elicitor interface {
	Confirm(ctx context.Context, message string) (ElicitAction, error)
}

// ProgressReporter streams progress updates to the host client while the
// progress flow waits for payment. Optional; the flow proceeds without one.
type ProgressReporter interface {
	Report(ctx context.Context, message string, progress, total float64) error
}

type ctxKey int

const (
	elicitorKey ctxKey = iota
	progressKey
	sessionIDKey
)

// WithElicitor attaches an Elicitor to the request context.
func WithElicitor(ctx context.Context, e Elicitor) context.Context {
	return context.WithValue(ctx, elicitorKey, e)
}

// ElicitorFromContext returns the Elicitor attached to ctx, if any.
func ElicitorFromContext(ctx context.Context) (Elicitor, bool) {
	e, ok := ctx.Value(elicitorKey).(Elicitor)
	return e, ok
}

// WithProgressReporter attaches a ProgressReporter to the request context.
func WithProgressReporter(ctx context.Context, r ProgressReporter) context.Context {
	return context.WithValue(ctx, progressKey, r)
}

// ProgressReporterFromContext returns the ProgressReporter attached to ctx, if any.
func ProgressReporterFromContext(ctx context.Context) (ProgressReporter, bool) {
	r, ok := ctx.Value(progressKey).(ProgressReporter)
	return r, ok
}

// WithSessionID attaches the host session ID to the request context.
// The progress flow uses it to resume a pending payment after a timeout.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext returns the session ID attached to ctx, if any.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok && id != ""
}
