package paymcp

import (
	"time"

	"github.com/paymcp/paymcp-go/logger"
	"github.com/paymcp/paymcp-go/metrics"
)

// PayMCP wraps priced tool functions with a payment flow backed by a
// single provider. It holds no network listeners of its own; transports
// (MCP servers, HTTP middleware) register the wrapped handlers.
type PayMCP struct {
	provider Provider
	flow     FlowType
	store    StateStore
	logger   logger.Logger
	metrics  metrics.Recorder

	pollInterval time.Duration
	maxWait      time.Duration

	beforeCreateHooks []BeforePaymentCreateHook
	afterCreateHooks  []AfterPaymentCreateHook
	onFailureHooks    []OnPaymentFailureHook
}

// Option configures a PayMCP instance
type Option func(*PayMCP)

// WithFlow selects the payment flow. Defaults to FlowTwoStep.
func WithFlow(flow FlowType) Option {
	return func(p *PayMCP) {
		p.flow = flow
	}
}

// WithStateStore replaces the default in-memory pending payment store.
func WithStateStore(store StateStore) Option {
	return func(p *PayMCP) {
		p.store = store
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l logger.Logger) Option {
	return func(p *PayMCP) {
		p.logger = l
	}
}

// WithMetrics sets the metrics recorder. Defaults to a no-op recorder.
func WithMetrics(r metrics.Recorder) Option {
	return func(p *PayMCP) {
		p.metrics = r
	}
}

// WithPollInterval sets how often the progress flow checks payment status.
func WithPollInterval(d time.Duration) Option {
	return func(p *PayMCP) {
		if d > 0 {
			p.pollInterval = d
		}
	}
}

// WithMaxWait caps how long the progress flow waits for a payment.
func WithMaxWait(d time.Duration) Option {
	return func(p *PayMCP) {
		if d > 0 {
			p.maxWait = d
		}
	}
}

// New creates a PayMCP for the given provider.
func New(provider Provider, opts ...Option) (*PayMCP, error) {
	if provider == nil {
		return nil, NewConfigurationError("a payment provider is required")
	}

	p := &PayMCP{
		provider: provider,
		flow:     FlowTwoStep,
		store:    NewMemoryStore(0),
		logger:   logger.NoopLogger{},
		metrics:  metrics.NoopRecorder{},

		pollInterval: DefaultPollInterval,
		maxWait:      DefaultMaxWait,
	}

	for _, opt := range opts {
		opt(p)
	}

	switch p.flow {
	case FlowTwoStep, FlowElicitation, FlowProgress:
	default:
		return nil, NewConfigurationError("unknown payment flow %q", p.flow)
	}

	// Stamp every log line from this instance with its provider and flow.
	p.logger = p.logger.With(map[string]interface{}{
		"provider": provider.Name(),
		"flow":     string(p.flow),
	})
	p.logger.Info("paymcp initialized", nil)

	return p, nil
}

// Provider returns the configured payment provider.
func (p *PayMCP) Provider() Provider { return p.provider }

// Store returns the configured state store.
func (p *PayMCP) Store() StateStore { return p.store }

// Logger returns the configured logger.
func (p *PayMCP) Logger() logger.Logger { return p.logger }

// Metrics returns the configured metrics recorder.
func (p *PayMCP) Metrics() metrics.Recorder { return p.metrics }

// WrapTool wraps fn with the configured payment flow. fn must be a
// ToolHandler or a ContextToolHandler; the decision to inject *Context is
// made here, once, from the signature. The returned tool's description
// carries the price.
func (p *PayMCP) WrapTool(def ToolDef, fn interface{}) (*WrappedTool, error) {
	if def.Name == "" {
		return nil, NewConfigurationError("tool name is required")
	}
	if def.Price.Amount.IsZero() || def.Price.Currency == "" {
		return nil, NewConfigurationError("tool %q: price amount and currency are required", def.Name)
	}

	binding, err := bindHandler(fn, def)
	if err != nil {
		return nil, err
	}

	def.Description = DescriptionWithPrice(def.Description, def.Price)

	switch p.flow {
	case FlowElicitation:
		return p.wrapElicitation(def, binding)
	case FlowProgress:
		return p.wrapProgress(def, binding)
	default:
		return p.wrapTwoStep(def, binding)
	}
}
