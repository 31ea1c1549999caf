package paymcp

import (
	"context"
	"encoding/json"

	"github.com/xeipuuv/gojsonschema"
)

// ToolHandler is the signature for tool functions that do not receive
// payment context.
type ToolHandler func(ctx context.Context, args map[string]interface{}) (interface{}, error)

// ContextToolHandler additionally receives the payment *Context. Whether a
// function gets one is decided once, from its static signature, when the
// tool is wrapped.
type ContextToolHandler func(ctx context.Context, args map[string]interface{}, pctx *Context) (interface{}, error)

// toolBinding holds the wrap-time decisions for one tool: which handler
// shape it has and its compiled argument schema, if any.
type toolBinding struct {
	handler        ToolHandler
	contextHandler ContextToolHandler
	expectsContext bool
	schema         *gojsonschema.Schema
}

// bindHandler inspects fn's signature and fixes the context-awareness
// decision for the lifetime of the wrapped tool. Only the two handler
// shapes are accepted; anything else is a configuration error.
func bindHandler(fn interface{}, def ToolDef) (*toolBinding, error) {
	b := &toolBinding{}

	switch h := fn.(type) {
	case ToolHandler:
		b.handler = h
	case func(ctx context.Context, args map[string]interface{}) (interface{}, error):
		b.handler = h
	case ContextToolHandler:
		b.contextHandler = h
		b.expectsContext = true
	case func(ctx context.Context, args map[string]interface{}, pctx *Context) (interface{}, error):
		b.contextHandler = h
		b.expectsContext = true
	default:
		return nil, NewConfigurationError(
			"tool %q: unsupported handler signature %T, want ToolHandler or ContextToolHandler", def.Name, fn)
	}

	if def.InputSchema != nil {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(def.InputSchema))
		if err != nil {
			return nil, NewConfigurationError("tool %q: invalid input schema: %v", def.Name, err)
		}
		b.schema = schema
	}

	return b, nil
}

// invoke calls the bound function, injecting pctx only when the handler
// declared it.
func (b *toolBinding) invoke(ctx context.Context, args map[string]interface{}, pctx *Context) (interface{}, error) {
	if b.expectsContext {
		return b.contextHandler(ctx, args, pctx)
	}
	return b.handler(ctx, args)
}

// validateArgs checks that args are JSON-serializable and, when a schema
// was registered, that they conform to it. Runs before any payment is
// created so invalid calls fail fast.
func (b *toolBinding) validateArgs(def ToolDef, args map[string]interface{}) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return NewValidationError("arguments", "not JSON-serializable: %v", err)
	}

	if b.schema == nil {
		return nil
	}

	result, err := b.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return NewValidationError("arguments", "schema validation failed: %v", err)
	}
	if !result.Valid() {
		first := result.Errors()[0]
		return NewValidationError(first.Field(), "%s", first.Description())
	}
	return nil
}
