package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	paymcp "github.com/paymcp/paymcp-go"
)

// sessionMetaKey is the request _meta key a host may use to identify the
// client session for the progress flow.
const sessionMetaKey = "paymcp/session"

// requestContext threads request metadata the flows care about into ctx.
func requestContext(ctx context.Context, req *mcpsdk.CallToolRequest) context.Context {
	if req.Params.Meta == nil {
		return ctx
	}
	meta := req.Params.Meta.GetMeta()
	if sessionID, ok := meta[sessionMetaKey].(string); ok && sessionID != "" {
		ctx = paymcp.WithSessionID(ctx, sessionID)
	}
	return ctx
}

// toCallToolResult converts a flow result into the SDK's result shape.
// Payment-bearing results carry their details in _meta; everything else is
// rendered as text plus structured content.
func toCallToolResult(result interface{}) (*mcpsdk.CallToolResult, error) {
	switch r := result.(type) {
	case *paymcp.ConfirmedResult:
		callResult, err := valueResult(r.Value)
		if err != nil {
			return nil, err
		}
		callResult.Meta = mcpsdk.Meta(map[string]interface{}{
			PaymentResponseMetaKey: map[string]interface{}{
				"payment_id": r.Payment.PaymentID,
				"provider":   r.Payment.Provider,
				"amount":     r.Payment.Amount.String(),
				"currency":   r.Payment.Currency,
				"status":     r.Payment.Status,
			},
		})
		return callResult, nil

	case *paymcp.InitiateResult:
		structured, err := toStructured(r)
		if err != nil {
			return nil, err
		}
		return &mcpsdk.CallToolResult{
			Content:           []mcpsdk.Content{&mcpsdk.TextContent{Text: r.Message}},
			StructuredContent: structured,
		}, nil

	default:
		return valueResult(result)
	}
}

// valueResult renders an arbitrary handler return value.
func valueResult(value interface{}) (*mcpsdk.CallToolResult, error) {
	switch v := value.(type) {
	case nil:
		return &mcpsdk.CallToolResult{
			Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: ""}},
		}, nil
	case string:
		return &mcpsdk.CallToolResult{
			Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: v}},
		}, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode tool result: %w", err)
		}
		structured, err := toStructured(v)
		if err != nil {
			return nil, err
		}
		return &mcpsdk.CallToolResult{
			Content:           []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
			StructuredContent: structured,
		}, nil
	}
}

// toStructured round-trips a value through JSON into a generic map shape.
func toStructured(value interface{}) (interface{}, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode structured content: %w", err)
	}
	var structured interface{}
	if err := json.Unmarshal(data, &structured); err != nil {
		return nil, fmt.Errorf("failed to decode structured content: %w", err)
	}
	return structured, nil
}
