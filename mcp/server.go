package mcp

import (
	"context"
	"encoding/json"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	paymcp "github.com/paymcp/paymcp-go"
)

// PaymentResponseMetaKey is the _meta key carrying payment details on a
// successful paid tool response.
const PaymentResponseMetaKey = "paymcp/payment"

// AddPaidTool wraps fn with p's payment flow and registers it on the
// server. For the two-step flow, the confirmation tool is registered as
// well. fn must be a paymcp.ToolHandler or paymcp.ContextToolHandler.
func AddPaidTool(server *mcpsdk.Server, p *paymcp.PayMCP, def paymcp.ToolDef, fn interface{}) error {
	wrapped, err := p.WrapTool(def, fn)
	if err != nil {
		return err
	}

	server.AddTool(sdkTool(wrapped.Tool), sdkHandler(wrapped.Handler))
	if wrapped.ConfirmTool != nil {
		server.AddTool(sdkTool(*wrapped.ConfirmTool), sdkHandler(wrapped.ConfirmHandler))
	}
	return nil
}

func sdkTool(def paymcp.ToolDef) *mcpsdk.Tool {
	schema := def.InputSchema
	if schema == nil {
		schema = map[string]interface{}{"type": "object"}
	}
	return &mcpsdk.Tool{
		Name:        def.Name,
		Description: def.Description,
		InputSchema: schema,
	}
}

func sdkHandler(handler paymcp.ToolHandler) func(context.Context, *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		args := make(map[string]interface{})
		if req.Params.Arguments != nil {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return errorResult("invalid tool arguments: " + err.Error()), nil
			}
		}

		result, err := handler(requestContext(ctx, req), args)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		return toCallToolResult(result)
	}
}

func errorResult(message string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		IsError: true,
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: message}},
	}
}
