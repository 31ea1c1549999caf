package mcp

import (
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/shopspring/decimal"

	paymcp "github.com/paymcp/paymcp-go"
)

func textOf(t *testing.T, result *mcpsdk.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := result.Content[0].(*mcpsdk.TextContent)
	if !ok {
		t.Fatalf("content is %T, want text", result.Content[0])
	}
	return text.Text
}

func TestConfirmedResultCarriesPaymentMeta(t *testing.T) {
	result, err := toCallToolResult(&paymcp.ConfirmedResult{
		Value: map[string]interface{}{"answer": 42},
		Payment: paymcp.PaymentInfo{
			PaymentID: "pay-1",
			Provider:  "paypal",
			Amount:    decimal.NewFromFloat(2.50),
			Currency:  "USD",
			Status:    paymcp.StatusPaid,
		},
	})
	if err != nil {
		t.Fatalf("toCallToolResult failed: %v", err)
	}

	payment, ok := result.Meta[PaymentResponseMetaKey].(map[string]interface{})
	if !ok {
		t.Fatalf("payment meta missing: %v", result.Meta)
	}
	if payment["payment_id"] != "pay-1" || payment["provider"] != "paypal" || payment["amount"] != "2.5" {
		t.Errorf("payment meta = %v", payment)
	}
	if textOf(t, result) != `{"answer":42}` {
		t.Errorf("text = %q", textOf(t, result))
	}
}

func TestInitiateResultRendersMessageAndStructure(t *testing.T) {
	result, err := toCallToolResult(&paymcp.InitiateResult{
		Message:    "Open the link to pay",
		PaymentID:  "pay-1",
		PaymentURL: "https://pay.example/pay-1",
		NextStep:   "confirm_echo_payment",
		Status:     paymcp.StatusPending,
	})
	if err != nil {
		t.Fatalf("toCallToolResult failed: %v", err)
	}

	if textOf(t, result) != "Open the link to pay" {
		t.Errorf("text = %q", textOf(t, result))
	}
	structured, ok := result.StructuredContent.(map[string]interface{})
	if !ok {
		t.Fatalf("structured content is %T", result.StructuredContent)
	}
	if structured["payment_id"] != "pay-1" || structured["next_step"] != "confirm_echo_payment" {
		t.Errorf("structured = %v", structured)
	}
}

func TestValueResultShapes(t *testing.T) {
	result, err := toCallToolResult("plain text")
	if err != nil {
		t.Fatalf("string value failed: %v", err)
	}
	if textOf(t, result) != "plain text" {
		t.Errorf("text = %q", textOf(t, result))
	}

	result, err = toCallToolResult(nil)
	if err != nil {
		t.Fatalf("nil value failed: %v", err)
	}
	if textOf(t, result) != "" {
		t.Errorf("nil text = %q", textOf(t, result))
	}

	result, err = toCallToolResult(map[string]interface{}{"k": "v"})
	if err != nil {
		t.Fatalf("map value failed: %v", err)
	}
	if result.StructuredContent == nil {
		t.Error("map value lost structured content")
	}
}

func TestSDKToolDefaultsSchema(t *testing.T) {
	tool := sdkTool(paymcp.ToolDef{Name: "echo", Description: "Echoes"})
	schema, ok := tool.InputSchema.(map[string]interface{})
	if !ok || schema["type"] != "object" {
		t.Errorf("default schema = %v", tool.InputSchema)
	}
}
