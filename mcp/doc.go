// Package mcp registers payment-wrapped tools on a Model Context
// Protocol server.
//
// AddPaidTool wraps a tool function with the configured payment flow and
// registers the resulting handlers, including the confirmation tool the
// two-step flow adds. When payment completes, the original result is
// returned and the payment details are attached to the response _meta
// under PaymentResponseMetaKey.
package mcp
