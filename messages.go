package paymcp

import (
	"fmt"
	"strings"
)

// OpenLinkMessage is the payment prompt shown when the user must open the
// payment URL themselves.
func OpenLinkMessage(url string, price PriceInfo) string {
	return fmt.Sprintf(
		"To run this tool, please pay %s using the link below:\n\n%s\n\n"+
			"After completing the payment, come back and confirm.",
		price, url)
}

// OpenedWebviewMessage is the payment prompt shown when a payment window
// was opened for the user, with the URL as fallback.
func OpenedWebviewMessage(url string, price PriceInfo) string {
	return fmt.Sprintf(
		"To run this tool, please pay %s.\n"+
			"A payment window should be open. If not, you can use this link:\n\n%s\n\n"+
			"After completing the payment, come back and confirm.",
		price, url)
}

// DescriptionWithPrice appends pricing to a tool description so clients
// see the cost before invoking.
func DescriptionWithPrice(description string, price PriceInfo) string {
	return fmt.Sprintf(
		"%s\nThis is a paid function: %s. Payment will be requested during execution.",
		strings.TrimSpace(description), price)
}
