package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	paymcp "github.com/paymcp/paymcp-go"
)

// paymentContextKey is the gin context key for payment details.
const paymentContextKey = "paymcp_payment"

// GinPaymentFromContext returns the payment details for a request that
// passed GinMiddleware.
func GinPaymentFromContext(c *gin.Context) (paymcp.PaymentInfo, bool) {
	value, ok := c.Get(paymentContextKey)
	if !ok {
		return paymcp.PaymentInfo{}, false
	}
	info, ok := value.(paymcp.PaymentInfo)
	return info, ok
}

// GinMiddleware returns a gin handler enforcing the paywall.
func (pw *Paywall) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		paymentID := c.GetHeader(PaymentIDHeader)
		if paymentID == "" {
			id, url, err := pw.Initiate(c.Request.Context(), c.Request.URL.Path)
			if err != nil {
				pw.abortGin(c, err)
				return
			}
			c.AbortWithStatusJSON(http.StatusPaymentRequired, PaymentRequiredResponse{
				Message:    paymcp.OpenLinkMessage(url, pw.price),
				PaymentID:  id,
				PaymentURL: url,
				Status:     paymcp.StatusPending,
			})
			return
		}

		info, status, err := pw.Check(c.Request.Context(), paymentID)
		if err != nil {
			pw.abortGin(c, err)
			return
		}
		if status != paymcp.StatusPaid {
			c.AbortWithStatusJSON(http.StatusPaymentRequired, PaymentRequiredResponse{
				Message:   "Payment not completed yet. Complete payment and retry.",
				PaymentID: paymentID,
				Status:    status,
			})
			return
		}

		c.Set(paymentContextKey, info)
		c.Next()
	}
}

func (pw *Paywall) abortGin(c *gin.Context, err error) {
	var unknownErr *paymcp.UnknownPaymentError
	if errors.As(err, &unknownErr) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	var validationErr *paymcp.ValidationError
	if errors.As(err, &validationErr) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pw.payments.Logger().Error("paywall error", map[string]interface{}{"error": err.Error()})
	c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "payment provider error"})
}
