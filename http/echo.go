package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	paymcp "github.com/paymcp/paymcp-go"
)

// EchoPaymentFromContext returns the payment details for a request that
// passed EchoMiddleware.
func EchoPaymentFromContext(c echo.Context) (paymcp.PaymentInfo, bool) {
	info, ok := c.Get(paymentContextKey).(paymcp.PaymentInfo)
	return info, ok
}

// EchoMiddleware returns echo middleware enforcing the paywall.
func (pw *Paywall) EchoMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			paymentID := c.Request().Header.Get(PaymentIDHeader)
			if paymentID == "" {
				id, url, err := pw.Initiate(c.Request().Context(), c.Request().URL.Path)
				if err != nil {
					return pw.echoError(c, err)
				}
				return c.JSON(http.StatusPaymentRequired, PaymentRequiredResponse{
					Message:    paymcp.OpenLinkMessage(url, pw.price),
					PaymentID:  id,
					PaymentURL: url,
					Status:     paymcp.StatusPending,
				})
			}

			info, status, err := pw.Check(c.Request().Context(), paymentID)
			if err != nil {
				return pw.echoError(c, err)
			}
			if status != paymcp.StatusPaid {
				return c.JSON(http.StatusPaymentRequired, PaymentRequiredResponse{
					Message:   "Payment not completed yet. Complete payment and retry.",
					PaymentID: paymentID,
					Status:    status,
				})
			}

			c.Set(paymentContextKey, info)
			return next(c)
		}
	}
}

func (pw *Paywall) echoError(c echo.Context, err error) error {
	var unknownErr *paymcp.UnknownPaymentError
	if errors.As(err, &unknownErr) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}

	var validationErr *paymcp.ValidationError
	if errors.As(err, &validationErr) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	pw.payments.Logger().Error("paywall error", map[string]interface{}{"error": err.Error()})
	return c.JSON(http.StatusBadGateway, map[string]string{"error": "payment provider error"})
}
