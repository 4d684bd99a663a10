package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-idempotent-payflow/internal/payments"
	"github.com/imrishuroy/go-idempotent-payflow/internal/result"
)

type PaymentsService interface {
	GetOrderPayment(ctx context.Context, input *payments.GetOrderPaymentInput) result.Result[*payments.OrderPayment]
}

// RegisterPaymentsRoutes registers the read side of order payments.
func RegisterPaymentsRoutes(r gin.IRouter, svc PaymentsService) {
	r.GET("/payments/:order_id", func(c *gin.Context) {
		res := svc.GetOrderPayment(c.Request.Context(), &payments.GetOrderPaymentInput{OrderID: c.Param("order_id")})
		if res.IsFailure() {
			writeFailure(c, res.Failure())
			return
		}
		c.JSON(http.StatusOK, res.MustValue())
	})
}
