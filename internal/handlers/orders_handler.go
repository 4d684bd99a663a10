package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-idempotent-payflow/internal/aws"
	"github.com/imrishuroy/go-idempotent-payflow/internal/logging"
	"github.com/imrishuroy/go-idempotent-payflow/internal/orders"
	"github.com/imrishuroy/go-idempotent-payflow/internal/payments"
	"github.com/imrishuroy/go-idempotent-payflow/internal/result"
	"github.com/imrishuroy/go-idempotent-payflow/internal/validation"
)

// OrdersService is the part of orders.Service the HTTP layer uses.
type OrdersService interface {
	PlaceOrder(ctx context.Context, input *orders.PlaceOrderInput) result.Result[*orders.Order]
	GetOrder(ctx context.Context, input *orders.GetOrderInput) result.Result[*orders.Order]
	ListOrders(ctx context.Context, input *orders.ListOrdersInput) result.Result[[]orders.Order]
}

// RegisterOrdersRoutes registers routes for order API.
func RegisterOrdersRoutes(r gin.IRouter, svc OrdersService) {
	r.POST("/orders", func(c *gin.Context) {
		var req orders.PlaceOrderInput
		if err := validation.BindJSON(c, &req); err != nil {
			return
		}

		// Without an order id in the body, the Idempotency-Key header names the order so
		// that a retried request lands on the same record.
		if validation.Normalize(req.OrderID) == "" {
			req.OrderID = c.GetHeader("Idempotency-Key")
		}
		if validation.Normalize(req.OrderID) == "" {
			req.OrderID = uuid.NewString()
		}
		req.Options = map[string]any{"correlation_id": c.GetHeader("X-Request-Id")}

		res := svc.PlaceOrder(c.Request.Context(), &req)
		if res.IsFailure() {
			writeFailure(c, res.Failure())
			return
		}
		order := res.MustValue()
		c.Header("Location", fmt.Sprintf("/orders/%s", order.OrderID))
		c.JSON(http.StatusCreated, order)
	})

	r.GET("/orders", func(c *gin.Context) {
		var req orders.ListOrdersInput
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_query", "msg": err.Error()})
			return
		}
		res := svc.ListOrders(c.Request.Context(), &req)
		if res.IsFailure() {
			writeFailure(c, res.Failure())
			return
		}
		list := res.MustValue()
		c.JSON(http.StatusOK, gin.H{"orders": list, "count": len(list)})
	})

	r.GET("/orders/:order_id", func(c *gin.Context) {
		res := svc.GetOrder(c.Request.Context(), &orders.GetOrderInput{OrderID: c.Param("order_id")})
		if res.IsFailure() {
			writeFailure(c, res.Failure())
			return
		}
		c.JSON(http.StatusOK, res.MustValue())
	})
}

// writeFailure maps a failure kind to an HTTP status. Unknown kinds are server errors
// and their details stay in the logs.
func writeFailure(c *gin.Context, f *result.Failure) {
	if f == nil {
		f = result.FailWith[struct{}](nil).Failure()
	}
	status := statusFor(f)
	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).Error("request failed",
			zap.String("kind", string(f.Kind)),
			zap.Bool("transient", f.Transient),
			zap.String("aws_error_code", aws.ErrorCode(f)),
			zap.Error(f))
		c.JSON(status, gin.H{"error": string(f.Kind)})
		return
	}
	c.JSON(status, gin.H{"error": string(f.Kind), "msg": f.Err.Error()})
}

func statusFor(f *result.Failure) int {
	if f == nil {
		return http.StatusInternalServerError
	}
	switch f.Kind {
	case result.InvalidArgumentsError:
		return http.StatusBadRequest
	case orders.OrderNotFoundError, payments.OrderPaymentNotFoundError:
		return http.StatusNotFound
	case orders.OrderAlreadyExistsError:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
