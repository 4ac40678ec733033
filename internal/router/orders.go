package router

import (
	"strconv"
	"strings"

	"greenora/internal/checkout"
	"greenora/internal/model"

	"github.com/gin-gonic/gin"
)

const idempotencyHeader = "Idempotency-Key"

// placeOrder 下单入口。
// 同一用户的结算在服务内串行；带 Idempotency-Key 的重试返回第一次的结果。
// payment_pending=true 表示订单已建但支付未完成，前端应提示重新支付。
func placeOrder(orch *checkout.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, valid := uintParam(c, "user_id")
		if !valid {
			return
		}
		addressID, valid := uintParam(c, "address_id")
		if !valid {
			return
		}
		req := checkout.PlaceOrderRequest{
			UserID:         userID,
			AddressID:      addressID,
			IdempotencyKey: c.GetHeader(idempotencyHeader),
		}
		if raw := c.Query("coupon_id"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 32)
			if err != nil || id == 0 {
				badRequest(c, "invalid coupon_id")
				return
			}
			couponID := uint(id)
			req.CouponID = &couponID
		}

		sum, err := orch.PlaceOrder(c.Request.Context(), req)
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, sum)
	}
}

// listUserOrders 最新订单在前，没有订单返回空数组。
func listUserOrders(orders *checkout.Orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, valid := uintParam(c, "user_id")
		if !valid {
			return
		}
		list, err := orders.ListByUser(c.Request.Context(), userID)
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, list)
	}
}

func getOrder(orders *checkout.Orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, valid := uintParam(c, "order_id")
		if !valid {
			return
		}
		o, err := orders.GetByID(c.Request.Context(), orderID)
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, o)
	}
}

func listAllOrders(orders *checkout.Orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := orders.ListAll(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, list)
	}
}

// updateOrderStatus PUT /api/orders/:order_id?status=SHIPPED
func updateOrderStatus(orders *checkout.Orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, valid := uintParam(c, "order_id")
		if !valid {
			return
		}
		status := c.Query("status")
		if status == "" {
			badRequest(c, "status is required")
			return
		}
		o, err := orders.UpdateStatus(c.Request.Context(), orderID, status)
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, gin.H{"order_id": o.ID, "delivery_status": o.DeliveryStatus})
	}
}

func getPaymentByOrder(orders *checkout.Orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, valid := uintParam(c, "order_id")
		if !valid {
			return
		}
		p, err := orders.PaymentByOrder(c.Request.Context(), orderID)
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, p)
	}
}

func listPayments(payments *checkout.Payments) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := payments.List(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, list)
	}
}

// payOrder 为 payment_pending 的订单补支付，已有支付记录返回 409。
func payOrder(payments *checkout.Payments) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			OrderID uint   `json:"order_id" binding:"required,min=1"`
			Method  string `json:"method"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		p, err := payments.PayOrder(c.Request.Context(), checkout.PayOrderRequest{
			OrderID: req.OrderID,
			Method:  model.PaymentMethod(strings.ToUpper(strings.TrimSpace(req.Method))),
		})
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, p)
	}
}
