package router

import (
	"net/http"
	"strconv"

	"greenora/internal/apperr"
	"greenora/internal/checkout"
	"greenora/internal/config"
	"greenora/internal/logging"
	"greenora/internal/middleware"
	"greenora/internal/model"
	"greenora/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	rd "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Deps struct {
	Store    *store.Store
	Checkout *checkout.Orchestrator
	Orders   *checkout.Orders
	Carts    *checkout.Carts
	Payments *checkout.Payments
	Coupons  *checkout.CouponValidator
	// Redis 为 nil 时下单接口不限流
	Redis    *rd.Client
	Gatherer prometheus.Gatherer
	Config   config.AppConfig
}

// Setup 注册全部 HTTP 路由。
func Setup(r *gin.Engine, d Deps) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "pong"})
	})
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	api.POST("/users", createUser(d.Store))
	// Products
	api.GET("/products", listProducts(d.Store))
	api.POST("/products", createProduct(d.Store))
	// Cart
	api.GET("/cart/:user_id", getCart(d.Carts))
	api.POST("/cart/:user_id/items", addCartItem(d.Carts))
	api.PUT("/cart/:user_id/items/:product_id", updateCartItem(d.Carts))
	api.DELETE("/cart/:user_id/items/:product_id", removeCartItem(d.Carts))
	api.DELETE("/cart/:user_id", clearCart(d.Carts))
	// Coupons
	api.POST("/coupons/validate", validateCoupon(d.Coupons))
	// Orders
	checkoutChain := []gin.HandlerFunc{}
	if d.Redis != nil {
		checkoutChain = append(checkoutChain, middleware.RedisRateLimit(d.Redis, d.Config.CheckoutRateLimit, d.Config.CheckoutRateWindow))
	}
	checkoutChain = append(checkoutChain, placeOrder(d.Checkout))
	api.POST("/orders/user/:user_id/address/:address_id", checkoutChain...)
	api.GET("/orders/user/:user_id", listUserOrders(d.Orders))
	api.GET("/orders/:order_id", getOrder(d.Orders))
	api.GET("/orders", listAllOrders(d.Orders))
	api.PUT("/orders/:order_id", updateOrderStatus(d.Orders))
	// Payments
	api.GET("/payments/order/:order_id", getPaymentByOrder(d.Orders))
	api.GET("/payments", listPayments(d.Payments))
	api.POST("/payments", payOrder(d.Payments))
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"code": 0, "data": data})
}

// fail 把分类错误映射成状态码；未分类错误只返回通用描述，细节进日志。
func fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logging.FromContext(c.Request.Context(), nil).Error("request failed", zap.Error(err))
		msg = "internal server error"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"code": status, "msg": msg, "error": apperr.CodeOf(err)})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"code": 400, "msg": msg, "error": apperr.ErrInvalidInput.Code})
}

// uintParam 解析路径参数，失败时已写好 400。
func uintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// createUser 仅用于造数据，账号体系由外部服务维护。
func createUser(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name  string `json:"name" binding:"required"`
			Email string `json:"email" binding:"required,email"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		u := &model.User{Name: req.Name, Email: req.Email}
		if err := st.Users.Create(c.Request.Context(), u); err != nil {
			fail(c, err)
			return
		}
		ok(c, u)
	}
}

// listProducts 查询商品列表。
func listProducts(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := st.Products.List(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, list)
	}
}

// createProduct 创建商品（名称、单价、初始库存）。
func createProduct(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name     string          `json:"name" binding:"required"`
			Price    decimal.Decimal `json:"price"`
			Quantity int64           `json:"quantity" binding:"min=0"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		if !req.Price.IsPositive() {
			badRequest(c, "price must be greater than 0")
			return
		}
		p := &model.Product{
			Name:     req.Name,
			Price:    req.Price.Round(2),
			Quantity: req.Quantity,
		}
		if err := st.Products.Create(c.Request.Context(), p); err != nil {
			fail(c, err)
			return
		}
		ok(c, p)
	}
}

// validateCoupon 校验券码是否可用于给定金额。
func validateCoupon(v *checkout.CouponValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Code        string          `json:"code" binding:"required"`
			OrderAmount decimal.Decimal `json:"order_amount"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		coupon, err := v.Validate(c.Request.Context(), req.Code, req.OrderAmount)
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, coupon)
	}
}
