package router

import (
	"greenora/internal/checkout"

	"github.com/gin-gonic/gin"
)

func getCart(carts *checkout.Carts) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, valid := uintParam(c, "user_id")
		if !valid {
			return
		}
		view, err := carts.Get(c.Request.Context(), userID)
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, view)
	}
}

// addCartItem 加入购物车，已存在则累加数量。
func addCartItem(carts *checkout.Carts) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, valid := uintParam(c, "user_id")
		if !valid {
			return
		}
		var req struct {
			ProductID uint  `json:"product_id" binding:"required,min=1"`
			Quantity  int64 `json:"quantity" binding:"required,min=1"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		view, err := carts.AddItem(c.Request.Context(), userID, req.ProductID, req.Quantity)
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, view)
	}
}

func updateCartItem(carts *checkout.Carts) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, valid := uintParam(c, "user_id")
		if !valid {
			return
		}
		productID, valid := uintParam(c, "product_id")
		if !valid {
			return
		}
		var req struct {
			Quantity int64 `json:"quantity" binding:"required,min=1"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		view, err := carts.UpdateItem(c.Request.Context(), userID, productID, req.Quantity)
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, view)
	}
}

func removeCartItem(carts *checkout.Carts) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, valid := uintParam(c, "user_id")
		if !valid {
			return
		}
		productID, valid := uintParam(c, "product_id")
		if !valid {
			return
		}
		view, err := carts.RemoveItem(c.Request.Context(), userID, productID)
		if err != nil {
			fail(c, err)
			return
		}
		ok(c, view)
	}
}

func clearCart(carts *checkout.Carts) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, valid := uintParam(c, "user_id")
		if !valid {
			return
		}
		if err := carts.Clear(c.Request.Context(), userID); err != nil {
			fail(c, err)
			return
		}
		ok(c, gin.H{"user_id": userID, "lines": []any{}})
	}
}
