package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	cartsvc "optical-commerce/internal/service/cart"
)

func getCartHandler(svc cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := callerIdentity(c)
		cart, err := svc.Get(c.Request.Context(), id.UserID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

func cartSummaryHandler(svc cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := callerIdentity(c)
		summary, err := svc.Summary(c.Request.Context(), id.UserID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

func addCartItemHandler(svc cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := callerIdentity(c)
		var in cartsvc.AddItemInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
			return
		}
		cart, err := svc.AddItem(c.Request.Context(), id.UserID, in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

func updateCartItemHandler(svc cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := callerIdentity(c)
		var in cartsvc.UpdateItemInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
			return
		}
		cart, err := svc.UpdateItem(c.Request.Context(), id.UserID, c.Param("itemId"), in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

func removeCartItemHandler(svc cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := callerIdentity(c)
		cart, err := svc.RemoveItem(c.Request.Context(), id.UserID, c.Param("itemId"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

func clearCartHandler(svc cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := callerIdentity(c)
		if err := svc.Clear(c.Request.Context(), id.UserID); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
	}
}

func pruneCartHandler(svc cartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := callerIdentity(c)
		cart, err := svc.Prune(c.Request.Context(), id.UserID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}
