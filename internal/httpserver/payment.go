package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	paymentsvc "optical-commerce/internal/service/payment"
)

func createPaymentOrderHandler(svc paymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := callerIdentity(c)
		var in paymentsvc.CreateIntentInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
			return
		}
		intent, err := svc.CreateIntent(c.Request.Context(), id.UserID, in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, intent)
	}
}

type verifyRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string `json:"razorpay_signature" binding:"required"`
}

func verifyPaymentHandler(svc paymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req verifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
			return
		}
		order, err := svc.ConfirmPayment(c.Request.Context(),
			req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "payment verified", "order": order})
	}
}
