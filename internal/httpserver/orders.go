package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"optical-commerce/internal/domain"
	orderrepo "optical-commerce/internal/repository/order"
	ordersvc "optical-commerce/internal/service/order"
)

func placeOrderHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := callerIdentity(c)
		var in ordersvc.PlaceOrderInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
			return
		}
		in.IdempotencyKey = c.GetHeader("Idempotency-Key")
		order, err := svc.PlaceOrder(c.Request.Context(), id.UserID, in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, order)
	}
}

func listUserOrdersHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := callerIdentity(c)
		filter := orderrepo.UserFilter{
			Status: domain.OrderStatus(c.Query("status")),
			Page:   intQuery(c, "page"),
			Limit:  intQuery(c, "limit"),
		}
		if filter.Status != "" && !filter.Status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"message": "unknown order status"})
			return
		}
		page, err := svc.ListByUser(c.Request.Context(), id.UserID, filter)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

func getOrderHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := callerIdentity(c)
		order, err := svc.Get(c.Request.Context(), id.UserID, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func cancelOrderHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := callerIdentity(c)
		order, err := svc.CancelOrder(c.Request.Context(), id.UserID, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func listAllOrdersHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := orderrepo.AdminFilter{
			Status: domain.OrderStatus(c.Query("status")),
			UserID: c.Query("userId"),
			Page:   intQuery(c, "page"),
			Limit:  intQuery(c, "limit"),
		}
		if filter.Status != "" && !filter.Status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"message": "unknown order status"})
			return
		}
		var err error
		if filter.StartDate, err = dateQuery(c, "startDate"); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid startDate"})
			return
		}
		if filter.EndDate, err = dateQuery(c, "endDate"); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid endDate"})
			return
		}
		page, err := svc.ListAll(c.Request.Context(), filter)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

type statusUpdateRequest struct {
	OrderStatus       *domain.OrderStatus   `json:"orderStatus,omitempty"`
	PaymentStatus     *domain.PaymentStatus `json:"paymentStatus,omitempty"`
	TrackingNumber    *string               `json:"trackingNumber,omitempty"`
	EstimatedDelivery *time.Time            `json:"estimatedDelivery,omitempty"`
}

func updateOrderStatusHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statusUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
			return
		}
		order, err := svc.UpdateStatus(c.Request.Context(), c.Param("id"), orderrepo.StatusPatch{
			OrderStatus:       req.OrderStatus,
			PaymentStatus:     req.PaymentStatus,
			TrackingNumber:    req.TrackingNumber,
			EstimatedDelivery: req.EstimatedDelivery,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func intQuery(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// dateQuery accepts RFC 3339 timestamps or bare dates.
func dateQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
