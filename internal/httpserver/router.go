package httpserver

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"optical-commerce/internal/domain"
	"optical-commerce/internal/metrics"
	orderrepo "optical-commerce/internal/repository/order"
	"optical-commerce/internal/repository/token"
	cartsvc "optical-commerce/internal/service/cart"
	ordersvc "optical-commerce/internal/service/order"
	paymentsvc "optical-commerce/internal/service/payment"
)

type cartService interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Summary(ctx context.Context, userID string) (domain.CartSummary, error)
	AddItem(ctx context.Context, userID string, in cartsvc.AddItemInput) (*domain.Cart, error)
	UpdateItem(ctx context.Context, userID, itemID string, in cartsvc.UpdateItemInput) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID, itemID string) (*domain.Cart, error)
	Clear(ctx context.Context, userID string) error
	Prune(ctx context.Context, userID string) (*domain.Cart, error)
}

type orderService interface {
	PlaceOrder(ctx context.Context, userID string, in ordersvc.PlaceOrderInput) (*domain.Order, error)
	Get(ctx context.Context, userID, orderID string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string, filter orderrepo.UserFilter) (*orderrepo.Page, error)
	ListAll(ctx context.Context, filter orderrepo.AdminFilter) (*orderrepo.Page, error)
	UpdateStatus(ctx context.Context, orderID string, patch orderrepo.StatusPatch) (*domain.Order, error)
	CancelOrder(ctx context.Context, userID, orderID string) (*domain.Order, error)
}

type paymentService interface {
	CreateIntent(ctx context.Context, userID string, in paymentsvc.CreateIntentInput) (*paymentsvc.Intent, error)
	ConfirmPayment(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string) (*domain.Order, error)
}

// Deps carries the services and repositories the router needs.
type Deps struct {
	CartSvc    cartService
	OrderSvc   orderService
	PaymentSvc paymentService
	TokenRepo  token.Repository
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db *pgxpool.Pool, deps Deps, corsOrigins []string) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery(), metrics.Middleware())

	if len(corsOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = corsOrigins
		corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", "Idempotency-Key")
		router.Use(cors.New(corsCfg))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authed := router.Group("/", authMiddleware(deps.TokenRepo))

	cart := authed.Group("/cart")
	cart.GET("", getCartHandler(deps.CartSvc))
	cart.GET("/summary", cartSummaryHandler(deps.CartSvc))
	cart.POST("/add", addCartItemHandler(deps.CartSvc))
	cart.POST("/prune", pruneCartHandler(deps.CartSvc))
	cart.PUT("/item/:itemId", updateCartItemHandler(deps.CartSvc))
	cart.DELETE("/item/:itemId", removeCartItemHandler(deps.CartSvc))
	cart.DELETE("/clear", clearCartHandler(deps.CartSvc))

	orders := authed.Group("/orders")
	orders.POST("", placeOrderHandler(deps.OrderSvc))
	orders.GET("/user", listUserOrdersHandler(deps.OrderSvc))
	orders.GET("/user/:id", getOrderHandler(deps.OrderSvc))
	orders.PUT("/:id/cancel", cancelOrderHandler(deps.OrderSvc))

	admin := orders.Group("/admin", adminMiddleware())
	admin.GET("", listAllOrdersHandler(deps.OrderSvc))
	admin.PUT("/:id/status", updateOrderStatusHandler(deps.OrderSvc))

	payment := authed.Group("/payment")
	payment.POST("/create-order", createPaymentOrderHandler(deps.PaymentSvc))
	payment.POST("/verify", verifyPaymentHandler(deps.PaymentSvc))

	return router, nil
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}
