// Package payment implements the payment-reconciliation half of the order
// workflow: intent creation before checkout and the signed-callback path that
// turns a captured payment into a confirmed order.
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"optical-commerce/internal/domain"
	"optical-commerce/internal/gateway"
	"optical-commerce/internal/metrics"
	orderrepo "optical-commerce/internal/repository/order"
)

type paymentRepo interface {
	Create(ctx context.Context, p domain.Payment) (*domain.Payment, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.Payment, error)
	MarkPaid(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string) (*domain.Payment, error)
	LinkOrder(ctx context.Context, paymentID, orderID string) error
}

type orderRepo interface {
	Create(ctx context.Context, in orderrepo.CreateOrderInput) (*domain.Order, error)
	FindByID(ctx context.Context, id string) (*domain.Order, error)
}

type cartStore interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Clear(ctx context.Context, userID string) error
}

// paymentMethod recorded on orders created through the gateway callback.
const paymentMethod = "razorpay"

type Service struct {
	payments  paymentRepo
	orders    orderRepo
	cart      cartStore
	gateway   gateway.Client
	keySecret string
	logger    *zap.Logger
}

func New(payments paymentRepo, orders orderRepo, cart cartStore, gw gateway.Client, keySecret string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		payments:  payments,
		orders:    orders,
		cart:      cart,
		gateway:   gw,
		keySecret: keySecret,
		logger:    logger,
	}
}

type CreateIntentInput struct {
	// Amount is in major currency units; the gateway receives minor units.
	Amount          int64                  `json:"amount"`
	Currency        string                 `json:"currency"`
	Receipt         string                 `json:"receipt,omitempty"`
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
}

type Intent struct {
	GatewayOrderID string `json:"orderId"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
}

// CreateIntent registers a payment intent with the gateway and persists a
// local record in created status, snapshotting the user's cart and shipping
// address so the order can be rebuilt when the callback arrives.
func (s *Service) CreateIntent(ctx context.Context, userID string, in CreateIntentInput) (*Intent, error) {
	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}
	if !in.ShippingAddress.Complete() {
		return nil, fmt.Errorf("%w: shipping address incomplete", domain.ErrValidation)
	}
	currency := in.Currency
	if currency == "" {
		currency = "INR"
	}
	receipt := in.Receipt
	if receipt == "" {
		receipt = "receipt_" + uuid.NewString()
	}

	cart, err := s.cart.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", domain.ErrValidation)
	}
	items := make([]domain.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		items = append(items, domain.OrderItem{
			ProductID:      line.ProductID,
			Quantity:       line.Quantity,
			PriceCents:     line.PriceAtAddCents,
			PrescriptionID: line.PrescriptionID,
			Customizations: line.Customizations,
		})
	}

	amountMinor := in.Amount * 100
	gatewayOrder, err := s.gateway.CreateOrder(ctx, amountMinor, currency, receipt)
	if err != nil {
		return nil, err
	}

	record, err := s.payments.Create(ctx, domain.Payment{
		UserID:         userID,
		GatewayOrderID: gatewayOrder.ID,
		AmountCents:    amountMinor,
		Currency:       currency,
		Status:         domain.PaymentRecordCreated,
		Metadata: domain.PaymentMetadata{
			Items:           items,
			ShippingAddress: in.ShippingAddress,
		},
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment intent created",
		zap.String("user_id", userID),
		zap.String("gateway_order_id", record.GatewayOrderID),
		zap.Int64("amount_cents", record.AmountCents))
	return &Intent{
		GatewayOrderID: gatewayOrder.ID,
		Amount:         gatewayOrder.Amount,
		Currency:       gatewayOrder.Currency,
	}, nil
}

// ConfirmPayment verifies the callback signature and, on success, finalizes
// the payment and creates the confirmed order from the stored snapshot.
// A bad signature fails closed: no state changes, no order.
func (s *Service) ConfirmPayment(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string) (*domain.Order, error) {
	if !gateway.VerifySignature(s.keySecret, gatewayOrderID, gatewayPaymentID, signature) {
		metrics.PaymentVerifications.WithLabelValues("rejected").Inc()
		s.logger.Warn("payment callback rejected",
			zap.String("gateway_order_id", gatewayOrderID),
			zap.String("gateway_payment_id", gatewayPaymentID))
		return nil, domain.ErrInvalidSignature
	}

	payment, err := s.payments.MarkPaid(ctx, gatewayOrderID, gatewayPaymentID, signature)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.PaymentVerifications.WithLabelValues("unknown").Inc()
		}
		return nil, err
	}

	// callback replay for a payment that already produced an order
	if payment.OrderID != nil {
		return s.orders.FindByID(ctx, *payment.OrderID)
	}

	order, err := s.orders.Create(ctx, orderrepo.CreateOrderInput{
		UserID:          payment.UserID,
		Items:           payment.Metadata.Items,
		ShippingAddress: payment.Metadata.ShippingAddress,
		PaymentMethod:   paymentMethod,
		PaymentID:       gatewayPaymentID,
		OrderStatus:     domain.OrderConfirmed,
		PaymentStatus:   domain.PaymentPaid,
		TotalCents:      payment.AmountCents,
	})
	if err != nil {
		return nil, err
	}

	if err := s.payments.LinkOrder(ctx, payment.ID, order.ID); err != nil {
		s.logger.Error("payment order link failed",
			zap.String("payment_id", payment.ID),
			zap.String("order_id", order.ID),
			zap.Error(err))
		return nil, err
	}
	if err := s.cart.Clear(ctx, payment.UserID); err != nil {
		s.logger.Error("cart clear after payment failed", zap.String("user_id", payment.UserID), zap.Error(err))
	}

	metrics.PaymentVerifications.WithLabelValues("verified").Inc()
	s.logger.Info("payment verified",
		zap.String("gateway_order_id", gatewayOrderID),
		zap.String("order_number", order.OrderNumber))
	return order, nil
}
