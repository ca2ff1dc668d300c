// Package order holds the order workflow orchestrator: it coordinates the
// cart, the inventory ledger and the order repository through placement,
// status transitions and cancellation.
package order

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"optical-commerce/internal/domain"
	"optical-commerce/internal/metrics"
	orderrepo "optical-commerce/internal/repository/order"
)

type orderRepo interface {
	Create(ctx context.Context, in orderrepo.CreateOrderInput) (*domain.Order, error)
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	FindByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Order, error)
	FindByUser(ctx context.Context, userID string, filter orderrepo.UserFilter) (*orderrepo.Page, error)
	FindAll(ctx context.Context, filter orderrepo.AdminFilter) (*orderrepo.Page, error)
	UpdateStatus(ctx context.Context, id string, patch orderrepo.StatusPatch) (*domain.Order, error)
}

type inventoryLedger interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Reserve(ctx context.Context, id string, quantity int) error
	Release(ctx context.Context, id string, quantity int) error
}

type cartClearer interface {
	Clear(ctx context.Context, userID string) error
}

type Service struct {
	orders orderRepo
	ledger inventoryLedger
	cart   cartClearer
	logger *zap.Logger
}

func New(orders orderRepo, ledger inventoryLedger, cart cartClearer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{orders: orders, ledger: ledger, cart: cart, logger: logger}
}

type ItemInput struct {
	ProductID      string                 `json:"productId"`
	Quantity       int                    `json:"quantity"`
	PrescriptionID *string                `json:"prescriptionId,omitempty"`
	Customizations *domain.Customizations `json:"customizations,omitempty"`
}

type PlaceOrderInput struct {
	Items           []ItemInput            `json:"items"`
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	PaymentID       string                 `json:"paymentId,omitempty"`
	Notes           string                 `json:"notes,omitempty"`
	IdempotencyKey  string                 `json:"-"`
}

// PlaceOrder validates and prices every line, reserves stock all-or-nothing,
// creates the order and clears the cart. Any per-item failure releases the
// reservations made so far, so a failed placement leaves stock untouched.
func (s *Service) PlaceOrder(ctx context.Context, userID string, in PlaceOrderInput) (*domain.Order, error) {
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", domain.ErrValidation)
	}
	if !in.ShippingAddress.Complete() {
		return nil, fmt.Errorf("%w: shipping address incomplete", domain.ErrValidation)
	}
	for _, item := range in.Items {
		if item.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
	}

	if in.IdempotencyKey != "" {
		existing, err := s.orders.FindByIdempotencyKey(ctx, userID, in.IdempotencyKey)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		if existing != nil {
			s.logger.Info("order placement replayed",
				zap.String("user_id", userID),
				zap.String("order_number", existing.OrderNumber))
			return existing, nil
		}
	}

	reserved := make([]domain.OrderItem, 0, len(in.Items))
	release := func() {
		for _, item := range reserved {
			if err := s.ledger.Release(ctx, item.ProductID, item.Quantity); err != nil {
				s.logger.Error("compensating release failed",
					zap.String("product_id", item.ProductID),
					zap.Int("quantity", item.Quantity),
					zap.Error(err))
			}
		}
	}

	for _, item := range in.Items {
		product, err := s.ledger.GetByID(ctx, item.ProductID)
		if err != nil {
			release()
			return nil, fmt.Errorf("product %s: %w", item.ProductID, err)
		}
		if !product.IsActive {
			release()
			return nil, fmt.Errorf("product %s: %w", item.ProductID, domain.ErrProductInactive)
		}
		if err := s.ledger.Reserve(ctx, item.ProductID, item.Quantity); err != nil {
			release()
			return nil, fmt.Errorf("product %s: %w", item.ProductID, err)
		}
		reserved = append(reserved, domain.OrderItem{
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			PriceCents:     product.EffectivePriceCents(),
			PrescriptionID: item.PrescriptionID,
			Customizations: item.Customizations,
		})
	}

	paymentStatus := domain.PaymentPending
	if in.PaymentID != "" {
		paymentStatus = domain.PaymentPaid
	}
	order, err := s.orders.Create(ctx, orderrepo.CreateOrderInput{
		UserID:          userID,
		Items:           reserved,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		PaymentID:       in.PaymentID,
		Notes:           in.Notes,
		IdempotencyKey:  in.IdempotencyKey,
		OrderStatus:     domain.OrderPending,
		PaymentStatus:   paymentStatus,
	})
	if err != nil {
		release()
		return nil, err
	}

	if err := s.cart.Clear(ctx, userID); err != nil {
		// the order is placed; a stale cart is recoverable
		s.logger.Error("cart clear after placement failed", zap.String("user_id", userID), zap.Error(err))
	}

	metrics.OrdersPlaced.Inc()
	s.logger.Info("order placed",
		zap.String("user_id", userID),
		zap.String("order_number", order.OrderNumber),
		zap.Int("total_units", order.TotalUnits()),
		zap.Int64("total_cents", order.TotalCents))
	return order, nil
}

// Get returns the order only when it belongs to the caller.
func (s *Service) Get(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string, filter orderrepo.UserFilter) (*orderrepo.Page, error) {
	return s.orders.FindByUser(ctx, userID, filter)
}

func (s *Service) ListAll(ctx context.Context, filter orderrepo.AdminFilter) (*orderrepo.Page, error) {
	return s.orders.FindAll(ctx, filter)
}

// UpdateStatus applies an admin patch. Order status changes must follow the
// forward-only lifecycle; there is no override path.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, patch orderrepo.StatusPatch) (*domain.Order, error) {
	if patch.Empty() {
		return nil, fmt.Errorf("%w: no fields to update", domain.ErrValidation)
	}
	if patch.OrderStatus != nil && !patch.OrderStatus.Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", domain.ErrValidation, *patch.OrderStatus)
	}
	if patch.PaymentStatus != nil && !patch.PaymentStatus.Valid() {
		return nil, fmt.Errorf("%w: unknown payment status %q", domain.ErrValidation, *patch.PaymentStatus)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if patch.OrderStatus != nil && !domain.CanTransition(order.OrderStatus, *patch.OrderStatus) {
		return nil, fmt.Errorf("%s -> %s: %w", order.OrderStatus, *patch.OrderStatus, domain.ErrInvalidTransition)
	}

	updated, err := s.orders.UpdateStatus(ctx, orderID, patch)
	if err != nil {
		return nil, err
	}
	s.logger.Info("order status updated",
		zap.String("order_number", updated.OrderNumber),
		zap.String("order_status", string(updated.OrderStatus)),
		zap.String("payment_status", string(updated.PaymentStatus)))
	return updated, nil
}

// CancelOrder validates ownership and state, releases every reserved line
// back to the ledger and flips the order to cancelled.
func (s *Service) CancelOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domain.ErrForbidden
	}
	if order.OrderStatus == domain.OrderShipped || order.OrderStatus == domain.OrderDelivered {
		return nil, domain.ErrCannotCancel
	}
	if !order.OrderStatus.Cancellable() {
		// already cancelled; releasing again would inflate stock
		return nil, domain.ErrInvalidTransition
	}

	// flip the status before touching the ledger: a failed flip leaves the
	// order cancellable and a retry must not release the same stock twice
	cancelled := domain.OrderCancelled
	updated, err := s.orders.UpdateStatus(ctx, orderID, orderrepo.StatusPatch{OrderStatus: &cancelled})
	if err != nil {
		return nil, err
	}

	for _, item := range order.Items {
		if err := s.ledger.Release(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.Error("stock release on cancel failed",
				zap.String("order_number", order.OrderNumber),
				zap.String("product_id", item.ProductID),
				zap.Int("quantity", item.Quantity),
				zap.Error(err))
		}
	}

	metrics.OrdersCancelled.Inc()
	s.logger.Info("order cancelled",
		zap.String("user_id", userID),
		zap.String("order_number", updated.OrderNumber))
	return updated, nil
}
