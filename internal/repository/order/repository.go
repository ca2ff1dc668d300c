package order

import (
	"context"
	"time"

	"optical-commerce/internal/domain"
)

type CreateOrderInput struct {
	UserID          string
	Items           []domain.OrderItem
	ShippingAddress domain.ShippingAddress
	PaymentMethod   string
	PaymentID       string
	Notes           string
	IdempotencyKey  string
	OrderStatus     domain.OrderStatus
	PaymentStatus   domain.PaymentStatus
	// TotalCents overrides the computed item sum when non-zero. The payment
	// reconciliation path uses it to carry the amount the gateway captured.
	TotalCents int64
}

// Total resolves the order total: the explicit override when set, otherwise
// the item subtotal sum in integer cents.
func (in CreateOrderInput) Total() int64 {
	if in.TotalCents > 0 {
		return in.TotalCents
	}
	var total int64
	for _, item := range in.Items {
		total += item.PriceCents * int64(item.Quantity)
	}
	return total
}

type UserFilter struct {
	Status domain.OrderStatus
	Page   int
	Limit  int
}

type AdminFilter struct {
	Status    domain.OrderStatus
	UserID    string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

// Page is a newest-first slice of orders plus pagination bookkeeping.
type Page struct {
	Orders      []domain.Order `json:"orders"`
	Total       int            `json:"total"`
	TotalPages  int            `json:"totalPages"`
	CurrentPage int            `json:"currentPage"`
}

type StatusPatch struct {
	OrderStatus       *domain.OrderStatus
	PaymentStatus     *domain.PaymentStatus
	TrackingNumber    *string
	EstimatedDelivery *time.Time
}

func (p StatusPatch) Empty() bool {
	return p.OrderStatus == nil && p.PaymentStatus == nil && p.TrackingNumber == nil && p.EstimatedDelivery == nil
}

type Repository interface {
	// Create persists the order and assigns a unique order number. When the
	// input carries an idempotency key already seen for this user, the
	// previously created order is returned instead of a duplicate.
	Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error)
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	FindByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Order, error)
	FindByUser(ctx context.Context, userID string, filter UserFilter) (*Page, error)
	FindAll(ctx context.Context, filter AdminFilter) (*Page, error)
	UpdateStatus(ctx context.Context, id string, patch StatusPatch) (*domain.Order, error)
}
