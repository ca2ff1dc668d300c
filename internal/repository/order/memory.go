package order

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"optical-commerce/internal/domain"
)

type memoryRepo struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
	byKey  map[string]string // userID + "\x00" + idempotency key -> order id
	seq    atomic.Int64
}

func NewMemory() Repository {
	return &memoryRepo{
		orders: make(map[string]*domain.Order),
		byKey:  make(map[string]string),
	}
}

func (r *memoryRepo) Create(_ context.Context, in CreateOrderInput) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if in.IdempotencyKey != "" {
		if id, ok := r.byKey[in.UserID+"\x00"+in.IdempotencyKey]; ok {
			return cloneOrder(r.orders[id]), nil
		}
	}

	o := &domain.Order{
		ID:              uuid.NewString(),
		OrderNumber:     FormatOrderNumber(time.Now().UnixMilli(), r.seq.Add(1)),
		UserID:          in.UserID,
		Items:           append([]domain.OrderItem(nil), in.Items...),
		TotalCents:      in.Total(),
		ShippingAddress: in.ShippingAddress,
		PaymentStatus:   in.PaymentStatus,
		OrderStatus:     in.OrderStatus,
		PaymentMethod:   in.PaymentMethod,
		PaymentID:       in.PaymentID,
		Notes:           in.Notes,
		CreatedAt:       time.Now().UTC(),
	}
	r.orders[o.ID] = o
	if in.IdempotencyKey != "" {
		r.byKey[in.UserID+"\x00"+in.IdempotencyKey] = o.ID
	}
	return cloneOrder(o), nil
}

func (r *memoryRepo) FindByIdempotencyKey(_ context.Context, userID, key string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byKey[userID+"\x00"+key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneOrder(r.orders[id]), nil
}

func (r *memoryRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (r *memoryRepo) FindByUser(_ context.Context, userID string, filter UserFilter) (*Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []domain.Order
	for _, o := range r.orders {
		if o.UserID != userID {
			continue
		}
		if filter.Status != "" && o.OrderStatus != filter.Status {
			continue
		}
		matched = append(matched, *cloneOrder(o))
	}
	return paginate(matched, filter.Page, filter.Limit, 10), nil
}

func (r *memoryRepo) FindAll(_ context.Context, filter AdminFilter) (*Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []domain.Order
	for _, o := range r.orders {
		if filter.Status != "" && o.OrderStatus != filter.Status {
			continue
		}
		if filter.UserID != "" && o.UserID != filter.UserID {
			continue
		}
		if filter.StartDate != nil && o.CreatedAt.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && o.CreatedAt.After(*filter.EndDate) {
			continue
		}
		matched = append(matched, *cloneOrder(o))
	}
	return paginate(matched, filter.Page, filter.Limit, 20), nil
}

func (r *memoryRepo) UpdateStatus(_ context.Context, id string, patch StatusPatch) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if patch.OrderStatus != nil {
		o.OrderStatus = *patch.OrderStatus
	}
	if patch.PaymentStatus != nil {
		o.PaymentStatus = *patch.PaymentStatus
	}
	if patch.TrackingNumber != nil {
		o.TrackingNumber = *patch.TrackingNumber
	}
	if patch.EstimatedDelivery != nil {
		t := *patch.EstimatedDelivery
		o.EstimatedDelivery = &t
	}
	return cloneOrder(o), nil
}

func paginate(orders []domain.Order, pageNum, limit, defaultLimit int) *Page {
	if pageNum < 1 {
		pageNum = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].OrderNumber > orders[j].OrderNumber
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	total := len(orders)
	start := (pageNum - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return &Page{
		Orders:      orders[start:end],
		Total:       total,
		TotalPages:  (total + limit - 1) / limit,
		CurrentPage: pageNum,
	}
}

func cloneOrder(o *domain.Order) *domain.Order {
	out := *o
	out.Items = append([]domain.OrderItem(nil), o.Items...)
	if o.EstimatedDelivery != nil {
		t := *o.EstimatedDelivery
		out.EstimatedDelivery = &t
	}
	return &out
}
