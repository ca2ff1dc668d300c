package payment

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"optical-commerce/internal/domain"
)

type memoryRepo struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment // keyed by gateway order id
}

func NewMemory() Repository {
	return &memoryRepo{payments: make(map[string]*domain.Payment)}
}

func (r *memoryRepo) Create(_ context.Context, p domain.Payment) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[p.GatewayOrderID]; ok {
		return nil, domain.ErrAlreadyExists
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = domain.PaymentRecordCreated
	}
	p.CreatedAt = time.Now().UTC()
	stored := p
	r.payments[p.GatewayOrderID] = &stored
	clone := stored
	return &clone, nil
}

func (r *memoryRepo) GetByGatewayOrderID(_ context.Context, gatewayOrderID string) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.payments[gatewayOrderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *memoryRepo) MarkPaid(_ context.Context, gatewayOrderID, gatewayPaymentID, signature string) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[gatewayOrderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if p.Status == domain.PaymentRecordPaid {
		clone := *p
		return &clone, nil
	}
	if !p.CanAdvanceTo(domain.PaymentRecordPaid) {
		return nil, domain.ErrInvalidTransition
	}
	p.Status = domain.PaymentRecordPaid
	p.GatewayPaymentID = gatewayPaymentID
	p.Signature = signature
	clone := *p
	return &clone, nil
}

func (r *memoryRepo) LinkOrder(_ context.Context, paymentID, orderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.ID == paymentID {
			id := orderID
			p.OrderID = &id
			return nil
		}
	}
	return domain.ErrNotFound
}
