package product

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"optical-commerce/internal/domain"
)

// memoryRepo backs the ledger with a mutex-guarded map. Reserve holds the
// lock across check and decrement, giving the same no-oversell guarantee as
// the conditional UPDATE in the Postgres implementation.
type memoryRepo struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

func NewMemory() Repository {
	return &memoryRepo{products: make(map[string]*domain.Product)}
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *memoryRepo) List(_ context.Context) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, nil
}

func (r *memoryRepo) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	stored := p
	r.products[p.ID] = &stored
	clone := stored
	return &clone, nil
}

func (r *memoryRepo) CheckAvailable(_ context.Context, id string, quantity int) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return false, nil
	}
	return p.IsActive && p.Stock >= quantity, nil
}

func (r *memoryRepo) Reserve(_ context.Context, id string, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	if !p.IsActive {
		return domain.ErrProductInactive
	}
	if p.Stock < quantity {
		return domain.ErrInsufficientStock
	}
	p.Stock -= quantity
	return nil
}

func (r *memoryRepo) Release(_ context.Context, id string, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		p.Stock += quantity
	}
	return nil
}
