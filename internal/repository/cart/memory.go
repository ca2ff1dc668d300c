package cart

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"optical-commerce/internal/domain"
)

type memoryRepo struct {
	mu    sync.RWMutex
	carts map[string]*domain.Cart
}

func NewMemory() Repository {
	return &memoryRepo{carts: make(map[string]*domain.Cart)}
}

func (r *memoryRepo) Get(_ context.Context, userID string) (*domain.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cart, ok := r.carts[userID]
	if !ok {
		return &domain.Cart{UserID: userID, Items: []domain.CartItem{}}, nil
	}
	return cloneCart(cart), nil
}

func (r *memoryRepo) Save(_ context.Context, cart *domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cart.ID == "" {
		cart.ID = uuid.NewString()
	}
	cart.LastUpdated = time.Now().UTC()
	r.carts[cart.UserID] = cloneCart(cart)
	return nil
}

func (r *memoryRepo) Clear(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cart, ok := r.carts[userID]; ok {
		cart.Items = []domain.CartItem{}
		cart.RecomputeTotals()
		cart.LastUpdated = time.Now().UTC()
	}
	return nil
}

func cloneCart(c *domain.Cart) *domain.Cart {
	out := *c
	out.Items = make([]domain.CartItem, len(c.Items))
	copy(out.Items, c.Items)
	return &out
}
