package product

import (
	"context"

	"optical-commerce/internal/domain"
)

// Repository is the catalog read surface plus the inventory ledger.
//
// Reserve must be an atomic conditional decrement: stock is reduced by
// quantity only when the product is active and has at least that much stock,
// so concurrent reservations can never oversell. Release is the compensating
// increment and is only called for quantities previously reserved.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)

	CheckAvailable(ctx context.Context, id string, quantity int) (bool, error)
	Reserve(ctx context.Context, id string, quantity int) error
	Release(ctx context.Context, id string, quantity int) error
}
