package cart

import (
	"context"

	"optical-commerce/internal/domain"
)

// Repository persists one cart per user.
//
// Get returns an empty, unsaved cart shape when the user has none; it never
// creates a row for a bare read. Save upserts the cart and replaces its line
// items wholesale (concurrent edits are last-write-wins). Clear empties the
// item list but keeps the cart row.
type Repository interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Clear(ctx context.Context, userID string) error
}
