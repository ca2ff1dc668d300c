package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"optical-commerce/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.pool.QueryRow(ctx, `
SELECT id::text, user_id, total_items, total_cents, updated_at
FROM carts
WHERE user_id = $1
`, userID).Scan(&cart.ID, &cart.UserID, &cart.TotalItems, &cart.TotalCents, &cart.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.Cart{UserID: userID, Items: []domain.CartItem{}}, nil
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
SELECT id::text, product_id::text, prescription_id, quantity, price_at_add_cents, customizations, added_at
FROM cart_items
WHERE cart_id = $1::uuid
ORDER BY added_at ASC
`, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cart.Items = []domain.CartItem{}
	for rows.Next() {
		var item domain.CartItem
		var customizations []byte
		if err := rows.Scan(&item.ID, &item.ProductID, &item.PrescriptionID, &item.Quantity, &item.PriceAtAddCents, &customizations, &item.AddedAt); err != nil {
			return nil, err
		}
		if len(customizations) > 0 {
			var c domain.Customizations
			if err := json.Unmarshal(customizations, &c); err != nil {
				return nil, err
			}
			item.Customizations = &c
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *postgresRepo) Save(ctx context.Context, cart *domain.Cart) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var cartID string
	err = tx.QueryRow(ctx, `
INSERT INTO carts (user_id, total_items, total_cents, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE SET
    total_items = EXCLUDED.total_items,
    total_cents = EXCLUDED.total_cents,
    updated_at = EXCLUDED.updated_at
RETURNING id::text
`, cart.UserID, cart.TotalItems, cart.TotalCents, time.Now().UTC()).Scan(&cartID)
	if err != nil {
		r.logger.Error("cart upsert failed", zap.String("user_id", cart.UserID), zap.Error(err))
		return err
	}
	cart.ID = cartID

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1::uuid`, cartID); err != nil {
		return err
	}
	for _, item := range cart.Items {
		var customizations []byte
		if item.Customizations != nil {
			customizations, err = json.Marshal(item.Customizations)
			if err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO cart_items (id, cart_id, product_id, prescription_id, quantity, price_at_add_cents, customizations, added_at)
VALUES ($1::uuid, $2::uuid, $3::uuid, $4, $5, $6, $7, $8)
`, item.ID, cartID, item.ProductID, item.PrescriptionID, item.Quantity, item.PriceAtAddCents, customizations, item.AddedAt); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *postgresRepo) Clear(ctx context.Context, userID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var cartID string
	err = tx.QueryRow(ctx, `
UPDATE carts
SET total_items = 0, total_cents = 0, updated_at = now()
WHERE user_id = $1
RETURNING id::text
`, userID).Scan(&cartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// no cart yet, nothing to clear
			return nil
		}
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1::uuid`, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
