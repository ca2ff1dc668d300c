package product

import (
	"context"
	"errors"

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

const productColumns = `id::text, name, price_cents, discounted_price_cents, currency, stock, is_active, created_at`

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(&p.ID, &p.Name, &p.PriceCents, &p.DiscountedPriceCents, &p.Currency, &p.Stock, &p.IsActive, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("product get failed", zap.String("product_id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (id, name, price_cents, discounted_price_cents, currency, stock, is_active)
VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    price_cents = EXCLUDED.price_cents,
    discounted_price_cents = EXCLUDED.discounted_price_cents,
    currency = EXCLUDED.currency,
    stock = EXCLUDED.stock,
    is_active = EXCLUDED.is_active
RETURNING ` + productColumns
	out, err := scanProduct(r.pool.QueryRow(ctx, q, p.ID, p.Name, p.PriceCents, p.DiscountedPriceCents, p.Currency, p.Stock, p.IsActive))
	if err != nil {
		r.logger.Error("product upsert failed", zap.String("name", p.Name), zap.Error(err))
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) CheckAvailable(ctx context.Context, id string, quantity int) (bool, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return p.IsActive && p.Stock >= quantity, nil
}

// Reserve decrements stock in a single conditional UPDATE. When no row
// qualifies, a follow-up read classifies the failure.
func (r *postgresRepo) Reserve(ctx context.Context, id string, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	cmd, err := r.pool.Exec(ctx, `
UPDATE products
SET stock = stock - $2
WHERE id = $1 AND is_active AND stock >= $2
`, id, quantity)
	if err != nil {
		r.logger.Error("reserve failed", zap.String("product_id", id), zap.Int("quantity", quantity), zap.Error(err))
		return err
	}
	if cmd.RowsAffected() == 1 {
		return nil
	}

	p, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !p.IsActive {
		return domain.ErrProductInactive
	}
	return domain.ErrInsufficientStock
}

func (r *postgresRepo) Release(ctx context.Context, id string, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	_, err := r.pool.Exec(ctx, `UPDATE products SET stock = stock + $2 WHERE id = $1`, id, quantity)
	if err != nil {
		r.logger.Error("release failed", zap.String("product_id", id), zap.Int("quantity", quantity), zap.Error(err))
	}
	return err
}
