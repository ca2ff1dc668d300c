// Package seed inserts fixture data for local development.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type productSeed struct {
	ID                   string
	Name                 string
	PriceCents           int64
	DiscountedPriceCents *int64
	Currency             string
	Stock                int
}

type tokenSeed struct {
	Token  string
	UserID string
	Role   string
}

func cents(v int64) *int64 { return &v }

// Apply inserts basic seed data for manual testing. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	products := []productSeed{
		{
			ID:         "6df6d6f0-0b5e-4f68-9f8e-1f2a3b4c5d01",
			Name:       "Aviator Classic Frames",
			PriceCents: 349900,
			Currency:   "INR",
			Stock:      25,
		},
		{
			ID:                   "6df6d6f0-0b5e-4f68-9f8e-1f2a3b4c5d02",
			Name:                 "Round Acetate Frames",
			PriceCents:           289900,
			DiscountedPriceCents: cents(219900),
			Currency:             "INR",
			Stock:                40,
		},
		{
			ID:         "6df6d6f0-0b5e-4f68-9f8e-1f2a3b4c5d03",
			Name:       "Daily Contact Lenses 30-pack",
			PriceCents: 129900,
			Currency:   "INR",
			Stock:      120,
		},
	}
	for _, p := range products {
		if err := upsertProduct(ctx, pool, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Name, err)
		}
	}

	tokens := []tokenSeed{
		{Token: "dev-shopper-token", UserID: "dev-shopper", Role: "shopper"},
		{Token: "dev-admin-token", UserID: "dev-admin", Role: "admin"},
	}
	for _, t := range tokens {
		if err := upsertToken(ctx, pool, t); err != nil {
			return fmt.Errorf("upsert token %s: %w", t.Token, err)
		}
	}

	return nil
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, p productSeed) error {
	const q = `
INSERT INTO products (id, name, price_cents, discounted_price_cents, currency, stock, is_active)
VALUES ($1, $2, $3, $4, $5, $6, TRUE)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    price_cents = EXCLUDED.price_cents,
    discounted_price_cents = EXCLUDED.discounted_price_cents,
    currency = EXCLUDED.currency,
    stock = EXCLUDED.stock,
    is_active = TRUE
`
	_, err := pool.Exec(ctx, q, p.ID, p.Name, p.PriceCents, p.DiscountedPriceCents, p.Currency, p.Stock)
	return err
}

func upsertToken(ctx context.Context, pool *pgxpool.Pool, t tokenSeed) error {
	const q = `
INSERT INTO auth_tokens (token, user_id, role, expires_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (token) DO UPDATE SET
    user_id = EXCLUDED.user_id,
    role = EXCLUDED.role,
    expires_at = EXCLUDED.expires_at
`
	_, err := pool.Exec(ctx, q, t.Token, t.UserID, t.Role, time.Now().Add(30*24*time.Hour))
	return err
}
