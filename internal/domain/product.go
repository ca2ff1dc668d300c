package domain

import "time"

type Product struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	PriceCents           int64     `json:"priceCents"`
	DiscountedPriceCents *int64    `json:"discountedPriceCents,omitempty"`
	Currency             string    `json:"currency"`
	Stock                int       `json:"stock"`
	IsActive             bool      `json:"isActive"`
	CreatedAt            time.Time `json:"createdAt"`
}

// EffectivePriceCents is the price a buyer pays right now: the discounted
// price when one is set, the list price otherwise.
func (p Product) EffectivePriceCents() int64 {
	if p.DiscountedPriceCents != nil && *p.DiscountedPriceCents > 0 {
		return *p.DiscountedPriceCents
	}
	return p.PriceCents
}
