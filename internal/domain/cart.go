package domain

import "time"

// Customizations are the optical add-ons attached to a line item.
type Customizations struct {
	LensType string   `json:"lensType,omitempty"`
	Coating  []string `json:"coating,omitempty"`
	Tint     string   `json:"tint,omitempty"`
}

type CartItem struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"productId"`
	Quantity        int             `json:"quantity"`
	PrescriptionID  *string         `json:"prescriptionId,omitempty"`
	Customizations  *Customizations `json:"customizations,omitempty"`
	PriceAtAddCents int64           `json:"priceAtAddCents"`
	AddedAt         time.Time       `json:"addedAt"`
}

type Cart struct {
	ID          string     `json:"id,omitempty"`
	UserID      string     `json:"userId"`
	Items       []CartItem `json:"items"`
	TotalItems  int        `json:"totalItems"`
	TotalCents  int64      `json:"totalCents"`
	LastUpdated time.Time  `json:"lastUpdated"`
}

// RecomputeTotals refreshes the derived totals from the current line items.
// Called before every persist so the stored totals never drift.
func (c *Cart) RecomputeTotals() {
	c.TotalItems = 0
	c.TotalCents = 0
	for _, item := range c.Items {
		c.TotalItems += item.Quantity
		c.TotalCents += item.PriceAtAddCents * int64(item.Quantity)
	}
}

// FindItem returns the index of the line matching (productID, prescriptionID),
// or -1. Two lines with the same product but different prescriptions stay separate.
func (c *Cart) FindItem(productID string, prescriptionID *string) int {
	for i, item := range c.Items {
		if item.ProductID != productID {
			continue
		}
		if samePrescription(item.PrescriptionID, prescriptionID) {
			return i
		}
	}
	return -1
}

func samePrescription(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// CartSummary is the lightweight view returned by the summary endpoint.
type CartSummary struct {
	TotalItems  int       `json:"totalItems"`
	TotalCents  int64     `json:"totalCents"`
	ItemCount   int       `json:"itemCount"`
	LastUpdated time.Time `json:"lastUpdated"`
}

func (c *Cart) Summary() CartSummary {
	return CartSummary{
		TotalItems:  c.TotalItems,
		TotalCents:  c.TotalCents,
		ItemCount:   len(c.Items),
		LastUpdated: c.LastUpdated,
	}
}
