package order

import (
	"testing"

	"optical-commerce/internal/domain"
)

func orderItem(productID string, qty int, priceCents int64) domain.OrderItem {
	return domain.OrderItem{ProductID: productID, Quantity: qty, PriceCents: priceCents}
}

func TestFormatOrderNumber(t *testing.T) {
	cases := []struct {
		ms   int64
		seq  int64
		want string
	}{
		{1700000000000, 1, "ORD-1700000000000-0001"},
		{1700000000000, 42, "ORD-1700000000000-0042"},
		{1700000000001, 12345, "ORD-1700000000001-12345"},
	}
	for _, c := range cases {
		if got := FormatOrderNumber(c.ms, c.seq); got != c.want {
			t.Fatalf("FormatOrderNumber(%d, %d) = %q, want %q", c.ms, c.seq, got, c.want)
		}
	}
}

func TestCreateOrderInputTotal(t *testing.T) {
	in := CreateOrderInput{}
	in.Items = append(in.Items, orderItem("a", 2, 5000), orderItem("b", 1, 3000))
	if got := in.Total(); got != 13000 {
		t.Fatalf("expected 13000, got %d", got)
	}

	in.TotalCents = 9999
	if got := in.Total(); got != 9999 {
		t.Fatalf("override ignored: got %d", got)
	}
}
