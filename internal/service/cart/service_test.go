package cart

import (
	"context"
	"errors"
	"testing"

	"optical-commerce/internal/domain"
)

type stubCartRepo struct {
	cart       *domain.Cart
	getErr     error
	saveErr    error
	saved      *domain.Cart
	saveCalls  int
	clearCalls int
}

func (s *stubCartRepo) Get(_ context.Context, userID string) (*domain.Cart, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.cart == nil {
		return &domain.Cart{UserID: userID, Items: []domain.CartItem{}}, nil
	}
	clone := *s.cart
	clone.Items = append([]domain.CartItem(nil), s.cart.Items...)
	return &clone, nil
}

func (s *stubCartRepo) Save(_ context.Context, cart *domain.Cart) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saveCalls++
	s.saved = cart
	s.cart = cart
	return nil
}

func (s *stubCartRepo) Clear(_ context.Context, _ string) error {
	s.clearCalls++
	return nil
}

type stubProductRepo struct {
	products map[string]*domain.Product
}

func (s *stubProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func activeProduct(id string, priceCents int64, stock int) *domain.Product {
	return &domain.Product{ID: id, Name: "Frames " + id, PriceCents: priceCents, Currency: "INR", Stock: stock, IsActive: true}
}

func TestAddItemHappyPath(t *testing.T) {
	repo := &stubCartRepo{}
	products := &stubProductRepo{products: map[string]*domain.Product{"p1": activeProduct("p1", 5000, 10)}}
	svc := New(repo, products, nil)

	cart, err := svc.AddItem(context.Background(), "u1", AddItemInput{ProductID: "p1", Quantity: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items: %+v", cart.Items)
	}
	if cart.Items[0].PriceAtAddCents != 5000 {
		t.Fatalf("expected price snapshot 5000, got %d", cart.Items[0].PriceAtAddCents)
	}
	if cart.TotalItems != 2 || cart.TotalCents != 10000 {
		t.Fatalf("totals not recomputed: %d items, %d cents", cart.TotalItems, cart.TotalCents)
	}
	if repo.saveCalls != 1 {
		t.Fatalf("expected 1 save, got %d", repo.saveCalls)
	}
}

func TestAddItemSnapshotsDiscountedPrice(t *testing.T) {
	discounted := int64(4000)
	p := activeProduct("p1", 5000, 10)
	p.DiscountedPriceCents = &discounted
	svc := New(&stubCartRepo{}, &stubProductRepo{products: map[string]*domain.Product{"p1": p}}, nil)

	cart, err := svc.AddItem(context.Background(), "u1", AddItemInput{ProductID: "p1", Quantity: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cart.Items[0].PriceAtAddCents != 4000 {
		t.Fatalf("expected discounted snapshot 4000, got %d", cart.Items[0].PriceAtAddCents)
	}
}

// Adding the same (product, prescription) pair twice must merge into one
// line with the summed quantity.
func TestAddItemMergesDuplicateLines(t *testing.T) {
	repo := &stubCartRepo{}
	products := &stubProductRepo{products: map[string]*domain.Product{"p1": activeProduct("p1", 5000, 10)}}
	svc := New(repo, products, nil)

	if _, err := svc.AddItem(context.Background(), "u1", AddItemInput{ProductID: "p1", Quantity: 2}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	cart, err := svc.AddItem(context.Background(), "u1", AddItemInput{ProductID: "p1", Quantity: 3})
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("expected 1 merged line, got %d", len(cart.Items))
	}
	if cart.Items[0].Quantity != 5 {
		t.Fatalf("expected merged quantity 5, got %d", cart.Items[0].Quantity)
	}
}

func TestAddItemKeepsPrescriptionLinesSeparate(t *testing.T) {
	repo := &stubCartRepo{}
	products := &stubProductRepo{products: map[string]*domain.Product{"p1": activeProduct("p1", 5000, 10)}}
	svc := New(repo, products, nil)
	rx := "rx-1"

	if _, err := svc.AddItem(context.Background(), "u1", AddItemInput{ProductID: "p1", Quantity: 1}); err != nil {
		t.Fatalf("bare add: %v", err)
	}
	cart, err := svc.AddItem(context.Background(), "u1", AddItemInput{ProductID: "p1", Quantity: 1, PrescriptionID: &rx})
	if err != nil {
		t.Fatalf("prescription add: %v", err)
	}
	if len(cart.Items) != 2 {
		t.Fatalf("expected 2 separate lines, got %d", len(cart.Items))
	}
}

func TestAddItemValidation(t *testing.T) {
	products := &stubProductRepo{products: map[string]*domain.Product{
		"active":   activeProduct("active", 5000, 1),
		"inactive": {ID: "inactive", PriceCents: 100, Stock: 10, IsActive: false},
	}}
	svc := New(&stubCartRepo{}, products, nil)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "u1", AddItemInput{ProductID: "active", Quantity: 0}); !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Fatalf("expected invalid quantity, got %v", err)
	}
	if _, err := svc.AddItem(ctx, "u1", AddItemInput{ProductID: "missing", Quantity: 1}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.AddItem(ctx, "u1", AddItemInput{ProductID: "inactive", Quantity: 1}); !errors.Is(err, domain.ErrProductInactive) {
		t.Fatalf("expected inactive, got %v", err)
	}
	if _, err := svc.AddItem(ctx, "u1", AddItemInput{ProductID: "active", Quantity: 2}); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
}

func TestAddItemMergedQuantityExceedsStock(t *testing.T) {
	repo := &stubCartRepo{}
	products := &stubProductRepo{products: map[string]*domain.Product{"p1": activeProduct("p1", 5000, 3)}}
	svc := New(repo, products, nil)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "u1", AddItemInput{ProductID: "p1", Quantity: 2}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if _, err := svc.AddItem(ctx, "u1", AddItemInput{ProductID: "p1", Quantity: 2}); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock for merged quantity, got %v", err)
	}
	cart, _ := svc.Get(ctx, "u1")
	if cart.Items[0].Quantity != 2 {
		t.Fatalf("failed merge mutated cart: %+v", cart.Items)
	}
}

func TestUpdateItem(t *testing.T) {
	repo := &stubCartRepo{cart: &domain.Cart{UserID: "u1", Items: []domain.CartItem{
		{ID: "line-1", ProductID: "p1", Quantity: 1, PriceAtAddCents: 5000},
	}}}
	products := &stubProductRepo{products: map[string]*domain.Product{"p1": activeProduct("p1", 5000, 4)}}
	svc := New(repo, products, nil)
	ctx := context.Background()

	qty := 3
	cart, err := svc.UpdateItem(ctx, "u1", "line-1", UpdateItemInput{Quantity: &qty})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cart.Items[0].Quantity != 3 || cart.TotalCents != 15000 {
		t.Fatalf("unexpected cart: %+v", cart)
	}

	if _, err := svc.UpdateItem(ctx, "u1", "nope", UpdateItemInput{Quantity: &qty}); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected item not found, got %v", err)
	}
	zero := 0
	if _, err := svc.UpdateItem(ctx, "u1", "line-1", UpdateItemInput{Quantity: &zero}); !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Fatalf("expected invalid quantity, got %v", err)
	}
	big := 99
	if _, err := svc.UpdateItem(ctx, "u1", "line-1", UpdateItemInput{Quantity: &big}); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
}

func TestRemoveItem(t *testing.T) {
	repo := &stubCartRepo{cart: &domain.Cart{UserID: "u1", Items: []domain.CartItem{
		{ID: "line-1", ProductID: "p1", Quantity: 1, PriceAtAddCents: 5000},
		{ID: "line-2", ProductID: "p2", Quantity: 2, PriceAtAddCents: 3000},
	}}}
	svc := New(repo, &stubProductRepo{}, nil)

	cart, err := svc.RemoveItem(context.Background(), "u1", "line-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].ID != "line-2" {
		t.Fatalf("unexpected items: %+v", cart.Items)
	}
	if cart.TotalCents != 6000 {
		t.Fatalf("totals not recomputed: %d", cart.TotalCents)
	}

	if _, err := svc.RemoveItem(context.Background(), "u1", "line-1"); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected item not found, got %v", err)
	}
}

func TestPruneDropsInactiveAndMissing(t *testing.T) {
	repo := &stubCartRepo{cart: &domain.Cart{UserID: "u1", Items: []domain.CartItem{
		{ID: "keep", ProductID: "p1", Quantity: 1, PriceAtAddCents: 5000},
		{ID: "dead", ProductID: "gone", Quantity: 1, PriceAtAddCents: 1000},
		{ID: "off", ProductID: "p2", Quantity: 1, PriceAtAddCents: 2000},
	}}}
	products := &stubProductRepo{products: map[string]*domain.Product{
		"p1": activeProduct("p1", 5000, 10),
		"p2": {ID: "p2", PriceCents: 2000, Stock: 5, IsActive: false},
	}}
	svc := New(repo, products, nil)

	cart, err := svc.Prune(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].ID != "keep" {
		t.Fatalf("unexpected items after prune: %+v", cart.Items)
	}
	if cart.TotalCents != 5000 {
		t.Fatalf("totals not recomputed after prune: %d", cart.TotalCents)
	}
	if repo.saveCalls != 1 {
		t.Fatalf("expected prune to persist once, got %d saves", repo.saveCalls)
	}
}

func TestPruneNoChangeDoesNotPersist(t *testing.T) {
	repo := &stubCartRepo{cart: &domain.Cart{UserID: "u1", Items: []domain.CartItem{
		{ID: "keep", ProductID: "p1", Quantity: 1, PriceAtAddCents: 5000},
	}}}
	products := &stubProductRepo{products: map[string]*domain.Product{"p1": activeProduct("p1", 5000, 10)}}
	svc := New(repo, products, nil)

	if _, err := svc.Prune(context.Background(), "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.saveCalls != 0 {
		t.Fatalf("prune without drops must not persist, got %d saves", repo.saveCalls)
	}
}

func TestClear(t *testing.T) {
	repo := &stubCartRepo{}
	svc := New(repo, &stubProductRepo{}, nil)
	if err := svc.Clear(context.Background(), "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.clearCalls != 1 {
		t.Fatalf("expected 1 clear call, got %d", repo.clearCalls)
	}
}
