package payment

import (
	"context"
	"errors"
	"testing"

	"optical-commerce/internal/domain"
	"optical-commerce/internal/gateway"
	cartrepo "optical-commerce/internal/repository/cart"
	orderrepo "optical-commerce/internal/repository/order"
	paymentrepo "optical-commerce/internal/repository/payment"
)

const testSecret = "test_secret"

type stubGateway struct {
	lastAmount   int64
	lastCurrency string
	lastReceipt  string
	nextID       string
	err          error
}

func (g *stubGateway) CreateOrder(_ context.Context, amountMinor int64, currency, receipt string) (*gateway.Order, error) {
	g.lastAmount = amountMinor
	g.lastCurrency = currency
	g.lastReceipt = receipt
	if g.err != nil {
		return nil, g.err
	}
	return &gateway.Order{ID: g.nextID, Amount: amountMinor, Currency: currency, Receipt: receipt, Status: "created"}, nil
}

type fixture struct {
	svc      *Service
	gw       *stubGateway
	payments paymentrepo.Repository
	orders   orderrepo.Repository
	carts    cartrepo.Repository
}

func newFixture() *fixture {
	gw := &stubGateway{nextID: "order_gw1"}
	payments := paymentrepo.NewMemory()
	orders := orderrepo.NewMemory()
	carts := cartrepo.NewMemory()
	return &fixture{
		svc:      New(payments, orders, carts, gw, testSecret, nil),
		gw:       gw,
		payments: payments,
		orders:   orders,
		carts:    carts,
	}
}

func (f *fixture) seedCart(t *testing.T, userID string) {
	t.Helper()
	err := f.carts.Save(context.Background(), &domain.Cart{UserID: userID, Items: []domain.CartItem{
		{ID: "l1", ProductID: "p1", Quantity: 2, PriceAtAddCents: 5000},
		{ID: "l2", ProductID: "p2", Quantity: 1, PriceAtAddCents: 3000},
	}})
	if err != nil {
		t.Fatalf("seed cart: %v", err)
	}
}

var testAddress = domain.ShippingAddress{
	Street:  "12 MG Road",
	City:    "Bengaluru",
	State:   "Karnataka",
	ZipCode: "560001",
	Country: "India",
}

func TestCreateIntentConvertsToMinorUnits(t *testing.T) {
	f := newFixture()
	f.seedCart(t, "u1")

	intent, err := f.svc.CreateIntent(context.Background(), "u1", CreateIntentInput{
		Amount:          130,
		ShippingAddress: testAddress,
	})
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if f.gw.lastAmount != 13000 {
		t.Fatalf("gateway received %d, want 13000 minor units", f.gw.lastAmount)
	}
	if intent.GatewayOrderID != "order_gw1" || intent.Amount != 13000 || intent.Currency != "INR" {
		t.Fatalf("unexpected intent: %+v", intent)
	}
	if f.gw.lastReceipt == "" {
		t.Fatalf("expected a generated receipt")
	}
}

func TestCreateIntentSnapshotsCart(t *testing.T) {
	f := newFixture()
	f.seedCart(t, "u1")
	ctx := context.Background()

	if _, err := f.svc.CreateIntent(ctx, "u1", CreateIntentInput{Amount: 130, ShippingAddress: testAddress}); err != nil {
		t.Fatalf("create intent: %v", err)
	}

	record, err := f.payments.GetByGatewayOrderID(ctx, "order_gw1")
	if err != nil {
		t.Fatalf("load payment: %v", err)
	}
	if record.Status != domain.PaymentRecordCreated {
		t.Fatalf("expected created status, got %s", record.Status)
	}
	if len(record.Metadata.Items) != 2 {
		t.Fatalf("expected 2 snapshotted items, got %d", len(record.Metadata.Items))
	}
	if record.Metadata.Items[0].PriceCents != 5000 || record.Metadata.Items[0].Quantity != 2 {
		t.Fatalf("snapshot lost line details: %+v", record.Metadata.Items[0])
	}
	if record.Metadata.ShippingAddress != testAddress {
		t.Fatalf("snapshot lost shipping address")
	}

	// snapshot only: the intent must not consume the cart
	cart, _ := f.carts.Get(ctx, "u1")
	if len(cart.Items) != 2 {
		t.Fatalf("intent mutated the cart: %d items", len(cart.Items))
	}
}

func TestCreateIntentValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seedCart(t, "u1")

	if _, err := f.svc.CreateIntent(ctx, "u1", CreateIntentInput{Amount: 0, ShippingAddress: testAddress}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("zero amount must be rejected, got %v", err)
	}
	if _, err := f.svc.CreateIntent(ctx, "u1", CreateIntentInput{Amount: 100}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("missing address must be rejected, got %v", err)
	}
	if _, err := f.svc.CreateIntent(ctx, "empty-cart-user", CreateIntentInput{Amount: 100, ShippingAddress: testAddress}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("empty cart must be rejected, got %v", err)
	}
}

func TestCreateIntentGatewayFailure(t *testing.T) {
	f := newFixture()
	f.seedCart(t, "u1")
	f.gw.err = errors.New("gateway unavailable")

	if _, err := f.svc.CreateIntent(context.Background(), "u1", CreateIntentInput{Amount: 100, ShippingAddress: testAddress}); err == nil {
		t.Fatalf("expected gateway error")
	}
	if _, err := f.payments.GetByGatewayOrderID(context.Background(), "order_gw1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("no payment record should exist after gateway failure, got %v", err)
	}
}

func TestConfirmPaymentCreatesConfirmedOrder(t *testing.T) {
	f := newFixture()
	f.seedCart(t, "u1")
	ctx := context.Background()

	if _, err := f.svc.CreateIntent(ctx, "u1", CreateIntentInput{Amount: 130, ShippingAddress: testAddress}); err != nil {
		t.Fatalf("create intent: %v", err)
	}

	sig := gateway.Sign(testSecret, "order_gw1", "pay_1")
	order, err := f.svc.ConfirmPayment(ctx, "order_gw1", "pay_1", sig)
	if err != nil {
		t.Fatalf("confirm payment: %v", err)
	}
	if order.OrderStatus != domain.OrderConfirmed || order.PaymentStatus != domain.PaymentPaid {
		t.Fatalf("expected confirmed/paid, got %s/%s", order.OrderStatus, order.PaymentStatus)
	}
	if order.TotalCents != 13000 {
		t.Fatalf("order total must be the captured amount, got %d", order.TotalCents)
	}
	if len(order.Items) != 2 {
		t.Fatalf("order must carry the snapshot items, got %d", len(order.Items))
	}
	if order.PaymentID != "pay_1" {
		t.Fatalf("gateway payment id not recorded: %q", order.PaymentID)
	}

	record, _ := f.payments.GetByGatewayOrderID(ctx, "order_gw1")
	if record.Status != domain.PaymentRecordPaid {
		t.Fatalf("payment not marked paid: %s", record.Status)
	}
	if record.OrderID == nil || *record.OrderID != order.ID {
		t.Fatalf("payment not linked to order")
	}

	cart, _ := f.carts.Get(ctx, "u1")
	if len(cart.Items) != 0 {
		t.Fatalf("cart not cleared after confirmation")
	}
}

func TestConfirmPaymentTamperedSignature(t *testing.T) {
	f := newFixture()
	f.seedCart(t, "u1")
	ctx := context.Background()

	if _, err := f.svc.CreateIntent(ctx, "u1", CreateIntentInput{Amount: 130, ShippingAddress: testAddress}); err != nil {
		t.Fatalf("create intent: %v", err)
	}

	sig := gateway.Sign(testSecret, "order_gw1", "pay_other")
	if _, err := f.svc.ConfirmPayment(ctx, "order_gw1", "pay_1", sig); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}

	// fail closed: nothing changed
	record, _ := f.payments.GetByGatewayOrderID(ctx, "order_gw1")
	if record.Status != domain.PaymentRecordCreated {
		t.Fatalf("rejected callback mutated payment: %s", record.Status)
	}
	page, _ := f.orders.FindByUser(ctx, "u1", orderrepo.UserFilter{})
	if page.Total != 0 {
		t.Fatalf("rejected callback created an order")
	}
	cart, _ := f.carts.Get(ctx, "u1")
	if len(cart.Items) != 2 {
		t.Fatalf("rejected callback cleared the cart")
	}
}

func TestConfirmPaymentUnknownGatewayOrder(t *testing.T) {
	f := newFixture()
	sig := gateway.Sign(testSecret, "order_missing", "pay_1")

	if _, err := f.svc.ConfirmPayment(context.Background(), "order_missing", "pay_1", sig); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestConfirmPaymentReplayReturnsSameOrder(t *testing.T) {
	f := newFixture()
	f.seedCart(t, "u1")
	ctx := context.Background()

	if _, err := f.svc.CreateIntent(ctx, "u1", CreateIntentInput{Amount: 130, ShippingAddress: testAddress}); err != nil {
		t.Fatalf("create intent: %v", err)
	}

	sig := gateway.Sign(testSecret, "order_gw1", "pay_1")
	first, err := f.svc.ConfirmPayment(ctx, "order_gw1", "pay_1", sig)
	if err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	second, err := f.svc.ConfirmPayment(ctx, "order_gw1", "pay_1", sig)
	if err != nil {
		t.Fatalf("replayed confirm: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("replay created a second order: %s vs %s", first.ID, second.ID)
	}

	page, _ := f.orders.FindByUser(ctx, "u1", orderrepo.UserFilter{})
	if page.Total != 1 {
		t.Fatalf("expected exactly one order, got %d", page.Total)
	}
}
