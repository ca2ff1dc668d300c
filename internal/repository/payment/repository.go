package payment

import (
	"context"

	"optical-commerce/internal/domain"
)

// Repository persists gateway payment intents and their reconciliation state.
type Repository interface {
	Create(ctx context.Context, p domain.Payment) (*domain.Payment, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.Payment, error)
	// MarkPaid advances the record to paid, storing the gateway payment id and
	// the verified signature. Replaying a callback for an already-paid record
	// returns the stored record unchanged.
	MarkPaid(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string) (*domain.Payment, error)
	LinkOrder(ctx context.Context, paymentID, orderID string) error
}
