package domain

import "time"

type PaymentRecordStatus string

const (
	PaymentRecordCreated   PaymentRecordStatus = "created"
	PaymentRecordAttempted PaymentRecordStatus = "attempted"
	PaymentRecordPaid      PaymentRecordStatus = "paid"
	PaymentRecordFailed    PaymentRecordStatus = "failed"
	PaymentRecordCancelled PaymentRecordStatus = "cancelled"
)

// PaymentMetadata snapshots the cart contents and shipping address at
// intent-creation time so the order can be rebuilt after the gateway callback.
type PaymentMetadata struct {
	Items           []OrderItem     `json:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
}

type Payment struct {
	ID               string              `json:"id"`
	UserID           string              `json:"userId"`
	OrderID          *string             `json:"orderId,omitempty"`
	GatewayOrderID   string              `json:"gatewayOrderId"`
	GatewayPaymentID string              `json:"gatewayPaymentId,omitempty"`
	Signature        string              `json:"-"`
	AmountCents      int64               `json:"amountCents"`
	Currency         string              `json:"currency"`
	Status           PaymentRecordStatus `json:"status"`
	FailureReason    string              `json:"failureReason,omitempty"`
	RefundID         string              `json:"refundId,omitempty"`
	RefundCents      *int64              `json:"refundCents,omitempty"`
	Metadata         PaymentMetadata     `json:"metadata"`
	CreatedAt        time.Time           `json:"createdAt"`
}

// CanAdvanceTo enforces the payment record lifecycle: status only advances out
// of created, and a paid record is immutable except for refund fields.
func (p Payment) CanAdvanceTo(next PaymentRecordStatus) bool {
	if p.Status == next {
		return true
	}
	switch p.Status {
	case PaymentRecordCreated:
		return next == PaymentRecordAttempted || next == PaymentRecordPaid ||
			next == PaymentRecordFailed || next == PaymentRecordCancelled
	case PaymentRecordAttempted:
		return next == PaymentRecordPaid || next == PaymentRecordFailed || next == PaymentRecordCancelled
	default:
		return false
	}
}
