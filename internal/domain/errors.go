package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed or incomplete input.
	ErrValidation = errors.New("invalid input")
	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrForbidden indicates the caller does not own the entity or lacks the role.
	ErrForbidden = errors.New("access denied")
	// ErrProductInactive indicates the referenced product has been deactivated.
	ErrProductInactive = errors.New("product inactive")
	// ErrInsufficientStock indicates the requested quantity exceeds available stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidQuantity indicates a non-positive quantity.
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
	// ErrItemNotFound indicates the cart line item does not exist for this user.
	ErrItemNotFound = errors.New("item not found in cart")
	// ErrInvalidTransition indicates an order status change outside the state machine.
	ErrInvalidTransition = errors.New("illegal status transition")
	// ErrCannotCancel indicates cancellation of a shipped or delivered order.
	ErrCannotCancel = errors.New("cannot cancel shipped or delivered order")
	// ErrInvalidSignature indicates a payment callback signature mismatch.
	ErrInvalidSignature = errors.New("invalid signature")
)
