package domain

import (
	"errors"
	"fmt"
)

var (
	ErrCartNotFound    = errors.New("cart not found")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrInvalidQuantity covers malformed input (zero or negative quantity)
	// rejected before any side effect.
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	ErrInvalidAmount   = errors.New("amount must be greater than zero")

	// ErrPaymentDeclined is an explicit gateway-reported decline, distinct
	// from a GatewayError with unknown outcome.
	ErrPaymentDeclined = errors.New("payment was declined by the gateway")

	ErrNotCancellable       = errors.New("order cannot be cancelled")
	ErrNotRefundable        = errors.New("payment cannot be refunded")
	ErrOrderNotPending      = errors.New("order is not in pending status")
	ErrInvalidSignature     = errors.New("invalid webhook signature")
	ErrRefundExceedsPayment = errors.New("refund amount exceeds payment amount")

	ErrOrderItemNotFound = errors.New("order item not found")
	ErrReturnNotFound    = errors.New("return request not found")
	ErrNotReturnable     = errors.New("order cannot be returned")
	ErrReturnNotPending  = errors.New("return request has already been processed")

	// ErrDuplicateOrderNumber reports that the unique index rejected an
	// order number; the allocator retries with a fresh one.
	ErrDuplicateOrderNumber = errors.New("order number already exists")
)

// InsufficientStockError is returned when a requested quantity cannot be
// satisfied by the product's current available stock. The cart-time check is
// advisory; the order-time check inside the creation transaction is binding.
type InsufficientStockError struct {
	ProductID   uint64
	ProductName string
	Available   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("only %d items available for %s", e.Available, e.ProductName)
}

type ProductUnavailableError struct {
	ProductID   uint64
	ProductName string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %s is not available", e.ProductName)
}

// GatewayError wraps failures talking to the payment provider. Timeout marks
// an unknown outcome: the payment must stay pending for later reconciliation
// instead of being marked failed.
type GatewayError struct {
	Op      string
	Message string
	Timeout bool
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("paystack %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("paystack %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }
