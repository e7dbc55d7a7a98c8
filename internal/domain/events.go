package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event routing keys consumed by the notification layer. Publishing is
// fire-and-forget; delivery failures never roll back the owning operation.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventPaymentCompleted   = "payment.completed"
	EventPaymentFailed      = "payment.failed"
)

type OrderCreatedEvent struct {
	OrderID     uint64          `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	UserID      uint64          `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	TotalItems  int64           `json:"total_items"`
	CreatedAt   time.Time       `json:"created_at"`
}

type OrderStatusChangedEvent struct {
	OrderID     uint64      `json:"order_id"`
	OrderNumber string      `json:"order_number"`
	UserID      uint64      `json:"user_id"`
	OldStatus   OrderStatus `json:"old_status"`
	NewStatus   OrderStatus `json:"new_status"`
	ChangedAt   time.Time   `json:"changed_at"`
}

type PaymentEvent struct {
	PaymentID   string          `json:"payment_id"`
	OrderID     uint64          `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	UserID      uint64          `json:"user_id"`
	Reference   string          `json:"reference"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Status      PaymentStatus   `json:"status"`
	OccurredAt  time.Time       `json:"occurred_at"`
}
