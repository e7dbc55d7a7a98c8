package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"shop-backend/internal/domain"
)

// Store groups the repositories and exposes the transaction boundary. InTx
// runs fn against a Store bound to one database transaction; any error rolls
// the whole unit of work back.
type Store interface {
	Products() ProductRepository
	Carts() CartRepository
	Orders() OrderRepository
	Payments() PaymentRepository

	InTx(ctx context.Context, fn func(Store) error) error
}

type ProductRepository interface {
	GetByID(ctx context.Context, id uint64) (*domain.Product, error)

	// Reserve atomically checks and decrements available stock. Two
	// concurrent orders for the last unit must not both succeed. A zero
	// quantity is a no-op.
	Reserve(ctx context.Context, id uint64, quantity int64) error

	// Release unconditionally returns stock, used by cancellation.
	Release(ctx context.Context, id uint64, quantity int64) error
}

type CartRepository interface {
	// GetByUserID returns the user's cart, creating it on first access.
	GetByUserID(ctx context.Context, userID uint64) (*domain.Cart, error)
	GetBySessionKey(ctx context.Context, sessionKey string) (*domain.Cart, error)

	GetItem(ctx context.Context, cartID, productID uint64) (*domain.CartItem, error)
	SaveItem(ctx context.Context, item *domain.CartItem) error
	RemoveItem(ctx context.Context, cartID, productID uint64) error
	Clear(ctx context.Context, cartID uint64) error
	Delete(ctx context.Context, cartID uint64) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	CreateItem(ctx context.Context, item *domain.OrderItem) error

	GetByID(ctx context.Context, id uint64) (*domain.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID uint64, limit int) ([]domain.Order, error)
	NumberExists(ctx context.Context, orderNumber string) (bool, error)

	// SetStatus is the single path for status transitions: it updates the
	// order and appends the history row in the same call, so no caller can
	// change a status without leaving an audit entry.
	SetStatus(ctx context.Context, order *domain.Order, status domain.OrderStatus, notes string, changedBy *uint64) error
	SetPaymentStatus(ctx context.Context, order *domain.Order, status domain.PaymentStatus) error

	AppendNotes(ctx context.Context, order *domain.Order, notes string) error
	Update(ctx context.Context, order *domain.Order) error

	CreateReturn(ctx context.Context, ret *domain.ReturnRequest) error
	GetReturnByID(ctx context.Context, id uint64) (*domain.ReturnRequest, error)
	ListReturnsByUser(ctx context.Context, userID uint64, limit int) ([]domain.ReturnRequest, error)

	// SetReturnStatus resolves a return request: it writes the new status,
	// stamps processed_at, and records admin notes and the refund amount
	// when given.
	SetReturnStatus(ctx context.Context, ret *domain.ReturnRequest, status domain.ReturnStatus, adminNotes string, refundAmount *decimal.Decimal) error

	CreateShippingUpdate(ctx context.Context, update *domain.OrderShippingUpdate) error
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByReference(ctx context.Context, reference string) (*domain.Payment, error)
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	ListByUser(ctx context.Context, userID uint64, limit int) ([]domain.Payment, error)

	// MarkCompleted performs the idempotent completion guard: a conditional
	// update that transitions the payment to completed only when it is not
	// already completed. It reports whether this call won the transition.
	MarkCompleted(ctx context.Context, payment *domain.Payment, rawResponse []byte, gatewayFee decimal.Decimal) (bool, error)

	// MarkFailed transitions a pending payment to failed. Completed
	// payments are never demoted.
	MarkFailed(ctx context.Context, payment *domain.Payment, rawResponse []byte) error

	CreateTransaction(ctx context.Context, txn *domain.Transaction) error

	CreateWebhook(ctx context.Context, webhook *domain.PaymentWebhook) error
	MarkWebhookProcessed(ctx context.Context, webhook *domain.PaymentWebhook, processingErr string) error

	CreateRefund(ctx context.Context, refund *domain.Refund) error
	// SumRefunded totals non-failed refunds against a payment.
	SumRefunded(ctx context.Context, paymentID string) (decimal.Decimal, error)
}
