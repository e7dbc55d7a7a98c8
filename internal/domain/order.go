package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending        OrderStatus = "pending"
	OrderConfirmed      OrderStatus = "confirmed"
	OrderProcessing     OrderStatus = "processing"
	OrderShipped        OrderStatus = "shipped"
	OrderOutForDelivery OrderStatus = "out_for_delivery"
	OrderDelivered      OrderStatus = "delivered"
	OrderCancelled      OrderStatus = "cancelled"
	OrderRefunded       OrderStatus = "refunded"
)

// PaymentStatus is shared by Order.PaymentStatus, Payment.Status and
// Transaction.Status.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentCancelled  PaymentStatus = "cancelled"
	PaymentRefunded   PaymentStatus = "refunded"
)

// Order is an immutable financial record created from a cart. Monetary
// fields are snapshots; the addresses are denormalized copies, not live
// references.
type Order struct {
	ID          uint64 `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderNumber string `json:"order_number" gorm:"size:20;uniqueIndex;not null"`

	UserID      uint64 `json:"user_id" gorm:"not null;index"`
	Email       string `json:"email" gorm:"size:254;not null"`
	PhoneNumber string `json:"phone_number" gorm:"size:20"`

	Status        OrderStatus   `json:"status" gorm:"size:20;not null;default:'pending';index"`
	PaymentStatus PaymentStatus `json:"payment_status" gorm:"size:20;not null;default:'pending';index"`

	ShippingAddress Address  `json:"shipping_address" gorm:"type:json;not null"`
	BillingAddress  *Address `json:"billing_address,omitempty" gorm:"type:json"`

	Subtotal       decimal.Decimal `json:"subtotal" gorm:"type:decimal(12,2);not null"`
	ShippingCost   decimal.Decimal `json:"shipping_cost" gorm:"type:decimal(12,2);not null"`
	TaxAmount      decimal.Decimal `json:"tax_amount" gorm:"type:decimal(12,2);not null"`
	DiscountAmount decimal.Decimal `json:"discount_amount" gorm:"type:decimal(12,2);not null"`
	TotalAmount    decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2);not null"`

	PaymentMethod    string `json:"payment_method" gorm:"size:50;default:'paystack'"`
	PaymentReference string `json:"payment_reference" gorm:"size:255"`

	TrackingNumber        string     `json:"tracking_number" gorm:"size:100"`
	CourierService        string     `json:"courier_service" gorm:"size:100"`
	EstimatedDeliveryDate *time.Time `json:"estimated_delivery_date"`
	ActualDeliveryDate    *time.Time `json:"actual_delivery_date"`

	SpecialInstructions string `json:"special_instructions" gorm:"type:text"`
	OrderNotes          string `json:"order_notes" gorm:"type:text"`

	Items           []OrderItem           `json:"items" gorm:"foreignKey:OrderID"`
	StatusHistory   []OrderStatusHistory  `json:"status_history,omitempty" gorm:"foreignKey:OrderID"`
	ShippingUpdates []OrderShippingUpdate `json:"shipping_updates,omitempty" gorm:"foreignKey:OrderID"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }

// CanCancel: cancellation is only allowed before fulfilment starts and
// before money has been captured.
func (o *Order) CanCancel() bool {
	return (o.Status == OrderPending || o.Status == OrderConfirmed) &&
		o.PaymentStatus != PaymentCompleted
}

// CanRefund: refunds require captured money and an order that has not
// already been cancelled or refunded.
func (o *Order) CanRefund() bool {
	return o.PaymentStatus == PaymentCompleted &&
		o.Status != OrderCancelled && o.Status != OrderRefunded
}

func (o *Order) IsDelivered() bool { return o.Status == OrderDelivered }

// ComputeTotal recomputes TotalAmount from its components. The stored total
// is always derived, never entered independently.
func (o *Order) ComputeTotal() {
	o.TotalAmount = o.Subtotal.Add(o.ShippingCost).Add(o.TaxAmount).Sub(o.DiscountAmount)
}

// OrderItem snapshots one cart line at order-creation time. Name, SKU and
// price are copied so the order stays accurate if the catalog entry changes
// or disappears.
type OrderItem struct {
	ID        uint64 `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID   uint64 `json:"order_id" gorm:"not null;uniqueIndex:idx_order_product"`
	ProductID uint64 `json:"product_id" gorm:"not null;uniqueIndex:idx_order_product"`

	ProductName  string `json:"product_name" gorm:"size:255;not null"`
	ProductSKU   string `json:"product_sku" gorm:"size:100"`
	ProductImage string `json:"product_image" gorm:"size:500"`

	UnitPrice  decimal.Decimal `json:"unit_price" gorm:"type:decimal(12,2);not null"`
	Quantity   int64           `json:"quantity" gorm:"not null"`
	TotalPrice decimal.Decimal `json:"total_price" gorm:"type:decimal(12,2);not null"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (OrderItem) TableName() string { return "order_items" }

// OrderStatusHistory is the append-only audit trail of status transitions.
// Rows are never updated or deleted.
type OrderStatusHistory struct {
	ID        uint64      `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID   uint64      `json:"order_id" gorm:"not null;index"`
	Status    OrderStatus `json:"status" gorm:"size:20;not null"`
	Notes     string      `json:"notes" gorm:"type:text"`
	ChangedBy *uint64     `json:"changed_by,omitempty"`
	CreatedAt time.Time   `json:"created_at" gorm:"autoCreateTime"`
}

func (OrderStatusHistory) TableName() string { return "order_status_history" }
