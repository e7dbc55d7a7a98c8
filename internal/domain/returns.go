package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReturnReason string

const (
	ReturnReasonDefective      ReturnReason = "defective"
	ReturnReasonDamaged        ReturnReason = "damaged"
	ReturnReasonWrongItem      ReturnReason = "wrong_item"
	ReturnReasonNotAsDescribed ReturnReason = "not_as_described"
	ReturnReasonChangedMind    ReturnReason = "changed_mind"
	ReturnReasonOther          ReturnReason = "other"
)

type ReturnStatus string

const (
	ReturnPending    ReturnStatus = "pending"
	ReturnApproved   ReturnStatus = "approved"
	ReturnRejected   ReturnStatus = "rejected"
	ReturnProcessing ReturnStatus = "processing"
	ReturnCompleted  ReturnStatus = "completed"
)

// ReturnRequest is a customer's request to send goods back. It targets the
// whole order, or a single line when OrderItemID is set. Approval feeds the
// refund path; RefundAmount is filled in at that point, not at request time.
type ReturnRequest struct {
	ID          uint64     `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID     uint64     `json:"order_id" gorm:"not null;index"`
	Order       *Order     `json:"-" gorm:"foreignKey:OrderID"`
	OrderItemID *uint64    `json:"order_item_id,omitempty"`
	OrderItem   *OrderItem `json:"-" gorm:"foreignKey:OrderItemID"`

	Reason      ReturnReason `json:"reason" gorm:"size:20;not null"`
	Description string       `json:"description" gorm:"type:text;not null"`
	Status      ReturnStatus `json:"status" gorm:"size:20;not null;default:'pending';index"`

	RefundAmount decimal.NullDecimal `json:"refund_amount" gorm:"type:decimal(12,2)"`
	AdminNotes   string              `json:"admin_notes,omitempty" gorm:"type:text"`

	RequestedAt time.Time  `json:"requested_at" gorm:"autoCreateTime;index"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

func (ReturnRequest) TableName() string { return "return_requests" }

func (r *ReturnRequest) IsPending() bool { return r.Status == ReturnPending }

type ShippingUpdateType string

const (
	ShippingShipped        ShippingUpdateType = "shipped"
	ShippingInTransit      ShippingUpdateType = "in_transit"
	ShippingOutForDelivery ShippingUpdateType = "out_for_delivery"
	ShippingDelivered      ShippingUpdateType = "delivered"
	ShippingException      ShippingUpdateType = "exception"
)

// OrderShippingUpdate is one entry in the courier tracking log. It is
// informational and independent of the order status transitions, which go
// through the status-history path.
type OrderShippingUpdate struct {
	ID      uint64             `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID uint64             `json:"order_id" gorm:"not null;index"`
	Type    ShippingUpdateType `json:"type" gorm:"size:50;not null"`

	Message  string `json:"message" gorm:"type:text;not null"`
	Location string `json:"location" gorm:"size:255"`

	CreatedAt time.Time `json:"timestamp" gorm:"autoCreateTime;index"`
}

func (OrderShippingUpdate) TableName() string { return "order_shipping_updates" }
