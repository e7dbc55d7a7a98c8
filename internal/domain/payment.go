package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TransactionPayment             TransactionType = "payment"
	TransactionRefund              TransactionType = "refund"
	TransactionVerification        TransactionType = "verification"
	TransactionWebhookConfirmation TransactionType = "webhook_confirmation"
)

// Payment is one charge attempt against an order. An order may accumulate
// several payments when earlier attempts failed; Reference is the gateway's
// globally unique handle for this one.
type Payment struct {
	ID      string `json:"id" gorm:"type:char(36);primaryKey"`
	UserID  uint64 `json:"user_id" gorm:"not null;index"`
	OrderID uint64 `json:"order_id" gorm:"not null;index"`
	Order   *Order `json:"-" gorm:"foreignKey:OrderID"`

	Amount   decimal.Decimal `json:"amount" gorm:"type:decimal(15,2);not null"`
	Currency string          `json:"currency" gorm:"size:3;not null;default:'NGN'"`
	Status   PaymentStatus   `json:"status" gorm:"size:20;not null;default:'pending';index"`

	Method          string          `json:"method" gorm:"size:50;default:'paystack'"`
	Reference       string          `json:"reference" gorm:"size:255;uniqueIndex;not null"`
	GatewayResponse json.RawMessage `json:"-" gorm:"type:json"`

	GatewayFee decimal.Decimal `json:"gateway_fee" gorm:"type:decimal(12,2);not null;default:0"`
	AppFee     decimal.Decimal `json:"app_fee" gorm:"type:decimal(12,2);not null;default:0"`

	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (Payment) TableName() string { return "payments" }

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (p *Payment) IsSuccessful() bool { return p.Status == PaymentCompleted }

// TotalCharged is the amount including fees, always derived.
func (p *Payment) TotalCharged() decimal.Decimal {
	return p.Amount.Add(p.GatewayFee).Add(p.AppFee)
}

// Transaction is the append-only audit record of each reconciliation event
// against a payment; it is how a user-initiated verify and a gateway webhook
// for the same charge stay distinguishable.
type Transaction struct {
	ID        string `json:"id" gorm:"type:char(36);primaryKey"`
	PaymentID string `json:"payment_id" gorm:"type:char(36);not null;index"`

	Type   TransactionType `json:"type" gorm:"size:30;not null;index"`
	Amount decimal.Decimal `json:"amount" gorm:"type:decimal(15,2);not null"`
	Status PaymentStatus   `json:"status" gorm:"size:20;not null;default:'pending'"`

	Reference        string          `json:"reference" gorm:"size:255;index;not null"`
	ProviderResponse json.RawMessage `json:"-" gorm:"type:json"`
	Notes            string          `json:"notes" gorm:"type:text"`

	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

func (Transaction) TableName() string { return "transactions" }

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == PaymentCompleted && t.ProcessedAt == nil {
		now := time.Now()
		t.ProcessedAt = &now
	}
	return nil
}

// PaymentWebhook stores every signature-valid webhook delivery for audit,
// recorded before any processing so failed processing still leaves a trace.
type PaymentWebhook struct {
	ID        string `json:"id" gorm:"type:char(36);primaryKey"`
	EventType string `json:"event_type" gorm:"size:100;not null;index"`

	Payload   json.RawMessage `json:"-" gorm:"type:json;not null"`
	Signature string          `json:"-" gorm:"type:text;not null"`

	Processed       bool   `json:"processed" gorm:"not null;default:false;index"`
	ProcessingError string `json:"processing_error,omitempty" gorm:"type:text"`

	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime;index"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

func (PaymentWebhook) TableName() string { return "payment_webhooks" }

func (w *PaymentWebhook) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

type RefundType string

const (
	RefundFull    RefundType = "full"
	RefundPartial RefundType = "partial"
)

// Refund tracks money returned against a payment. The sum of non-failed
// refunds must never exceed the payment amount.
type Refund struct {
	ID        string `json:"id" gorm:"type:char(36);primaryKey"`
	PaymentID string `json:"payment_id" gorm:"type:char(36);not null;index"`

	Amount decimal.Decimal `json:"amount" gorm:"type:decimal(15,2);not null"`
	Type   RefundType      `json:"type" gorm:"size:20;not null;default:'full'"`
	Reason string          `json:"reason" gorm:"type:text"`
	Status PaymentStatus   `json:"status" gorm:"size:20;not null;default:'pending';index"`

	Reference       string          `json:"reference" gorm:"size:255;uniqueIndex;not null"`
	GatewayResponse json.RawMessage `json:"-" gorm:"type:json"`

	RequestedBy *uint64 `json:"requested_by,omitempty"`

	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

func (Refund) TableName() string { return "refunds" }

func (r *Refund) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
