package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the catalog entity as consumed by the order core: the catalog
// app owns creation and edits, the order engine only reads it and adjusts
// Quantity through stock reservation.
type Product struct {
	ID        uint64          `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string          `json:"name" gorm:"size:150;not null"`
	SKU       string          `json:"sku" gorm:"size:100"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Quantity  int64           `json:"quantity" gorm:"not null;default:0"`
	Weight    decimal.Decimal `json:"weight" gorm:"type:decimal(8,3);default:0"` // kg, zero means unspecified
	ImageURL  string          `json:"image_url" gorm:"size:500"`
	CreatedAt time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Product) TableName() string { return "products" }

// Available reports whether the product can be added to a cart.
func (p *Product) Available() bool { return p.Quantity > 0 }

// ShippingWeight returns the product weight, falling back to the given
// default when the catalog entry does not specify one.
func (p *Product) ShippingWeight(fallback decimal.Decimal) decimal.Decimal {
	if p.Weight.IsZero() {
		return fallback
	}
	return p.Weight
}
