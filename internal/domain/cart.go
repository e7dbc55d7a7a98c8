package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart belongs to exactly one user, or to an anonymous session via
// SessionKey. It is cleared, never deleted, when converted into an order.
type Cart struct {
	ID         uint64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID     *uint64    `json:"user_id" gorm:"uniqueIndex"`
	SessionKey string     `json:"-" gorm:"size:255;index"`
	Items      []CartItem `json:"items" gorm:"foreignKey:CartID"`
	CreatedAt  time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Cart) TableName() string { return "carts" }

// CartItem is one (product, quantity) line, unique per cart and product.
type CartItem struct {
	ID        uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	CartID    uint64    `json:"cart_id" gorm:"not null;uniqueIndex:idx_cart_product"`
	ProductID uint64    `json:"product_id" gorm:"not null;uniqueIndex:idx_cart_product"`
	Product   Product   `json:"product" gorm:"foreignKey:ProductID"`
	Quantity  int64     `json:"quantity" gorm:"not null;default:1"`
	AddedAt   time.Time `json:"added_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (CartItem) TableName() string { return "cart_items" }

// LineTotal is quantity times the product's current price; prices are read
// live so a price change between add-to-cart and checkout is reflected.
func (i *CartItem) LineTotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(i.Quantity))
}

// Subtotal sums line totals at current catalog prices.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for i := range c.Items {
		total = total.Add(c.Items[i].LineTotal())
	}
	return total
}

// TotalWeight sums item weights in kg, substituting fallback for products
// with no weight on record.
func (c *Cart) TotalWeight(fallback decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for i := range c.Items {
		w := c.Items[i].Product.ShippingWeight(fallback)
		total = total.Add(w.Mul(decimal.NewFromInt(c.Items[i].Quantity)))
	}
	return total
}

func (c *Cart) TotalItems() int64 {
	var n int64
	for i := range c.Items {
		n += c.Items[i].Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }
