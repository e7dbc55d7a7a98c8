package services

import (
	"github.com/shopspring/decimal"

	"shop-backend/internal/config"
	"shop-backend/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testPricingConfig() config.PricingConfig {
	return config.PricingConfig{
		FreeShippingThreshold: dec("50000.00"),
		BaseShippingCost:      dec("1000.00"),
		ShippingPerKg:         dec("100.00"),
		TaxRate:               dec("0.075"),
		DefaultItemWeight:     dec("0.5"),
	}
}

// flatPricingConfig removes the weight surcharge so totals in tests only
// depend on the subtotal.
func flatPricingConfig() config.PricingConfig {
	cfg := testPricingConfig()
	cfg.ShippingPerKg = decimal.Zero
	return cfg
}

func testProduct(id uint64, name, price string, quantity int64) *domain.Product {
	return &domain.Product{
		ID:       id,
		Name:     name,
		SKU:      "SKU-" + name,
		Price:    dec(price),
		Quantity: quantity,
	}
}

func uintPtr(v uint64) *uint64 { return &v }

func testAddress() domain.Address {
	return domain.Address{
		FullName:     "Ada Obi",
		AddressLine1: "12 Marina Road",
		City:         "Lagos",
		State:        "Lagos",
		Country:      "NG",
	}
}

func testCart(userID uint64, items ...domain.CartItem) *domain.Cart {
	return &domain.Cart{
		ID:     77,
		UserID: uintPtr(userID),
		Items:  items,
	}
}
