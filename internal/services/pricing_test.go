package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestStandardPricing_ShippingCost(t *testing.T) {
	pricing := NewStandardPricing(testPricingConfig())

	tests := []struct {
		name     string
		subtotal string
		weight   string
		want     string
	}{
		{"below threshold pays base plus per-kg", "250.00", "1.5", "1150"},
		{"weightless order pays base only", "250.00", "0", "1000"},
		{"threshold exactly is free", "50000.00", "10", "0"},
		{"above threshold is free", "82000.00", "120", "0"},
		{"just below threshold still pays", "49999.99", "1", "1100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pricing.ShippingCost(dec(tt.subtotal), dec(tt.weight))
			assert.True(t, got.Equal(dec(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestStandardPricing_Tax(t *testing.T) {
	pricing := NewStandardPricing(testPricingConfig())

	assert.Equal(t, "18.75", pricing.Tax(dec("250.00")).String())
	assert.Equal(t, "7.5", pricing.Tax(dec("100.00")).String())
	assert.True(t, pricing.Tax(decimal.Zero).IsZero())
	// Rounded to 2 places, half away from zero.
	assert.Equal(t, "0.08", pricing.Tax(dec("1.00")).String())
}

func TestStandardPricing_ItemWeightFallback(t *testing.T) {
	pricing := NewStandardPricing(testPricingConfig())
	assert.Equal(t, "0.5", pricing.ItemWeightFallback().String())
}
