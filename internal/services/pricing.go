package services

import (
	"github.com/shopspring/decimal"

	"shop-backend/internal/config"
)

// PricingPolicy computes shipping and tax for an order. It is injected into
// the order service so tests and future promotions can substitute their own.
type PricingPolicy interface {
	ShippingCost(subtotal, totalWeight decimal.Decimal) decimal.Decimal
	Tax(subtotal decimal.Decimal) decimal.Decimal
	// ItemWeightFallback is the assumed weight in kg for products without
	// one on record.
	ItemWeightFallback() decimal.Decimal
}

// StandardPricing: free shipping above a subtotal threshold, otherwise a
// flat base fee plus a per-kg surcharge; flat-rate VAT on the subtotal.
type StandardPricing struct {
	cfg config.PricingConfig
}

func NewStandardPricing(cfg config.PricingConfig) *StandardPricing {
	return &StandardPricing{cfg: cfg}
}

func (p *StandardPricing) ShippingCost(subtotal, totalWeight decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(p.cfg.FreeShippingThreshold) {
		return decimal.Zero
	}
	return p.cfg.BaseShippingCost.Add(p.cfg.ShippingPerKg.Mul(totalWeight)).Round(2)
}

func (p *StandardPricing) Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(p.cfg.TaxRate).Round(2)
}

func (p *StandardPricing) ItemWeightFallback() decimal.Decimal {
	return p.cfg.DefaultItemWeight
}

var _ PricingPolicy = (*StandardPricing)(nil)
