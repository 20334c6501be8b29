package pricing

import (
	"math"

	"github.com/shopspring/decimal"
)

// Pack models a purchasable bundle of reroll units in the cash shop.
type Pack struct {
	ID          string `json:"id" yaml:"id"`                       // SKU id, e.g., "cube-11"
	Name        string `json:"name" yaml:"name"`                   // display name
	Units       int    `json:"units" yaml:"units"`                 // base reroll units granted
	BonusUnits  int    `json:"bonus_units" yaml:"bonus_units"`     // permanent extra units
	FirstTimeX2 bool   `json:"first_time_x2" yaml:"first_time_x2"` // first purchase doubles Units (not BonusUnits)
	Price       int    `json:"price" yaml:"price"`                 // price in minor currency units
}

// Catalog is a regional pack catalog and tax info.
type Catalog struct {
	UnitName string `json:"unit_name" yaml:"unit_name"` // e.g., "Title Reroll Scroll"
	Currency string `json:"currency" yaml:"currency"`   // e.g., "NX"
	// If prices are pre-tax, TaxRate is applied on subtotal to compute total.
	TaxRate float64 `json:"tax_rate" yaml:"tax_rate"`
	Packs   []Pack  `json:"packs" yaml:"packs"`
}

// FirstTimeState describes per-pack first-time eligibility.
type FirstTimeState map[string]bool // packID -> true if first-time x2 is still available

// Plan summarizes a purchase plan.
type Plan struct {
	Purchases  []Purchase `json:"purchases"`
	SubTotal   int        `json:"sub_total"` // before tax
	Tax        int        `json:"tax"`
	Total      int        `json:"total"`
	TotalUnits int        `json:"total_units"`
	Currency   string     `json:"currency"`
}

// Purchase is one line item in the plan.
type Purchase struct {
	PackID    string `json:"pack_id"`
	Name      string `json:"name"`
	Qty       int    `json:"qty"`
	UnitPrice int    `json:"unit_price"`
	PackUnits int    `json:"pack_units"` // units received per pack in this plan (x2/bonus applied)
	Subtotal  int    `json:"subtotal"`
}

// applyTax computes tax and total given a subtotal and a tax rate.
func applyTax(sub int, taxRate float64) (tax int, total int) {
	if taxRate <= 0 {
		return 0, sub
	}
	t := int(math.Round(float64(sub) * taxRate))
	return t, sub + t
}

// AfterFee is what the seller keeps of amount once the marketplace takes
// feePercent. Fees outside [0,100] are clamped.
func AfterFee(amount decimal.Decimal, feePercent float64) decimal.Decimal {
	switch {
	case feePercent <= 0:
		return amount
	case feePercent >= 100:
		return decimal.Zero
	}
	keep := decimal.NewFromInt(100).Sub(decimal.NewFromFloat(feePercent)).Div(decimal.NewFromInt(100))
	return amount.Mul(keep)
}
