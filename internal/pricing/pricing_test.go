package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrollCatalog() Catalog {
	return Catalog{
		UnitName: "Title Reroll Scroll",
		Currency: "NX",
		Packs: []Pack{
			{ID: "single", Name: "Scroll x1", Units: 1, Price: 100},
			{ID: "ten", Name: "Scroll x10", Units: 10, BonusUnits: 1, Price: 900},
			{ID: "fifty", Name: "Scroll x50", Units: 50, BonusUnits: 10, FirstTimeX2: true, Price: 4200},
		},
	}
}

func TestMinCostAtLeastUnits(t *testing.T) {
	plan := MinCostAtLeastUnits(scrollCatalog(), 12, nil)
	// 11 from "ten" + 1 single beats two "ten" packs
	assert.Equal(t, 1000, plan.Total)
	assert.Equal(t, 12, plan.TotalUnits)
	require.Len(t, plan.Purchases, 2)
	assert.Equal(t, "single", plan.Purchases[0].PackID)
	assert.Equal(t, "ten", plan.Purchases[1].PackID)
}

func TestMinCostAtLeastUnitsFirstTime(t *testing.T) {
	plan := MinCostAtLeastUnits(scrollCatalog(), 100, FirstTimeState{"fifty": true})
	assert.GreaterOrEqual(t, plan.TotalUnits, 100)
	assert.Equal(t, 4200, plan.Total)
	assert.Equal(t, "fifty#x2", plan.Purchases[0].PackID)

	// the doubled pack is bought at most once
	plan = MinCostAtLeastUnits(scrollCatalog(), 220, FirstTimeState{"fifty": true})
	for _, p := range plan.Purchases {
		if p.PackID == "fifty#x2" {
			assert.Equal(t, 1, p.Qty)
		}
	}
}

func TestMinCostAtLeastUnitsEmpty(t *testing.T) {
	plan := MinCostAtLeastUnits(scrollCatalog(), 0, nil)
	assert.Empty(t, plan.Purchases)
	assert.Equal(t, "NX", plan.Currency)
	assert.Empty(t, MinCostAtLeastUnits(Catalog{}, 10, nil).Purchases)
}

func TestMaxUnitsUnderBudget(t *testing.T) {
	plan, err := MaxUnitsUnderBudget(scrollCatalog(), 1000, nil)
	require.NoError(t, err)
	assert.Equal(t, 12, plan.TotalUnits)
	assert.LessOrEqual(t, plan.Total, 1000)

	_, err = MaxUnitsUnderBudget(scrollCatalog(), MaxBudget+1, nil)
	assert.ErrorIs(t, err, ErrBudgetTooLarge)
}

func TestMaxUnitsUnderBudgetTax(t *testing.T) {
	cat := scrollCatalog()
	cat.TaxRate = 0.1
	plan, err := MaxUnitsUnderBudget(cat, 1000, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, plan.Total, 1000)
	// 909 pre-tax buys one "ten" pack (11 units) but not a single on top
	assert.Equal(t, 11, plan.TotalUnits)
	assert.Equal(t, 990, plan.Total)
}

func TestAfterFee(t *testing.T) {
	amt := decimal.NewFromInt(1000)
	assert.True(t, AfterFee(amt, 0).Equal(amt))
	assert.True(t, AfterFee(amt, 5).Equal(decimal.NewFromInt(950)))
	assert.True(t, AfterFee(amt, 150).IsZero())
}
