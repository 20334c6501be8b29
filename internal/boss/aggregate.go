package boss

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/xtding233/maplecalc/internal/drop"
	"github.com/xtding233/maplecalc/internal/pricing"
)

var ErrUnknownSource = errors.New("unknown boss or difficulty")

// normTolerance is how far box weights may drift from 1 before the box is
// reported as renormalized.
const normTolerance = 1e-9

// Clear is one weekly (or daily) clear of a boss difficulty.
type Clear struct {
	Boss       string `json:"boss" validate:"required"`
	Difficulty string `json:"difficulty" validate:"required"`
	PartySize  int    `json:"party_size" validate:"gte=0,lte=6"` // 0 means solo
}

type Character struct {
	Name   string  `json:"name" validate:"required"`
	Clears []Clear `json:"clears" validate:"dive"`
}

// RateOverride pins the drop rate of one item from one boss difficulty.
type RateOverride struct {
	Boss       string  `json:"boss" validate:"required"`
	Difficulty string  `json:"difficulty" validate:"required"`
	Item       string  `json:"item" validate:"required"`
	Rate       float64 `json:"rate" validate:"gte=0,lte=1"`
}

type Request struct {
	Characters           []Character        `json:"characters" validate:"required,min=1,dive"`
	DropRateBonusPercent float64            `json:"drop_rate_bonus_percent" validate:"gte=-100"`
	FeePercent           float64            `json:"fee_percent" validate:"gte=0,lte=100"`
	ItemRates            map[string]float64 `json:"item_rates,omitempty" validate:"omitempty,dive,gte=0,lte=1"`
	RateOverrides        []RateOverride     `json:"rate_overrides,omitempty" validate:"omitempty,dive"`
	Prices               map[string]float64 `json:"prices,omitempty" validate:"omitempty,dive,gte=0"`
}

// RateSource tells which rule produced an effective drop rate.
type RateSource string

const (
	RateSourceOverride RateSource = "source_override"
	RateSourceItem     RateSource = "item_override"
	RateSourceTable    RateSource = "table"
)

// Expectation is the derived record for one (character, clear, item).
type Expectation struct {
	Character     string     `json:"character"`
	Boss          string     `json:"boss"`
	Difficulty    string     `json:"difficulty"`
	Item          string     `json:"item"`
	Probability   float64    `json:"probability"`
	RateSource    RateSource `json:"rate_source"`
	UnitPrice     float64    `json:"unit_price"` // after fee, box contents expanded
	PartySize     int        `json:"party_size"`
	ExpectedCount float64    `json:"expected_count"`
	ExpectedValue float64    `json:"expected_value"`
}

type ItemTotal struct {
	Item          string  `json:"item"`
	ExpectedCount float64 `json:"expected_count"`
	ExpectedValue float64 `json:"expected_value"`
}

type CharacterTotal struct {
	Character     string  `json:"character"`
	Clears        int     `json:"clears"`
	ExpectedValue float64 `json:"expected_value"`
}

type Result struct {
	Expectations []Expectation    `json:"expectations"`
	Items        []ItemTotal      `json:"items"`
	Characters   []CharacterTotal `json:"characters"`
	Total        float64          `json:"total"`
	// Normalized lists box items whose weights did not sum to 1.
	Normalized []string `json:"normalized,omitempty"`
}

type overrideKey struct{ boss, difficulty, item string }

type aggregator struct {
	table      Table
	req        Request
	overrides  map[overrideKey]float64
	values     map[string]decimal.Decimal
	normalized map[string]bool
}

// Aggregate computes expected drops and value for every clear in req.
//
// Precondition: t passed Validate.
func Aggregate(t Table, req Request) (Result, error) {
	a := &aggregator{
		table:      t,
		req:        req,
		overrides:  make(map[overrideKey]float64, len(req.RateOverrides)),
		values:     map[string]decimal.Decimal{},
		normalized: map[string]bool{},
	}
	for _, o := range req.RateOverrides {
		a.overrides[overrideKey{o.Boss, o.Difficulty, o.Item}] = o.Rate
	}

	type itemSum struct{ count, value decimal.Decimal }
	items := map[string]*itemSum{}
	var res Result
	total := decimal.Zero

	for _, ch := range req.Characters {
		charValue := decimal.Zero
		for _, cl := range ch.Clears {
			drops, ok := t.Drops(cl.Boss, cl.Difficulty)
			if !ok {
				return Result{}, fmt.Errorf("%w: %s/%s", ErrUnknownSource, cl.Boss, cl.Difficulty)
			}
			party := max(cl.PartySize, 1)
			for _, d := range drops {
				rate, src := a.rate(cl, d)
				unit := a.unitValue(d.Item)
				count := decimal.NewFromFloat(rate).Div(decimal.NewFromInt(int64(party)))
				value := count.Mul(unit)

				res.Expectations = append(res.Expectations, Expectation{
					Character:     ch.Name,
					Boss:          cl.Boss,
					Difficulty:    cl.Difficulty,
					Item:          d.Item,
					Probability:   rate,
					RateSource:    src,
					UnitPrice:     unit.InexactFloat64(),
					PartySize:     party,
					ExpectedCount: count.InexactFloat64(),
					ExpectedValue: value.InexactFloat64(),
				})
				s, ok := items[d.Item]
				if !ok {
					s = &itemSum{}
					items[d.Item] = s
				}
				s.count = s.count.Add(count)
				s.value = s.value.Add(value)
				charValue = charValue.Add(value)
			}
		}
		res.Characters = append(res.Characters, CharacterTotal{
			Character:     ch.Name,
			Clears:        len(ch.Clears),
			ExpectedValue: charValue.InexactFloat64(),
		})
		total = total.Add(charValue)
	}

	for _, name := range sortedKeys(items) {
		s := items[name]
		res.Items = append(res.Items, ItemTotal{
			Item:          name,
			ExpectedCount: s.count.InexactFloat64(),
			ExpectedValue: s.value.InexactFloat64(),
		})
	}
	res.Normalized = sortedKeys(a.normalized)
	res.Total = total.InexactFloat64()
	return res, nil
}

// rate applies the lookup priority: clear-specific override, then the
// global item override, then the table rate under the capped linear law.
func (a *aggregator) rate(cl Clear, d Drop) (float64, RateSource) {
	if r, ok := a.overrides[overrideKey{cl.Boss, cl.Difficulty, d.Item}]; ok {
		return clamp01(r), RateSourceOverride
	}
	if r, ok := a.req.ItemRates[d.Item]; ok {
		return clamp01(r), RateSourceItem
	}
	return drop.CappedLinearRate(d.Rate, a.req.DropRateBonusPercent), RateSourceTable
}

// unitValue is what one copy of item is worth to the owner. Sellable items
// lose the marketplace fee; boxes are worth the weighted mean of their
// contents.
func (a *aggregator) unitValue(name string) decimal.Decimal {
	if v, ok := a.values[name]; ok {
		return v
	}
	it := a.table.Items[name]
	var v decimal.Decimal
	if len(it.Box) > 0 {
		v = a.boxValue(name, it.Box)
	} else {
		price := it.Price
		if p, ok := a.req.Prices[name]; ok {
			price = p
		}
		v = decimal.NewFromFloat(price)
		if it.Sellable {
			v = pricing.AfterFee(v, a.req.FeePercent)
		}
	}
	a.values[name] = v
	return v
}

func (a *aggregator) boxValue(name string, box []BoxEntry) decimal.Decimal {
	sum := 0.0
	for _, e := range box {
		sum += e.Weight
	}
	if sum <= 0 {
		return decimal.Zero
	}
	if math.Abs(sum-1) > normTolerance {
		a.normalized[name] = true
	}
	total := decimal.NewFromFloat(sum)
	v := decimal.Zero
	for _, e := range box {
		w := decimal.NewFromFloat(e.Weight).Div(total)
		v = v.Add(w.Mul(a.unitValue(e.Item)))
	}
	return v
}

func clamp01(x float64) float64 {
	return math.Min(1, math.Max(0, x))
}

// SortExpectations orders expectations by descending value, then by name.
func SortExpectations(xs []Expectation) {
	sort.SliceStable(xs, func(i, j int) bool {
		if xs[i].ExpectedValue != xs[j].ExpectedValue {
			return xs[i].ExpectedValue > xs[j].ExpectedValue
		}
		return xs[i].Item < xs[j].Item
	})
}
