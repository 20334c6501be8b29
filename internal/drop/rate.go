// Package drop holds the closed-form meso and item drop laws and the hunting
// calculators built on them.
//
// The functions do not reject negative input; values are extrapolated and
// validating them is the caller's job.
package drop

import "math"

const (
	// MesoCoefficient is the meso yield per monster level at 0% bonus.
	MesoCoefficient = 7.5
	// RareBaseRate is the rare item drop chance at 0% item drop bonus.
	RareBaseRate = 0.000425
)

// Model carries the two constants the laws depend on so reference tables can
// replace them without touching the formulas.
type Model struct {
	MesoCoefficient float64 `json:"meso_coefficient" yaml:"meso_coefficient"`
	RareBaseRate    float64 `json:"rare_base_rate" yaml:"rare_base_rate"`
}

func DefaultModel() Model {
	return Model{MesoCoefficient: MesoCoefficient, RareBaseRate: RareBaseRate}
}

type mesoOptions struct {
	potion float64
}

// MesoOption tweaks the meso law.
type MesoOption func(*mesoOptions)

// WithPotionMultiplier applies a flat meso potion multiplier (e.g. 1.2).
// Non-positive values are ignored.
func WithPotionMultiplier(m float64) MesoOption {
	return func(o *mesoOptions) {
		if m > 0 {
			o.potion = m
		}
	}
}

// MesoPerKill = level × coefficient × (1 + bonus/100) × potion.
func (m Model) MesoPerKill(monsterLevel, mesoBonusPercent float64, opts ...MesoOption) float64 {
	o := mesoOptions{potion: 1}
	for _, opt := range opts {
		opt(&o)
	}
	return monsterLevel * m.MesoCoefficient * (1 + mesoBonusPercent/100) * o.potion
}

// RareRate applies logarithmic dampening: base × (1 + ln(1 + bonus/100)).
// Stacked drop bonus has diminishing returns on rare items, unlike the
// capped linear law. Inputs where the result would be negative, or where ln
// is undefined (bonus <= -100), yield 0.
func (m Model) RareRate(itemDropBonusPercent float64) float64 {
	x := 1 + itemDropBonusPercent/100
	if x <= 0 {
		return 0
	}
	r := m.RareBaseRate * (1 + math.Log(x))
	if r < 0 {
		return 0
	}
	return r
}

// ExpectedMesoPerKill evaluates the meso law with the default coefficient.
func ExpectedMesoPerKill(monsterLevel, mesoBonusPercent float64, opts ...MesoOption) float64 {
	return DefaultModel().MesoPerKill(monsterLevel, mesoBonusPercent, opts...)
}

// MesoDropAmount is the floor-truncated meso amount of a single drop.
func MesoDropAmount(monsterLevel, mesoBonusPercent float64, opts ...MesoOption) int64 {
	return int64(math.Floor(ExpectedMesoPerKill(monsterLevel, mesoBonusPercent, opts...)))
}

// ExpectedRareDropRate evaluates the rare drop law with the default base rate.
func ExpectedRareDropRate(itemDropBonusPercent float64) float64 {
	return DefaultModel().RareRate(itemDropBonusPercent)
}

// CappedLinearRate is the generic item drop law: min(1, base × (1 + bonus/100)),
// floored at 0 for extrapolated negative input.
func CappedLinearRate(base, itemDropBonusPercent float64) float64 {
	r := base * (1 + itemDropBonusPercent/100)
	switch {
	case r >= 1:
		return 1
	case r <= 0:
		return 0
	}
	return r
}
