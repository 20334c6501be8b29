// Package alphabet estimates the chance of completing the alphabet
// collection event: random acquisition from two channels followed by a
// combination and crafting loop that turns surplus into missing symbols.
package alphabet

import (
	"errors"
	"fmt"
	"strings"
)

// Tier is a rarity class. Order matters: the waterfall and crafting both run
// High → Mid → Low.
type Tier int

const (
	High Tier = iota
	Mid
	Low
	numTiers
)

var tierNames = [numTiers]string{"high", "mid", "low"}

func (t Tier) String() string {
	if t < 0 || t >= numTiers {
		return fmt.Sprintf("tier(%d)", int(t))
	}
	return tierNames[t]
}

// DustKind names one of the two crafting currencies.
type DustKind string

const (
	DustNormal  DustKind = "normal"
	DustPremium DustKind = "premium"
)

// DustAmount is a quantity of one currency.
type DustAmount struct {
	Kind   DustKind `json:"kind" yaml:"kind"`
	Amount int      `json:"amount" yaml:"amount"`
}

// Dust is the two-currency wallet.
type Dust struct {
	Normal  int `json:"normal" yaml:"normal" validate:"gte=0"`
	Premium int `json:"premium" yaml:"premium" validate:"gte=0"`
}

func (d *Dust) add(a DustAmount, times int) {
	switch a.Kind {
	case DustPremium:
		d.Premium += a.Amount * times
	default:
		d.Normal += a.Amount * times
	}
}

func (d Dust) balance(k DustKind) int {
	if k == DustPremium {
		return d.Premium
	}
	return d.Normal
}

// TierRule lists a tier's target symbols and the count wanted of each.
type TierRule struct {
	Symbols []string `json:"symbols" yaml:"symbols"`
	Target  int      `json:"target" yaml:"target"`
}

// NormalSplit is how one normal-channel unit resolves: Mid and Low are
// relative weights; LowTargetFraction of Low results are target symbols and
// the rest are other-low fodder.
type NormalSplit struct {
	Mid               float64 `json:"mid" yaml:"mid"`
	Low               float64 `json:"low" yaml:"low"`
	LowTargetFraction float64 `json:"low_target_fraction" yaml:"low_target_fraction"`
}

// Rules are the fixed event parameters.
type Rules struct {
	Tiers           [numTiers]TierRule   `json:"tiers"`
	OtherLowVariety int                  `json:"other_low_variety"`
	NormalSplit     NormalSplit          `json:"normal_split"`
	GroupSize       int                  `json:"group_size"`
	CombineOdds     [numTiers]float64    `json:"combine_odds"`
	DustYield       [numTiers]DustAmount `json:"dust_yield"`
	CraftCost       [numTiers]DustAmount `json:"craft_cost"`
	MaxRounds       int                  `json:"max_rounds"`
}

const DefaultMaxRounds = 100

var ErrInvalidRules = errors.New("invalid alphabet rules")

// Validate reports every rule violation at once.
func (r Rules) Validate() error {
	var errs []string
	seen := make(map[string]Tier)
	for t := High; t < numTiers; t++ {
		tr := r.Tiers[t]
		if len(tr.Symbols) == 0 {
			errs = append(errs, fmt.Sprintf("%s tier has no symbols", t))
		}
		if tr.Target < 0 {
			errs = append(errs, fmt.Sprintf("%s tier target must be >= 0", t))
		}
		for _, s := range tr.Symbols {
			if prev, dup := seen[s]; dup {
				errs = append(errs, fmt.Sprintf("symbol %q listed in %s and %s", s, prev, t))
			}
			seen[s] = t
		}
		if r.CombineOdds[t] < 0 {
			errs = append(errs, fmt.Sprintf("combine odds for %s must be >= 0", t))
		}
		if r.DustYield[t].Amount < 0 {
			errs = append(errs, fmt.Sprintf("dust yield for %s must be >= 0", t))
		}
		if r.CraftCost[t].Amount <= 0 {
			errs = append(errs, fmt.Sprintf("craft cost for %s must be >= 1", t))
		}
	}
	if r.CombineOdds[High]+r.CombineOdds[Mid]+r.CombineOdds[Low] <= 0 {
		errs = append(errs, "combine odds must have a positive entry")
	}
	if r.OtherLowVariety < 0 {
		errs = append(errs, "other_low_variety must be >= 0")
	}
	if r.GroupSize < 1 {
		errs = append(errs, "group_size must be >= 1")
	}
	ns := r.NormalSplit
	if !(ns.Mid >= 0) || !(ns.Low >= 0) || !(ns.Mid+ns.Low > 0) { // rejects NaN too
		errs = append(errs, "normal_split weights must be >= 0 with a positive sum")
	}
	if !(ns.LowTargetFraction >= 0 && ns.LowTargetFraction <= 1) {
		errs = append(errs, "normal_split.low_target_fraction must be in [0,1]")
	}
	if r.MaxRounds < 0 {
		errs = append(errs, "max_rounds must be >= 0")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRules, strings.Join(errs, "; "))
	}
	return nil
}

// TierOf returns the tier of a target symbol.
func (r Rules) TierOf(symbol string) (Tier, bool) {
	for t := High; t < numTiers; t++ {
		for _, s := range r.Tiers[t].Symbols {
			if s == symbol {
				return t, true
			}
		}
	}
	return 0, false
}
