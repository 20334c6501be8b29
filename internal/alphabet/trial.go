package alphabet

import (
	"github.com/xtding233/maplecalc/internal/chance"
)

// Start is the caller's current holdings plus the units still to be opened.
type Start struct {
	Premium   int            `json:"premium" validate:"gte=0,lte=100000"` // channel A: each unit yields a High symbol
	Normal    int            `json:"normal" validate:"gte=0,lte=100000"`  // channel B: Mid / Low target / other low
	Alphabets map[string]int `json:"alphabets" validate:"omitempty,dive,gte=0,lte=100000"`
	OtherLow  int            `json:"other_low" validate:"gte=0,lte=100000"`
	Dust      Dust           `json:"dust"`
}

// TrialResult is the end state of one trial.
type TrialResult struct {
	Success      bool `json:"success"`
	Shortage     int  `json:"shortage"`
	Rounds       int  `json:"rounds"`
	Combinations int  `json:"combinations"`
	Crafted      int  `json:"crafted"`
	Dust         Dust `json:"dust"`
}

// Simulator runs trials against a validated rule set. It holds no per-trial
// state and is safe for concurrent use.
type Simulator struct {
	rules  Rules
	offset [numTiers]int // first index of each tier in the count slice
	total  int
	index  map[string]int

	// midShare is the chance a normal unit resolves to the Mid tier.
	midShare float64
}

// New validates rules and precomputes the symbol layout.
func New(rules Rules) (*Simulator, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if rules.MaxRounds == 0 {
		rules.MaxRounds = DefaultMaxRounds
	}
	s := &Simulator{rules: rules, index: make(map[string]int)}
	ns := rules.NormalSplit
	s.midShare = ns.Mid / (ns.Mid + ns.Low)
	for t := High; t < numTiers; t++ {
		s.offset[t] = s.total
		for _, sym := range rules.Tiers[t].Symbols {
			s.index[sym] = s.total
			s.total++
		}
	}
	return s, nil
}

func (s *Simulator) Rules() Rules { return s.rules }

type trial struct {
	sim      *Simulator
	counts   []int
	otherLow int
	dust     Dust
	rng      chance.RandomSource
	res      TrialResult
}

func (s *Simulator) newTrial(start Start, rng chance.RandomSource) *trial {
	t := &trial{
		sim:      s,
		counts:   make([]int, s.total),
		otherLow: start.OtherLow,
		dust:     start.Dust,
		rng:      rng,
	}
	for sym, n := range start.Alphabets {
		if i, ok := s.index[sym]; ok {
			t.counts[i] += n
		} else {
			// anything that is not a target symbol is low-tier fodder
			t.otherLow += n
		}
	}
	return t
}

// Trial runs one complete trial.
func (s *Simulator) Trial(start Start, rng chance.RandomSource) TrialResult {
	if rng == nil {
		rng = chance.DefaultRNG()
	}
	t := s.newTrial(start, rng)
	for i := 0; i < start.Premium; i++ {
		t.addRandom(High)
	}
	for i := 0; i < start.Normal; i++ {
		t.openNormal()
	}
	t.resolve()
	return t.res
}

func (t *trial) tierSize(tier Tier) int { return len(t.sim.rules.Tiers[tier].Symbols) }

// addRandom adds a uniformly chosen symbol of tier. For Low the draw spans
// the other-low variety as well.
func (t *trial) addRandom(tier Tier) {
	n := t.tierSize(tier)
	if tier == Low {
		k := t.rng.IntN(n + t.sim.rules.OtherLowVariety)
		if k >= n {
			t.otherLow++
			return
		}
		t.counts[t.sim.offset[Low]+k]++
		return
	}
	t.counts[t.sim.offset[tier]+t.rng.IntN(n)]++
}

// openNormal resolves one normal unit: Mid, then a Low target symbol, then
// other-low fodder. Both shares were validated in New, so Draw cannot fail.
func (t *trial) openNormal() {
	if mid, _ := chance.Draw(t.sim.midShare, t.rng); mid {
		t.addRandom(Mid)
		return
	}
	if target, _ := chance.Draw(t.sim.rules.NormalSplit.LowTargetFraction, t.rng); target {
		t.counts[t.sim.offset[Low]+t.rng.IntN(t.tierSize(Low))]++
		return
	}
	t.otherLow++
}

func (t *trial) target(i int) int {
	for tier := Low; tier >= High; tier-- {
		if i >= t.sim.offset[tier] {
			return t.sim.rules.Tiers[tier].Target
		}
	}
	return 0
}

func (t *trial) shortage() int {
	short := 0
	for i, c := range t.counts {
		if d := t.target(i) - c; d > 0 {
			short += d
		}
	}
	return short
}

// extractSurplus clamps every symbol at its target and returns what was
// removed per tier; the other-low pool joins the Low surplus.
func (t *trial) extractSurplus() [numTiers]int {
	var surplus [numTiers]int
	for tier := High; tier < numTiers; tier++ {
		target := t.sim.rules.Tiers[tier].Target
		lo := t.sim.offset[tier]
		for i := lo; i < lo+t.tierSize(tier); i++ {
			if extra := t.counts[i] - target; extra > 0 {
				surplus[tier] += extra
				t.counts[i] = target
			}
		}
	}
	surplus[Low] += t.otherLow
	t.otherLow = 0
	return surplus
}

// craft spends dust on missing symbols, High first.
func (t *trial) craft() {
	for tier := High; tier < numTiers; tier++ {
		cost := t.sim.rules.CraftCost[tier]
		target := t.sim.rules.Tiers[tier].Target
		lo := t.sim.offset[tier]
		for i := lo; i < lo+t.tierSize(tier); i++ {
			short := target - t.counts[i]
			if short <= 0 {
				continue
			}
			n := t.dust.balance(cost.Kind) / cost.Amount
			if n > short {
				n = short
			}
			if n <= 0 {
				continue
			}
			t.counts[i] += n
			t.dust.add(cost, -n)
			t.res.Crafted += n
		}
	}
}

func (t *trial) resolve() {
	rules := t.sim.rules
	odds := rules.CombineOdds[:]
	for round := 0; ; round++ {
		t.res.Rounds = round
		if t.shortage() == 0 || round == rules.MaxRounds {
			break
		}
		surplus := t.extractSurplus()
		comb := Waterfall(surplus[High], surplus[Mid], surplus[Low], rules.GroupSize)
		t.otherLow += comb.Residual
		if comb.Total() == 0 {
			break
		}
		for tier := High; tier < numTiers; tier++ {
			t.dust.add(rules.DustYield[tier], comb.of(tier))
		}
		t.craft()
		for i := 0; i < comb.Total(); i++ {
			// odds were validated to have a positive entry
			k, _ := chance.Pick(odds, t.rng)
			t.addRandom(Tier(k))
		}
		t.res.Combinations += comb.Total()
	}
	t.res.Shortage = t.shortage()
	t.res.Success = t.res.Shortage == 0
	t.res.Dust = t.dust
}
