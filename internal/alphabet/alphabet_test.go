package alphabet

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/xtding233/maplecalc/internal/chance"
)

func eventRules() Rules {
	return Rules{
		Tiers: [numTiers]TierRule{
			High: {Symbols: []string{"J", "Q", "X", "Z"}, Target: 2},
			Mid:  {Symbols: []string{"B", "C", "K", "V", "W"}, Target: 3},
			Low:  {Symbols: []string{"A", "E", "L", "M", "O", "P", "S", "T"}, Target: 5},
		},
		OtherLowVariety: 9,
		NormalSplit:     NormalSplit{Mid: 0.2, Low: 0.8, LowTargetFraction: 0.5},
		GroupSize:       5,
		CombineOdds:     [numTiers]float64{0.1, 0.3, 0.6},
		DustYield: [numTiers]DustAmount{
			{Kind: DustPremium, Amount: 2},
			{Kind: DustNormal, Amount: 3},
			{Kind: DustNormal, Amount: 1},
		},
		CraftCost: [numTiers]DustAmount{
			{Kind: DustPremium, Amount: 10},
			{Kind: DustNormal, Amount: 15},
			{Kind: DustNormal, Amount: 5},
		},
		MaxRounds: DefaultMaxRounds,
	}
}

// coinRules make success with one premium and n normal units equal to the
// chance that n fair coin flips show both faces.
func coinRules() Rules {
	return Rules{
		Tiers: [numTiers]TierRule{
			High: {Symbols: []string{"A"}, Target: 1},
			Mid:  {Symbols: []string{"B"}, Target: 1},
			Low:  {Symbols: []string{"C"}, Target: 1},
		},
		NormalSplit: NormalSplit{Mid: 0.5, Low: 0.5, LowTargetFraction: 1},
		GroupSize:   5,
		CombineOdds: [numTiers]float64{1, 1, 1},
		DustYield: [numTiers]DustAmount{
			{Kind: DustPremium}, {Kind: DustNormal}, {Kind: DustNormal},
		},
		CraftCost: [numTiers]DustAmount{
			{Kind: DustPremium, Amount: 1000}, {Kind: DustNormal, Amount: 1000}, {Kind: DustNormal, Amount: 1000},
		},
	}
}

func complete(r Rules) map[string]int {
	out := make(map[string]int)
	for _, tr := range r.Tiers {
		for _, s := range tr.Symbols {
			out[s] = tr.Target
		}
	}
	return out
}

func newSim(t *testing.T, r Rules) *Simulator {
	t.Helper()
	sim, err := New(r)
	require.NoError(t, err)
	return sim
}

func TestWaterfall_Cascade(t *testing.T) {
	c := Waterfall(12, 3, 0, 5)
	assert.Equal(t, Combinations{High: 2, Mid: 1, Low: 0, Residual: 0}, c)
	assert.Equal(t, 3, c.Total())
}

func TestWaterfall_NoUpwardFlow(t *testing.T) {
	c := Waterfall(0, 0, 14, 5)
	assert.Equal(t, Combinations{Low: 2, Residual: 4}, c)
	c = Waterfall(4, 0, 0, 5)
	assert.Equal(t, Combinations{Residual: 4}, c)
}

func TestWaterfall_ConservesUnits(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		h := rapid.IntRange(0, 500).Draw(rt, "high")
		m := rapid.IntRange(0, 500).Draw(rt, "mid")
		l := rapid.IntRange(0, 500).Draw(rt, "low")
		g := rapid.IntRange(1, 10).Draw(rt, "group")
		c := Waterfall(h, m, l, g)
		if c.Total()*g+c.Residual != h+m+l {
			rt.Fatalf("units not conserved: %+v", c)
		}
		if c.High != h/g || c.Residual >= g {
			rt.Fatalf("bad cascade: %+v", c)
		}
	})
}

func TestRulesValidate(t *testing.T) {
	require.NoError(t, eventRules().Validate())

	r := eventRules()
	r.GroupSize = 0
	r.Tiers[Mid].Symbols = append(r.Tiers[Mid].Symbols, "J")
	err := r.Validate()
	require.ErrorIs(t, err, ErrInvalidRules)
	assert.Contains(t, err.Error(), "group_size")
	assert.Contains(t, err.Error(), `"J"`)

	_, err = New(r)
	assert.ErrorIs(t, err, ErrInvalidRules)
}

func TestTierOf(t *testing.T) {
	r := eventRules()
	tier, ok := r.TierOf("K")
	require.True(t, ok)
	assert.Equal(t, Mid, tier)
	_, ok = r.TierOf("D")
	assert.False(t, ok)
	assert.Equal(t, "low", Low.String())
}

func TestOpenNormalSplit(t *testing.T) {
	sim := newSim(t, eventRules())
	tr := sim.newTrial(Start{}, chance.NewSeededRNG(11))
	const n = 100_000
	for i := 0; i < n; i++ {
		tr.openNormal()
	}
	var mid, low int
	for i, c := range tr.counts {
		switch {
		case i >= sim.offset[Low]:
			low += c
		case i >= sim.offset[Mid]:
			mid += c
		}
	}
	assert.Equal(t, n, mid+low+tr.otherLow)
	// Mid 0.2, then half of the remaining 0.8 lands on a target Low symbol
	assert.InDelta(t, 0.2, float64(mid)/n, 0.01)
	assert.InDelta(t, 0.4, float64(low)/n, 0.01)
	assert.InDelta(t, 0.4, float64(tr.otherLow)/n, 0.01)
}

func TestRulesValidateRejectsNaNSplit(t *testing.T) {
	r := eventRules()
	r.NormalSplit.Mid = math.NaN()
	assert.Error(t, r.Validate())
	r = eventRules()
	r.NormalSplit.LowTargetFraction = math.NaN()
	assert.Error(t, r.Validate())
}

func TestTrial_AlreadyComplete(t *testing.T) {
	r := eventRules()
	res := newSim(t, r).Trial(Start{Alphabets: complete(r)}, chance.NewSeededRNG(1))
	assert.True(t, res.Success)
	assert.Zero(t, res.Shortage)
	assert.Zero(t, res.Rounds)
}

func TestTrial_NothingToWorkWith(t *testing.T) {
	res := newSim(t, eventRules()).Trial(Start{}, chance.NewSeededRNG(1))
	assert.False(t, res.Success)
	assert.Equal(t, 4*2+5*3+8*5, res.Shortage)
	assert.Zero(t, res.Combinations)
}

func TestTrial_CraftsFromCombinationDust(t *testing.T) {
	r := eventRules()
	have := complete(r)
	have["Q"] = 1
	have["D"] = 5 // not a target: becomes low fodder for one combination
	res := newSim(t, r).Trial(Start{Alphabets: have, Dust: Dust{Premium: 10}}, chance.NewSeededRNG(3))

	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Crafted)
	assert.Equal(t, 1, res.Combinations)
	assert.Equal(t, 1, res.Rounds)
	assert.Equal(t, Dust{Normal: 1}, res.Dust, "premium spent, low combination yields one normal dust")
}

func TestTrial_StallWithoutCombination(t *testing.T) {
	r := eventRules()
	have := complete(r)
	have["Q"] = 1
	// enough dust to craft, but no surplus means no round ever runs
	res := newSim(t, r).Trial(Start{Alphabets: have, Dust: Dust{Premium: 10}}, chance.NewSeededRNG(3))
	assert.False(t, res.Success)
	assert.Equal(t, 1, res.Shortage)
}

func TestTrial_ShortageNeverNegative(t *testing.T) {
	sim := newSim(t, eventRules())
	rapid.Check(t, func(rt *rapid.T) {
		start := Start{
			Premium:  rapid.IntRange(0, 60).Draw(rt, "premium"),
			Normal:   rapid.IntRange(0, 400).Draw(rt, "normal"),
			OtherLow: rapid.IntRange(0, 50).Draw(rt, "other"),
			Dust: Dust{
				Normal:  rapid.IntRange(0, 200).Draw(rt, "dust_normal"),
				Premium: rapid.IntRange(0, 50).Draw(rt, "dust_premium"),
			},
		}
		res := sim.Trial(start, chance.NewSeededRNG(rapid.Uint64().Draw(rt, "seed")))
		if res.Shortage < 0 || res.Success != (res.Shortage == 0) {
			rt.Fatalf("inconsistent result %+v", res)
		}
		if res.Rounds > DefaultMaxRounds || res.Dust.Normal < 0 || res.Dust.Premium < 0 {
			rt.Fatalf("bounds violated %+v", res)
		}
	})
}

func TestSimulate_Deterministic(t *testing.T) {
	sim := newSim(t, eventRules())
	start := Start{Premium: 20, Normal: 300}
	opts := Options{Iterations: 400, Workers: 4, Seed: 11}
	a, err := sim.Simulate(context.Background(), start, opts)
	require.NoError(t, err)
	b, err := sim.Simulate(context.Background(), start, opts)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, uint64(11), a.Seed)
	assert.InDelta(t, float64(a.Successes)/400, a.Probability, 1e-12)
}

func TestSimulate_Progress(t *testing.T) {
	sim := newSim(t, coinRules())
	var calls, last int
	_, err := sim.Simulate(context.Background(), Start{Premium: 1, Normal: 2}, Options{
		Iterations:    1000,
		Workers:       3,
		Seed:          5,
		ProgressEvery: 100,
		Progress: func(done, total int) {
			calls++
			assert.Equal(t, 1000, total)
			assert.Greater(t, done, last)
			last = done
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 10, calls)
	assert.Equal(t, 1000, last)
}

func TestSimulate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newSim(t, eventRules()).Simulate(ctx, Start{Normal: 100}, Options{Iterations: 100, Seed: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSimulate_RejectsZeroIterations(t *testing.T) {
	_, err := newSim(t, eventRules()).Simulate(context.Background(), Start{}, Options{})
	assert.Error(t, err)
}

func TestSimulate_Convergence(t *testing.T) {
	sim := newSim(t, coinRules())
	start := Start{Premium: 1, Normal: 2} // exact success probability 0.5
	ctx := context.Background()

	const runs = 40
	var sum, sumSq float64
	var se100 float64
	for i := 0; i < runs; i++ {
		est, err := sim.Simulate(ctx, start, Options{Iterations: 100, Seed: uint64(1000 + i)})
		require.NoError(t, err)
		sum += est.Probability
		sumSq += est.Probability * est.Probability
		se100 += est.StdErr
	}
	mean := sum / runs
	spread := math.Sqrt(sumSq/runs - mean*mean)
	se100 /= runs

	big, err := sim.Simulate(ctx, start, Options{Iterations: 10000, Workers: 4, Seed: 77})
	require.NoError(t, err)

	assert.InDelta(t, 0.5, big.Probability, 0.02)
	assert.InDelta(t, big.Probability, mean, 0.04)
	assert.InDelta(t, 0.05, se100, 0.005)
	assert.InDelta(t, 0.005, big.StdErr, 0.0005)
	assert.Greater(t, spread, 0.02)
	assert.Less(t, spread, 0.09)
}

func TestPrecisionIterations(t *testing.T) {
	assert.Equal(t, 1000, PrecisionLow.Iterations())
	assert.Equal(t, 2000, PrecisionMedium.Iterations())
	assert.Equal(t, 3000, PrecisionHigh.Iterations())
	assert.Equal(t, 2000, Precision("").Iterations())
}
