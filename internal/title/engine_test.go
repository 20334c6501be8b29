package title

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSolve_ScenarioA(t *testing.T) {
	res, err := Solve(context.Background(), Params{Start: 0, Cards: mapleCards})
	require.NoError(t, err)

	assert.False(t, res.Truncated)
	assert.Greater(t, res.Cumulative, CompletionThreshold)
	assert.False(t, math.IsInf(res.ExpectedResets, 0) || math.IsNaN(res.ExpectedResets))
	assert.Positive(t, res.ExpectedResets)
	assert.GreaterOrEqual(t, res.ExpectedCost, res.ExpectedResets)

	// the slowest slot alone needs 109 rerolls on average
	assert.Greater(t, res.ExpectedResets, 109.0)
	assert.Less(t, res.ExpectedResets, 93.0+95+109)
}

func TestSolve_SingleSlotGeometric(t *testing.T) {
	res, err := Solve(context.Background(), Params{Start: SlotX | SlotY, Cards: Cardinalities{10, 10, 4}})
	require.NoError(t, err)

	assert.InDelta(t, 4.0, res.ExpectedResets, 0.01)
	assert.InDelta(t, 16.0, res.ExpectedCost, 0.04, "every reroll costs 4 with two locks")
	assert.Equal(t, 3.0, res.Resets.P50)
	assert.Equal(t, 12.0, res.Cost.P50)
	assert.InDelta(t, 0.25, res.Distribution[0].Probability, 1e-12)
	assert.InDelta(t, 0.1875, res.Distribution[1].Probability, 1e-12)
}

func TestSolve_TerminalStart(t *testing.T) {
	res, err := Solve(context.Background(), Params{Start: Terminal, Cards: mapleCards})
	require.NoError(t, err)
	assert.Empty(t, res.Distribution)
	assert.Zero(t, res.ExpectedResets)
	assert.Zero(t, res.ExpectedCost)
	assert.Equal(t, 1.0, res.Cumulative)
}

func TestSolve_Truncated(t *testing.T) {
	res, err := Solve(context.Background(), Params{Start: 0, Cards: mapleCards, MaxIterations: 5})
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Len(t, res.Distribution, 5)
	assert.Less(t, res.Cumulative, CompletionThreshold)
	assert.Equal(t, 5.0, res.Resets.P99, "unresolved percentiles fall back to the last turn")
}

func TestSolve_RejectsInput(t *testing.T) {
	_, err := Solve(context.Background(), Params{Cards: Cardinalities{0, 1, 1}})
	assert.ErrorIs(t, err, ErrInvalidCardinality)

	_, err = Solve(context.Background(), Params{Start: 9, Cards: mapleCards})
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = Solve(context.Background(), Params{Cards: mapleCards, CostMode: "guess"})
	assert.ErrorIs(t, err, ErrInvalidCostMode)
}

func TestSolve_PercentileOrdering(t *testing.T) {
	for _, mode := range []CostMode{CostExact, CostStaged} {
		for s := State(0); s < Terminal; s++ {
			res, err := Solve(context.Background(), Params{Start: s, Cards: Cardinalities{12, 15, 20}, CostMode: mode})
			require.NoError(t, err)
			assert.LessOrEqual(t, res.Resets.P50, res.Resets.P90, "%s %v", mode, s)
			assert.LessOrEqual(t, res.Resets.P90, res.Resets.P99, "%s %v", mode, s)
			assert.LessOrEqual(t, res.Cost.P50, res.Cost.P90, "%s %v", mode, s)
			assert.LessOrEqual(t, res.Cost.P90, res.Cost.P99, "%s %v", mode, s)
		}
	}
}

func TestSolve_CumulativeMonotonic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := Params{
			Start: State(rapid.IntRange(0, int(Terminal)-1).Draw(rt, "start")),
			Cards: Cardinalities{
				rapid.IntRange(1, 30).Draw(rt, "x"),
				rapid.IntRange(1, 30).Draw(rt, "y"),
				rapid.IntRange(1, 30).Draw(rt, "z"),
			},
			MaxIterations: rapid.IntRange(1, 300).Draw(rt, "cap"),
			CostMode:      rapid.SampledFrom([]CostMode{CostExact, CostStaged}).Draw(rt, "mode"),
		}
		res, err := Solve(context.Background(), p)
		if err != nil {
			rt.Fatal(err)
		}
		prev := 0.0
		for _, step := range res.Distribution {
			if step.Cumulative < prev || step.Cumulative < 0 || step.Cumulative > 1 {
				rt.Fatalf("turn %d cumulative %v after %v", step.Turn, step.Cumulative, prev)
			}
			prev = step.Cumulative
		}
		if len(res.Distribution) > p.MaxIterations {
			rt.Fatalf("distribution longer than cap")
		}
	})
}

// expectedCostByStates recomputes the exact expected cost without joint
// tracking: each turn spent in state s costs schedule(s) times the mass in s.
func expectedCostByStates(t *testing.T, start State, cards Cardinalities, turns int) float64 {
	t.Helper()
	table, err := NewTransitionTable(cards)
	require.NoError(t, err)
	var mass [NumStates]float64
	mass[start] = 1
	var cost float64
	for i := 0; i < turns; i++ {
		var next [NumStates]float64
		for s := State(0); s < Terminal; s++ {
			cost += mass[s] * float64(DefaultCostSchedule.For(s.Locked()))
			for _, e := range table.From(s) {
				next[e.To] += mass[s] * e.P
			}
		}
		next[Terminal] = 0
		mass = next
	}
	return cost
}

func TestSolve_ExactCostMatchesStateSum(t *testing.T) {
	cards := Cardinalities{5, 7, 9}
	res, err := Solve(context.Background(), Params{Start: 0, Cards: cards, MaxIterations: 4000})
	require.NoError(t, err)
	want := expectedCostByStates(t, 0, cards, len(res.Distribution))
	// the state sum also charges rerolls that have not completed yet
	assert.InDelta(t, want, res.ExpectedCost, want*5e-3)
}

func TestSolve_StagedCloseToExact(t *testing.T) {
	exact, err := Solve(context.Background(), Params{Start: 0, Cards: mapleCards})
	require.NoError(t, err)
	staged, err := Solve(context.Background(), Params{Start: 0, Cards: mapleCards, CostMode: CostStaged})
	require.NoError(t, err)

	assert.InDelta(t, exact.ExpectedResets, staged.ExpectedResets, 1e-9)
	require.NotNil(t, staged.Staged)
	assert.InEpsilon(t, exact.ExpectedCost, staged.ExpectedCost, 0.25)
	assert.Empty(t, staged.CostDistribution)
}

func TestStagedEstimator(t *testing.T) {
	est, err := NewStagedEstimator(SlotX|SlotY, Cardinalities{1, 1, 4}, DefaultCostSchedule)
	require.NoError(t, err)
	assert.Equal(t, [NumSlots]float64{0, 0, 4}, est.Phases)
	assert.Equal(t, 40.0, est.Cost(10))

	est, err = NewStagedEstimator(0, Cardinalities{1, 1, 1}, DefaultCostSchedule)
	require.NoError(t, err)
	// one turn per phase under the single-lock approximation
	assert.InDelta(t, 1.0+2+4, est.Cost(3), 1e-9)
	assert.InDelta(t, 1.0+2+4*5, est.Cost(7), 1e-9)
}

func TestSolve_ScenarioAWithinDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	res, err := Solve(ctx, Params{Start: 0, Cards: Cardinalities{109, 109, 109}})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Cumulative, CompletionThreshold)
}

func TestSolve_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, mode := range []CostMode{CostExact, CostStaged} {
		_, err := Solve(ctx, Params{Start: 0, Cards: mapleCards, CostMode: mode})
		require.ErrorIs(t, err, context.Canceled, mode)
	}
}

func TestSolve_StopsAtDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := Solve(ctx, Params{Start: 0, Cards: Cardinalities{100000, 100000, 100000}, MaxIterations: 100000})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestGrowReslicesWithinCapacity(t *testing.T) {
	xs := make([]float64, 2, 8)
	xs[1] = 3
	got := grow(xs, 5)
	require.Len(t, got, 6)
	assert.Equal(t, 8, cap(got))
	assert.Same(t, &xs[0], &got[0])
	assert.Equal(t, []float64{0, 3, 0, 0, 0, 0}, got)

	got = grow(got, 20)
	assert.Len(t, got, 21)
	assert.Equal(t, 3.0, got[1])
}

func BenchmarkSolve(b *testing.B) {
	for _, mode := range []CostMode{CostExact, CostStaged} {
		b.Run(string(mode), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := Solve(context.Background(), Params{Start: 0, Cards: mapleCards, CostMode: mode}); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
