package calc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xtding233/maplecalc/internal/alphabet"
	"github.com/xtding233/maplecalc/internal/boss"
	"github.com/xtding233/maplecalc/internal/config"
	"github.com/xtding233/maplecalc/internal/drop"
	"github.com/xtding233/maplecalc/internal/observability"
	"github.com/xtding233/maplecalc/internal/tables"
)

type staticTables struct{ t *tables.Tables }

func (s staticTables) Get() *tables.Tables { return s.t }

func newTestService(t *testing.T) (*Service, *observability.Metrics) {
	t.Helper()
	tb, err := tables.NewLoader("").Load()
	require.NoError(t, err)
	m := observability.NewMetrics(prometheus.NewRegistry())
	return NewService(staticTables{tb}, config.Default().Simulation, zap.NewNop(), m), m
}

func requireViolation(t *testing.T, err error, field string) {
	t.Helper()
	var ce *ConfigurationError
	require.True(t, errors.As(err, &ce), "want ConfigurationError, got %v", err)
	for _, v := range ce.Violations {
		if v.Field == field {
			return
		}
	}
	t.Fatalf("no violation for %q in %v", field, ce.Violations)
}

func TestHunt(t *testing.T) {
	s, m := newTestService(t)
	res, err := s.Hunt(context.Background(), drop.HuntInput{MonsterLevel: 91, KillsPerHour: 1000})
	require.NoError(t, err)
	assert.InDelta(t, 682.5, res.MesoPerKill, 1e-9)
	assert.InDelta(t, 682_500, res.MesoPerHour, 1e-6)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Calculations.WithLabelValues(CalcHunt, observability.ResultOK)))
}

func TestHuntRejectsNegative(t *testing.T) {
	s, m := newTestService(t)
	_, err := s.Hunt(context.Background(), drop.HuntInput{MonsterLevel: -1, KillsPerHour: -5})
	requireViolation(t, err, "monster_level")
	requireViolation(t, err, "kills_per_hour")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Calculations.WithLabelValues(CalcHunt, observability.ResultInvalid)))
}

func TestBreakeven(t *testing.T) {
	s, _ := newTestService(t)
	res, err := s.Breakeven(context.Background(), drop.BreakevenInput{
		MonsterLevel:          200,
		KillsPerHour:          20000,
		ExtraMesoBonusPercent: 20,
		BuffCost:              1_000_000,
	})
	require.NoError(t, err)
	assert.True(t, res.Reachable)
	assert.Positive(t, res.Kills)
}

func TestTitleWithPlans(t *testing.T) {
	s, _ := newTestService(t)
	res, err := s.Title(context.Background(), TitleRequest{
		Cardinalities: []int{3, 4, 5},
		Budget:        50_000,
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.ExpectedCost, res.ExpectedResets)
	require.Len(t, res.Plans, 3)
	for i, p := range res.Plans {
		assert.GreaterOrEqual(t, p.Plan.TotalUnits, p.Units)
		if i > 0 {
			assert.GreaterOrEqual(t, p.Units, res.Plans[i-1].Units)
		}
	}
	require.NotNil(t, res.Budget)
	assert.Positive(t, res.Budget.Units)
	assert.GreaterOrEqual(t, res.Budget.Probability, 0.0)
	assert.LessOrEqual(t, res.Budget.Probability, 1.0)
	assert.Equal(t, "Title Reroll Scroll", res.UnitName)
}

func TestTitleStagedBudgetProbability(t *testing.T) {
	s, _ := newTestService(t)
	exact, err := s.Title(context.Background(), TitleRequest{Cardinalities: []int{2, 2, 2}})
	require.NoError(t, err)
	staged, err := s.Title(context.Background(), TitleRequest{Cardinalities: []int{2, 2, 2}, CostMode: "staged"})
	require.NoError(t, err)

	assert.Equal(t, 0.0, CompletionWithin(exact.Result, 0))
	assert.InDelta(t, 1.0, CompletionWithin(exact.Result, 1_000_000), 1e-3)
	assert.InDelta(t, 1.0, CompletionWithin(staged.Result, 1_000_000), 1e-3)
}

func TestTitleRejectsBadInput(t *testing.T) {
	s, _ := newTestService(t)
	_, err := s.Title(context.Background(), TitleRequest{Start: [3]int{2, 0, 0}, Cardinalities: []int{0, 1}, CostMode: "fast"})
	requireViolation(t, err, "start[0]")
	requireViolation(t, err, "cardinalities")
	requireViolation(t, err, "cost_mode")
}

func TestTitleTerminalStart(t *testing.T) {
	s, _ := newTestService(t)
	res, err := s.Title(context.Background(), TitleRequest{Start: [3]int{1, 1, 1}})
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Cumulative)
	assert.Empty(t, res.Plans)
}

func TestTitleStopsAtDeadline(t *testing.T) {
	s, m := newTestService(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := s.Title(ctx, TitleRequest{
		Cardinalities: []int{100_000, 100_000, 100_000},
		MaxIterations: 100_000,
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Calculations.WithLabelValues(CalcTitle, observability.ResultError)))
}

func TestTitleRejectsHugeCardinality(t *testing.T) {
	s, _ := newTestService(t)
	_, err := s.Title(context.Background(), TitleRequest{Cardinalities: []int{10, 10, 2_000_000}})
	requireViolation(t, err, "cardinalities[2]")
}

func TestAlphabetRejectsHugeUnitCounts(t *testing.T) {
	s, _ := newTestService(t)
	_, err := s.Alphabet(context.Background(), AlphabetRequest{
		Start: alphabet.Start{Premium: 200_000, Normal: 2_000_000_000, OtherLow: 100_001},
	}, nil)
	requireViolation(t, err, "start.premium")
	requireViolation(t, err, "start.normal")
	requireViolation(t, err, "start.other_low")

	_, err = s.AlphabetRequired(context.Background(), RequiredRequest{
		Channel: "normal",
		Targets: []float64{0.5},
		High:    5_000_000,
	})
	requireViolation(t, err, "high")

	_, err = s.AlphabetSweep(context.Background(), SweepRequest{Channel: "normal", To: 1_000_000, Step: 1})
	requireViolation(t, err, "to")
}

func TestAlphabet(t *testing.T) {
	s, m := newTestService(t)
	req := AlphabetRequest{
		Start:      alphabet.Start{Premium: 40, Normal: 400},
		Iterations: 300,
		Seed:       42,
	}
	var calls int
	a, err := s.Alphabet(context.Background(), req, func(done, total int) {
		calls++
		assert.Equal(t, 300, total)
	})
	require.NoError(t, err)
	b, err := s.Alphabet(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, 300, a.Iterations)
	assert.Equal(t, a.Probability, b.Probability)
	assert.Positive(t, calls)
	assert.Equal(t, 600.0, testutil.ToFloat64(m.Trials))
}

func TestAlphabetPrecisionDefault(t *testing.T) {
	s, _ := newTestService(t)
	est, err := s.Alphabet(context.Background(), AlphabetRequest{Precision: "low", Seed: 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1000, est.Iterations)
	assert.Equal(t, 0.0, est.Probability) // nothing to open
}

func TestAlphabetCancelled(t *testing.T) {
	s, m := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Alphabet(ctx, AlphabetRequest{Start: alphabet.Start{Normal: 100}}, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Calculations.WithLabelValues(CalcAlphabet, observability.ResultError)))
}

func TestAlphabetSweep(t *testing.T) {
	s, _ := newTestService(t)
	points, err := s.AlphabetSweep(context.Background(), SweepRequest{
		Start:      alphabet.Start{Normal: 300},
		Channel:    "premium",
		From:       0,
		To:         40,
		Step:       20,
		Iterations: 50,
		Seed:       7,
	})
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, 40, points[2].Units)

	_, err = s.AlphabetSweep(context.Background(), SweepRequest{Channel: "normal", To: 10_000, Step: 1})
	requireViolation(t, err, "step")

	_, err = s.AlphabetSweep(context.Background(), SweepRequest{Channel: "gold", From: 5, To: 1, Step: 1})
	requireViolation(t, err, "channel")
	requireViolation(t, err, "to")
}

func TestAlphabetRequired(t *testing.T) {
	s, _ := newTestService(t)
	res, err := s.AlphabetRequired(context.Background(), RequiredRequest{
		Start:      alphabet.Start{Premium: 60},
		Channel:    "normal",
		Targets:    []float64{0.5},
		High:       2000,
		Iterations: 40,
		Seed:       3,
	})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.LessOrEqual(t, res[0].Units, 2000)

	_, err = s.AlphabetRequired(context.Background(), RequiredRequest{Channel: "normal", Targets: []float64{1.5}, High: 10})
	requireViolation(t, err, "targets[0]")
}

func TestBoss(t *testing.T) {
	s, _ := newTestService(t)
	res, err := s.Boss(context.Background(), boss.Request{
		FeePercent: 3,
		Characters: []boss.Character{{
			Name:   "main",
			Clears: []boss.Clear{{Boss: "lotus", Difficulty: "hard", PartySize: 2}},
		}},
	})
	require.NoError(t, err)
	assert.Positive(t, res.Total)
	require.Len(t, res.Characters, 1)

	_, err = s.Boss(context.Background(), boss.Request{
		Characters: []boss.Character{{Name: "main", Clears: []boss.Clear{{Boss: "lotus", Difficulty: "chaos"}}}},
	})
	requireViolation(t, err, "characters")

	_, err = s.Boss(context.Background(), boss.Request{FeePercent: 120})
	requireViolation(t, err, "characters")
	requireViolation(t, err, "fee_percent")
}
