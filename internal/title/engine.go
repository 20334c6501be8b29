package title

import (
	"context"
	"errors"
	"fmt"
)

const (
	DefaultMaxIterations = 2000
	// CompletionThreshold stops the DP once this much mass has completed.
	// Percentiles above it are approximated by the last computed turn.
	CompletionThreshold = 0.9999
)

// CostMode selects how reroll cost is attributed.
type CostMode string

const (
	// CostExact tracks (state, cumulative cost) jointly.
	CostExact CostMode = "exact"
	// CostStaged applies the StagedEstimator to turn counts.
	CostStaged CostMode = "staged"
)

var ErrInvalidCostMode = errors.New("invalid cost mode")

// Params configures one Solve call.
type Params struct {
	Start         State
	Cards         Cardinalities
	MaxIterations int      // <= 0 means DefaultMaxIterations
	CostMode      CostMode // "" means CostExact
	Schedule      *CostSchedule
}

// Step is one turn of the distribution.
type Step struct {
	Turn        int     `json:"turn"`
	Probability float64 `json:"probability"` // first completion exactly at Turn
	Cumulative  float64 `json:"cumulative"`
}

// CostStep is one point of the exact cost distribution.
type CostStep struct {
	Cost        int     `json:"cost"`
	Probability float64 `json:"probability"`
	Cumulative  float64 `json:"cumulative"`
}

type Percentiles struct {
	P50 float64 `json:"p50"`
	P90 float64 `json:"p90"`
	P99 float64 `json:"p99"`
}

// Result is the outcome of Solve. When Truncated is set the distribution
// covers only Cumulative of the mass; percentiles above that fall back to
// the last computed turn or cost.
type Result struct {
	Start            State            `json:"-"`
	StartSlots       [NumSlots]int    `json:"start"`
	CostMode         CostMode         `json:"cost_mode"`
	Distribution     []Step           `json:"distribution"`
	CostDistribution []CostStep       `json:"cost_distribution,omitempty"`
	ExpectedResets   float64          `json:"expected_resets"`
	ExpectedCost     float64          `json:"expected_cost"`
	Resets           Percentiles      `json:"resets"`
	Cost             Percentiles      `json:"cost"`
	Cumulative       float64          `json:"cumulative"`
	Truncated        bool             `json:"truncated"`
	Staged           *StagedEstimator `json:"staged,omitempty"`
}

// Solve runs the reroll DP from p.Start until all three slots are matched.
// ctx is checked between turns.
func Solve(ctx context.Context, p Params) (Result, error) {
	if err := p.Cards.Validate(); err != nil {
		return Result{}, err
	}
	if p.Start&^Terminal != 0 {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidState, p.Start)
	}
	maxIter := p.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	mode := p.CostMode
	if mode == "" {
		mode = CostExact
	}
	schedule := DefaultCostSchedule
	if p.Schedule != nil {
		schedule = *p.Schedule
	}

	res := Result{Start: p.Start, StartSlots: p.Start.Slots(), CostMode: mode}
	if p.Start == Terminal {
		res.Cumulative = 1
		return res, nil
	}

	table, err := NewTransitionTable(p.Cards)
	if err != nil {
		return Result{}, err
	}

	switch mode {
	case CostExact:
		err = solveExact(ctx, &res, table, schedule, maxIter)
	case CostStaged:
		est, estErr := NewStagedEstimator(p.Start, p.Cards, schedule)
		if estErr != nil {
			return Result{}, estErr
		}
		res.Staged = &est
		err = solveStaged(ctx, &res, table, est, maxIter)
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidCostMode, mode)
	}
	if err != nil {
		return Result{}, err
	}

	res.Truncated = res.Cumulative < CompletionThreshold
	res.Resets = Percentiles{
		P50: float64(PercentileTurn(res.Distribution, 0.50)),
		P90: float64(PercentileTurn(res.Distribution, 0.90)),
		P99: float64(PercentileTurn(res.Distribution, 0.99)),
	}
	if mode == CostExact {
		res.Cost = Percentiles{
			P50: float64(PercentileCost(res.CostDistribution, 0.50)),
			P90: float64(PercentileCost(res.CostDistribution, 0.90)),
			P99: float64(PercentileCost(res.CostDistribution, 0.99)),
		}
	} else {
		res.Cost = Percentiles{
			P50: res.Staged.Cost(res.Resets.P50),
			P90: res.Staged.Cost(res.Resets.P90),
			P99: res.Staged.Cost(res.Resets.P99),
		}
	}
	return res, nil
}

// solveStaged propagates state mass only; cost comes from the estimator.
func solveStaged(ctx context.Context, res *Result, table *TransitionTable, est StagedEstimator, maxIter int) error {
	var mass [NumStates]float64
	mass[res.Start] = 1
	for turn := 1; turn <= maxIter; turn++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		var next [NumStates]float64
		for s := State(0); s < Terminal; s++ {
			m := mass[s]
			if m == 0 {
				continue
			}
			for _, e := range table.From(s) {
				next[e.To] += m * e.P
			}
		}
		arrived := next[Terminal]
		next[Terminal] = 0
		mass = next
		res.record(turn, arrived)
		res.ExpectedCost += est.Cost(float64(turn)) * arrived
		if res.Cumulative > CompletionThreshold {
			break
		}
	}
	return nil
}

// solveExact carries, for every non-terminal state, the probability mass
// indexed by cumulative cost so far. Mass arriving at the terminal state is
// folded into the turn and cost distributions and dropped from the chain.
func solveExact(ctx context.Context, res *Result, table *TransitionTable, schedule CostSchedule, maxIter int) error {
	var mass [NumStates][]float64
	mass[res.Start] = []float64{1}
	var arrivals []float64 // by cost

	for turn := 1; turn <= maxIter; turn++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		var next [NumStates][]float64
		var arrived float64
		for s := State(0); s < Terminal; s++ {
			row := mass[s]
			if len(row) == 0 {
				continue
			}
			step := schedule.For(s.Locked())
			for _, e := range table.From(s) {
				for c, m := range row {
					if m == 0 {
						continue
					}
					pm := m * e.P
					nc := c + step
					if e.To == Terminal {
						arrivals = grow(arrivals, nc)
						arrivals[nc] += pm
						arrived += pm
						continue
					}
					next[e.To] = grow(next[e.To], nc)
					next[e.To][nc] += pm
				}
			}
		}
		mass = next
		res.record(turn, arrived)
		if res.Cumulative > CompletionThreshold {
			break
		}
	}

	var cum float64
	for c, m := range arrivals {
		if m == 0 {
			continue
		}
		cum += m
		res.ExpectedCost += float64(c) * m
		res.CostDistribution = append(res.CostDistribution, CostStep{Cost: c, Probability: m, Cumulative: cum})
	}
	return nil
}

func (r *Result) record(turn int, arrived float64) {
	r.Cumulative += arrived
	if r.Cumulative > 1 {
		r.Cumulative = 1
	}
	r.ExpectedResets += float64(turn) * arrived
	r.Distribution = append(r.Distribution, Step{Turn: turn, Probability: arrived, Cumulative: r.Cumulative})
}

// grow extends xs so that idx is addressable, reslicing within capacity
// when it can. Cells past the old length are zero.
func grow(xs []float64, idx int) []float64 {
	if idx < len(xs) {
		return xs
	}
	if idx < cap(xs) {
		return xs[:idx+1]
	}
	n := cap(xs) * 2
	if n <= idx {
		n = idx + 1
	}
	out := make([]float64, idx+1, n)
	copy(out, xs)
	return out
}

// PercentileTurn is the smallest turn whose cumulative probability reaches
// p, or the last turn when the distribution never does.
func PercentileTurn(dist []Step, p float64) int {
	if len(dist) == 0 {
		return 0
	}
	for _, s := range dist {
		if s.Cumulative >= p {
			return s.Turn
		}
	}
	return dist[len(dist)-1].Turn
}

// PercentileCost is PercentileTurn over the exact cost distribution.
func PercentileCost(dist []CostStep, p float64) int {
	if len(dist) == 0 {
		return 0
	}
	for _, s := range dist {
		if s.Cumulative >= p {
			return s.Cost
		}
	}
	return dist[len(dist)-1].Cost
}
