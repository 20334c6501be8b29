package calc

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/xtding233/maplecalc/internal/pricing"
	"github.com/xtding233/maplecalc/internal/tables"
	"github.com/xtding233/maplecalc/internal/title"
)

// TitleRequest asks for the reroll distribution from Start. Cardinalities
// and MaxIterations default to the title table.
type TitleRequest struct {
	Start         [title.NumSlots]int `json:"start" validate:"dive,oneof=0 1"`
	Cardinalities []int               `json:"cardinalities,omitempty" validate:"omitempty,len=3,dive,gte=1,lte=100000"`
	MaxIterations int                 `json:"max_iterations" validate:"gte=0,lte=100000"`
	CostMode      string              `json:"cost_mode,omitempty" validate:"omitempty,oneof=exact staged"`
	// Budget, in pack currency, asks how far a purchase of that size goes.
	Budget int `json:"budget" validate:"gte=0"`
	// FirstTime lists pack ids whose first-time x2 bonus is still available.
	FirstTime []string `json:"first_time,omitempty"`
}

// PercentilePlan is the cheapest pack purchase covering a cost percentile.
type PercentilePlan struct {
	Percentile string       `json:"percentile"`
	Units      int          `json:"units"`
	Plan       pricing.Plan `json:"plan"`
}

// BudgetOutcome is what a budget buys and the chance it is enough.
type BudgetOutcome struct {
	Plan        pricing.Plan `json:"plan"`
	Units       int          `json:"units"`
	Probability float64      `json:"probability"`
}

type TitleResponse struct {
	title.Result
	UnitName string           `json:"unit_name,omitempty"`
	Plans    []PercentilePlan `json:"plans,omitempty"`
	Budget   *BudgetOutcome   `json:"budget,omitempty"`
}

// Title solves the reroll chain and prices the cost percentiles in packs.
func (s *Service) Title(ctx context.Context, req TitleRequest) (TitleResponse, error) {
	return run(ctx, s, CalcTitle, req, func(t *tables.Tables, log *zap.Logger) (TitleResponse, error) {
		start, err := title.ParseSlots(req.Start)
		if err != nil {
			return TitleResponse{}, invalid("start", err)
		}
		cards := t.Title.Cards
		if len(req.Cardinalities) == title.NumSlots {
			copy(cards[:], req.Cardinalities)
		}
		maxIter := req.MaxIterations
		if maxIter == 0 {
			maxIter = t.Title.MaxIterations
		}
		schedule := t.Title.Schedule

		res, err := title.Solve(ctx, title.Params{
			Start:         start,
			Cards:         cards,
			MaxIterations: maxIter,
			CostMode:      title.CostMode(req.CostMode),
			Schedule:      &schedule,
		})
		if err != nil {
			if errors.Is(err, title.ErrInvalidCardinality) || errors.Is(err, title.ErrInvalidState) || errors.Is(err, title.ErrInvalidCostMode) {
				return TitleResponse{}, invalid("", err)
			}
			return TitleResponse{}, err
		}
		if res.Truncated {
			log.Debug("title distribution truncated", zap.Float64("cumulative", res.Cumulative), zap.Int("max_iterations", maxIter))
		}

		resp := TitleResponse{Result: res}
		cat := t.Packs
		if len(cat.Packs) == 0 || start == title.Terminal {
			return resp, nil
		}
		resp.UnitName = cat.UnitName
		first := pricing.FirstTimeState{}
		for _, id := range req.FirstTime {
			first[id] = true
		}
		for _, p := range []struct {
			name  string
			units float64
		}{{"p50", res.Cost.P50}, {"p90", res.Cost.P90}, {"p99", res.Cost.P99}} {
			units := int(p.units + 0.999999) // staged costs are fractional
			resp.Plans = append(resp.Plans, PercentilePlan{
				Percentile: p.name,
				Units:      units,
				Plan:       pricing.MinCostAtLeastUnits(cat, units, first),
			})
		}
		if req.Budget > 0 {
			plan, err := pricing.MaxUnitsUnderBudget(cat, req.Budget, first)
			if err != nil {
				return TitleResponse{}, invalid("budget", err)
			}
			resp.Budget = &BudgetOutcome{
				Plan:        plan,
				Units:       plan.TotalUnits,
				Probability: CompletionWithin(res, plan.TotalUnits),
			}
		}
		return resp, nil
	})
}

// CompletionWithin is the probability of finishing without spending more
// than units. Staged results map each turn to its estimated cost.
func CompletionWithin(res title.Result, units int) float64 {
	if res.Start == title.Terminal {
		return 1
	}
	p := 0.0
	if len(res.CostDistribution) > 0 {
		for _, c := range res.CostDistribution {
			if c.Cost > units {
				break
			}
			p = c.Cumulative
		}
		return p
	}
	if res.Staged == nil {
		return 0
	}
	for _, st := range res.Distribution {
		if res.Staged.Cost(float64(st.Turn)) > float64(units) {
			break
		}
		p = st.Cumulative
	}
	return p
}
