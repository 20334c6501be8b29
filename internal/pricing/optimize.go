package pricing

import (
	"errors"
	"math"
	"sort"
)

// MaxBudget bounds the budget DP table.
const MaxBudget = 10_000_000

// maxFirstTime bounds the first-time subsets tried per plan.
const maxFirstTime = 8

var ErrBudgetTooLarge = errors.New("budget exceeds the planner limit")

// variant is a pack as bought in a plan. First-time x2 variants can be bought
// at most once; regular variants are unbounded.
type variant struct {
	id, name     string
	units, price int
}

func expand(cat Catalog, first FirstTimeState) (regular, once []variant) {
	for _, p := range cat.Packs {
		if p.Price <= 0 || p.Units+p.BonusUnits <= 0 {
			continue
		}
		if p.FirstTimeX2 && first[p.ID] && len(once) < maxFirstTime {
			once = append(once, variant{p.ID + "#x2", p.Name + " (x2)", p.Units*2 + p.BonusUnits, p.Price})
		}
		regular = append(regular, variant{p.ID, p.Name, p.Units + p.BonusUnits, p.Price})
	}
	return regular, once
}

// subset is a choice of first-time purchases, applied before the knapsack.
type subset struct {
	units, price int
	picks        []variant
}

func subsets(once []variant) []subset {
	out := make([]subset, 0, 1<<len(once))
	for mask := 0; mask < 1<<len(once); mask++ {
		var s subset
		for i, v := range once {
			if mask&(1<<i) != 0 {
				s.units += v.units
				s.price += v.price
				s.picks = append(s.picks, v)
			}
		}
		out = append(out, s)
	}
	return out
}

// MinCostAtLeastUnits finds the minimum-cost combination to obtain at least
// targetUnits. Regular packs are unbounded; a first-time x2 pack is used at
// most once.
func MinCostAtLeastUnits(cat Catalog, targetUnits int, first FirstTimeState) Plan {
	regular, once := expand(cat, first)
	if targetUnits <= 0 || len(regular) == 0 {
		return Plan{Currency: cat.Currency}
	}

	bestCost := math.MaxInt
	var best map[variant]int
	for _, s := range subsets(once) {
		counts, cost, ok := minCost(regular, max(targetUnits-s.units, 0))
		if !ok || cost+s.price >= bestCost {
			continue
		}
		for _, v := range s.picks {
			counts[v]++
		}
		bestCost, best = cost+s.price, counts
	}
	if best == nil {
		return Plan{Currency: cat.Currency}
	}
	return buildPlan(cat, best)
}

// minCost is the unbounded knapsack: cheapest multiset of vs reaching at
// least target units.
func minCost(vs []variant, target int) (map[variant]int, int, bool) {
	counts := map[variant]int{}
	if target == 0 {
		return counts, 0, true
	}

	// DP over units up to target + largest pack to permit overshoot.
	maxUnits := 0
	for _, v := range vs {
		maxUnits = max(maxUnits, v.units)
	}
	limit := target + maxUnits

	const inf = math.MaxInt
	dp := make([]int, limit+1)   // min cost to reach exactly u units
	pick := make([]int, limit+1) // chosen variant index
	prev := make([]int, limit+1) // previous u
	for u := range dp {
		dp[u], pick[u], prev[u] = inf, -1, -1
	}
	dp[0] = 0

	for u := 0; u <= limit; u++ {
		if dp[u] == inf {
			continue
		}
		for i, v := range vs {
			nu := min(u+v.units, limit)
			if cost := dp[u] + v.price; cost < dp[nu] {
				dp[nu], pick[nu], prev[nu] = cost, i, u
			}
		}
	}

	// pick best u >= target
	best := target
	for u := target; u <= limit; u++ {
		if dp[u] < dp[best] {
			best = u
		}
	}
	if dp[best] == inf {
		return nil, 0, false
	}
	for u := best; u > 0 && pick[u] != -1; u = prev[u] {
		counts[vs[pick[u]]]++
	}
	return counts, dp[best], true
}

// MaxUnitsUnderBudget computes the most units purchasable with budget
// (tax included) using an unbounded knapsack over the pre-tax budget.
func MaxUnitsUnderBudget(cat Catalog, budget int, first FirstTimeState) (Plan, error) {
	regular, once := expand(cat, first)
	if budget <= 0 || len(regular) == 0 {
		return Plan{Currency: cat.Currency}, nil
	}
	if budget > MaxBudget {
		return Plan{}, ErrBudgetTooLarge
	}

	effBudget := budget
	if cat.TaxRate > 0 {
		effBudget = int(math.Floor(float64(budget) / (1 + cat.TaxRate)))
	}

	units, choose := maxUnits(regular, effBudget)
	bestUnits, bestCost := -1, 0
	var bestSet subset
	for _, s := range subsets(once) {
		rest := effBudget - s.price
		if rest < 0 {
			continue
		}
		c := bestSpend(units, rest)
		if u := units[c] + s.units; u > bestUnits || (u == bestUnits && c+s.price < bestCost+bestSet.price) {
			bestUnits, bestCost, bestSet = u, c, s
		}
	}

	counts := map[variant]int{}
	for c := bestCost; c > 0 && choose[c] != -1; c -= regular[choose[c]].price {
		counts[regular[choose[c]]]++
	}
	for _, v := range bestSet.picks {
		counts[v]++
	}
	return buildPlan(cat, counts), nil
}

// maxUnits fills dp[c] = max units with cost exactly c (-1 if unreachable).
func maxUnits(vs []variant, budget int) (dp, choose []int) {
	dp = make([]int, budget+1)
	choose = make([]int, budget+1)
	for c := range dp {
		dp[c], choose[c] = -1, -1
	}
	dp[0] = 0
	for c := 0; c <= budget; c++ {
		if dp[c] < 0 {
			continue // unreachable cost
		}
		for i, v := range vs {
			nc := c + v.price
			if nc > budget {
				continue
			}
			if val := dp[c] + v.units; val > dp[nc] {
				dp[nc], choose[nc] = val, i
			}
		}
	}
	return dp, choose
}

// bestSpend is the cheapest cost <= limit reaching the most units.
func bestSpend(dp []int, limit int) int {
	best := 0
	for c := 0; c <= limit; c++ {
		if dp[c] > dp[best] {
			best = c
		}
	}
	return best
}

func buildPlan(cat Catalog, counts map[variant]int) Plan {
	plan := Plan{Currency: cat.Currency}
	for v, qty := range counts {
		sub := v.price * qty
		plan.Purchases = append(plan.Purchases, Purchase{
			PackID:    v.id,
			Name:      v.name,
			Qty:       qty,
			UnitPrice: v.price,
			PackUnits: v.units,
			Subtotal:  sub,
		})
		plan.SubTotal += sub
		plan.TotalUnits += v.units * qty
	}
	sort.Slice(plan.Purchases, func(i, j int) bool { return plan.Purchases[i].PackID < plan.Purchases[j].PackID })
	plan.Tax, plan.Total = applyTax(plan.SubTotal, cat.TaxRate)
	return plan
}
