package title

// CostSchedule maps the number of locked slots (0, 1, 2) to the cost of one
// reroll.
type CostSchedule [NumSlots]int

// DefaultCostSchedule doubles per lock.
var DefaultCostSchedule = CostSchedule{1, 2, 4}

// For returns the reroll cost with the given number of locked slots; the
// count is clamped to the table.
func (c CostSchedule) For(locked int) int {
	if locked < 0 {
		locked = 0
	}
	if locked >= len(c) {
		locked = len(c) - 1
	}
	return c[locked]
}

// StagedEstimator approximates the cost of a run of rerolls by assuming the
// chain moves through the 0, 1 and 2 locked phases in order, each lasting its
// expected length. It ignores simultaneous locks and path dependence.
type StagedEstimator struct {
	Phases   [NumSlots]float64 `json:"phases"` // expected turns spent with i slots locked
	Schedule CostSchedule      `json:"schedule"`
}

// NewStagedEstimator derives the phase lengths from the start state. The
// unlocked set after each lock is averaged over which slot is most likely to
// lock first.
func NewStagedEstimator(start State, cards Cardinalities, schedule CostSchedule) (StagedEstimator, error) {
	if err := cards.Validate(); err != nil {
		return StagedEstimator{}, err
	}
	est := StagedEstimator{Schedule: schedule}
	level := map[State]float64{start & Terminal: 1}
	for len(level) > 0 {
		next := make(map[State]float64)
		for s, w := range level {
			if s == Terminal {
				continue
			}
			miss := 1.0
			var sum float64
			for i := 0; i < NumSlots; i++ {
				if !s.Matched(i) {
					q := cards.matchProb(i)
					miss *= 1 - q
					sum += q
				}
			}
			est.Phases[s.Locked()] += w / (1 - miss)
			for i := 0; i < NumSlots; i++ {
				if !s.Matched(i) {
					next[s|State(1)<<i] += w * cards.matchProb(i) / sum
				}
			}
		}
		level = next
	}
	return est, nil
}

// Cost estimates the resource spent over the given number of rerolls.
func (e StagedEstimator) Cost(turns float64) float64 {
	var cost float64
	remaining := turns
	for locked, length := range e.Phases {
		if remaining <= 0 {
			break
		}
		if length <= 0 {
			continue
		}
		n := length
		if locked == NumSlots-1 || remaining < n {
			// the last phase absorbs every remaining turn
			n = remaining
		}
		cost += n * float64(e.Schedule.For(locked))
		remaining -= n
	}
	return cost
}
