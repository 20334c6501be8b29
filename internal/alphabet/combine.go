package alphabet

// Combinations is the outcome of folding tier surplus into groups.
type Combinations struct {
	High     int `json:"high"`
	Mid      int `json:"mid"`
	Low      int `json:"low"`
	Residual int `json:"residual"` // units left over after the Low tier
}

func (c Combinations) Total() int { return c.High + c.Mid + c.Low }

func (c Combinations) of(t Tier) int {
	switch t {
	case High:
		return c.High
	case Mid:
		return c.Mid
	default:
		return c.Low
	}
}

// Waterfall groups surplus into combinations of groupSize. Leftover High
// units join the Mid surplus and leftover Mid units join the Low surplus;
// nothing flows upward.
func Waterfall(high, mid, low, groupSize int) Combinations {
	if groupSize < 1 {
		return Combinations{Residual: high + mid + low}
	}
	var c Combinations
	c.High = high / groupSize
	mid += high % groupSize
	c.Mid = mid / groupSize
	low += mid % groupSize
	c.Low = low / groupSize
	c.Residual = low % groupSize
	return c
}
