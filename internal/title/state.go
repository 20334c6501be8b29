// Package title computes the exact reroll distribution of the three-slot
// title puzzle under the lock-matched-slots policy.
package title

import (
	"errors"
	"fmt"
	"math/bits"
)

// State encodes the three slots as bits: bit0 = X, bit1 = Y, bit2 = Z.
// A set bit means the slot is matched (and therefore locked).
type State uint8

const (
	SlotX State = 1 << iota
	SlotY
	SlotZ

	Terminal  = SlotX | SlotY | SlotZ
	NumStates = 8
	NumSlots  = 3
)

var (
	ErrInvalidState       = errors.New("invalid title state")
	ErrInvalidCardinality = errors.New("slot cardinality must be >= 1")
)

// NewState builds a State from per-slot matched flags.
func NewState(x, y, z bool) State {
	var s State
	if x {
		s |= SlotX
	}
	if y {
		s |= SlotY
	}
	if z {
		s |= SlotZ
	}
	return s
}

// ParseSlots converts a [x,y,z] triple of 0/1 values.
func ParseSlots(slots [NumSlots]int) (State, error) {
	var s State
	for i, v := range slots {
		switch v {
		case 0:
		case 1:
			s |= State(1) << i
		default:
			return 0, fmt.Errorf("%w: slot %d = %d", ErrInvalidState, i, v)
		}
	}
	return s, nil
}

// Matched reports whether slot i (0..2) is matched.
func (s State) Matched(i int) bool { return s&(State(1)<<i) != 0 }

// Locked is the number of matched slots.
func (s State) Locked() int { return bits.OnesCount8(uint8(s & Terminal)) }

func (s State) Slots() [NumSlots]int {
	var out [NumSlots]int
	for i := range out {
		if s.Matched(i) {
			out[i] = 1
		}
	}
	return out
}

func (s State) String() string {
	v := s.Slots()
	return fmt.Sprintf("[%d,%d,%d]", v[0], v[1], v[2])
}

// Cardinalities are the per-slot pool sizes; a slot matches on a reroll with
// probability 1/cardinality.
type Cardinalities [NumSlots]int

func (c Cardinalities) Validate() error {
	for i, n := range c {
		if n < 1 {
			return fmt.Errorf("%w: slot %d = %d", ErrInvalidCardinality, i, n)
		}
	}
	return nil
}

func (c Cardinalities) matchProb(i int) float64 { return 1 / float64(c[i]) }
