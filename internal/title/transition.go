package title

// Edge is one weighted transition out of a state.
type Edge struct {
	To State
	P  float64
}

// Transitions returns the distribution of the next state after one reroll
// from s. Locked slots stay matched; an outcome that would unmatch one is
// never enumerated, so the remaining outcomes already sum to 1.
func Transitions(s State, cards Cardinalities) (map[State]float64, error) {
	edges, err := transitionEdges(s, cards)
	if err != nil {
		return nil, err
	}
	out := make(map[State]float64, len(edges))
	for _, e := range edges {
		out[e.To] = e.P
	}
	return out, nil
}

func transitionEdges(s State, cards Cardinalities) ([]Edge, error) {
	if err := cards.Validate(); err != nil {
		return nil, err
	}
	s &= Terminal
	if s == Terminal {
		return []Edge{{To: Terminal, P: 1}}, nil
	}
	var edges []Edge
	for outcome := State(0); outcome < NumStates; outcome++ {
		if outcome&s != s {
			continue
		}
		p := 1.0
		for i := 0; i < NumSlots; i++ {
			if s.Matched(i) {
				continue
			}
			q := cards.matchProb(i)
			if outcome.Matched(i) {
				p *= q
			} else {
				p *= 1 - q
			}
		}
		if p > 0 {
			edges = append(edges, Edge{To: outcome, P: p})
		}
	}
	return edges, nil
}

// TransitionTable holds the edges of all eight states, computed once per
// cardinality set.
type TransitionTable [NumStates][]Edge

func NewTransitionTable(cards Cardinalities) (*TransitionTable, error) {
	var t TransitionTable
	for s := State(0); s < NumStates; s++ {
		edges, err := transitionEdges(s, cards)
		if err != nil {
			return nil, err
		}
		t[s] = edges
	}
	return &t, nil
}

func (t *TransitionTable) From(s State) []Edge { return t[s&Terminal] }
