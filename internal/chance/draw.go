package chance

import (
	"errors"
	"math"
)

var (
	ErrInvalidProb    = errors.New("invalid probability p; must be 0..1")
	ErrInvalidWeights = errors.New("invalid weights; need at least one positive finite weight")
)

// Draw under p, return if it is hit
// p <= 0 => no hit. p >= 1 => must hit. otherwise, rng.Float64() < p
func Draw(p float64, rng RandomSource) (bool, error) {
	if err := validateProb(p); err != nil {
		return false, err
	}
	if p <= 0 {
		return false, nil
	}
	if p >= 1 {
		return true, nil
	}
	if rng == nil {
		rng = DefaultRNG()
	}
	return rng.Float64() < p, nil
}

// Pick returns an index chosen proportionally to weights. Weights need not
// sum to 1; negative entries count as zero.
func Pick(weights []float64, rng RandomSource) (int, error) {
	var total float64
	for _, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return -1, ErrInvalidWeights
		}
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1, ErrInvalidWeights
	}
	if rng == nil {
		rng = DefaultRNG()
	}
	x := rng.Float64() * total
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		last = i
		if x < w {
			return i, nil
		}
		x -= w
	}
	// floating residue lands on the last positive weight
	return last, nil
}

func validateProb(p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return ErrInvalidProb
	}
	if p < 0 || p > 1 {
		return ErrInvalidProb
	}
	return nil
}
