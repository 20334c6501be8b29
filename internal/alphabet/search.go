package alphabet

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Channel selects which acquisition input a sweep or search varies.
type Channel string

const (
	ChannelPremium Channel = "premium"
	ChannelNormal  Channel = "normal"
)

var ErrInvalidChannel = errors.New("channel must be premium or normal")

func (c Channel) with(start Start, units int) (Start, error) {
	switch c {
	case ChannelPremium:
		start.Premium = units
	case ChannelNormal:
		start.Normal = units
	default:
		return Start{}, fmt.Errorf("%w: %q", ErrInvalidChannel, c)
	}
	return start, nil
}

// SweepSpec varies one channel over [From, To] by Step while the other
// inputs stay fixed. Iterations is the per-point trial count and is meant to
// be coarser than a headline estimate.
type SweepSpec struct {
	Channel    Channel `json:"channel" validate:"required,oneof=premium normal"`
	From       int     `json:"from" validate:"gte=0"`
	To         int     `json:"to" validate:"gtefield=From"`
	Step       int     `json:"step" validate:"gte=1"`
	Iterations int     `json:"iterations" validate:"gte=1"`
	Workers    int     `json:"workers" validate:"gte=0"`
	Seed       uint64  `json:"seed"`
}

// SweepPoint is one evaluated input.
type SweepPoint struct {
	Units       int     `json:"units"`
	Probability float64 `json:"probability"`
	StdErr      float64 `json:"std_err"`
}

// Sweep evaluates every point of spec, running up to Workers points at once.
// All points share the seed so neighbouring points differ only by the input.
func (s *Simulator) Sweep(ctx context.Context, start Start, spec SweepSpec) ([]SweepPoint, error) {
	if spec.Step < 1 {
		return nil, fmt.Errorf("sweep step must be >= 1, got %d", spec.Step)
	}
	if spec.To < spec.From {
		return nil, fmt.Errorf("sweep range [%d,%d] is empty", spec.From, spec.To)
	}
	if _, err := spec.Channel.with(start, 0); err != nil {
		return nil, err
	}
	seed := spec.Seed
	if seed == 0 {
		seed = NewSeed()
	}

	points := make([]SweepPoint, 0, (spec.To-spec.From)/spec.Step+1)
	for u := spec.From; u <= spec.To; u += spec.Step {
		points = append(points, SweepPoint{Units: u})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(spec.Workers, 1))
	for i := range points {
		g.Go(func() error {
			st, _ := spec.Channel.with(start, points[i].Units)
			est, err := s.Simulate(gctx, st, Options{Iterations: spec.Iterations, Seed: seed})
			if err != nil {
				return err
			}
			points[i].Probability = est.Probability
			points[i].StdErr = est.StdErr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

// SearchSpec asks for the fewest units of Channel within [Low, High] whose
// estimated success probability reaches Target.
type SearchSpec struct {
	Channel    Channel `json:"channel" validate:"required,oneof=premium normal"`
	Target     float64 `json:"target" validate:"gt=0,lte=1"`
	Low        int     `json:"low" validate:"gte=0"`
	High       int     `json:"high" validate:"gtefield=Low"`
	Iterations int     `json:"iterations" validate:"gte=1"`
	Workers    int     `json:"workers" validate:"gte=0"`
	Seed       uint64  `json:"seed"`
}

// SearchResult reports the requirement. Reached is false when even High
// units fall short; Units is then High.
type SearchResult struct {
	Target      float64 `json:"target"`
	Units       int     `json:"units"`
	Probability float64 `json:"probability"`
	Reached     bool    `json:"reached"`
	Probes      int     `json:"probes"`
}

// RequiredUnits binary searches the channel quantity. Every probe reuses the
// same seed, which keeps the estimate monotone in practice.
func (s *Simulator) RequiredUnits(ctx context.Context, start Start, spec SearchSpec) (SearchResult, error) {
	if spec.High < spec.Low {
		return SearchResult{}, fmt.Errorf("search range [%d,%d] is empty", spec.Low, spec.High)
	}
	seed := spec.Seed
	if seed == 0 {
		seed = NewSeed()
	}
	res := SearchResult{Target: spec.Target}
	probe := func(units int) (float64, error) {
		st, err := spec.Channel.with(start, units)
		if err != nil {
			return 0, err
		}
		res.Probes++
		est, err := s.Simulate(ctx, st, Options{Iterations: spec.Iterations, Workers: spec.Workers, Seed: seed})
		if err != nil {
			return 0, err
		}
		return est.Probability, nil
	}

	p, err := probe(spec.High)
	if err != nil {
		return SearchResult{}, err
	}
	if p < spec.Target {
		res.Units, res.Probability = spec.High, p
		return res, nil
	}
	lo, hi, best := spec.Low, spec.High, p
	for lo < hi {
		mid := lo + (hi-lo)/2
		pm, err := probe(mid)
		if err != nil {
			return SearchResult{}, err
		}
		if pm >= spec.Target {
			hi, best = mid, pm
		} else {
			lo = mid + 1
		}
	}
	res.Units, res.Probability, res.Reached = hi, best, true
	return res, nil
}

// Requirements runs RequiredUnits once per target percentile.
func (s *Simulator) Requirements(ctx context.Context, start Start, spec SearchSpec, targets ...float64) ([]SearchResult, error) {
	out := make([]SearchResult, 0, len(targets))
	for _, t := range targets {
		sp := spec
		sp.Target = t
		r, err := s.RequiredUnits(ctx, start, sp)
		if err != nil {
			return nil, fmt.Errorf("target %.2f: %w", t, err)
		}
		out = append(out, r)
	}
	return out, nil
}
