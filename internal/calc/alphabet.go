package calc

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xtding233/maplecalc/internal/alphabet"
	"github.com/xtding233/maplecalc/internal/tables"
)

// MaxSweepPoints bounds one sweep request.
const MaxSweepPoints = 500

// AlphabetRequest asks for the completion probability from Start.
// Iterations overrides Precision; both default to the configured precision.
type AlphabetRequest struct {
	Start      alphabet.Start `json:"start"`
	Precision  string         `json:"precision,omitempty" validate:"omitempty,oneof=low medium high"`
	Iterations int            `json:"iterations" validate:"gte=0,lte=1000000"`
	Workers    int            `json:"workers" validate:"gte=0,lte=64"`
	Seed       uint64         `json:"seed"`
}

// SweepRequest varies one channel over [From, To].
type SweepRequest struct {
	Start      alphabet.Start `json:"start"`
	Channel    string         `json:"channel" validate:"required,oneof=premium normal"`
	From       int            `json:"from" validate:"gte=0"`
	To         int            `json:"to" validate:"gtefield=From,lte=100000"`
	Step       int            `json:"step" validate:"gte=1"`
	Iterations int            `json:"iterations" validate:"gte=0,lte=100000"`
	Seed       uint64         `json:"seed"`
}

// RequiredRequest asks for the units of Channel needed to reach each target
// probability, searched within [Low, High].
type RequiredRequest struct {
	Start      alphabet.Start `json:"start"`
	Channel    string         `json:"channel" validate:"required,oneof=premium normal"`
	Targets    []float64      `json:"targets" validate:"required,min=1,max=10,dive,gt=0,lte=1"`
	Low        int            `json:"low" validate:"gte=0"`
	High       int            `json:"high" validate:"gte=1,gtefield=Low,lte=100000"`
	Iterations int            `json:"iterations" validate:"gte=0,lte=100000"`
	Seed       uint64         `json:"seed"`
}

// Alphabet estimates the completion probability. progress may be nil; it is
// called every configured progress interval.
func (s *Service) Alphabet(ctx context.Context, req AlphabetRequest, progress alphabet.ProgressFunc) (alphabet.Estimate, error) {
	return run(ctx, s, CalcAlphabet, req, func(t *tables.Tables, log *zap.Logger) (alphabet.Estimate, error) {
		sim, err := simulator(t)
		if err != nil {
			return alphabet.Estimate{}, err
		}
		n := req.Iterations
		if n == 0 {
			p := req.Precision
			if p == "" {
				p = s.sim.Precision
			}
			n = alphabet.Precision(p).Iterations()
		}
		workers := req.Workers
		if workers == 0 {
			workers = s.sim.Workers
		}
		est, err := sim.Simulate(ctx, req.Start, alphabet.Options{
			Iterations:    n,
			Workers:       workers,
			Seed:          req.Seed,
			ProgressEvery: s.sim.ProgressInterval,
			Progress:      progress,
		})
		if err != nil {
			return alphabet.Estimate{}, err
		}
		s.addTrials(est.Iterations)
		log.Debug("alphabet estimate",
			zap.Int("iterations", est.Iterations),
			zap.Float64("probability", est.Probability),
			zap.Uint64("seed", est.Seed))
		return est, nil
	})
}

// AlphabetSweep evaluates the completion probability over a range of one
// channel at the configured sweep iteration count.
func (s *Service) AlphabetSweep(ctx context.Context, req SweepRequest) ([]alphabet.SweepPoint, error) {
	return run(ctx, s, CalcSweep, req, func(t *tables.Tables, _ *zap.Logger) ([]alphabet.SweepPoint, error) {
		if points := (req.To-req.From)/req.Step + 1; points > MaxSweepPoints {
			return nil, invalid("step", fmt.Errorf("sweep has %d points, at most %d allowed", points, MaxSweepPoints))
		}
		sim, err := simulator(t)
		if err != nil {
			return nil, err
		}
		spec := alphabet.SweepSpec{
			Channel:    alphabet.Channel(req.Channel),
			From:       req.From,
			To:         req.To,
			Step:       req.Step,
			Iterations: orDefault(req.Iterations, s.sim.SweepIterations),
			Workers:    s.sim.Workers,
			Seed:       req.Seed,
		}
		points, err := sim.Sweep(ctx, req.Start, spec)
		if err != nil {
			return nil, engineErr("channel", err)
		}
		s.addTrials(len(points) * spec.Iterations)
		return points, nil
	})
}

// AlphabetRequired binary searches the units needed for each target.
func (s *Service) AlphabetRequired(ctx context.Context, req RequiredRequest) ([]alphabet.SearchResult, error) {
	return run(ctx, s, CalcRequired, req, func(t *tables.Tables, _ *zap.Logger) ([]alphabet.SearchResult, error) {
		sim, err := simulator(t)
		if err != nil {
			return nil, err
		}
		spec := alphabet.SearchSpec{
			Channel:    alphabet.Channel(req.Channel),
			Low:        req.Low,
			High:       req.High,
			Iterations: orDefault(req.Iterations, s.sim.SearchIterations),
			Workers:    s.sim.Workers,
			Seed:       req.Seed,
		}
		results, err := sim.Requirements(ctx, req.Start, spec, req.Targets...)
		if err != nil {
			return nil, engineErr("channel", err)
		}
		probes := 0
		for _, r := range results {
			probes += r.Probes
		}
		s.addTrials(probes * spec.Iterations)
		return results, nil
	})
}

// simulator builds a simulator over the snapshot's rules. The tables were
// validated on load, so an error here is a server fault.
func simulator(t *tables.Tables) (*alphabet.Simulator, error) {
	sim, err := alphabet.New(t.Alphabet)
	if err != nil {
		return nil, fmt.Errorf("alphabet rules: %w", err)
	}
	return sim, nil
}

func engineErr(field string, err error) error {
	if errors.Is(err, alphabet.ErrInvalidChannel) {
		return invalid(field, err)
	}
	return err
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
