package alphabet

import (
	"context"
	cryptoRand "crypto/rand"
	"encoding/binary"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/xtding233/maplecalc/internal/chance"
)

// Precision selects a trial count preset.
type Precision string

const (
	PrecisionLow    Precision = "low"
	PrecisionMedium Precision = "medium"
	PrecisionHigh   Precision = "high"
)

// Iterations returns the trial count of the preset; unknown values map to medium.
func (p Precision) Iterations() int {
	switch p {
	case PrecisionLow:
		return 1000
	case PrecisionHigh:
		return 3000
	default:
		return 2000
	}
}

// ProgressFunc receives the number of finished trials. Calls are serialized.
type ProgressFunc func(done, total int)

// Options control one Monte Carlo run.
type Options struct {
	Iterations    int
	Workers       int    // <= 0 means 1
	Seed          uint64 // 0 draws a fresh seed; the seed used is reported back
	ProgressEvery int    // trials between progress calls; <= 0 disables
	Progress      ProgressFunc
}

// Estimate summarizes a run.
type Estimate struct {
	Iterations  int          `json:"iterations"`
	Successes   int          `json:"successes"`
	Probability float64      `json:"probability"`
	StdErr      float64      `json:"std_err"`
	Shortage    chance.Stats `json:"shortage"`
	MeanRounds  float64      `json:"mean_rounds"`
	MeanCrafted float64      `json:"mean_crafted"`
	Seed        uint64       `json:"seed"`
}

type tally struct {
	successes, rounds, crafted int
}

// NewSeed draws a seed from the system entropy source.
func NewSeed() uint64 {
	var buf [8]byte
	if _, err := cryptoRand.Read(buf[:]); err != nil {
		return 1
	}
	// keep seeds exact as JSON numbers
	return binary.LittleEndian.Uint64(buf[:])&(1<<53-1) | 1
}

// Simulate runs opts.Iterations independent trials split across workers.
// Each worker owns an RNG stream derived from the seed, so a fixed seed and
// worker count reproduce the same estimate. Cancellation is checked between
// trials.
func (s *Simulator) Simulate(ctx context.Context, start Start, opts Options) (Estimate, error) {
	n := opts.Iterations
	if n <= 0 {
		return Estimate{}, fmt.Errorf("iterations must be >= 1, got %d", n)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > n {
		workers = n
	}
	seed := opts.Seed
	if seed == 0 {
		seed = NewSeed()
	}

	shortages := make([]int, n)
	results := make([]tally, workers)
	var (
		progressMu sync.Mutex
		done       int
	)

	g, gctx := errgroup.WithContext(ctx)
	chunk := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, n)
		if lo >= hi {
			continue
		}
		g.Go(func() error {
			rng := chance.NewStreamRNG(seed, uint64(w))
			var acc tally
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				r := s.Trial(start, rng)
				shortages[i] = r.Shortage
				if r.Success {
					acc.successes++
				}
				acc.rounds += r.Rounds
				acc.crafted += r.Crafted

				if opts.Progress != nil && opts.ProgressEvery > 0 {
					progressMu.Lock()
					done++
					if done%opts.ProgressEvery == 0 || done == n {
						opts.Progress(done, n)
					}
					progressMu.Unlock()
				}
			}
			results[w] = acc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Estimate{}, err
	}

	est := Estimate{Iterations: n, Seed: seed, Shortage: chance.Summarize(shortages)}
	var rounds, crafted int
	for _, r := range results {
		est.Successes += r.successes
		rounds += r.rounds
		crafted += r.crafted
	}
	est.Probability = float64(est.Successes) / float64(n)
	est.StdErr = chance.BernoulliStdErr(est.Probability, n)
	est.MeanRounds = float64(rounds) / float64(n)
	est.MeanCrafted = float64(crafted) / float64(n)
	return est, nil
}
