// Package calc is the boundary between the transports (HTTP, gRPC, CLI) and
// the calculation engine. It validates requests, resolves reference tables,
// fills simulation defaults from configuration, and logs and measures every
// calculation.
package calc

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xtding233/maplecalc/internal/config"
	"github.com/xtding233/maplecalc/internal/observability"
	"github.com/xtding233/maplecalc/internal/tables"
)

// Calculator names, used as metric labels and log fields.
const (
	CalcHunt      = "hunt"
	CalcBreakeven = "breakeven"
	CalcTitle     = "title"
	CalcAlphabet  = "alphabet"
	CalcSweep     = "alphabet_sweep"
	CalcRequired  = "alphabet_required"
	CalcBoss      = "boss"
)

// TableSource yields the current reference tables; *tables.Store
// implements it.
type TableSource interface {
	Get() *tables.Tables
}

// Service runs calculations. It is safe for concurrent use.
type Service struct {
	tables   TableSource
	sim      config.SimulationConfig
	log      *zap.Logger
	metrics  *observability.Metrics
	validate *validator.Validate
}

// NewService wires a service. log and metrics may be nil.
func NewService(src TableSource, sim config.SimulationConfig, log *zap.Logger, metrics *observability.Metrics) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		tables:   src,
		sim:      sim,
		log:      log,
		metrics:  metrics,
		validate: newValidator(),
	}
}

// Tables returns the snapshot calculations currently read.
func (s *Service) Tables() *tables.Tables { return s.tables.Get() }

// check validates req against its struct tags.
func (s *Service) check(req any) error {
	if err := s.validate.Struct(req); err != nil {
		return fromValidation(err)
	}
	return nil
}

// run validates req, calls fn and records the outcome. Every calculation
// goes through it.
func run[T any](ctx context.Context, s *Service, name string, req any, fn func(*tables.Tables, *zap.Logger) (T, error)) (T, error) {
	start := time.Now()
	log := s.log.With(zap.String("calculator", name), zap.String("run_id", uuid.NewString()))

	var zero T
	if err := s.check(req); err != nil {
		s.finish(log, name, start, err)
		return zero, err
	}
	if err := ctx.Err(); err != nil {
		s.finish(log, name, start, err)
		return zero, err
	}
	out, err := fn(s.tables.Get(), log)
	s.finish(log, name, start, err)
	if err != nil {
		return zero, err
	}
	return out, nil
}

func (s *Service) finish(log *zap.Logger, name string, start time.Time, err error) {
	elapsed := time.Since(start)
	result := observability.ResultOK
	switch {
	case err == nil:
		log.Debug("calculation finished", zap.Duration("elapsed", elapsed))
	case IsConfigurationError(err):
		result = observability.ResultInvalid
		log.Debug("calculation rejected", zap.Error(err))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		result = observability.ResultError
		log.Debug("calculation cancelled", zap.Duration("elapsed", elapsed), zap.Error(err))
	default:
		result = observability.ResultError
		log.Error("calculation failed", zap.Duration("elapsed", elapsed), zap.Error(err))
	}
	if s.metrics != nil {
		s.metrics.Observe(name, result, elapsed)
	}
}

func (s *Service) addTrials(n int) {
	if s.metrics != nil && n > 0 {
		s.metrics.Trials.Add(float64(n))
	}
}
