package calc

import (
	"context"

	"go.uber.org/zap"

	"github.com/xtding233/maplecalc/internal/drop"
	"github.com/xtding233/maplecalc/internal/tables"
)

// Hunt computes hourly and per-session hunting expectations.
func (s *Service) Hunt(ctx context.Context, req drop.HuntInput) (drop.HuntResult, error) {
	return run(ctx, s, CalcHunt, req, func(t *tables.Tables, _ *zap.Logger) (drop.HuntResult, error) {
		return t.Drop.Hunt(req), nil
	})
}

// Breakeven computes how long a buff must run to pay for itself.
func (s *Service) Breakeven(ctx context.Context, req drop.BreakevenInput) (drop.BreakevenResult, error) {
	return run(ctx, s, CalcBreakeven, req, func(t *tables.Tables, _ *zap.Logger) (drop.BreakevenResult, error) {
		return t.Drop.Breakeven(req), nil
	})
}
