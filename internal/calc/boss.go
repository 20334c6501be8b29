package calc

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/xtding233/maplecalc/internal/boss"
	"github.com/xtding233/maplecalc/internal/tables"
)

// Boss aggregates expected drops and meso value over every character's
// clears.
func (s *Service) Boss(ctx context.Context, req boss.Request) (boss.Result, error) {
	return run(ctx, s, CalcBoss, req, func(t *tables.Tables, log *zap.Logger) (boss.Result, error) {
		res, err := boss.Aggregate(t.Boss, req)
		if err != nil {
			if errors.Is(err, boss.ErrUnknownSource) {
				return boss.Result{}, invalid("characters", err)
			}
			return boss.Result{}, err
		}
		if len(res.Normalized) > 0 {
			log.Debug("box tables renormalized", zap.Strings("items", res.Normalized))
		}
		return res, nil
	})
}
