package scoring

import (
	"go.uber.org/fx"

	"pool_trader/internal/modules/config"
	"pool_trader/internal/modules/scoring/service"
)

func Module() fx.Option {
	return fx.Module("scoring",
		fx.Provide(
			func(cfg *config.Config) *service.Engine {
				return service.NewEngine(cfg.MinHistoryBars)
			},
		),
	)
}
