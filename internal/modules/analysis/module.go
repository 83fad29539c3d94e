package analysis

import (
	"go.uber.org/fx"

	"pool_trader/internal/modules/analysis/service"
	analysispg "pool_trader/internal/modules/analysis/service/pg"
	"pool_trader/internal/modules/config"
	marketdatasvc "pool_trader/internal/modules/marketdata/service"
	poolssvc "pool_trader/internal/modules/pools/service"
	rotationsvc "pool_trader/internal/modules/rotation/service"
	scoringsvc "pool_trader/internal/modules/scoring/service"
	"pool_trader/pkg/db"
)

func Module() fx.Option {
	return fx.Module("analysis",
		fx.Provide(
			func(txm *db.PgTxManager) service.Store {
				return analysispg.New(txm)
			},
			func(st service.Store) poolssvc.AnalysisInvalidator {
				return st
			},
			func(md *marketdatasvc.Client) service.BarsProvider {
				return md
			},
			func(pc *marketdatasvc.PriceCache) service.PriceSource {
				return pc
			},
			func(an *rotationsvc.Analyzer) service.RotationSource {
				return an
			},
			func(
				cfg *config.Config,
				registry *poolssvc.Registry,
				scorer *scoringsvc.Engine,
				rotation service.RotationSource,
				provider service.BarsProvider,
				prices service.PriceSource,
				store service.Store,
				cfgSrc service.ConfigSource,
			) *service.Orchestrator {
				return service.NewOrchestrator(
					registry, scorer, rotation, provider, prices, store, cfgSrc,
					cfg.BarFetchCount, cfg.StalenessWindow,
				)
			},
		),
	)
}
