package rotation

import (
	"go.uber.org/fx"

	"pool_trader/internal/modules/config"
	marketdata "pool_trader/internal/modules/marketdata/service"
	"pool_trader/internal/modules/rotation/service"
)

func Module() fx.Option {
	return fx.Module("rotation",
		fx.Provide(
			func(cfg *config.Config, md *marketdata.Client) (*service.Analyzer, error) {
				defs, err := service.LoadFactorDefs(cfg.FactorsFile)
				if err != nil {
					return nil, err
				}
				return service.NewAnalyzer(defs, md), nil
			},
		),
	)
}
