package marketdata

import (
	"context"

	"go.uber.org/fx"

	"pool_trader/internal/modules/config"
	healthsvc "pool_trader/internal/modules/health/service"
	"pool_trader/internal/modules/marketdata/service"
	poolssvc "pool_trader/internal/modules/pools/service"
	"pool_trader/pkg/logger"
)

func Module() fx.Option {
	return fx.Module("marketdata",
		fx.Provide(
			func(cfg *config.Config, state *healthsvc.State) *service.Client {
				return service.NewClient(cfg, state)
			},
			service.NewPriceCache,
		),
		fx.Invoke(func(lc fx.Lifecycle, client *service.Client, cache *service.PriceCache, registry *poolssvc.Registry) {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})

			lc.Append(fx.Hook{
				OnStart: func(startCtx context.Context) error {
					entries, err := registry.ListActive(startCtx, nil)
					if err != nil {
						cancel()
						close(done)
						logger.Warn("tick watcher disabled, list pool: %v", err)
						return nil
					}
					symbols := make([]string, 0, len(entries))
					for _, e := range entries {
						symbols = append(symbols, e.Symbol)
					}
					go func() {
						defer close(done)
						service.RunWatcher(ctx, client, cache, symbols)
					}()
					return nil
				},
				OnStop: func(context.Context) error {
					cancel()
					<-done
					return nil
				},
			})
		}),
	)
}
