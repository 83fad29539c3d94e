package main

import (
	"context"
	"log"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"pool_trader/internal/modules/analysis"
	"pool_trader/internal/modules/broker"
	"pool_trader/internal/modules/config"
	"pool_trader/internal/modules/executor"
	"pool_trader/internal/modules/health"
	"pool_trader/internal/modules/marketdata"
	"pool_trader/internal/modules/pools"
	"pool_trader/internal/modules/postgres"
	"pool_trader/internal/modules/rotation"
	"pool_trader/internal/modules/runconfig"
	"pool_trader/internal/modules/scoring"
	"pool_trader/pkg/logger"
	"pool_trader/pkg/tracing"
)

func main() {
	zl, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	logger.Init(zl)

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		postgres.Module(),
		pools.Module(),
		scoring.Module(),
		rotation.Module(),
		marketdata.Module(),
		analysis.Module(),
		runconfig.Module(),
		broker.Module(),
		executor.Module(),
		health.Module(),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) {
			if cfg.Tracing.Host == "" {
				return
			}
			_, closer, err := tracing.InitTracer(tracing.Config{
				Host: cfg.Tracing.Host,
				Port: cfg.Tracing.Port,
			})
			if err != nil {
				logger.Warn("tracing disabled: %v", err)
				return
			}
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					closer()
					return nil
				},
			})
		}),
	)
	if err := app.Start(context.Background()); err != nil {
		log.Fatal(err)
	}
	<-app.Done()
	if err := app.Stop(context.Background()); err != nil {
		log.Fatal(err)
	}
}
