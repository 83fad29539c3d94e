package runconfig

import (
	"go.uber.org/fx"

	analysissvc "pool_trader/internal/modules/analysis/service"
	"pool_trader/internal/modules/runconfig/service"
	runconfigpg "pool_trader/internal/modules/runconfig/service/pg"
	"pool_trader/pkg/db"
)

func Module() fx.Option {
	return fx.Module("runconfig",
		fx.Provide(
			func(txm *db.PgTxManager) service.Backend {
				return runconfigpg.New(txm)
			},
			service.NewStore,
			func(st *service.Store) analysissvc.ConfigSource {
				return st
			},
		),
	)
}
