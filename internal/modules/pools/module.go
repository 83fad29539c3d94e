package pools

import (
	"go.uber.org/fx"

	"pool_trader/internal/modules/pools/service"
	"pool_trader/internal/modules/pools/service/pg"
	"pool_trader/pkg/db"
)

func Module() fx.Option {
	return fx.Module("pools",
		fx.Provide(
			func(txm *db.PgTxManager) service.Store {
				return pg.New(txm)
			},
			service.NewRegistry,
		),
	)
}
