package broker

import (
	"go.uber.org/fx"

	"pool_trader/internal/modules/broker/service"
)

func Module() fx.Option {
	return fx.Module("broker",
		fx.Provide(
			service.NewClient,
		),
	)
}
