package executor

import (
	"context"

	"go.uber.org/fx"

	"pool_trader/internal/models"
	analysissvc "pool_trader/internal/modules/analysis/service"
	brokersvc "pool_trader/internal/modules/broker/service"
	"pool_trader/internal/modules/config"
	"pool_trader/internal/modules/executor/service"
	executorpg "pool_trader/internal/modules/executor/service/pg"
	healthsvc "pool_trader/internal/modules/health/service"
	marketdatasvc "pool_trader/internal/modules/marketdata/service"
	runconfigsvc "pool_trader/internal/modules/runconfig/service"
	"pool_trader/internal/notify"
	"pool_trader/pkg/db"
	"pool_trader/pkg/logger"
)

// brokerGateway adapts the brokerage client to the engine's Gateway.
type brokerGateway struct {
	client *brokersvc.Client
}

func (g *brokerGateway) SubmitOrder(ctx context.Context, symbol string, side models.Side, qty float64, idempotencyKey string) (service.OrderAck, error) {
	res, err := g.client.SubmitOrder(ctx, symbol, side, qty, idempotencyKey)
	if err != nil {
		return service.OrderAck{}, err
	}
	return service.OrderAck{OrderRef: res.OrderRef, Status: res.Status}, nil
}

func (g *brokerGateway) GetOrderStatus(ctx context.Context, orderRef string) (string, error) {
	return g.client.GetOrderStatus(ctx, orderRef)
}

func newNotifier(cfg *config.Config, book *service.PositionBook, ledger service.TradeLedger, md *marketdatasvc.Client, broker *brokersvc.Client) notify.Notifier {
	if cfg.Telegram.Token == "" {
		return notify.NewStdout()
	}
	tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, book, ledger, md, broker)
	if err != nil {
		logger.Warn("telegram init failed, falling back to stdout: %v", err)
		return notify.NewStdout()
	}
	return tg
}

func Module() fx.Option {
	return fx.Module("executor",
		fx.Provide(
			func(txm *db.PgTxManager) service.TradeLedger {
				return executorpg.New(txm)
			},
			service.NewPositionBook,
			newNotifier,
			func(n notify.Notifier) service.Notifier {
				return n
			},
			func(c *brokersvc.Client) service.Gateway {
				return &brokerGateway{client: c}
			},
			func(st *runconfigsvc.Store) service.ConfigSource {
				return st
			},
			func(
				cfgSrc service.ConfigSource,
				orch *analysissvc.Orchestrator,
				gateway service.Gateway,
				ledger service.TradeLedger,
				book *service.PositionBook,
				notifier service.Notifier,
				health *healthsvc.State,
			) *service.Engine {
				return service.NewEngine(cfgSrc, orch, gateway, ledger, book, notifier, health)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, engine *service.Engine, n notify.Notifier, health *healthsvc.State) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					if tg, ok := n.(*notify.Telegram); ok {
						if err := tg.Start(context.Background()); err != nil {
							logger.Warn("telegram polling: %v", err)
						}
					}
					engine.Start(context.Background())
					health.SetReady(true)
					logger.Info("executor started, run=%s", engine.RunID())
					return nil
				},
				OnStop: func(ctx context.Context) error {
					health.SetReady(false)
					engine.Stop()
					if tg, ok := n.(*notify.Telegram); ok {
						tg.Stop()
					}
					return nil
				},
			})
		}),
	)
}
