package health

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/fx"

	"pool_trader/internal/modules/config"
	"pool_trader/internal/modules/health/service"
)

type Config struct {
	Addr string
}

func NewHTTPConfig(cfg *config.Config) Config {
	port := cfg.Service.AdminPort
	if port == 0 {
		port = 8080
	}
	return Config{Addr: fmt.Sprintf(":%d", port)}
}

func NewMux(state *service.State) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !state.Ready() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"ready":         state.Ready(),
			"wsConnected":   state.WSConnected(),
			"cycleRunning":  state.CycleRunning(),
			"uptimeSec":     int64(state.Uptime().Seconds()),
			"lastTickUnix":  unixOrZero(state.LastTick()),
			"lastCycleUnix": unixOrZero(state.LastCycle()),
		}
		w.Header().Set("Content-Type", "application/json")
		payload, _ := sonic.Marshal(resp)
		_, _ = w.Write(payload)
	})

	return mux
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func RunHTTP(lc fx.Lifecycle, cfg Config, mux *http.ServeMux) {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return err
			}
			go func() { _ = srv.Serve(ln) }()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("health",
		fx.Provide(
			service.NewState,
			NewHTTPConfig,
			NewMux,
		),
		fx.Invoke(RunHTTP),
	)
}
