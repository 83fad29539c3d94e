package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	healthsvc "pool_trader/internal/modules/health/service"
	"pool_trader/pkg/logger"
)

// Engine drives the recurring decide-and-execute cycle. One cycle at a
// time; the real/simulated branch is chosen from the configuration read
// at that cycle's start, never from a cached copy.
type Engine struct {
	cfgSrc   ConfigSource
	orch     AnalysisPipeline
	gateway  Gateway
	ledger   TradeLedger
	book     *PositionBook
	notifier Notifier
	health   *healthsvc.State

	runID string

	cycleMu  sync.Mutex // guarantees a single active cycle
	symMu    sync.Mutex
	symLocks map[string]*sync.Mutex

	inflight sync.WaitGroup // real submissions that must reach a terminal status

	cancel context.CancelFunc
	done   chan struct{}
}

func NewEngine(
	cfgSrc ConfigSource,
	orch AnalysisPipeline,
	gateway Gateway,
	ledger TradeLedger,
	book *PositionBook,
	notifier Notifier,
	health *healthsvc.State,
) *Engine {
	return &Engine{
		cfgSrc:   cfgSrc,
		orch:     orch,
		gateway:  gateway,
		ledger:   ledger,
		book:     book,
		notifier: notifier,
		health:   health,
		runID:    fmt.Sprintf("run-%d", time.Now().UnixNano()),
		symLocks: make(map[string]*sync.Mutex),
		done:     make(chan struct{}),
	}
}

// Start launches the cycle loop. The interval is re-read from the
// persisted configuration together with everything else, so an operator
// update takes effect at the next boundary, never mid-cycle.
func (e *Engine) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	e.cancel = cancel

	go func() {
		defer close(e.done)
		for {
			cfg, err := e.cfgSrc.Current(ctx)
			if err != nil {
				logger.Error("executor: read run config: %v", err)
				cfg.IntervalSeconds = 60
			} else if cfg.Enabled {
				e.RunCycle(ctx, cfg)
			}

			interval := cfg.Interval()
			if interval <= 0 {
				interval = time.Minute
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(interval):
			}
		}
	}()
}

// Stop halts the loop. In-flight order submissions are allowed to reach
// a terminal status first; nothing is abandoned mid-submission without a
// recorded outcome.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	<-e.done
	e.inflight.Wait()
	logger.Info("executor stopped, run=%s", e.runID)
}

func (e *Engine) RunID() string { return e.runID }

// symbolLock serializes trade writes per symbol: no two concurrent
// submissions for the same instrument.
func (e *Engine) symbolLock(symbol string) *sync.Mutex {
	e.symMu.Lock()
	defer e.symMu.Unlock()

	l, ok := e.symLocks[symbol]
	if !ok {
		l = &sync.Mutex{}
		e.symLocks[symbol] = l
	}
	return l
}
