// Package memory — serialized in-process backend for tests and database-
// free runs. It stores the marshalled record, so it round-trips exactly
// like the pg backend does.
package memory

import (
	"context"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"pool_trader/internal/models"
)

type Backend struct {
	mu      sync.RWMutex
	payload []byte
}

func New() *Backend {
	return &Backend{}
}

func (b *Backend) Load(ctx context.Context) (models.RunConfig, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.payload == nil {
		return models.RunConfig{}, errors.Wrap(models.ErrNotFound, "run config")
	}
	var cfg models.RunConfig
	if err := sonic.Unmarshal(b.payload, &cfg); err != nil {
		return models.RunConfig{}, err
	}
	return cfg, nil
}

func (b *Backend) Save(ctx context.Context, cfg models.RunConfig) error {
	payload, err := sonic.Marshal(cfg)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.payload = payload
	return nil
}
