package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"pool_trader/internal/models"
)

// Backend round-trips the whole RunConfig record. There is deliberately
// no per-field mapping anywhere in the persistence path: a newly added
// field cannot be dropped by an incomplete column list.
type Backend interface {
	Load(ctx context.Context) (models.RunConfig, error)
	Save(ctx context.Context, cfg models.RunConfig) error
}

// Store versions the singleton run configuration and verifies every
// write by reading it back.
type Store struct {
	backend Backend
}

func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// Current returns the persisted configuration, or the defaults when
// nothing has been written yet. Callers must re-read at every cycle
// boundary instead of caching across cycles.
func (s *Store) Current(ctx context.Context) (cfg models.RunConfig, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("runconfig.Current: %w", err)
		}
	}()

	cfg, err = s.backend.Load(ctx)
	if errors.Is(err, models.ErrNotFound) {
		return models.DefaultRunConfig(), nil
	}
	if err != nil {
		return models.RunConfig{}, err
	}
	return cfg, nil
}

// Update persists the record, reads it back and compares the two
// serialized forms. Any divergence is ErrConfigMismatch — fatal to this
// update, never ignored. The read-back record is returned so the caller
// can confirm every field, including enable_real_trading, actually
// persisted.
func (s *Store) Update(ctx context.Context, cfg models.RunConfig) (out models.RunConfig, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("runconfig.Update: %w", err)
		}
	}()

	cur, err := s.Current(ctx)
	if err != nil {
		return models.RunConfig{}, err
	}
	cfg.Version = cur.Version + 1
	cfg.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if err = s.backend.Save(ctx, cfg); err != nil {
		return models.RunConfig{}, err
	}

	out, err = s.backend.Load(ctx)
	if err != nil {
		return models.RunConfig{}, err
	}

	want, err := sonic.Marshal(cfg)
	if err != nil {
		return models.RunConfig{}, err
	}
	got, err := sonic.Marshal(out)
	if err != nil {
		return models.RunConfig{}, err
	}
	if !bytes.Equal(want, got) {
		return models.RunConfig{}, errors.Wrapf(models.ErrConfigMismatch,
			"wrote %s, read back %s", want, got)
	}
	return out, nil
}
