package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/newsletter/pkg/environment"
	"github.com/dmitrymomot/newsletter/pkg/httpserver"
	"github.com/dmitrymomot/newsletter/pkg/kv"
	"github.com/dmitrymomot/newsletter/pkg/logger"
	"github.com/dmitrymomot/newsletter/pkg/pg"
	"github.com/dmitrymomot/newsletter/pkg/redis"
	"github.com/dmitrymomot/newsletter/pkg/requestid"
)

var errUnknownBackend = errors.New("unknown KV_BACKEND")

func newLogger(cfg Config) *slog.Logger {
	log := logger.New(
		logger.WithEnvironment(environment.Parse(cfg.App.Env), cfg.App.Name),
		logger.WithLevelName(cfg.App.LogLevel),
		logger.WithContextExtractors(requestid.LogExtractor),
	)
	logger.SetAsDefault(log)
	return log
}

// backend is an opened key-value store plus what the process needs to
// watch and release it.
type backend struct {
	store  kv.Store
	checks []httpserver.Check
	close  func()
	purger interface {
		PurgeExpired(ctx context.Context) (int64, error)
	}
}

func openBackend(ctx context.Context, cfg Config, log *slog.Logger) (*backend, error) {
	switch cfg.App.KVBackend {
	case "", backendMemory:
		log.Warn("using in-memory storage, data is lost on restart")
		return &backend{store: kv.NewMemory(), close: func() {}}, nil

	case backendRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		store := redis.NewStorage(client, cfg.Redis)
		return &backend{
			store:  store,
			checks: []httpserver.Check{{Name: "redis", Fn: kv.Healthcheck(store)}},
			close: func() {
				if err := store.Close(); err != nil {
					log.Error("failed to close redis", logger.Error(err))
				}
			},
		}, nil

	case backendPostgres:
		pool, err := pg.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.App.AutoMigrate {
			if err := pg.Migrate(ctx, pool, cfg.Postgres, log); err != nil {
				pool.Close()
				return nil, err
			}
		}
		store := pg.NewStorage(pool)
		return &backend{
			store:  store,
			checks: []httpserver.Check{{Name: "postgres", Fn: kv.Healthcheck(store)}},
			close:  pool.Close,
			purger: store,
		}, nil

	default:
		return nil, fmt.Errorf("%w: %q", errUnknownBackend, cfg.App.KVBackend)
	}
}

// purgeLoop removes expired rows every interval until ctx is done. Backends
// with native TTLs have no purger and return immediately.
func (b *backend) purgeLoop(ctx context.Context, interval time.Duration, log *slog.Logger) {
	if b.purger == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := b.purger.PurgeExpired(ctx)
			if err != nil {
				log.ErrorContext(ctx, "failed to purge expired keys", logger.Error(err))
				continue
			}
			if n > 0 {
				log.InfoContext(ctx, "purged expired keys", logger.Count("count", int(n)))
			}
		}
	}
}
