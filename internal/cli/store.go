package cli

import (
	"context"
	"fmt"

	"github.com/aretw0/psys/internal/config"
	"github.com/aretw0/psys/pkg/adapters/file"
	"github.com/aretw0/psys/pkg/adapters/memory"
	"github.com/aretw0/psys/pkg/adapters/redis"
	"github.com/aretw0/psys/pkg/persistence/middleware"
	"github.com/aretw0/psys/pkg/ports"
)

// OpenStore creates the run store selected by cfg, encrypting records when
// cfg.StoreKey is set. It returns a nil store for config.StoreNone. close must
// be called when done.
func OpenStore(ctx context.Context, cfg config.Config) (store ports.RunStore, close func() error, err error) {
	store, close, err = openBackend(ctx, cfg)
	if err != nil || store == nil {
		return store, close, err
	}

	active, fallback, err := cfg.EncryptionKeys()
	if err != nil {
		_ = close()
		return nil, func() error { return nil }, err
	}
	if active != nil {
		store = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		})(store)
	}
	return store, close, nil
}

func openBackend(ctx context.Context, cfg config.Config) (ports.RunStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store {
	case config.StoreNone, "":
		return nil, noop, nil
	case config.StoreMemory:
		return memory.NewStore(), noop, nil
	case config.StoreFile:
		return file.NewStore(cfg.StoreDir), noop, nil
	case config.StoreRedis:
		s := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, redis.WithTTL(cfg.Redis.TTL))
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, noop, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		return s, s.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown store %q", cfg.Store)
	}
}
