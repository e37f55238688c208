package main

import (
	"context"
	"fmt"

	"github.com/pantryplay/pantryplay/config"
	"github.com/pantryplay/pantryplay/pkg/agent"
	"github.com/pantryplay/pantryplay/pkg/api/events"
	"github.com/pantryplay/pantryplay/pkg/executor"
	"github.com/pantryplay/pantryplay/pkg/llm"
	"github.com/pantryplay/pantryplay/pkg/logger"
	"github.com/pantryplay/pantryplay/pkg/memory"
	"github.com/pantryplay/pantryplay/pkg/metrics"
	"github.com/pantryplay/pantryplay/pkg/storage"
	badgerstore "github.com/pantryplay/pantryplay/pkg/storage/badger"
	memstore "github.com/pantryplay/pantryplay/pkg/storage/memory"
	redisstore "github.com/pantryplay/pantryplay/pkg/storage/redis"
	sqlitestore "github.com/pantryplay/pantryplay/pkg/storage/sqlite"
	"github.com/pantryplay/pantryplay/pkg/task"
)

// redisKeyPrefix keeps Pantry Play keys apart on a shared Redis.
const redisKeyPrefix = "pantryplay:"

// app is the set of components every command works with.
type app struct {
	store   storage.Store
	memory  *memory.Memory
	agent   *agent.Agent
	events  *events.Broadcaster
	metrics *metrics.Manager
	log     logger.Logger
}

// newApp wires storage, the LLM provider, memory and the agent. A nil
// provider builds the configured one.
func newApp(ctx context.Context, cfg *config.Config, log logger.Logger, provider llm.Provider, m *metrics.Manager) (*app, error) {
	if m == nil {
		m = metrics.NoOpManager()
	}

	store, err := openStore(ctx, cfg.Storage, log)
	if err != nil {
		return nil, err
	}

	if provider == nil {
		provider, err = llm.New(cfg.LLM, log, m)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to create LLM provider: %w", err)
		}
	}

	mem, err := memory.New(ctx, store,
		memory.WithCapacity(cfg.Agent.MemoryCap),
		memory.WithNamespace(cfg.Agent.Namespace),
		memory.WithLogger(log),
		memory.WithMetrics(m),
	)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to load memory: %w", err)
	}

	broadcaster := events.NewBroadcaster()
	a, err := agent.New(
		executor.New(provider, executor.WithLogger(log)),
		mem,
		agent.WithLogger(log),
		agent.WithMetrics(m),
		agent.WithEvents(broadcaster),
		agent.WithRecentRecipes(cfg.Agent.RecentRecipes),
		agent.WithDeployment(task.Deployment(cfg.Agent.Deployment)),
	)
	if err != nil {
		broadcaster.Close()
		_ = store.Close()
		return nil, err
	}

	return &app{
		store:   store,
		memory:  mem,
		agent:   a,
		events:  broadcaster,
		metrics: m,
		log:     log,
	}, nil
}

// Close stops event delivery and releases the store.
func (a *app) Close() error {
	a.events.Close()
	if err := a.store.Close(); err != nil {
		a.log.Error("Error closing storage", "error", err)
		return err
	}
	return nil
}

func openStore(ctx context.Context, cfg config.StorageConfig, log logger.Logger) (storage.Store, error) {
	switch cfg.Type {
	case "memory", "":
		log.Info("Initialized memory storage")
		return memstore.New(), nil
	case "badger":
		store, err := badgerstore.New(&badgerstore.Config{
			Path:              cfg.Badger.Path,
			SyncWrites:        cfg.Badger.SyncWrites,
			ValueLogFileSize:  cfg.Badger.ValueLogFileSize,
			NumVersionsToKeep: cfg.Badger.NumVersionsToKeep,
			Logger:            log,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Badger storage: %w", err)
		}
		log.Info("Initialized Badger storage", "path", cfg.Badger.Path)
		return store, nil
	case "redis":
		store, err := redisstore.Dial(ctx, &redisstore.Config{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   redisKeyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Info("Initialized Redis storage", "address", cfg.Redis.Address)
		return store, nil
	case "sqlite":
		store, err := sqlitestore.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite storage: %w", err)
		}
		log.Info("Initialized SQLite storage", "path", cfg.SQLite.Path)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

func metricsConfig(cfg config.MetricsConfig) metrics.Config {
	mc := metrics.DefaultConfig()
	mc.Enabled = cfg.Enabled
	mc.Port = cfg.Port
	mc.Path = cfg.Path
	return mc
}
