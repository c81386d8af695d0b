package history

import (
	"context"
	"fmt"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds history storage configuration.
type Config struct {
	// DatabaseURL is a postgres:// URL, "memory", or a SQLite file path.
	DatabaseURL string
	// RedisAddr enables the step cache when non-empty.
	RedisAddr   string
	CachePrefix string
	CacheTTL    time.Duration
	DBDebug     bool
}

// DefaultConfig returns a SQLite-backed configuration without caching.
func DefaultConfig() Config {
	return Config{
		DatabaseURL: "calculator.db",
		CachePrefix: "calculator:",
		CacheTTL:    10 * time.Minute,
	}
}

// Module owns the history store for the lifetime of the application.
type Module struct {
	cfg     Config
	backend Backend
	store   Store
	logger  types.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a history module.
func NewModule(cfg Config, logger types.Logger) *Module {
	return &Module{
		cfg:     cfg,
		backend: BackendFor(cfg.DatabaseURL),
		logger:  logger,
	}
}

// NewModuleWithStore creates a history module around an existing store.
func NewModuleWithStore(store Store, logger types.Logger) *Module {
	return &Module{
		backend: BackendMemory,
		store:   store,
		logger:  logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "history"
}

// Store returns the opened store. It is nil before Start.
func (m *Module) Store() Store {
	return m.store
}

// Start opens the configured backend and wraps it with the Redis cache
// when one is configured.
func (m *Module) Start(ctx context.Context) error {
	if m.store != nil {
		m.logger.Info("History module started with injected store")
		return nil
	}

	store, err := m.open(ctx)
	if err != nil {
		return err
	}

	if m.cfg.RedisAddr != "" {
		client, err := NewRedisClient(ctx, m.cfg.RedisAddr)
		if err != nil {
			_ = store.Close()
			return err
		}
		store = NewCachedStore(store, NewCache(client, m.cfg.CachePrefix, m.cfg.CacheTTL), m.logger)
		m.logger.Info("Step cache enabled",
			"redis", m.cfg.RedisAddr,
			"prefix", m.cfg.CachePrefix,
			"ttl", m.cfg.CacheTTL.String())
	}

	m.store = store
	m.logger.Info("History module started", "backend", string(m.backend))
	return nil
}

func (m *Module) open(ctx context.Context) (Store, error) {
	switch m.backend {
	case BackendPostgres:
		pg, err := NewPostgresStore(ctx, m.cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return pg, nil

	case BackendMemory:
		return NewMemoryStore(), nil

	default:
		logLevel := logger.Silent
		if m.cfg.DBDebug {
			logLevel = logger.Info
		}

		m.logger.Info("Connecting to SQLite database", "path", m.cfg.DatabaseURL)
		db, err := gorm.Open(sqlite.Open(m.cfg.DatabaseURL), &gorm.Config{
			Logger: logger.Default.LogMode(logLevel),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		gs := NewGormStore(db)
		if err := gs.Migrate(); err != nil {
			_ = gs.Close()
			return nil, err
		}
		return gs, nil
	}
}

// Stop closes the store.
func (m *Module) Stop(_ context.Context) error {
	if m.store == nil {
		return nil
	}
	if err := m.store.Close(); err != nil {
		m.logger.Error("Failed to close history store", "error", err)
		return err
	}
	m.logger.Info("History module stopped")
	return nil
}

// Health pings the store.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.store == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "store not initialized",
		}
	}

	if err := m.store.Ping(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("store ping failed: %v", err),
		}
	}

	details := map[string]any{
		"backend": string(m.backend),
	}
	if cs, ok := m.store.(*CachedStore); ok {
		details["cache"] = cs.CacheStats()
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: details,
	}
}
