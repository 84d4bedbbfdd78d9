package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/starfuse/starfuse/internal/domain/auth"
	"github.com/starfuse/starfuse/internal/domain/fusion"
	"github.com/starfuse/starfuse/internal/domain/records"
	"github.com/starfuse/starfuse/internal/infra/config"
	"github.com/starfuse/starfuse/internal/infra/fusioncache"
	"github.com/starfuse/starfuse/internal/infra/historyrepo"
	"github.com/starfuse/starfuse/internal/infra/registry"
	"github.com/starfuse/starfuse/internal/infra/weather/openmeteo"
)

func provideFusionConfig(cfg *config.Config) fusion.Config {
	return fusion.Config{
		CacheTTL: cfg.Fusion.CacheTTL,
	}
}

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:       cfg.Auth.Secret,
		TokenTTL:     cfg.Auth.TokenTTL,
		Username:     cfg.Auth.Username,
		Password:     cfg.Auth.Password,
		PasswordHash: cfg.Auth.PasswordHash,
	}
}

func provideRegistryClient(cfg *config.Config, logger *slog.Logger) *registry.Client {
	return registry.NewClient(cfg.Registry.Endpoints, cfg.Registry.RequestTimeout, cfg.Registry.HealthTimeout, logger)
}

func provideWeatherClient(cfg *config.Config, logger *slog.Logger) *openmeteo.Client {
	return openmeteo.NewClient(cfg.Weather.BaseURL, cfg.Weather.RequestTimeout, logger)
}

func provideFusionCache(cfg *config.Config, logger *slog.Logger) fusion.Cache {
	if cfg.Cache.Enabled {
		opt, err := buildValkeyOptions(cfg)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory cache", "error", err)
			return fusioncache.NewMemoryStore()
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory cache", "error", err)
			return fusioncache.NewMemoryStore()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory cache", "error", err)
		} else {
			logger.Info("valkey fusion cache enabled", "addr", cfg.Cache.Addr)
			return fusioncache.NewValkeyStore(client, cfg.Cache.KeyPrefix)
		}
	}
	return fusioncache.NewMemoryStore()
}

// historyRepository is the combined persistence surface backed by one store.
type historyRepository interface {
	fusion.History
	records.Repository
}

func provideHistoryRepository(cfg *config.Config, logger *slog.Logger) historyRepository {
	fallback := historyrepo.NewMemoryRepository()
	dsn := strings.TrimSpace(cfg.History.DSN)
	if dsn == "" {
		logger.Info("history postgres dsn not set, using memory repository")
		return fallback
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repository", "error", err)
		return fallback
	}
	if cfg.History.MaxConns > 0 {
		poolConfig.MaxConns = cfg.History.MaxConns
	}
	if cfg.History.MinConns > 0 {
		poolConfig.MinConns = cfg.History.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repository", "error", err)
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repository", "error", err)
		pool.Close()
		return fallback
	}
	logger.Info("history postgres repository enabled")
	return historyrepo.NewPostgresRepository(pool)
}

func provideFusionHistory(repo historyRepository) fusion.History {
	return repo
}

func provideRecordsRepository(repo historyRepository) records.Repository {
	return repo
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Cache.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Cache.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Cache.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}
