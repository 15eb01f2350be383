// @title        RBAC Accounts API
// @version      1.0
// @description  Account registration, sign-in, role-gated views and user administration.
// @BasePath     /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/99minutos/rbac-accounts/internal/api"
	"github.com/99minutos/rbac-accounts/internal/api/metrics"
	"github.com/99minutos/rbac-accounts/internal/core/ports"
	"github.com/99minutos/rbac-accounts/internal/core/service"
	"github.com/99minutos/rbac-accounts/internal/infrastructure/config"
	"github.com/99minutos/rbac-accounts/internal/infrastructure/db/memory"
	mongostore "github.com/99minutos/rbac-accounts/internal/infrastructure/db/mongo"
	redisstore "github.com/99minutos/rbac-accounts/internal/infrastructure/db/redis"
	"github.com/99minutos/rbac-accounts/internal/infrastructure/db/sqlite"
	"github.com/99minutos/rbac-accounts/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// store is a persistence backend that can also report readiness.
type store interface {
	ports.KVStore
	ports.Pinger
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "rbac-accounts",
		Version: version,
	})

	kv, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	log.Info().Str("backend", cfg.StoreBackend).Msg("store ready")

	hasher, err := service.NewPasswordHasher(cfg.PasswordHasher, cfg.BcryptCost)
	if err != nil {
		return err
	}

	accounts := service.NewAccountService(kv, hasher, logger.Component("accounts"))
	sessions := service.NewSessionService(kv, logger.Component("sessions"))

	if cfg.Seed.Enabled {
		if _, err := accounts.SeedAdmin(ctx, cfg.Seed.Email, cfg.Seed.Name, cfg.Seed.Password); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := metrics.Register(reg); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	e := api.NewRouter(api.Deps{
		Accounts: accounts,
		Sessions: sessions,
		Tokens:   service.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Pingers:  map[string]ports.Pinger{cfg.StoreBackend: kv},
		Registry: reg,
		Log:      logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// openStore connects the configured backend and returns it with its cleanup.
func openStore(ctx context.Context, cfg *config.Config) (store, func(), error) {
	log := logger.Component("store")
	noop := func() {}

	switch cfg.StoreBackend {
	case config.BackendMemory:
		return memory.NewKVStore(), noop, nil

	case config.BackendRedis:
		client, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, noop, err
		}
		return redisstore.NewKVStore(client), closeWith(log, "redis", client.Close), nil

	case config.BackendMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:                    cfg.Mongo.URI,
			Database:               cfg.Mongo.Database,
			AppName:                cfg.Mongo.AppName,
			ConnectTimeout:         cfg.Mongo.ConnectTimeout,
			ServerSelectionTimeout: cfg.Mongo.ServerSelectionTimeout,
			MaxPoolSize:            cfg.Mongo.MaxPoolSize,
		})
		if err != nil {
			return nil, noop, err
		}
		disconnect := func() error { return mongostore.Disconnect(client, shutdownTimeout) }
		return mongostore.NewKVStore(db), closeWith(log, "mongo", disconnect), nil

	case config.BackendSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, noop, err
		}
		return sqlite.NewKVStore(db), closeWith(log, "sqlite", db.Close), nil
	}

	return nil, noop, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

func closeWith(log zerolog.Logger, name string, fn func() error) func() {
	return func() {
		if err := fn(); err != nil {
			log.Warn().Err(err).Str("backend", name).Msg("close failed")
		}
	}
}
