package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	certservice "intake/internal/certificate/service"
	certmemory "intake/internal/certificate/store/memory"
	certpostgres "intake/internal/certificate/store/postgres"
	certsqlite "intake/internal/certificate/store/sqlite"
	intakeservice "intake/internal/intake/service"
	intakememory "intake/internal/intake/store/memory"
	intakepostgres "intake/internal/intake/store/postgres"
	intakesqlite "intake/internal/intake/store/sqlite"
	"intake/internal/platform/config"
	"intake/internal/platform/postgres"
	"intake/internal/platform/redis"
	"intake/internal/platform/sqlite"
	"intake/internal/ratelimit/ports"
	"intake/internal/ratelimit/store/bucket"
	"intake/internal/ratelimit/store/cooldown"
	"intake/internal/ratelimit/store/suspicious"
	"intake/pkg/platform/audit"
	auditmemory "intake/pkg/platform/audit/store/memory"
	auditpostgres "intake/pkg/platform/audit/store/postgres"
)

// infra holds the opened connections and every store built on them.
type infra struct {
	db    *sql.DB
	gorm  *gorm.DB
	redis *redis.Client

	applications intakeservice.Store
	certificates certservice.Store
	buckets      ports.BucketStore
	cooldowns    ports.CooldownStore
	suspicious   ports.SuspiciousStore
	audit        audit.Store
}

func openInfra(ctx context.Context, cfg config.Config, logger *slog.Logger) (*infra, error) {
	in := &infra{}

	needsPostgres := cfg.Storage.Driver == config.DriverPostgres || cfg.Throttle.Backend == config.BackendPostgres
	if needsPostgres {
		db, err := postgres.Open(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, err
		}
		in.db = db
		if err := postgres.Migrate(ctx, db); err != nil {
			in.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		in.applications = intakepostgres.New(in.db)
		in.certificates = certpostgres.New(in.db, cfg.Certificate.SerialPrefix)
		in.audit = auditpostgres.New(in.db)
	case config.DriverSQLite:
		gdb, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			in.Close()
			return nil, err
		}
		in.gorm = gdb
		apps, err := intakesqlite.New(gdb)
		if err != nil {
			in.Close()
			return nil, err
		}
		certs, err := certsqlite.New(gdb, cfg.Certificate.SerialPrefix)
		if err != nil {
			in.Close()
			return nil, err
		}
		in.applications = apps
		in.certificates = certs
	default:
		in.applications = intakememory.NewInMemoryStore()
		in.certificates = certmemory.NewInMemoryStore(cfg.Certificate.SerialPrefix)
	}
	if in.audit == nil {
		in.audit = auditmemory.NewRingStore(0)
	}

	switch cfg.Throttle.Backend {
	case config.BackendRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			in.Close()
			return nil, err
		}
		in.redis = client
		in.buckets = bucket.NewRedis(client.Client)
		in.cooldowns = cooldown.NewRedis(client.Client)
		in.suspicious = suspicious.NewRedis(client.Client)
	case config.BackendPostgres:
		in.buckets = bucket.NewPostgres(in.db)
		in.cooldowns = cooldown.NewPostgres(in.db)
		// Strike counts stay process-local on the postgres backend
		in.suspicious = suspicious.NewInMemoryStore()
	default:
		in.buckets = bucket.NewInMemoryBucketStore()
		in.cooldowns = cooldown.NewInMemoryCooldownStore()
		in.suspicious = suspicious.NewInMemoryStore()
	}

	logger.InfoContext(ctx, "stores ready",
		"storage_driver", cfg.Storage.Driver,
		"throttle_backend", cfg.Throttle.Backend,
	)
	return in, nil
}

// Ping reports the first unhealthy backing connection.
func (in *infra) Ping(ctx context.Context) error {
	if in.db != nil {
		if err := in.db.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	if in.gorm != nil {
		sqlDB, err := in.gorm.DB()
		if err != nil {
			return fmt.Errorf("sqlite: %w", err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("sqlite: %w", err)
		}
	}
	if in.redis != nil {
		if err := in.redis.Health(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (in *infra) Close() {
	if in.redis != nil {
		_ = in.redis.Close()
	}
	if in.gorm != nil {
		if sqlDB, err := in.gorm.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if in.db != nil {
		_ = in.db.Close()
	}
}
