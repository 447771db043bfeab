// Package main provides the session sweeper daemon. It periodically closes
// combat sessions that sat idle past their TTL and folds any terminal
// session the recording step missed into player history.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/strikepoint/server/internal/cache"
	"github.com/strikepoint/server/internal/config"
	"github.com/strikepoint/server/internal/game/encounter"
	"github.com/strikepoint/server/internal/game/rng"
	"github.com/strikepoint/server/internal/observability"
	"github.com/strikepoint/server/internal/server"
	"github.com/strikepoint/server/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting session sweeper",
		zap.Duration("interval", cfg.Sweep.Interval),
		zap.Int("batch_size", cfg.Sweep.BatchSize),
		zap.Int("workers", cfg.Sweep.Workers),
	)

	// Connect to PostgreSQL for session and history state
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)

	deps := encounter.Deps{
		Sessions: postgres.NewSessionRepository(pool.DB()),
		Log:      postgres.NewLogRepository(pool.DB()),
		History:  postgres.NewHistoryRepository(pool.DB()),
		Content:  postgres.NewContentRepository(pool.DB()),
		Rand:     rng.NewLoggedSource(rng.NewCryptoSource(), logger),
		Logger:   logger,
	}

	// The cache is optional; when enabled the sweep drops entries for the
	// sessions it abandons so readers never see a stale ongoing copy.
	if cfg.Redis.Enabled {
		redisStart := time.Now()
		client, err := cache.NewClient(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal("connecting to redis", zap.Error(err))
		}
		defer client.Close()
		deps.Cache = cache.NewSessionCache(client, cfg.Combat.SessionTTL, logger)
		logger.Info("session cache connected",
			zap.String("address", cfg.Redis.Address),
			zap.Duration("elapsed", time.Since(redisStart)),
		)
	}

	manager, err := encounter.NewManager(deps, encounter.Options{
		TTL:          cfg.Combat.SessionTTL,
		LootDraws:    cfg.Combat.LootDraws,
		Curve:        cfg.Combat.Curve,
		SweepBatch:   cfg.Sweep.BatchSize,
		SweepWorkers: cfg.Sweep.Workers,
	})
	if err != nil {
		logger.Fatal("creating encounter manager", zap.Error(err))
	}

	// Wire lifecycle
	lifecycle := server.NewLifecycle(logger)

	lifecycle.Add("sweeper", encounter.NewSweeper(manager, cfg.Sweep.Interval, logger))

	lifecycle.Add("postgres", &server.FuncService{
		StartFn: func() error {
			for {
				time.Sleep(30 * time.Second)
				if err := pool.Health(ctx, 5*time.Second); err != nil {
					logger.Warn("database health check failed", zap.Error(err))
				}
			}
		},
		StopFn: func() {
			pool.Close()
		},
	})

	logger.Info("session sweeper initialized",
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("sweeper error", zap.Error(err))
	}
}
