package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/longevity-dashboard/internal/batch"
	"github.com/xela07ax/longevity-dashboard/internal/cache"
	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"github.com/xela07ax/longevity-dashboard/internal/infra"
	"github.com/xela07ax/longevity-dashboard/internal/metrics"
	"github.com/xela07ax/longevity-dashboard/internal/recorder"
	"github.com/xela07ax/longevity-dashboard/internal/repository"
	"go.uber.org/zap"
)

// app - общие ресурсы, которые нужны и серверу, и локальным батчам
type app struct {
	cfg      *infra.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	rdb      *redis.Client // nil - Redis выключен
	store    repository.Store
	recorder *recorder.Recorder
	cache    *cache.Layered
	runner   *batch.Runner
}

func newApp(ctx context.Context, cfg *infra.Config, logger *zap.Logger) (*app, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	a := &app{cfg: cfg, logger: logger, registry: reg, metrics: m}

	if cfg.Redis.Enabled {
		a.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := a.rdb.Ping(ctx).Err(); err != nil {
			// Кэш L2, pub/sub и тема переживут без Redis, но лучше знать сразу
			logger.Warn("redis unreachable, continuing with local cache", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
	}

	store, err := repository.Open(ctx, cfg.Database)
	if err != nil {
		a.closeRedis()
		return nil, err
	}
	a.store = store

	a.recorder = recorder.New(store, cfg.Recorder, m, logger)
	a.recorder.Start()

	a.cache = cache.NewLayered(a.rdb, cfg.Cache.TTL, m, logger)

	a.runner = batch.NewRunner(
		batch.NewMockConversation(cfg.Batch.MockLatencyMin, cfg.Batch.MockLatencyMax, uint64(time.Now().UnixNano())),
		cfg.Data.TestsDir,
		batch.Limits{
			MaxConcurrency: cfg.Batch.MaxConcurrency,
			MaxRuns:        cfg.Batch.MaxRuns,
			TurnLimit:      cfg.Batch.TurnLimit,
			Model:          cfg.Batch.Model,
			RunTimeout:     cfg.Batch.RunTimeout,
		},
		domain.ChaosConfig{
			Enabled:          true,
			JitterMinMs:      cfg.Batch.ChaosJitterMinMs,
			JitterMaxMs:      cfg.Batch.ChaosJitterMaxMs,
			NetworkFailProb:  cfg.Batch.ChaosNetFailProb,
			ToolFailProb:     cfg.Batch.ChaosToolFailProb,
			LLMBadOutputProb: cfg.Batch.ChaosBadOutputProb,
		},
		batch.Deps{Recorder: a.recorder, Store: store, Notifier: a.cache, Metrics: m},
		logger,
	)
	return a, nil
}

// close останавливает фоновые батчи, сбрасывает буфер записей и закрывает хранилища
func (a *app) close(ctx context.Context) {
	if err := a.runner.Shutdown(ctx); err != nil {
		a.logger.Warn("background batches did not finish", zap.Error(err))
	}
	a.recorder.Stop()
	if err := a.store.Close(); err != nil {
		a.logger.Warn("store close failed", zap.Error(err))
	}
	a.closeRedis()
}

func (a *app) closeRedis() {
	if a.rdb == nil {
		return
	}
	if err := a.rdb.Close(); err != nil {
		a.logger.Warn("redis close failed", zap.Error(err))
	}
}

func loadConfig(configDir string) (*infra.Config, *zap.Logger, error) {
	var paths []string
	if configDir != "" {
		paths = append(paths, configDir)
	}
	cfg, err := infra.LoadConfig(paths...)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// ignoreServerClosed - ListenAndServe после Shutdown возвращает ErrServerClosed
func ignoreServerClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
