package main

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/xela07ax/longevity-dashboard/internal/batch"
	"github.com/xela07ax/longevity-dashboard/internal/cache"
	"github.com/xela07ax/longevity-dashboard/internal/console/handler"
	"github.com/xela07ax/longevity-dashboard/internal/console/server"
	"github.com/xela07ax/longevity-dashboard/internal/console/service"
	"github.com/xela07ax/longevity-dashboard/internal/datasource"
	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"github.com/xela07ax/longevity-dashboard/internal/infra"
	"github.com/xela07ax/longevity-dashboard/internal/infra/auth"
	"github.com/xela07ax/longevity-dashboard/internal/settings"
	"github.com/xela07ax/longevity-dashboard/internal/simulation"
	"github.com/xela07ax/longevity-dashboard/internal/voice"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(*configDir)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return serve(cmd.Context(), cfg, logger)
		},
	}
}

func serve(parent context.Context, cfg *infra.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Инфраструктура
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.close(closeCtx)
	}()

	// 2. Периметр: без публичного ключа мутирующие эндпоинты открыты
	validator, signer, err := buildAuth(cfg.Auth, logger)
	if err != nil {
		return err
	}

	// 3. Голосовой мост
	var provider voice.Provider
	if cfg.Voice.APIKey != "" {
		provider = voice.NewClient(cfg.Voice.BaseURL, cfg.Voice.APIKey, &http.Client{Timeout: cfg.Voice.CallTimeout})
	} else {
		logger.Info("voice bridge disabled: voice.api_key is empty")
	}
	voiceSvc := voice.NewService(provider, voice.NewReliabilityWrapper(cfg.Voice, a.metrics, logger), cfg.Voice, logger)

	// 4. Настройки темы: Redis, если есть, иначе память процесса
	var themeStore settings.Store = settings.NewMemoryStore()
	if a.rdb != nil {
		themeStore = settings.NewRedisStore(a.rdb)
	}

	sims := simulation.NewManager(simulation.Options{
		StepInterval:  cfg.Simulation.StepInterval,
		StageInterval: cfg.Simulation.StageInterval,
	}, cfg.Simulation.SessionTTL, a.metrics, logger)

	loader := handler.NewLoader(a.cache, datasource.NewFallback(cfg.Data.MocksDir, a.metrics, logger), logger)
	h := server.Handlers{
		Auth:       handler.NewAuthHandler(service.NewAuthService(cfg.Auth.Users, signer, cfg.Auth.TokenTTL), logger),
		Runs:       handler.NewRunsHandler(datasource.NewRunSource(cfg.Data.Dir, cfg.Data.TestsDir, logger), datasource.TestCatalog{}, loader, logger),
		Evals:      handler.NewEvalsHandler(datasource.NewEvalSource(cfg.Data.EvalsDir, logger), loader, logger),
		Chaos:      handler.NewChaosHandler(datasource.NewChaosSource(cfg.Data.TestsDir, logger), a.runner, loader, logger),
		Batches:    handler.NewBatchHandler(a.runner, a.store, logger),
		Simulation: handler.NewSimulationHandler(sims, logger),
		Settings:   handler.NewSettingsHandler(settings.NewService(themeStore, logger), logger),
		Catalog:    handler.NewCatalogHandler(cfg.Batch.Model),
		Voice:      handler.NewVoiceHandler(voiceSvc, logger),
	}
	api := server.NewDashboardServer(cfg, logger, validator, a.metrics, a.registry, h)

	scheduler := batch.NewScheduler(a.runner, a.rdb, domain.DefaultParallelRequest(), logger)
	if err := scheduler.Start(cfg.Batch.Schedule); err != nil {
		return err
	}
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	grpcSrv := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)

	// 5. Фоновые процессы живут до сигнала
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sims.Run(gctx)
		return nil
	})
	g.Go(func() error {
		a.cache.Listen(gctx)
		return nil
	})
	if cfg.Data.Watch {
		w := cache.NewWatcher(a.cache, logger, cfg.Data.Dir, cfg.Data.EvalsDir, cfg.Data.TestsDir)
		g.Go(func() error { return w.Run(gctx) })
	}
	if cfg.GRPC.Enabled {
		g.Go(func() error {
			lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPC.Port))
			if err != nil {
				return fmt.Errorf("grpc listen: %w", err)
			}
			logger.Info("grpc health server started", zap.Int("port", cfg.GRPC.Port))
			return grpcSrv.Serve(lis)
		})
	}
	g.Go(func() error {
		logger.Info("dashboard api started", zap.String("addr", srv.Addr))
		healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		return ignoreServerClosed(srv.ListenAndServe())
	})

	// 6. Graceful Shutdown
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("dashboard stopping...")
		healthSrv.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		grpcSrv.GracefulStop()
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("dashboard exited properly")
	return nil
}

// buildAuth разбирает ключи. Закрытый ключ нужен только для выдачи токенов.
func buildAuth(cfg infra.AuthConfig, logger *zap.Logger) (auth.TokenValidator, *rsa.PrivateKey, error) {
	var signer *rsa.PrivateKey
	if len(cfg.PrivateKey) > 0 {
		key, err := auth.ParseRSAPrivateKey(cfg.PrivateKey)
		if err != nil {
			return nil, nil, fmt.Errorf("auth private key: %w", err)
		}
		signer = key
	}
	if len(cfg.PublicKey) == 0 {
		logger.Warn("auth disabled: no public key, mutating endpoints are open")
		return nil, signer, nil
	}
	pub, err := auth.ParseRSAPublicKey(cfg.PublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("auth public key: %w", err)
	}
	return auth.NewRS256Validator(pub), signer, nil
}
