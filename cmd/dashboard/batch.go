package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"go.uber.org/zap"
)

// runParallelCmd - локальный батч без HTTP, отчет пишется в data.tests_dir
func runParallelCmd(configDir *string) *cobra.Command {
	req := domain.DefaultParallelRequest()
	cmd := &cobra.Command{
		Use:   "run-parallel",
		Short: "Run a parallel conversation batch and write its report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), *configDir, func(ctx context.Context, a *app) error {
				summary, err := a.runner.RunParallel(ctx, req)
				if err != nil {
					return err
				}
				return printJSON(summary)
			})
		},
	}
	cmd.Flags().IntVar(&req.Concurrency, "concurrency", req.Concurrency, "Concurrent conversations")
	cmd.Flags().IntVar(&req.NumRuns, "num-runs", req.NumRuns, "Total conversations")
	cmd.Flags().StringVar(&req.Mode, "mode", req.Mode, "baseline or optimized")
	cmd.Flags().StringVar(&req.Scenario, "scenario", req.Scenario, "Scenario label")
	return cmd
}

func chaosCmd(configDir *string) *cobra.Command {
	req := domain.ChaosRequest{Scenario: "smoke_test", NumRuns: 10, Concurrency: 5}
	cmd := &cobra.Command{
		Use:   "chaos",
		Short: "Run a chaos batch with fault injection and write its report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), *configDir, func(ctx context.Context, a *app) error {
				summary, err := a.runner.RunChaos(ctx, req)
				if err != nil {
					return err
				}
				return printJSON(summary)
			})
		},
	}
	cmd.Flags().StringVar(&req.Scenario, "scenario", req.Scenario, "Scenario name used in the report file")
	cmd.Flags().IntVar(&req.NumRuns, "num-runs", req.NumRuns, "Total conversations")
	cmd.Flags().IntVar(&req.Concurrency, "concurrency", req.Concurrency, "Concurrent conversations")
	return cmd
}

func withApp(parent context.Context, configDir string, fn func(ctx context.Context, a *app) error) error {
	cfg, logger, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.close(closeCtx)
	}()

	start := time.Now()
	if err := fn(ctx, a); err != nil {
		return err
	}
	logger.Debug("batch command finished", zap.Duration("took", time.Since(start)))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("print: %w", err)
	}
	return nil
}
