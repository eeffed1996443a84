package batch

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Сценарий попадает в имя файла отчета
var scenarioPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// DefaultChaosConfig - конфигурация chaos-слоя из настроек batch.*
func (r *Runner) DefaultChaosConfig() domain.ChaosConfig {
	cfg := r.chaos
	cfg.Enabled = true
	return cfg
}

func (r *Runner) validateChaos(req *domain.ChaosRequest) (domain.ChaosConfig, error) {
	if !scenarioPattern.MatchString(req.Scenario) {
		return domain.ChaosConfig{}, fmt.Errorf("%w: scenario must match %s", domain.ErrInvalidRequest, scenarioPattern)
	}
	if err := r.checkBounds(req.Concurrency, req.NumRuns); err != nil {
		return domain.ChaosConfig{}, err
	}
	cfg := r.DefaultChaosConfig()
	if req.Config != nil {
		cfg = *req.Config
		cfg.Enabled = true
	}
	if cfg.JitterMinMs < 0 || cfg.JitterMinMs > cfg.JitterMaxMs {
		return domain.ChaosConfig{}, fmt.Errorf("%w: jitter bounds", domain.ErrInvalidRequest)
	}
	for _, p := range []float64{cfg.NetworkFailProb, cfg.ToolFailProb, cfg.LLMBadOutputProb} {
		if p < 0 || p > 1 {
			return domain.ChaosConfig{}, fmt.Errorf("%w: probabilities must be in [0, 1]", domain.ErrInvalidRequest)
		}
	}
	return cfg, nil
}

// RunChaos гоняет разговоры через слой инъекции отказов и пишет
// data/tests/chaos_<scenario>_<ts>.json
func (r *Runner) RunChaos(ctx context.Context, req domain.ChaosRequest) (*domain.ChaosSummary, error) {
	cfg, err := r.validateChaos(&req)
	if err != nil {
		return nil, err
	}
	batchID := uuid.NewString()
	log := r.logger.With(zap.String("batch_id", batchID), zap.String("scenario", req.Scenario))
	log.Info("chaos batch started", zap.Int("num_runs", req.NumRuns), zap.Any("chaos_config", cfg))
	r.publish(ctx, domain.BatchEvent{BatchID: batchID, Kind: domain.BatchChaos, Status: domain.BatchStarted})

	conv := NewChaosRunner(r.conv, cfg, uint64(time.Now().UnixNano()), r.metrics)

	start := time.Now()
	runs := make([]domain.ChaosRun, req.NumRuns)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(req.Concurrency)
	for i := 0; i < req.NumRuns; i++ {
		g.Go(func() error {
			res := r.runOne(gctx, conv, batchID, RunSpec{
				Index:      i,
				Mode:       domain.ModeBaseline,
				ScenarioID: req.Scenario,
				TurnLimit:  r.limits.TurnLimit,
				Model:      r.limits.Model,
			}, domain.BatchChaos)
			runs[i] = domain.ChaosRun{
				RunID:     res.RunID,
				Scenario:  req.Scenario,
				Success:   res.Success,
				LatencyMs: res.LatencyMs,
				Errors:    res.Errors,
			}
			if runs[i].Errors == nil {
				runs[i].Errors = []string{}
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		r.publish(context.Background(), domain.BatchEvent{BatchID: batchID, Kind: domain.BatchChaos, Status: domain.BatchFailed})
		return nil, fmt.Errorf("chaos batch %s: %w", batchID, err)
	}

	summary := SummarizeChaos(req.Scenario, req.NumRuns, req.Concurrency, time.Since(start), runs)
	path, err := WriteReport(r.testsDir, "chaos_"+req.Scenario, time.Now(), domain.ChaosReport{
		Scenario:    req.Scenario,
		ChaosConfig: cfg,
		Summary:     summary,
		Runs:        runs,
	})
	if err != nil {
		return nil, err
	}
	summary.ReportPath = path

	r.finish(ctx, domain.Batch{
		ID:         batchID,
		Kind:       domain.BatchChaos,
		Label:      req.Scenario,
		NumRuns:    req.NumRuns,
		Success:    summary.SuccessRate,
		ReportPath: path,
	}, summary)
	log.Info("chaos batch finished",
		zap.Float64("success_rate", summary.SuccessRate),
		zap.Int("error_count", summary.ErrorCount),
		zap.String("report", path),
	)
	return &summary, nil
}
