// Package batch запускает нагрузочные и chaos-батчи разговоров, считает сводки
// и складывает отчеты в data/tests.
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"github.com/xela07ax/longevity-dashboard/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Recorder принимает события прогонов (неблокирующе)
type Recorder interface {
	Log(rec domain.RunRecord)
}

// BatchStore сохраняет итог батча
type BatchStore interface {
	SaveBatch(ctx context.Context, b domain.Batch) error
}

// Notifier сообщает остальным компонентам о новых отчетах
type Notifier interface {
	Invalidate(ctx context.Context) error
	PublishBatchEvent(ctx context.Context, ev domain.BatchEvent) error
}

type Limits struct {
	MaxConcurrency int
	MaxRuns        int
	TurnLimit      int
	Model          string
	RunTimeout     time.Duration
}

type Runner struct {
	conv     ConversationRunner
	testsDir string
	limits   Limits
	chaos    domain.ChaosConfig // значения по умолчанию для chaos-батчей

	recorder Recorder
	store    BatchStore
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger

	// фоновые батчи (POST /api/tests/run, cron)
	bgCtx    context.Context
	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

type Deps struct {
	Recorder Recorder
	Store    BatchStore
	Notifier Notifier
	Metrics  *metrics.Metrics
}

func NewRunner(conv ConversationRunner, testsDir string, limits Limits, chaos domain.ChaosConfig, deps Deps, logger *zap.Logger) *Runner {
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewMetrics(nil)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		conv:     conv,
		testsDir: testsDir,
		limits:   limits,
		chaos:    chaos,
		recorder: deps.Recorder,
		store:    deps.Store,
		notifier: deps.Notifier,
		metrics:  deps.Metrics,
		logger:   logger.Named("batch"),
		bgCtx:    ctx,
		bgCancel: cancel,
	}
}

// ValidateParallel нормализует запрос: пустой mode означает baseline
func (r *Runner) ValidateParallel(req *domain.ParallelRequest) error {
	if req.Mode == "" {
		req.Mode = domain.ModeBaseline
	}
	if req.Scenario == "" {
		req.Scenario = "default"
	}
	if req.Mode != domain.ModeBaseline && req.Mode != domain.ModeOptimized {
		return fmt.Errorf("%w: mode must be baseline or optimized", domain.ErrInvalidRequest)
	}
	return r.checkBounds(req.Concurrency, req.NumRuns)
}

func (r *Runner) checkBounds(concurrency, numRuns int) error {
	if concurrency < 1 || concurrency > r.limits.MaxConcurrency {
		return fmt.Errorf("%w: concurrency must be in [1, %d]", domain.ErrInvalidRequest, r.limits.MaxConcurrency)
	}
	if numRuns < 1 || numRuns > r.limits.MaxRuns {
		return fmt.Errorf("%w: num_runs must be in [1, %d]", domain.ErrInvalidRequest, r.limits.MaxRuns)
	}
	return nil
}

// RunParallel выполняет num_runs разговоров не более чем по concurrency одновременно.
// Отказ отдельного прогона становится записью с ошибкой, а не ошибкой батча.
func (r *Runner) RunParallel(ctx context.Context, req domain.ParallelRequest) (*domain.ParallelSummary, error) {
	return r.runParallel(ctx, uuid.NewString(), req)
}

func (r *Runner) runParallel(ctx context.Context, batchID string, req domain.ParallelRequest) (*domain.ParallelSummary, error) {
	if err := r.ValidateParallel(&req); err != nil {
		return nil, err
	}
	log := r.logger.With(zap.String("batch_id", batchID), zap.String("mode", req.Mode))
	log.Info("parallel batch started", zap.Int("num_runs", req.NumRuns), zap.Int("concurrency", req.Concurrency))
	r.publish(ctx, domain.BatchEvent{BatchID: batchID, Kind: domain.BatchParallel, Status: domain.BatchStarted})

	start := time.Now()
	results := make([]domain.ConversationResult, req.NumRuns)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(req.Concurrency)
	for i := 0; i < req.NumRuns; i++ {
		g.Go(func() error {
			results[i] = r.runOne(gctx, r.conv, batchID, RunSpec{
				Index:      i,
				Mode:       req.Mode,
				ScenarioID: fmt.Sprintf("%s-%d", req.Scenario, i),
				TurnLimit:  r.limits.TurnLimit,
				Model:      r.limits.Model,
			}, domain.BatchParallel)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		r.publish(context.Background(), domain.BatchEvent{BatchID: batchID, Kind: domain.BatchParallel, Status: domain.BatchFailed})
		return nil, fmt.Errorf("batch %s: %w", batchID, err)
	}

	summary := SummarizeParallel(req.Mode, req.NumRuns, req.Concurrency, time.Since(start), results)
	summary.BatchID = batchID
	path, err := WriteReport(r.testsDir, "parallel_test_"+req.Mode, time.Now(), domain.ParallelReport{Summary: summary, Runs: results})
	if err != nil {
		return nil, err
	}
	summary.ReportPath = path

	r.finish(ctx, domain.Batch{
		ID:         batchID,
		Kind:       domain.BatchParallel,
		Label:      req.Mode,
		NumRuns:    req.NumRuns,
		Success:    summary.SuccessRate,
		ReportPath: path,
	}, summary)
	log.Info("parallel batch finished",
		zap.Float64("success_rate", summary.SuccessRate),
		zap.Int("p95_latency_ms", summary.P95LatencyMs),
		zap.String("report", path),
	)
	return &summary, nil
}

// runOne выполняет прогон с таймаутом и пишет событие в recorder
func (r *Runner) runOne(ctx context.Context, conv ConversationRunner, batchID string, spec RunSpec, kind domain.BatchKind) domain.ConversationResult {
	if r.limits.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.limits.RunTimeout)
		defer cancel()
	}

	start := time.Now()
	res, err := conv.Run(ctx, spec)
	if err != nil {
		res = domain.ConversationResult{
			RunID:      fmt.Sprintf("error_%d", spec.Index),
			ScenarioID: spec.ScenarioID,
			PlanStruct: json.RawMessage(`{}`),
			LatencyMs:  int(time.Since(start).Milliseconds()),
			Errors:     []string{err.Error()},
			Mode:       spec.Mode,
		}
	}

	result := "success"
	if !res.Success {
		result = "failed"
	}
	r.metrics.BatchRuns.WithLabelValues(string(kind), result).Inc()

	if r.recorder != nil {
		rec := domain.RunRecord{
			ID:          uuid.NewString(),
			BatchID:     batchID,
			RunID:       res.RunID,
			Scenario:    spec.ScenarioID,
			Success:     res.Success,
			LatencyMs:   res.LatencyMs,
			TokensTotal: res.TokensTotal,
			Timestamp:   time.Now(),
		}
		if len(res.Errors) > 0 {
			rec.Error = res.Errors[0]
		}
		r.recorder.Log(rec)
	}
	return res
}

// finish сохраняет батч и рассылает уведомления. Сбои здесь не валят батч:
// отчет уже на диске.
func (r *Runner) finish(ctx context.Context, b domain.Batch, summary any) {
	b.CreatedAt = time.Now()
	if raw, err := json.Marshal(summary); err == nil {
		b.Summary = raw
	}
	if r.store != nil {
		if err := r.store.SaveBatch(ctx, b); err != nil {
			r.logger.Error("save batch failed", zap.String("batch_id", b.ID), zap.Error(err))
		}
	}
	if r.notifier != nil {
		if err := r.notifier.Invalidate(ctx); err != nil {
			r.logger.Warn("data refresh publish failed", zap.Error(err))
		}
	}
	r.publish(ctx, domain.BatchEvent{BatchID: b.ID, Kind: b.Kind, Status: domain.BatchFinished, SuccessRate: b.Success, ReportPath: b.ReportPath})
}

func (r *Runner) publish(ctx context.Context, ev domain.BatchEvent) {
	if r.notifier == nil {
		return
	}
	ev.At = time.Now()
	if err := r.notifier.PublishBatchEvent(ctx, ev); err != nil {
		r.logger.Debug("batch event publish failed", zap.Error(err))
	}
}

// Background ставит parallel батч в фон и сразу возвращает его id
func (r *Runner) Background(req domain.ParallelRequest) (string, error) {
	if err := r.ValidateParallel(&req); err != nil {
		return "", err
	}
	if err := r.bgCtx.Err(); err != nil {
		return "", fmt.Errorf("batch runner is shutting down: %w", err)
	}
	id := uuid.NewString()
	r.bgWG.Add(1)
	go func() {
		defer r.bgWG.Done()
		if _, err := r.runParallel(r.bgCtx, id, req); err != nil {
			r.logger.Error("background batch failed", zap.String("batch_id", id), zap.Error(err))
		}
	}()
	return id, nil
}

// Shutdown отменяет фоновые батчи и ждет их завершения (или истечения ctx)
func (r *Runner) Shutdown(ctx context.Context) error {
	r.bgCancel()
	done := make(chan struct{})
	go func() {
		r.bgWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
