package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"github.com/xela07ax/longevity-dashboard/internal/infra"
	"go.uber.org/zap"
)

// Scheduler запускает parallel батч по cron-выражению.
// При нескольких инстансах батч берет тот, кто первым поставил lock в Redis.
type Scheduler struct {
	cron    *cron.Cron
	runner  *Runner
	rdb     *redis.Client // nil - без распределенной блокировки
	req     domain.ParallelRequest
	lockTTL time.Duration
	logger  *zap.Logger
}

func NewScheduler(runner *Runner, rdb *redis.Client, req domain.ParallelRequest, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		runner:  runner,
		rdb:     rdb,
		req:     req,
		lockTTL: 5 * time.Minute,
		logger:  logger.Named("scheduler"),
	}
}

// Start регистрирует задачу и запускает cron. Пустое выражение выключает планировщик.
func (s *Scheduler) Start(spec string) error {
	if spec == "" {
		s.logger.Info("scheduled batches disabled")
		return nil
	}
	if err := s.runner.ValidateParallel(&s.req); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	if _, err := s.cron.AddFunc(spec, s.fire); err != nil {
		return fmt.Errorf("scheduler: bad schedule %q: %w", spec, err)
	}
	s.cron.Start()
	s.logger.Info("scheduled batches enabled", zap.String("schedule", spec))
	return nil
}

func (s *Scheduler) fire() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.rdb != nil {
		// SetNX: только один инстанс запускает плановый батч
		ok, err := s.rdb.SetNX(ctx, infra.RedisKeyLockScheduled, "running", s.lockTTL).Result()
		if err != nil {
			s.logger.Warn("schedule lock unavailable, running locally", zap.Error(err))
		} else if !ok {
			s.logger.Debug("scheduled batch taken by another instance")
			return
		}
	}

	id, err := s.runner.Background(s.req)
	if err != nil {
		s.logger.Error("scheduled batch rejected", zap.Error(err))
		return
	}
	s.logger.Info("scheduled batch queued", zap.String("batch_id", id))
}

// Stop останавливает cron и ждет текущий вызов fire
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
