// Package recorder буферизует записи о прогонах батчей и пачками пишет их в хранилище.
//
// Log никогда не блокирует горячий путь батча: при переполнении буфера запись
// сбрасывается с ошибкой в лог. Stop закрывает вход, вычитывает канал до конца
// и делает финальный flush.
package recorder

import (
	"context"
	"sync"
	"time"

	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"github.com/xela07ax/longevity-dashboard/internal/infra"
	"github.com/xela07ax/longevity-dashboard/internal/metrics"
	"go.uber.org/zap"
)

// Storage - куда физически уходят записи (Postgres или SQLite)
type Storage interface {
	WriteRecords(ctx context.Context, records []domain.RunRecord) error
}

type Recorder struct {
	ch       chan domain.RunRecord
	repo     Storage
	cfg      infra.RecorderConfig
	metrics  *metrics.Metrics
	logger   *zap.Logger
	wg       sync.WaitGroup
	mu       sync.RWMutex // защищает closed и отправку в ch
	closed   bool
	stopOnce sync.Once
}

func New(repo Storage, cfg infra.RecorderConfig, m *metrics.Metrics, logger *zap.Logger) *Recorder {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 500 * time.Millisecond
	}
	if m == nil {
		m = metrics.NewMetrics(nil)
	}
	return &Recorder{
		ch:      make(chan domain.RunRecord, cfg.BufferSize),
		repo:    repo,
		cfg:     cfg,
		metrics: m,
		logger:  logger.With(zap.String("mod", "recorder")),
	}
}

func (r *Recorder) Start() {
	r.wg.Add(1)
	go r.worker()
}

// Stop запирает вход и ждет, пока воркер всё допишет. Повторный вызов безопасен.
func (r *Recorder) Stop() {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.ch)
		r.mu.Unlock()

		r.logger.Info("stopping recorder: flushing buffer...")
		r.wg.Wait()
		r.logger.Info("recorder stopped gracefully")
	})
}

func (r *Recorder) Log(rec domain.RunRecord) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.logger.Warn("run record dropped: recorder is stopping", zap.String("run_id", rec.RunID))
		return
	}

	// Load shedding: батч не ждет хранилище
	select {
	case r.ch <- rec:
		r.metrics.RecorderBufferFill.Set(float64(len(r.ch)))
	default:
		r.logger.Error("recorder_buffer_overflow",
			zap.String("batch_id", rec.BatchID),
			zap.String("run_id", rec.RunID),
		)
	}
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	batch := make([]domain.RunRecord, 0, r.cfg.BatchSize)
	ticker := time.NewTicker(r.cfg.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		r.metrics.RecorderBufferFill.Set(float64(len(r.ch)))
		if len(batch) == 0 {
			return
		}
		// Background: на остановке родительский контекст уже может быть отменен
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := r.repo.WriteRecords(ctx, batch); err != nil {
			r.logger.Error("recorder flush failed", zap.Int("records", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case rec, ok := <-r.ch:
			if !ok {
				flush()
				r.logger.Info("recorder worker finished")
				return
			}
			batch = append(batch, rec)
			if len(batch) >= r.cfg.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
