// Package cache держит ответы файловых источников в памяти (L1) и в Redis (L2).
//
// Когда на диске появляется новый отчет, инстанс, заметивший это, сбрасывает оба
// уровня и публикует сигнал в RedisChanDataRefresh; остальные инстансы по сигналу
// чистят свой L1.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"github.com/xela07ax/longevity-dashboard/internal/infra"
	"github.com/xela07ax/longevity-dashboard/internal/metrics"
	"go.uber.org/zap"
)

type entry struct {
	raw     json.RawMessage
	expires time.Time
}

type Layered struct {
	mu  sync.RWMutex
	l1  map[string]entry
	rdb *redis.Client // nil - только L1
	ttl time.Duration
	now func() time.Time

	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewLayered(rdb *redis.Client, ttl time.Duration, m *metrics.Metrics, logger *zap.Logger) *Layered {
	if m == nil {
		m = metrics.NewMetrics(nil)
	}
	return &Layered{
		l1:      make(map[string]entry),
		rdb:     rdb,
		ttl:     ttl,
		now:     time.Now,
		metrics: m,
		logger:  logger.Named("cache"),
	}
}

// GetOrLoad отдает JSON ресурса из L1, затем из L2, иначе вызывает load
// и кладет результат в оба уровня. Ошибки load не кэшируются.
func (c *Layered) GetOrLoad(ctx context.Context, resource string, load func(ctx context.Context) (any, error)) (json.RawMessage, error) {
	if c.ttl <= 0 {
		return c.loadRaw(ctx, load)
	}

	if raw, ok := c.getL1(resource); ok {
		c.metrics.CacheLookups.WithLabelValues("l1", "hit").Inc()
		return raw, nil
	}
	c.metrics.CacheLookups.WithLabelValues("l1", "miss").Inc()

	if c.rdb != nil {
		raw, err := c.rdb.Get(ctx, infra.CacheKey(resource)).Bytes()
		switch {
		case err == nil:
			c.metrics.CacheLookups.WithLabelValues("l2", "hit").Inc()
			c.setL1(resource, raw)
			return raw, nil
		case errors.Is(err, redis.Nil):
			c.metrics.CacheLookups.WithLabelValues("l2", "miss").Inc()
		default:
			// Redis недоступен: работаем без L2
			c.logger.Warn("l2 get failed", zap.String("resource", resource), zap.Error(err))
		}
	}

	raw, err := c.loadRaw(ctx, load)
	if err != nil {
		return nil, err
	}
	c.setL1(resource, raw)
	if c.rdb != nil {
		if err := c.rdb.Set(ctx, infra.CacheKey(resource), []byte(raw), c.ttl).Err(); err != nil {
			c.logger.Warn("l2 set failed", zap.String("resource", resource), zap.Error(err))
		}
	}
	return raw, nil
}

func (c *Layered) loadRaw(ctx context.Context, load func(ctx context.Context) (any, error)) (json.RawMessage, error) {
	v, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("cache: encode: %w", err)
	}
	return raw, nil
}

func (c *Layered) getL1(resource string) (json.RawMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.l1[resource]
	if !ok || c.now().After(e.expires) {
		return nil, false
	}
	return e.raw, true
}

func (c *Layered) setL1(resource string, raw json.RawMessage) {
	c.mu.Lock()
	c.l1[resource] = entry{raw: raw, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// ClearLocal сбрасывает только L1 этого инстанса
func (c *Layered) ClearLocal() {
	c.mu.Lock()
	n := len(c.l1)
	c.l1 = make(map[string]entry)
	c.mu.Unlock()
	c.logger.Debug("l1 cleared", zap.Int("entries", n))
}

// Invalidate сбрасывает L1 и L2 и сообщает остальным инстансам
func (c *Layered) Invalidate(ctx context.Context) error {
	c.ClearLocal()
	if c.rdb == nil {
		return nil
	}

	var errs []error
	iter := c.rdb.Scan(ctx, 0, infra.RedisKeyCachePrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		errs = append(errs, fmt.Errorf("cache: scan: %w", err))
	}
	if len(keys) > 0 {
		if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
			errs = append(errs, fmt.Errorf("cache: del: %w", err))
		}
	}
	if err := c.rdb.Publish(ctx, infra.RedisChanDataRefresh, "refresh").Err(); err != nil {
		errs = append(errs, fmt.Errorf("cache: publish refresh: %w", err))
	}
	return errors.Join(errs...)
}

// PublishBatchEvent отправляет событие батча в RedisChanBatchEvents
func (c *Layered) PublishBatchEvent(ctx context.Context, ev domain.BatchEvent) error {
	if c.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return c.rdb.Publish(ctx, infra.RedisChanBatchEvents, payload).Err()
}

// Listen держит подписку на сигнал обновления данных до отмены ctx
func (c *Layered) Listen(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	ListenResilient(ctx, c.rdb, c.logger, infra.RedisChanDataRefresh,
		func() error {
			// за время разрыва могли пропустить сигнал
			c.ClearLocal()
			return nil
		},
		func(string) { c.ClearLocal() },
	)
}
