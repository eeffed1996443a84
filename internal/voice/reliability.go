package voice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"github.com/xela07ax/longevity-dashboard/internal/infra"
	"github.com/xela07ax/longevity-dashboard/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ReliabilityWrapper пропускает вызовы провайдера через лимитер,
// предохранитель и повтор с бэкоффом.
type ReliabilityWrapper struct {
	cb          *gobreaker.CircuitBreaker
	limiter     *rate.Limiter
	callTimeout time.Duration
	attempts    uint
}

func NewReliabilityWrapper(cfg infra.VoiceConfig, m *metrics.Metrics, logger *zap.Logger) *ReliabilityWrapper {
	if m == nil {
		m = metrics.NewMetrics(nil)
	}
	gauge := m.CircuitBreakerState.WithLabelValues("elevenlabs")

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "elevenlabs",
		MaxRequests: cfg.CBMaxRequests,
		Interval:    cfg.CBInterval,
		Timeout:     cfg.CBTimeout,
		// отказ клиента (4xx) не говорит о здоровье провайдера
		IsSuccessful: func(err error) bool { return err == nil || !retryable(err) },
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			gauge.Set(float64(to))
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := max(cfg.RateBurst, 1)

	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	return &ReliabilityWrapper{
		cb:          cb,
		limiter:     rate.NewLimiter(limit, burst),
		callTimeout: timeout,
		attempts:    3,
	}
}

func (w *ReliabilityWrapper) Call(ctx context.Context, fn func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if err := w.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	var finalData []byte

	cbResult, err := w.cb.Execute(func() (interface{}, error) {
		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(w.attempts),
			retry.RetryIf(retryable),
			retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
				// 429 с Retry-After - ждем сколько попросили
				var tErr *ThrottleError
				if errors.As(err, &tErr) && tErr.RetryAfter > 0 {
					return tErr.RetryAfter
				}
				return retry.BackOffDelay(n, err, config)
			}),
		)

		retryErr := r.Do(func() error {
			tCtx, cancel := context.WithTimeout(ctx, w.callTimeout)
			defer cancel()

			var callErr error
			finalData, callErr = fn(tCtx)
			return callErr
		})

		return finalData, retryErr
	})
	if err != nil {
		return nil, err
	}
	return cbResult.([]byte), nil
}

// retryable: 429, 5xx и сетевые ошибки. Остальные статусы и отмена ctx - нет.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var tErr *ThrottleError
	if errors.As(err, &tErr) {
		return true
	}
	var sErr *StatusError
	if errors.As(err, &sErr) {
		return sErr.Code >= http.StatusInternalServerError
	}
	return true
}
