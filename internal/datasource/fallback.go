package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"github.com/xela07ax/longevity-dashboard/internal/metrics"
	"github.com/xela07ax/longevity-dashboard/internal/mocks"
	"go.uber.org/zap"
)

// Fallback отдает результат основного источника, а при его ошибке - фикстуру из mocks.
type Fallback struct {
	dir     string // пусто - только встроенные фикстуры
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewFallback(mocksDir string, m *metrics.Metrics, logger *zap.Logger) *Fallback {
	if m == nil {
		m = metrics.NewMetrics(nil)
	}
	return &Fallback{dir: mocksDir, metrics: m, logger: logger.With(zap.String("mod", "fallback"))}
}

// Load сначала вызывает primary. Фикстура читается только если primary вернул ошибку
// инфраструктуры; ErrNotFound и ErrInvalidID возвращаются как есть.
// Если не удалось и то и другое, ошибка содержит обе причины.
func (f *Fallback) Load(ctx context.Context, mockName string, primary func(context.Context) (any, error)) (any, error) {
	v, primaryErr := primary(ctx)
	if primaryErr == nil {
		return v, nil
	}
	// Ошибки клиента не маскируются фикстурой
	if errors.Is(primaryErr, domain.ErrNotFound) || errors.Is(primaryErr, domain.ErrInvalidID) {
		return nil, primaryErr
	}

	raw, mockErr := f.ReadMock(mockName)
	if mockErr != nil {
		return nil, fmt.Errorf("primary: %v; fallback %s: %w", primaryErr, mockName, mockErr)
	}

	f.metrics.FallbackHits.WithLabelValues(mockName).Inc()
	f.logger.Warn("serving mock fixture",
		zap.String("mock", mockName),
		zap.NamedError("primary_err", primaryErr),
	)
	return raw, nil
}

// ReadMock читает фикстуру: сначала из настроенного каталога, затем из встроенных
func (f *Fallback) ReadMock(name string) (json.RawMessage, error) {
	if err := ValidateID(name); err != nil {
		return nil, err
	}
	if f.dir != "" {
		if data, err := os.ReadFile(filepath.Join(f.dir, name)); err == nil {
			if !json.Valid(data) {
				return nil, fmt.Errorf("mock %s: invalid json", name)
			}
			return data, nil
		}
	}
	data, err := mocks.Read(name)
	if err != nil {
		return nil, fmt.Errorf("mock %s: %w", name, err)
	}
	return data, nil
}
