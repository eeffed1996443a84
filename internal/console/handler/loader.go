package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

type Cache interface {
	GetOrLoad(ctx context.Context, resource string, load func(ctx context.Context) (any, error)) (json.RawMessage, error)
}

type FallbackLoader interface {
	Load(ctx context.Context, mockName string, primary func(context.Context) (any, error)) (any, error)
}

// Loader собирает ответ GET эндпоинта: кэш поверх файлового источника,
// фикстура из /mocks, если источник недоступен.
type Loader struct {
	cache    Cache // nil - без кэша
	fallback FallbackLoader
	logger   *zap.Logger
}

func NewLoader(cache Cache, fallback FallbackLoader, logger *zap.Logger) *Loader {
	return &Loader{cache: cache, fallback: fallback, logger: logger}
}

func (l *Loader) serve(w http.ResponseWriter, r *http.Request, resource, mockName string, primary func(context.Context) (any, error)) {
	cached := primary
	if l.cache != nil {
		cached = func(ctx context.Context) (any, error) {
			return l.cache.GetOrLoad(ctx, resource, primary)
		}
	}

	v, err := l.fallback.Load(r.Context(), mockName, cached)
	if err != nil {
		writeError(w, l.logger, err)
		return
	}
	if raw, ok := v.(json.RawMessage); ok {
		writeRaw(w, raw)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
