package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"github.com/xela07ax/longevity-dashboard/internal/mocks"
	"go.uber.org/zap"
)

// RunService - файловые артефакты прогонов
type RunService interface {
	ListRuns(ctx context.Context) ([]domain.RunListItem, error)
	GetRun(ctx context.Context, id string) (*domain.RunDetail, error)
	Overview(ctx context.Context) (*domain.OverviewMetrics, error)
}

type TestCatalog interface {
	List() []domain.TestSuite
}

type RunsHandler struct {
	service RunService
	tests   TestCatalog
	loader  *Loader
	logger  *zap.Logger
}

func NewRunsHandler(s RunService, tests TestCatalog, loader *Loader, logger *zap.Logger) *RunsHandler {
	return &RunsHandler{service: s, tests: tests, loader: loader, logger: logger.Named("runs-handler")}
}

// List - GET /api/runs
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	h.loader.serve(w, r, "runs", mocks.Runs, func(ctx context.Context) (any, error) {
		return h.service.ListRuns(ctx)
	})
}

// Get - GET /api/runs/{id}
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.loader.serve(w, r, "run:"+id, mocks.RunDetailSample, func(ctx context.Context) (any, error) {
		return h.service.GetRun(ctx, id)
	})
}

// Overview - GET /api/metrics/overview
func (h *RunsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	h.loader.serve(w, r, "overview", mocks.MetricsOverview, func(ctx context.Context) (any, error) {
		return h.service.Overview(ctx)
	})
}

// Tests - GET /api/tests
func (h *RunsHandler) Tests(w http.ResponseWriter, r *http.Request) {
	h.loader.serve(w, r, "tests", mocks.Tests, func(context.Context) (any, error) {
		return h.tests.List(), nil
	})
}
