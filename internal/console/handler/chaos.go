package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/xela07ax/longevity-dashboard/internal/compare"
	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"github.com/xela07ax/longevity-dashboard/internal/mocks"
	"go.uber.org/zap"
)

type ChaosLister interface {
	List(ctx context.Context) ([]domain.ChaosReport, error)
}

type ChaosRunner interface {
	RunChaos(ctx context.Context, req domain.ChaosRequest) (*domain.ChaosSummary, error)
}

type ChaosHandler struct {
	source ChaosLister
	runner ChaosRunner
	loader *Loader
	logger *zap.Logger
}

func NewChaosHandler(source ChaosLister, runner ChaosRunner, loader *Loader, logger *zap.Logger) *ChaosHandler {
	return &ChaosHandler{source: source, runner: runner, loader: loader, logger: logger.Named("chaos-handler")}
}

type chaosList struct {
	Reports []domain.ChaosReport `json:"reports"`
}

type chaosChart struct {
	Chart []compare.ChaosChartPoint `json:"chart"`
	Runs  []compare.ChaosRunRow     `json:"runs"`
}

// List - GET /api/chaos-tests
func (h *ChaosHandler) List(w http.ResponseWriter, r *http.Request) {
	h.loader.serve(w, r, "chaos", mocks.ChaosTests, func(ctx context.Context) (any, error) {
		reports, err := h.source.List(ctx)
		if err != nil {
			return nil, err
		}
		return chaosList{Reports: reports}, nil
	})
}

// Chart - GET /api/chaos-tests/chart: точки графиков и плоская таблица прогонов.
// Без отчетов на диске графики строятся по фикстуре.
func (h *ChaosHandler) Chart(w http.ResponseWriter, r *http.Request) {
	v, err := h.loader.fallback.Load(r.Context(), mocks.ChaosTests, func(ctx context.Context) (any, error) {
		reports, err := h.source.List(ctx)
		if err != nil {
			return nil, err
		}
		return chaosList{Reports: reports}, nil
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var list chaosList
	switch t := v.(type) {
	case chaosList:
		list = t
	case json.RawMessage:
		if err := json.Unmarshal(t, &list); err != nil {
			writeError(w, h.logger, fmt.Errorf("chaos fixture: %w", err))
			return
		}
	}
	writeJSON(w, http.StatusOK, chaosChart{Chart: compare.ChaosChart(list.Reports), Runs: compare.ChaosRuns(list.Reports)})
}

// Run - POST /api/chaos-tests/run. Отвечает после завершения батча.
func (h *ChaosHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req domain.ChaosRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, h.logger, err)
		return
	}
	summary, err := h.runner.RunChaos(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
