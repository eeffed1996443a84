package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/longevity-dashboard/internal/compare"
	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"github.com/xela07ax/longevity-dashboard/internal/mocks"
	"go.uber.org/zap"
)

type EvalService interface {
	List(ctx context.Context) ([]domain.EvalListItem, error)
	Load(ctx context.Context, id string) (*domain.EvalReport, error)
}

type EvalsHandler struct {
	service EvalService
	loader  *Loader
	logger  *zap.Logger
}

func NewEvalsHandler(s EvalService, loader *Loader, logger *zap.Logger) *EvalsHandler {
	return &EvalsHandler{service: s, loader: loader, logger: logger.Named("evals-handler")}
}

type evalList struct {
	Evals []domain.EvalListItem `json:"evals"`
}

// List - GET /api/evals
func (h *EvalsHandler) List(w http.ResponseWriter, r *http.Request) {
	h.loader.serve(w, r, "evals", mocks.Evals, func(ctx context.Context) (any, error) {
		items, err := h.service.List(ctx)
		if err != nil {
			return nil, err
		}
		return evalList{Evals: items}, nil
	})
}

// Get - GET /api/evals/{id}. Отсутствующий отчет - 404.
func (h *EvalsHandler) Get(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Compare - GET /api/evals/compare?left=&right=.
// Неизвестные или пустые id заменяются двумя последними отчетами.
func (h *EvalsHandler) Compare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	items, err := h.service.List(ctx)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	leftID, rightID := compare.PickDefaultIDs(ids, r.URL.Query().Get("left"), r.URL.Query().Get("right"))

	load := func(id string) (*domain.EvalReport, error) {
		if id == "" {
			return nil, nil
		}
		return h.service.Load(ctx, id)
	}
	left, err := load(leftID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	right, err := load(rightID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, compare.NewComparison(leftID, rightID, left, right))
}
