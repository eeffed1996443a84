package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"go.uber.org/zap"
)

type BatchRunner interface {
	RunParallel(ctx context.Context, req domain.ParallelRequest) (*domain.ParallelSummary, error)
	Background(req domain.ParallelRequest) (string, error)
}

type BatchReader interface {
	ListBatches(ctx context.Context, limit int) ([]domain.Batch, error)
	GetBatch(ctx context.Context, id string) (*domain.BatchDetail, error)
}

const (
	defaultBatchLimit = 50
	maxBatchLimit     = 500
)

type BatchHandler struct {
	runner BatchRunner
	store  BatchReader
	logger *zap.Logger
}

func NewBatchHandler(runner BatchRunner, store BatchReader, logger *zap.Logger) *BatchHandler {
	return &BatchHandler{runner: runner, store: store, logger: logger.Named("batch-handler")}
}

// RunParallel - POST /api/run/parallel, синхронный батч
func (h *BatchHandler) RunParallel(w http.ResponseWriter, r *http.Request) {
	var req domain.ParallelRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, h.logger, err)
		return
	}
	summary, err := h.runner.RunParallel(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Schedule - POST /api/tests/run: ставит батч в фон. Без тела - baseline по умолчанию.
func (h *BatchHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	req := domain.DefaultParallelRequest()
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, h.logger, err)
		return
	}
	id, err := h.runner.Background(req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, domain.ScheduledBatch{Scheduled: true, BatchID: id})
}

// List - GET /api/batches?limit=N
func (h *BatchHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultBatchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxBatchLimit {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "limit must be in [1, 500]"})
			return
		}
		limit = n
	}
	batches, err := h.store.ListBatches(r.Context(), limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, batches)
}

// Get - GET /api/batches/{id}
func (h *BatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.store.GetBatch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}
