package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sony/gobreaker"
	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"github.com/xela07ax/longevity-dashboard/internal/simulation"
	"github.com/xela07ax/longevity-dashboard/internal/voice"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// writeError переводит доменные ошибки в HTTP статус. Неизвестное - 500 с логом.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var throttled *voice.ThrottleError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidID), errors.Is(err, domain.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrNoPersonaSelected):
		// экран симуляции без выбора отправляет пользователя обратно в мастер
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error(), Redirect: simulation.RestartRoute})
	case errors.Is(err, domain.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Unauthorized"})
	case errors.Is(err, domain.ErrVoiceDisabled),
		errors.Is(err, domain.ErrUnavailable),
		errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests):
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: err.Error()})
	case errors.As(err, &throttled):
		writeJSON(w, http.StatusTooManyRequests, errorBody{Error: err.Error()})
	default:
		logger.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: fmt.Sprintf("Server error: %v", err)})
	}
}

// decodeJSON читает тело запроса. Пустое тело допустимо, если allowEmpty.
func decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	return nil
}

// NotFound - ответ на неизвестный /api/* маршрут
func NotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBody{Error: "Not Found"})
}
