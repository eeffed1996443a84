package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/xela07ax/longevity-dashboard/internal/simulation"
	"go.uber.org/zap"
)

type SimulationManager interface {
	Create(sel simulation.Selection) (*simulation.Session, error)
	Get(id string) (*simulation.Session, error)
	Stop(id string) error
}

type SimulationHandler struct {
	manager  SimulationManager
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewSimulationHandler(m SimulationManager, logger *zap.Logger) *SimulationHandler {
	return &SimulationHandler{
		manager: m,
		upgrader: websocket.Upgrader{
			// CORS для API и так открыт
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.Named("simulation-handler"),
	}
}

// Create - POST /api/simulations {"persona": "...", "focus": "..."}
func (h *SimulationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var sel simulation.Selection
	if err := decodeJSON(r, &sel, true); err != nil {
		writeError(w, h.logger, err)
		return
	}
	s, err := h.manager.Create(sel)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.State())
}

// Get - GET /api/simulations/{id}
func (h *SimulationHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.manager.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, s.State())
}

// Stop - DELETE /api/simulations/{id}
func (h *SimulationHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Stop(chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stream - GET /api/simulations/{id}/stream (websocket).
// Шлет состояние при каждом тике, закрывается после финального состояния.
func (h *SimulationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	s, err := h.manager.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	updates, cancel := s.Subscribe()
	defer cancel()

	// Read loop: клиент закрыл соединение
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case st, ok := <-updates:
			if !ok {
				h.closeStream(conn, "simulation stopped")
				return
			}
			s.Touch()
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(st); err != nil {
				return
			}
			if st.Done {
				h.closeStream(conn, "simulation finished")
				return
			}
		}
	}
}

func (h *SimulationHandler) closeStream(conn *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}
