package handler

import (
	"context"
	"net/http"

	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"go.uber.org/zap"
)

// ClientIDHeader - идентификатор вкладки/браузера для настроек
const ClientIDHeader = "X-Client-ID"

type SettingsService interface {
	Theme(ctx context.Context, clientID string) (domain.ThemeSetting, error)
	SetTheme(ctx context.Context, clientID string, theme domain.Theme) (domain.ThemeSetting, error)
	Toggle(ctx context.Context, clientID string) (domain.ThemeSetting, error)
}

type SettingsHandler struct {
	service SettingsService
	logger  *zap.Logger
}

func NewSettingsHandler(s SettingsService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{service: s, logger: logger.Named("settings-handler")}
}

// GetTheme - GET /api/settings/theme
func (h *SettingsHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	setting, err := h.service.Theme(r.Context(), r.Header.Get(ClientIDHeader))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, setting)
}

// PutTheme - PUT /api/settings/theme {"theme": "light"}
func (h *SettingsHandler) PutTheme(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Theme domain.Theme `json:"theme"`
	}
	if err := decodeJSON(r, &body, false); err != nil {
		writeError(w, h.logger, err)
		return
	}
	setting, err := h.service.SetTheme(r.Context(), r.Header.Get(ClientIDHeader), body.Theme)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, setting)
}

// ToggleTheme - POST /api/settings/theme/toggle
func (h *SettingsHandler) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	setting, err := h.service.Toggle(r.Context(), r.Header.Get(ClientIDHeader))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, setting)
}
