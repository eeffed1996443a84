package handler

import (
	"context"
	"net/http"

	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"go.uber.org/zap"
)

type TokenIssuer interface {
	GenerateToken(ctx context.Context, username, password string) (*domain.TokenResponse, error)
}

type AuthHandler struct {
	service TokenIssuer
	logger  *zap.Logger
}

func NewAuthHandler(s TokenIssuer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{service: s, logger: logger.Named("auth-handler")}
}

// Login - POST /auth/token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad request"})
		return
	}

	resp, err := h.service.GenerateToken(r.Context(), req.Username, req.Password)
	if err != nil {
		// не уточняем, что именно неверно (логин или пароль)
		h.logger.Warn("login failed", zap.String("username", req.Username), zap.Error(err))
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Unauthorized"})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
