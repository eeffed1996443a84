package handler

import (
	"context"
	"net/http"

	"github.com/xela07ax/longevity-dashboard/internal/voice"
	"go.uber.org/zap"
)

type VoiceService interface {
	Speak(ctx context.Context, req voice.TTSRequest) ([]byte, error)
	SignedURL(ctx context.Context, req voice.SignedURLRequest) (*voice.SignedURLResponse, error)
	RunDuo(ctx context.Context, req voice.DuoRequest) (*voice.DuoResult, error)
}

type VoiceHandler struct {
	service VoiceService
	logger  *zap.Logger
}

func NewVoiceHandler(s VoiceService, logger *zap.Logger) *VoiceHandler {
	return &VoiceHandler{service: s, logger: logger.Named("voice-handler")}
}

// TTS - POST /api/tts, отвечает audio/mpeg
func (h *VoiceHandler) TTS(w http.ResponseWriter, r *http.Request) {
	var req voice.TTSRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, h.logger, err)
		return
	}
	audio, err := h.service.Speak(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

// SignedURL - POST /api/eleven/signed-url
func (h *VoiceHandler) SignedURL(w http.ResponseWriter, r *http.Request) {
	var req voice.SignedURLRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, h.logger, err)
		return
	}
	resp, err := h.service.SignedURL(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Duo - POST /api/duo/run
func (h *VoiceHandler) Duo(w http.ResponseWriter, r *http.Request) {
	var req voice.DuoRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, h.logger, err)
		return
	}
	res, err := h.service.RunDuo(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
