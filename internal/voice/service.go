package voice

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"github.com/xela07ax/longevity-dashboard/internal/infra"
	"github.com/xela07ax/longevity-dashboard/internal/simulation"
	"github.com/xela07ax/longevity-dashboard/internal/snapshot"
	"go.uber.org/zap"
)

const maxTTSChars = 2500

type Provider interface {
	TextToSpeech(ctx context.Context, voiceID, text string) ([]byte, error)
	SignedURL(ctx context.Context, agentID string) (string, error)
}

type TTSRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id,omitempty"`
}

type SignedURLRequest struct {
	AgentID string `json:"agent_id"`
}

type SignedURLResponse struct {
	SignedURL string `json:"signed_url"`
}

type DuoRequest struct {
	Persona string `json:"persona"`
	Focus   string `json:"focus"`
	Turns   int    `json:"turns,omitempty"`
}

type DuoResult struct {
	Persona  domain.Persona   `json:"persona"`
	Focus    domain.FocusArea `json:"focus"`
	Messages []domain.Message `json:"messages"`
	Snapshot domain.Snapshot  `json:"snapshot"`
}

// Service - вход для хендлеров. Без api_key внешние вызовы отдают ErrVoiceDisabled,
// дуэт работает всегда.
type Service struct {
	provider     Provider // nil - мост выключен
	rw           *ReliabilityWrapper
	defaultVoice string
	logger       *zap.Logger
}

func NewService(provider Provider, rw *ReliabilityWrapper, cfg infra.VoiceConfig, logger *zap.Logger) *Service {
	return &Service{
		provider:     provider,
		rw:           rw,
		defaultVoice: cfg.DefaultVoiceID,
		logger:       logger.Named("voice"),
	}
}

func (s *Service) Enabled() bool { return s.provider != nil }

func (s *Service) Speak(ctx context.Context, req TTSRequest) ([]byte, error) {
	if !s.Enabled() {
		return nil, domain.ErrVoiceDisabled
	}
	text := strings.TrimSpace(req.Text)
	if text == "" || utf8.RuneCountInString(text) > maxTTSChars {
		return nil, fmt.Errorf("%w: text must be 1..%d characters", domain.ErrInvalidRequest, maxTTSChars)
	}
	voiceID := req.VoiceID
	if voiceID == "" {
		voiceID = s.defaultVoice
	}
	audio, err := s.rw.Call(ctx, func(ctx context.Context) ([]byte, error) {
		return s.provider.TextToSpeech(ctx, voiceID, text)
	})
	if err != nil {
		s.logger.Error("tts failed", zap.String("voice_id", voiceID), zap.Error(err))
		return nil, err
	}
	return audio, nil
}

func (s *Service) SignedURL(ctx context.Context, req SignedURLRequest) (*SignedURLResponse, error) {
	if !s.Enabled() {
		return nil, domain.ErrVoiceDisabled
	}
	if strings.TrimSpace(req.AgentID) == "" {
		return nil, fmt.Errorf("%w: agent_id is required", domain.ErrInvalidRequest)
	}
	raw, err := s.rw.Call(ctx, func(ctx context.Context) ([]byte, error) {
		u, err := s.provider.SignedURL(ctx, req.AgentID)
		return []byte(u), err
	})
	if err != nil {
		s.logger.Error("signed url failed", zap.String("agent_id", req.AgentID), zap.Error(err))
		return nil, err
	}
	return &SignedURLResponse{SignedURL: string(raw)}, nil
}

// RunDuo проигрывает сценарий интервью и синтезирует по нему снимок
func (s *Service) RunDuo(_ context.Context, req DuoRequest) (*DuoResult, error) {
	if strings.TrimSpace(req.Persona) == "" || strings.TrimSpace(req.Focus) == "" {
		return nil, domain.ErrNoPersonaSelected
	}
	persona, ok := domain.FindPersona(req.Persona)
	if !ok {
		return nil, fmt.Errorf("%w: unknown persona %q", domain.ErrInvalidRequest, req.Persona)
	}
	focus, ok := domain.FindFocusArea(req.Focus)
	if !ok {
		return nil, fmt.Errorf("%w: unknown focus area %q", domain.ErrInvalidRequest, req.Focus)
	}

	steps := simulation.Script(persona, focus)
	if req.Turns > 0 && req.Turns < len(steps) {
		steps = steps[:req.Turns]
	}
	messages := make([]domain.Message, 0, len(steps)*2)
	for _, st := range steps {
		messages = append(messages, st.Messages...)
	}

	return &DuoResult{
		Persona:  persona,
		Focus:    focus,
		Messages: messages,
		Snapshot: snapshot.FromTranscript(persona, focus, simulation.Transcript(steps)),
	}, nil
}
