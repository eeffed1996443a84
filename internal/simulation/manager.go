package simulation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"github.com/xela07ax/longevity-dashboard/internal/metrics"
	"go.uber.org/zap"
)

// RestartRoute - куда UI отправляет пользователя без выбранной персоны
const RestartRoute = "/life/persona"

// ErrManagerClosed - менеджер уже остановлен, новые сессии не принимаются
var ErrManagerClosed = fmt.Errorf("%w: simulation manager is closed", domain.ErrUnavailable)

// Selection - выбор пользователя в мастере /life/persona.
// Персона и фокус ищутся в каталоге по имени.
type Selection struct {
	Persona string `json:"persona"`
	Focus   string `json:"focus"`
}

// Manager владеет живыми сессиями и убирает простаивающие
type Manager struct {
	opts    Options
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(opts Options, ttl time.Duration, m *metrics.Metrics, logger *zap.Logger) *Manager {
	if m == nil {
		m = metrics.NewMetrics(nil)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		opts:     opts,
		ttl:      ttl,
		metrics:  m,
		logger:   logger.Named("simulation"),
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*Session),
	}
}

// Create проверяет выбор и запускает новую сессию
func (m *Manager) Create(sel Selection) (*Session, error) {
	if sel.Persona == "" || sel.Focus == "" {
		return nil, domain.ErrNoPersonaSelected
	}
	p, ok := domain.FindPersona(sel.Persona)
	if !ok {
		return nil, fmt.Errorf("%w: unknown persona %q", domain.ErrInvalidRequest, sel.Persona)
	}
	f, ok := domain.FindFocusArea(sel.Focus)
	if !ok {
		return nil, fmt.Errorf("%w: unknown focus area %q", domain.ErrInvalidRequest, sel.Focus)
	}

	s, err := NewSession(&p, &f, m.opts)
	if err != nil {
		return nil, err
	}

	s.Start(m.ctx)

	// Close отменяет ctx до того, как забирает сессии под локом
	m.mu.Lock()
	if m.ctx.Err() != nil {
		m.mu.Unlock()
		s.Stop()
		return nil, ErrManagerClosed
	}
	m.sessions[s.ID] = s
	m.metrics.ActiveSessions.Inc()
	m.mu.Unlock()
	m.logger.Info("simulation started",
		zap.String("session_id", s.ID),
		zap.String("persona", p.Name),
		zap.String("focus", f.Title),
	)
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	s.Touch()
	return s, nil
}

// Stop останавливает и забывает сессию (аналог размонтирования экрана)
func (m *Manager) Stop(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	s.Stop()
	m.metrics.ActiveSessions.Dec()
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Run - janitor: раз в полпериода TTL удаляет сессии без обращений.
// При отмене ctx останавливает все сессии.
func (m *Manager) Run(ctx context.Context) {
	interval := m.ttl / 2
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	defer m.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.evictIdle(time.Now())
		}
	}
}

func (m *Manager) evictIdle(now time.Time) {
	if m.ttl <= 0 {
		return
	}
	m.mu.RLock()
	var stale []string
	for id, s := range m.sessions {
		if now.Sub(s.idleSince()) > m.ttl {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range stale {
		if err := m.Stop(id); err == nil {
			m.logger.Info("simulation evicted", zap.String("session_id", id))
		}
	}
}

// Close останавливает все сессии
func (m *Manager) Close() {
	m.cancel()
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range all {
		s.Stop()
		m.metrics.ActiveSessions.Dec()
	}
}
