package simulation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/longevity-dashboard/internal/domain"
)

// Options задает темп сценария
type Options struct {
	StepInterval  time.Duration
	StageInterval time.Duration
}

// Session - одна проигрываемая симуляция. Шаги разговора и этапы оркестрации
// двигаются двумя независимыми таймерами и останавливаются на последнем индексе.
type Session struct {
	ID      string
	Persona domain.Persona
	Focus   domain.FocusArea

	steps []Step
	opts  Options

	mu        sync.Mutex
	stepIdx   int
	stageIdx  int
	startedAt time.Time
	lastSeen  time.Time
	subs      map[chan State]struct{}
	stopped   bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSession требует и персону, и фокус
func NewSession(p *domain.Persona, f *domain.FocusArea, opts Options) (*Session, error) {
	if p == nil || f == nil || p.Name == "" || f.Title == "" {
		return nil, domain.ErrNoPersonaSelected
	}
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		Persona:   *p,
		Focus:     *f,
		steps:     Script(*p, *f),
		opts:      opts,
		startedAt: now,
		lastSeen:  now,
		subs:      make(map[chan State]struct{}),
	}, nil
}

// Start запускает оба таймера. Они живут до Stop или отмены ctx.
func (s *Session) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.mu.Lock()
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.wg.Add(2)
	go s.tick(ctx, s.opts.StepInterval, s.advanceStep)
	go s.tick(ctx, s.opts.StageInterval, s.advanceStage)
}

// Stop гасит таймеры, дожидается их выхода и закрывает подписки
func (s *Session) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	for ch := range s.subs {
		close(ch)
		delete(s.subs, ch)
	}
}

func (s *Session) tick(ctx context.Context, every time.Duration, advance func() bool) {
	defer s.wg.Done()
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if !advance() {
				return
			}
		}
	}
}

// advanceStep сдвигает шаг разговора; false - дальше двигаться некуда
func (s *Session) advanceStep() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	last := len(s.steps) - 1
	if s.stepIdx < last {
		s.stepIdx++
		s.publishLocked()
	}
	return s.stepIdx < last
}

func (s *Session) advanceStage() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	last := len(domain.Stages) - 1
	if s.stageIdx < last {
		s.stageIdx++
		s.publishLocked()
	}
	return s.stageIdx < last
}

// State - снимок текущего состояния
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	st := BuildState(s.steps, s.stepIdx, s.stageIdx, time.Since(s.startedAt).Seconds())
	st.SessionID = s.ID
	st.Persona = s.Persona
	st.Focus = s.Focus
	return st
}

// Subscribe возвращает канал изменений. Медленный подписчик получает только
// последнее состояние. Канал закрывается при Stop или вызове cancel.
func (s *Session) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		close(ch)
		return ch, func() {}
	}
	s.subs[ch] = struct{}{}
	ch <- s.stateLocked()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
	}
}

func (s *Session) publishLocked() {
	if len(s.subs) == 0 {
		return
	}
	st := s.stateLocked()
	for ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- st
	}
}

// Touch продлевает жизнь сессии для janitor
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
