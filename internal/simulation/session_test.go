package simulation

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"github.com/xela07ax/longevity-dashboard/internal/metrics"
	"go.uber.org/zap/zaptest"
)

var fast = Options{StepInterval: 2 * time.Millisecond, StageInterval: time.Millisecond}

func TestNewSession_RequiresSelection(t *testing.T) {
	p, f := jordan()
	_, err := NewSession(nil, &f, fast)
	assert.ErrorIs(t, err, domain.ErrNoPersonaSelected)
	_, err = NewSession(&p, nil, fast)
	assert.ErrorIs(t, err, domain.ErrNoPersonaSelected)
}

func TestSession_MonotonicAndClamped(t *testing.T) {
	p, f := jordan()
	s, err := NewSession(&p, &f, fast)
	require.NoError(t, err)

	updates, cancel := s.Subscribe()
	defer cancel()

	s.Start(context.Background())
	defer s.Stop()

	lastStep, lastStage := -1, -1
	deadline := time.After(5 * time.Second)
	for {
		select {
		case st := <-updates:
			assert.GreaterOrEqual(t, st.StepIndex, lastStep)
			assert.GreaterOrEqual(t, st.StageIndex, lastStage)
			lastStep, lastStage = st.StepIndex, st.StageIndex
			if st.Done {
				// таймеры остановились на последних индексах
				time.Sleep(20 * time.Millisecond)
				final := s.State()
				assert.Equal(t, 4, final.StepIndex)
				assert.Equal(t, len(domain.Stages)-1, final.StageIndex)
				return
			}
		case <-deadline:
			t.Fatal("simulation did not finish")
		}
	}
}

func TestSession_StopHaltsTimers(t *testing.T) {
	p, f := jordan()
	s, err := NewSession(&p, &f, Options{StepInterval: time.Hour, StageInterval: time.Hour})
	require.NoError(t, err)
	s.Start(context.Background())

	updates, _ := s.Subscribe()
	s.Stop()

	st := s.State()
	assert.Equal(t, 0, st.StepIndex)
	assert.Equal(t, 0, st.StageIndex)

	// первое состояние приходит сразу, затем канал закрыт
	<-updates
	_, ok := <-updates
	assert.False(t, ok)

	// повторный Stop безопасен
	s.Stop()
}

func TestManager(t *testing.T) {
	m := NewManager(Options{StepInterval: time.Hour, StageInterval: time.Hour}, time.Minute, nil, zaptest.NewLogger(t))
	defer m.Close()

	_, err := m.Create(Selection{Persona: "Jordan Dubois"})
	assert.ErrorIs(t, err, domain.ErrNoPersonaSelected)

	_, err = m.Create(Selection{Persona: "Nobody", Focus: "Sleep & Recovery"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	s, err := m.Create(Selection{Persona: "alex sharma", Focus: "Strength & Movement"})
	require.NoError(t, err)
	assert.Equal(t, "Alex Sharma", s.Persona.Name)
	assert.Equal(t, 1, m.Len())

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, m.Stop(s.ID))
	_, err = m.Get(s.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, m.Stop(s.ID), domain.ErrNotFound)
}

func TestManager_EvictIdle(t *testing.T) {
	m := NewManager(Options{StepInterval: time.Hour, StageInterval: time.Hour}, time.Minute, nil, zaptest.NewLogger(t))
	defer m.Close()

	s, err := m.Create(Selection{Persona: "Sacha Silva", Focus: "Cognitive Resilience"})
	require.NoError(t, err)

	m.evictIdle(time.Now())
	assert.Equal(t, 1, m.Len())

	m.evictIdle(time.Now().Add(2 * time.Minute))
	assert.Equal(t, 0, m.Len())
	_, err = m.Get(s.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestManager_CreateAfterClose(t *testing.T) {
	m := metrics.NewMetrics(nil)
	mgr := NewManager(Options{StepInterval: time.Hour, StageInterval: time.Hour}, time.Minute, m, zaptest.NewLogger(t))

	_, err := mgr.Create(Selection{Persona: "Alex Sharma", Focus: "Strength & Movement"})
	require.NoError(t, err)
	mgr.Close()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveSessions))

	_, err = mgr.Create(Selection{Persona: "Alex Sharma", Focus: "Strength & Movement"})
	assert.ErrorIs(t, err, ErrManagerClosed)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.Equal(t, 0, mgr.Len())
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveSessions))
}
