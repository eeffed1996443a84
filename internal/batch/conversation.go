package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"github.com/xela07ax/longevity-dashboard/internal/simulation"
	"github.com/xela07ax/longevity-dashboard/internal/snapshot"
)

// RunSpec - параметры одного прогона разговора
type RunSpec struct {
	Index      int
	Mode       string
	ScenarioID string
	TurnLimit  int
	Model      string
}

// ConversationRunner проигрывает один разговор LEO ↔ LUNA
type ConversationRunner interface {
	Run(ctx context.Context, spec RunSpec) (domain.ConversationResult, error)
}

// lockedRand - *rand.Rand не потокобезопасен
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newLockedRand(seed uint64) *lockedRand {
	return &lockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// between - равномерно в [lo, hi]
func (l *lockedRand) between(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(l.Float64()*float64(hi-lo))
}

// MockConversation имитирует разговор без внешних LLM: проигрывает сценарий
// интервью, собирает план через snapshot.FromTranscript и считает токены по словам.
// В режиме optimized персона и фокус фиксированы, поэтому план воспроизводим.
type MockConversation struct {
	MinLatency time.Duration
	MaxLatency time.Duration
	rnd        *lockedRand
}

func NewMockConversation(minLatency, maxLatency time.Duration, seed uint64) *MockConversation {
	return &MockConversation{MinLatency: minLatency, MaxLatency: maxLatency, rnd: newLockedRand(seed)}
}

func (m *MockConversation) Run(ctx context.Context, spec RunSpec) (domain.ConversationResult, error) {
	start := time.Now()

	persona, focus := domain.Personas[0], domain.FocusAreas[0]
	if spec.Mode != domain.ModeOptimized {
		persona = domain.Personas[m.rnd.IntN(len(domain.Personas))]
		focus = domain.FocusAreas[m.rnd.IntN(len(domain.FocusAreas))]
	}

	steps := simulation.Script(persona, focus)
	turns := len(steps)
	if spec.TurnLimit > 0 && spec.TurnLimit < turns {
		turns = spec.TurnLimit
	}
	steps = steps[:turns]
	transcript := simulation.Transcript(steps)

	wait := m.rnd.between(m.MinLatency, m.MaxLatency)
	select {
	case <-ctx.Done():
		return domain.ConversationResult{}, ctx.Err()
	case <-time.After(wait):
	}

	plan, err := json.Marshal(snapshot.FromTranscript(persona, focus, transcript))
	if err != nil {
		return domain.ConversationResult{}, fmt.Errorf("mock conversation: plan: %w", err)
	}

	tokens := len(strings.Fields(transcript)) * 4 / 3
	if spec.Mode != domain.ModeOptimized {
		tokens += m.rnd.IntN(200)
	}

	return domain.ConversationResult{
		RunID:       fmt.Sprintf("mock_%s_%s", start.Format(stampLayout), uuid.NewString()[:8]),
		ScenarioID:  spec.ScenarioID,
		Success:     true,
		NumTurns:    turns,
		PlanStruct:  plan,
		TokensTotal: tokens,
		LatencyMs:   int(time.Since(start).Milliseconds()),
		Errors:      []string{},
		Mode:        spec.Mode,
	}, nil
}
