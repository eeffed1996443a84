package simulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/longevity-dashboard/internal/domain"
)

func jordan() (domain.Persona, domain.FocusArea) {
	return domain.Personas[0], domain.FocusAreas[1]
}

func TestScript(t *testing.T) {
	p, f := jordan()
	steps := Script(p, f)
	require.Len(t, steps, 5)
	assert.Contains(t, steps[0].Messages[1].Text, "I’m Jordan,")
	assert.Equal(t, "Jordan Dubois", steps[0].Messages[1].Name)
	assert.Equal(t, IntakeAgentName, steps[0].Messages[0].Name)
	assert.Equal(t, "Focus area: Sleep & Recovery", steps[0].Snapshot.PrimaryGoals[2])
	assert.Equal(t, []string{"Sleep & Recovery"}, steps[0].Snapshot.FocusAreas)

	text := Transcript(steps)
	assert.Contains(t, text, "Intake Agent: Thanks for taking time")
	assert.Contains(t, text, "Jordan Dubois: I often skip breakfast")
}

func TestBuildState(t *testing.T) {
	p, f := jordan()
	steps := Script(p, f)

	t.Run("initial", func(t *testing.T) {
		st := BuildState(steps, 0, 0, 0)
		assert.Len(t, st.Messages, 2)
		assert.Equal(t, "Start", st.Stage)
		assert.Equal(t, 20, st.Metrics.SnapshotCompleteness)
		assert.Equal(t, 11, st.Metrics.FlowProgress)
		assert.Equal(t, "Collecting context", st.Quality.EvidenceCoverage)
		assert.Equal(t, 1, st.Quality.PlanItems)
		assert.Equal(t, 1, st.Quality.Warnings)
		assert.Equal(t, domain.StepRunning, st.Workflow[0].Status)
		assert.Equal(t, domain.StepPending, st.Workflow[1].Status)
		assert.False(t, st.Done)
	})

	t.Run("mid", func(t *testing.T) {
		st := BuildState(steps, 3, 4, 12.34)
		assert.Len(t, st.Messages, 8)
		assert.Equal(t, "Audit", st.Stage)
		assert.Equal(t, domain.AgentLUNA, st.Workflow[4].Agent)
		assert.Equal(t, domain.StepSuccess, st.Workflow[3].Status)
		assert.Equal(t, domain.StepRunning, st.Workflow[4].Status)
		assert.Equal(t, domain.StepPending, st.Workflow[5].Status)
		assert.Equal(t, "Improving", st.Quality.EvidenceCoverage)
		assert.Equal(t, 3, st.Quality.PlanItems)
		assert.Equal(t, 2, st.Quality.Warnings)
		assert.Equal(t, 80, st.Metrics.SnapshotCompleteness)
		assert.Equal(t, 56, st.Metrics.FlowProgress)
		assert.InDelta(t, 12.3, st.Metrics.ElapsedS, 1e-9)
	})

	t.Run("clamped", func(t *testing.T) {
		st := BuildState(steps, 99, 99, 0)
		assert.Equal(t, 4, st.StepIndex)
		assert.Equal(t, 8, st.StageIndex)
		assert.Equal(t, "FinalSummary", st.Stage)
		assert.Equal(t, 100, st.Metrics.SnapshotCompleteness)
		assert.Equal(t, 100, st.Metrics.FlowProgress)
		assert.Len(t, st.Messages, 10)
		assert.True(t, st.Done)
	})
}
