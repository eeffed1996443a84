package compare

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/longevity-dashboard/internal/domain"
)

func TestHumanizeScenario(t *testing.T) {
	assert.Equal(t, "Scheduler Failures", HumanizeScenario("scheduler_failures"))
	assert.Equal(t, "Network  Jitter", HumanizeScenario("network__jitter"))
	assert.Equal(t, "", HumanizeScenario(""))
	assert.Equal(t, "Élan Test", HumanizeScenario("élan_test"))
}

func TestChaosChart(t *testing.T) {
	reports := []domain.ChaosReport{
		{Summary: domain.ChaosSummary{Scenario: "tool_failures", NumRuns: 3, SuccessRate: 0.667, ErrorCount: 1, AvgLatencyMs: 1200, P95LatencyMs: 2400}},
		{Summary: domain.ChaosSummary{Scenario: "empty", NumRuns: 0, ErrorCount: 2}},
	}
	points := ChaosChart(reports)
	require.Len(t, points, 2)
	assert.Equal(t, "Tool Failures", points[0].Scenario)
	assert.InDelta(t, 66.7, points[0].SuccessRate, 1e-9)
	assert.InDelta(t, 33.3, points[0].ErrorRate, 1e-9)
	// num_runs = 0 делится на 1
	assert.InDelta(t, 200.0, points[1].ErrorRate, 1e-9)
}

func TestChaosRuns(t *testing.T) {
	reports := []domain.ChaosReport{{
		Summary: domain.ChaosSummary{Scenario: "net_drop"},
		Runs: []domain.ChaosRun{
			{RunID: "r1", Success: true, LatencyMs: 10},
			{RunID: "error_1", Errors: []string{"boom", "again"}},
		},
	}}
	rows := ChaosRuns(reports)
	require.Len(t, rows, 2)
	assert.Equal(t, "Net Drop", rows[0].Scenario)
	assert.Equal(t, 2, rows[1].Errors)
	assert.False(t, rows[1].Success)
}

func TestChaosRuns_EmptyEncodesAsArray(t *testing.T) {
	for _, reports := range [][]domain.ChaosReport{nil, {{Summary: domain.ChaosSummary{Scenario: "idle"}}}} {
		raw, err := json.Marshal(ChaosRuns(reports))
		require.NoError(t, err)
		assert.Equal(t, "[]", string(raw))
	}
}
