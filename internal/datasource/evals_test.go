package datasource

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"go.uber.org/zap/zaptest"
)

const evalFixture = `{
  "pairs": [
    {"scenario_id": "sleep_first", "reference_run_id": "r1", "comparison_run_id": "r2",
     "collaboration_similarity": 0.8, "alignment_a": 0.9, "alignment_b": 0.7,
     "reasoning_depth": 0.6, "consistency_score": 0.75, "recommendation": "conversation_a", "notes": "ok"}
  ],
  "summary": {"avg_collaboration": 0.8, "num_pairs": 1, "project": "longevity", "judge_model": "gpt-4o-mini"},
  "group_count": 1,
  "min_group_size": 2
}`

func TestEvalSource(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "conversation_eval_20250101_120000.json"), evalFixture)
	writeFile(t, filepath.Join(dir, "conversation_eval_20250201_120000.json"), `{"pairs": [], "summary": {}}`)
	writeFile(t, filepath.Join(dir, "conversation_eval_20250301_120000.json"), `garbage`)
	writeFile(t, filepath.Join(dir, "notes.json"), `{}`)

	src := NewEvalSource(dir, zaptest.NewLogger(t))
	ctx := context.Background()

	items, err := src.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "conversation_eval_20250201_120000", items[0].ID)
	assert.Equal(t, 0, items[0].NumPairs)
	assert.Equal(t, "conversation_eval_20250101_120000", items[1].ID)
	assert.Equal(t, "longevity", items[1].Project)
	assert.Equal(t, "gpt-4o-mini", items[1].JudgeModel)
	assert.Equal(t, 1, items[1].NumPairs)
	assert.Equal(t, 2025, items[1].CreatedAt.Year())

	report, err := src.Load(ctx, "conversation_eval_20250101_120000")
	require.NoError(t, err)
	assert.Equal(t, "conversation_eval_20250101_120000", report.ID)
	require.Len(t, report.Pairs, 1)
	assert.Equal(t, "sleep_first", report.Pairs[0].ScenarioID)
	require.NotNil(t, report.Summary.AvgCollaboration)
	assert.InDelta(t, 0.8, *report.Summary.AvgCollaboration, 1e-9)
	assert.Nil(t, report.Summary.AvgAlignmentA)

	_, err = src.Load(ctx, "conversation_eval_missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = src.Load(ctx, "../secret")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestChaosSource_NewestFirst(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "chaos_scheduler_failures_20250101_100000.json"),
		`{"scenario": "scheduler_failures", "summary": {"num_runs": 2, "success_rate": 0.5}, "runs": [{"run_id": "x", "success": true}]}`)
	writeFile(t, filepath.Join(dir, "chaos_network_jitter_20250102_100000.json"),
		`{"scenario": "network_jitter", "summary": {"scenario": "network_jitter", "num_runs": 1}}`)

	reports, err := NewChaosSource(dir, zaptest.NewLogger(t)).List(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "network_jitter", reports[0].Summary.Scenario)
	assert.NotNil(t, reports[0].Runs)
	// summary без scenario наследует его из корня отчета
	assert.Equal(t, "scheduler_failures", reports[1].Summary.Scenario)
	assert.Len(t, reports[1].Runs, 1)
}
