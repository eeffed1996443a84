package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/longevity-dashboard/internal/domain"
)

func f(v float64) *float64 { return &v }
func n(v int) *int         { return &v }

func TestBuildScorecard_DiffIsRightMinusLeft(t *testing.T) {
	left := &domain.EvalSummary{AvgCollaboration: f(0.5), AvgConsistency: f(0.9), NumPairs: n(3)}
	right := &domain.EvalSummary{AvgCollaboration: f(0.75), AvgAlignmentA: f(0.4), NumPairs: n(1200)}

	rows := BuildScorecard(left, right)
	require.Len(t, rows, 6)

	byKey := map[string]ScorecardRow{}
	for _, r := range rows {
		byKey[r.Key] = r
	}

	assert.InDelta(t, 0.25, byKey["avg_collaboration"].Diff, 1e-9)
	assert.Equal(t, "+0.25", byKey["avg_collaboration"].DiffText)

	// отсутствующее значение слева считается нулем
	assert.InDelta(t, 0.4, byKey["avg_alignment_a"].Diff, 1e-9)

	assert.InDelta(t, -0.9, byKey["avg_consistency"].Diff, 1e-9)
	assert.Equal(t, "-0.90", byKey["avg_consistency"].DiffText)

	assert.Equal(t, "0.00", byKey["avg_reasoning_depth"].DiffText)

	assert.Equal(t, "Scenario Pairs", byKey["num_pairs"].Label)
	assert.Equal(t, "3", byKey["num_pairs"].LeftText)
	assert.Equal(t, "1,200", byKey["num_pairs"].RightText)
	assert.Equal(t, "+1197.00", byKey["num_pairs"].DiffText)
}

func TestBuildScorecard_MissingSides(t *testing.T) {
	rows := BuildScorecard(nil, nil)
	require.Len(t, rows, len(ScorecardRows))
	for _, r := range rows {
		assert.Zero(t, r.Diff)
		assert.Equal(t, "0.00", r.DiffText)
	}
}

func TestFormatDiff(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1.25, "+1.25"},
		{-0.5, "-0.50"},
		{0, "0.00"},
		{0.004, "+0.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDiff(tt.in))
	}
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "12,345", FormatValue(12345))
	assert.Equal(t, "0", FormatValue(0))
	assert.Equal(t, "0.83", FormatValue(0.8333))
	assert.Equal(t, "-2", FormatValue(-2))
}

func TestRadar(t *testing.T) {
	assert.Empty(t, Radar(nil, &domain.EvalSummary{}))

	points := Radar(&domain.EvalSummary{AvgAlignmentB: f(0.1)}, &domain.EvalSummary{AvgAlignmentB: f(0.3)})
	require.Len(t, points, len(Metrics))
	assert.Equal(t, "Alignment B", points[2].Metric)
	assert.InDelta(t, 0.1, points[2].Left, 1e-9)
	assert.InDelta(t, 0.3, points[2].Right, 1e-9)
}

func TestPickDefaultIDs(t *testing.T) {
	tests := []struct {
		name        string
		ids         []string
		left, right string
		wantL       string
		wantR       string
	}{
		{"empty", nil, "", "", "", ""},
		{"single report compares with itself", []string{"a"}, "", "", "a", "a"},
		{"first two by default", []string{"a", "b", "c"}, "", "", "a", "b"},
		{"explicit ids", []string{"a", "b", "c"}, "c", "a", "c", "a"},
		{"unknown ids ignored", []string{"a", "b"}, "zzz", "b", "a", "b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, r := PickDefaultIDs(tt.ids, tt.left, tt.right)
			assert.Equal(t, tt.wantL, l)
			assert.Equal(t, tt.wantR, r)
		})
	}
}

func TestNewComparison(t *testing.T) {
	left := &domain.EvalReport{ID: "a", Summary: &domain.EvalSummary{AvgConsistency: f(0.5)}}
	c := NewComparison("a", "b", left, nil)
	assert.Empty(t, c.Radar)
	assert.Len(t, c.Scorecard, 6)
	assert.Equal(t, "-0.50", c.Scorecard[4].DiffText)
}
