package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"github.com/xela07ax/longevity-dashboard/internal/metrics"
	"github.com/xela07ax/longevity-dashboard/internal/mocks"
	"go.uber.org/zap/zaptest"
)

func TestFallback_PrimaryFirst(t *testing.T) {
	var order []string
	fb := NewFallback("", nil, zaptest.NewLogger(t))

	v, err := fb.Load(context.Background(), mocks.Runs, func(context.Context) (any, error) {
		order = append(order, "primary")
		return []string{"live"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"live"}, v)
	assert.Equal(t, []string{"primary"}, order)
}

func TestFallback_UsesMockOnPrimaryFailure(t *testing.T) {
	m := metrics.NewMetrics(nil)
	fb := NewFallback("", m, zaptest.NewLogger(t))

	v, err := fb.Load(context.Background(), mocks.Runs, func(context.Context) (any, error) {
		return nil, errors.New("disk on fire")
	})
	require.NoError(t, err)

	raw, ok := v.(json.RawMessage)
	require.True(t, ok)
	var runs []domain.RunListItem
	require.NoError(t, json.Unmarshal(raw, &runs))
	assert.NotEmpty(t, runs)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbackHits.WithLabelValues(mocks.Runs)))
}

func TestFallback_ConfiguredDirWins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, mocks.Tests), `[{"name": "Only"}]`)
	fb := NewFallback(dir, nil, zaptest.NewLogger(t))

	raw, err := fb.ReadMock(mocks.Tests)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name": "Only"}]`, string(raw))

	// в каталоге нет - берется встроенная
	raw, err = fb.ReadMock(mocks.MetricsOverview)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "runs_count")
}

func TestFallback_BothFail(t *testing.T) {
	fb := NewFallback("", nil, zaptest.NewLogger(t))
	_, err := fb.Load(context.Background(), "missing.json", func(context.Context) (any, error) {
		return nil, errors.New("primary down")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "primary down")
	assert.Contains(t, err.Error(), "missing.json")
}

func TestFallback_ClientErrorsPassThrough(t *testing.T) {
	fb := NewFallback("", nil, zaptest.NewLogger(t))
	_, err := fb.Load(context.Background(), mocks.RunDetailSample, func(context.Context) (any, error) {
		return nil, domain.ErrNotFound
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
