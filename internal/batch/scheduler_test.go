package batch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"go.uber.org/zap/zaptest"
)

func TestScheduler_EmptySpecDisabled(t *testing.T) {
	f := newFixture(t, &fakeConversation{})
	s := NewScheduler(f.runner, nil, domain.DefaultParallelRequest(), zaptest.NewLogger(t))

	require.NoError(t, s.Start(""))
	assert.Empty(t, s.cron.Entries())
	s.Stop()
}

func TestScheduler_RejectsBadInput(t *testing.T) {
	f := newFixture(t, &fakeConversation{})

	s := NewScheduler(f.runner, nil, domain.ParallelRequest{Concurrency: 2, NumRuns: 4}, zaptest.NewLogger(t))
	assert.ErrorContains(t, s.Start("not a cron"), "bad schedule")

	s = NewScheduler(f.runner, nil, domain.ParallelRequest{Concurrency: 99, NumRuns: 4}, zaptest.NewLogger(t))
	assert.ErrorIs(t, s.Start("@every 1h"), domain.ErrInvalidRequest)
}

func TestScheduler_FireQueuesBatch(t *testing.T) {
	f := newFixture(t, &fakeConversation{})
	s := NewScheduler(f.runner, nil, domain.ParallelRequest{Concurrency: 2, NumRuns: 3}, zaptest.NewLogger(t))
	require.NoError(t, s.Start("@every 1h"))
	defer s.Stop()

	s.fire()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.Eventually(t, func() bool {
		f.store.mu.Lock()
		defer f.store.mu.Unlock()
		return len(f.store.batches) == 1
	}, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, f.runner.Shutdown(ctx))

	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	assert.Equal(t, domain.BatchParallel, f.store.batches[0].Kind)
	assert.Equal(t, 3, f.store.batches[0].NumRuns)
}
