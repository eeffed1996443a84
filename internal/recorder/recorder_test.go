package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/longevity-dashboard/internal/domain"
	"github.com/xela07ax/longevity-dashboard/internal/infra"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type memStorage struct {
	mu      sync.Mutex
	batches [][]domain.RunRecord
	fail    bool
}

func (s *memStorage) WriteRecords(_ context.Context, records []domain.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("db down")
	}
	s.batches = append(s.batches, append([]domain.RunRecord(nil), records...))
	return nil
}

func (s *memStorage) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

func TestRecorder_FlushesByBatchSize(t *testing.T) {
	store := &memStorage{}
	rec := New(store, infra.RecorderConfig{BufferSize: 100, BatchSize: 5, FlushInterval: time.Hour}, nil, zaptest.NewLogger(t))
	rec.Start()
	defer rec.Stop()

	for i := range 10 {
		rec.Log(domain.RunRecord{RunID: fmt.Sprintf("r%d", i)})
	}

	require.Eventually(t, func() bool { return store.total() == 10 }, time.Second, 5*time.Millisecond)
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, b := range store.batches {
		assert.Len(t, b, 5)
	}
}

func TestRecorder_FlushesByTicker(t *testing.T) {
	store := &memStorage{}
	rec := New(store, infra.RecorderConfig{BufferSize: 100, BatchSize: 100, FlushInterval: 10 * time.Millisecond}, nil, zaptest.NewLogger(t))
	rec.Start()
	defer rec.Stop()

	rec.Log(domain.RunRecord{RunID: "only"})
	require.Eventually(t, func() bool { return store.total() == 1 }, time.Second, 5*time.Millisecond)
}

func TestRecorder_StopDrainsBuffer(t *testing.T) {
	store := &memStorage{}
	rec := New(store, infra.RecorderConfig{BufferSize: 100, BatchSize: 1000, FlushInterval: time.Hour}, nil, zaptest.NewLogger(t))
	rec.Start()

	for range 42 {
		rec.Log(domain.RunRecord{})
	}
	rec.Stop()
	rec.Stop()

	assert.Equal(t, 42, store.total())
	store.mu.Lock()
	assert.False(t, store.batches[0][0].Timestamp.IsZero())
	store.mu.Unlock()

	// после остановки записи отбрасываются без паники
	rec.Log(domain.RunRecord{RunID: "late"})
	assert.Equal(t, 42, store.total())
}

func TestRecorder_OverflowDrops(t *testing.T) {
	store := &memStorage{}
	rec := New(store, infra.RecorderConfig{BufferSize: 2, BatchSize: 10, FlushInterval: time.Hour}, nil, zaptest.NewLogger(t))
	// воркер не запущен: буфер заполняется
	for range 5 {
		rec.Log(domain.RunRecord{})
	}
	rec.Start()
	rec.Stop()
	assert.Equal(t, 2, store.total())
}

func TestRecorder_StorageErrorDoesNotBlock(t *testing.T) {
	store := &memStorage{fail: true}
	rec := New(store, infra.RecorderConfig{BufferSize: 10, BatchSize: 1, FlushInterval: time.Hour}, nil, zaptest.NewLogger(t))
	rec.Start()
	for range 3 {
		rec.Log(domain.RunRecord{})
	}
	rec.Stop()
	assert.Zero(t, store.total())
}
