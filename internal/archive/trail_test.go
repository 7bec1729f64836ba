package archive

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memStorage struct {
	mu      sync.Mutex
	batches [][]Event
	fail    int // сколько первых вызовов вернут ошибку
	calls   int
}

func (m *memStorage) WriteBatch(_ context.Context, events []Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.calls <= m.fail {
		return errors.New("db is down")
	}
	cp := make([]Event, len(events))
	copy(cp, events)
	m.batches = append(m.batches, cp)
	return nil
}

func (m *memStorage) total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.batches {
		n += len(b)
	}
	return n
}

func TestTrail_FlushesOnBatchSizeAndStop(t *testing.T) {
	store := &memStorage{}
	trail := NewTrail(store, Options{BufferSize: 100, BatchSize: 5, FlushInterval: time.Hour}, zap.NewNop())
	trail.Start()

	for i := 0; i < 12; i++ {
		trail.Log(Event{ID: fmt.Sprintf("e-%d", i), Kind: KindActionPerformed})
	}
	trail.Stop()

	assert.Equal(t, 12, store.total())
	require.Len(t, store.batches, 3)
	assert.Len(t, store.batches[0], 5)
	assert.Len(t, store.batches[2], 2, "final flush drains the rest")
	assert.False(t, store.batches[0][0].Timestamp.IsZero())
}

func TestTrail_ClampsBatchSize(t *testing.T) {
	trail := NewTrail(&memStorage{}, Options{BatchSize: 10000}, zap.NewNop())
	assert.Equal(t, MaxBatchSize, trail.opts.BatchSize)

	trail = NewTrail(&memStorage{}, Options{BatchSize: MaxBatchSize}, zap.NewNop())
	assert.Equal(t, MaxBatchSize, trail.opts.BatchSize)
}

func TestTrail_FlushesOnTicker(t *testing.T) {
	store := &memStorage{}
	trail := NewTrail(store, Options{BatchSize: 100, FlushInterval: 10 * time.Millisecond}, zap.NewNop())
	trail.Start()
	defer trail.Stop()

	trail.Log(Event{ID: "tick"})

	assert.Eventually(t, func() bool { return store.total() == 1 }, time.Second, 5*time.Millisecond)
}

func TestTrail_DropsAfterStop(t *testing.T) {
	store := &memStorage{}
	trail := NewTrail(store, Options{}, zap.NewNop())
	trail.Start()
	trail.Stop()
	trail.Stop() // повторный Stop безопасен

	trail.Log(Event{ID: "late"})
	assert.Equal(t, 0, store.total())
}

func TestTrail_LoadShedding(t *testing.T) {
	store := &memStorage{}
	trail := NewTrail(store, Options{BufferSize: 2, BatchSize: 100, FlushInterval: time.Hour}, zap.NewNop())

	var depth []int
	trail.OnDepth(func(n int) { depth = append(depth, n) })

	// воркер не запущен — буфер не вычитывается
	trail.Log(Event{ID: "1"})
	trail.Log(Event{ID: "2"})
	trail.Log(Event{ID: "3"})

	assert.Equal(t, []int{1, 2}, depth)

	trail.Start()
	trail.Stop()
	assert.Equal(t, 2, store.total())
}

func TestReliableStorage_RetriesTransientFailure(t *testing.T) {
	store := &memStorage{fail: 1}
	rs := NewReliableStorage(store, zap.NewNop())

	err := rs.WriteBatch(context.Background(), []Event{{ID: "x"}})
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
	assert.Equal(t, 1, store.total())
}

func TestReliableStorage_OpensBreaker(t *testing.T) {
	store := &memStorage{fail: 1000}
	rs := NewReliableStorage(store, zap.NewNop())

	for i := 0; i < 3; i++ {
		assert.Error(t, rs.WriteBatch(context.Background(), []Event{{ID: "x"}}))
	}
	assert.Equal(t, gobreaker.StateOpen, rs.State())

	calls := store.calls
	err := rs.WriteBatch(context.Background(), []Event{{ID: "x"}})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, calls, store.calls, "open breaker must not reach storage")
}
