package cache

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemo_GetComputesOnce(t *testing.T) {
	memo := NewMemo[int]("test")

	var calls int
	compute := func() int {
		calls++
		return 42
	}

	assert.Equal(t, 42, memo.Get("answer", compute))
	assert.Equal(t, 42, memo.Get("answer", compute))
	assert.Equal(t, 1, calls, "Second Get should be served from cache")

	stats := memo.Stats()
	assert.Equal(t, "test", stats.Source)
	assert.Equal(t, 1, stats.TotalEntries)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.False(t, stats.OldestEntry.IsZero())
}

func TestMemo_ConcurrentGetSingleComputation(t *testing.T) {
	memo := NewMemo[*[]int]("concurrent")

	var calls atomic.Int32
	release := make(chan struct{})
	compute := func() *[]int {
		calls.Add(1)
		<-release
		v := []int{1, 2, 3}
		return &v
	}

	const callers = 16
	results := make([]*[]int, callers)
	var started, done sync.WaitGroup
	started.Add(callers)
	done.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer done.Done()
			started.Done()
			results[i] = memo.Get("shared", compute)
		}(i)
	}

	started.Wait()
	time.Sleep(20 * time.Millisecond)
	close(release)
	done.Wait()

	assert.Equal(t, int32(1), calls.Load(), "Key should be computed at most once")
	for _, r := range results {
		assert.Same(t, results[0], r, "All callers should converge on one retained value")
	}
}

func TestMemo_DeleteAndClear(t *testing.T) {
	memo := NewMemo[string]("test")
	memo.Get("a", func() string { return "A" })
	memo.Get("b", func() string { return "B" })

	assert.ElementsMatch(t, []string{"a", "b"}, memo.Keys())

	memo.Delete("a")
	_, ok := memo.Peek("a")
	assert.False(t, ok)
	v, ok := memo.Peek("b")
	require.True(t, ok)
	assert.Equal(t, "B", v)

	memo.Clear()
	assert.Equal(t, 0, memo.Len())

	// Recomputed after invalidation
	assert.Equal(t, "B2", memo.Get("b", func() string { return "B2" }))
}
