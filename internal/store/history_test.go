package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHistory(t *testing.T, maxSize int) *History {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewHistory(client, maxSize)
}

func TestHistory_RecordAndList(t *testing.T) {
	h := newTestHistory(t, 20)
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("task-%d", i)
		require.NoError(t, h.RecordCompletion(ctx, id, base.Add(time.Duration(i)*time.Second)))
	}

	ids, err := h.ListRecent(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"task-4", "task-3", "task-2"}, ids, "most recent first")

	size, err := h.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, size)
}

func TestHistory_BoundedAtCap(t *testing.T) {
	h := newTestHistory(t, 20)
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 25; i++ {
		id := fmt.Sprintf("task-%d", i)
		require.NoError(t, h.RecordCompletion(ctx, id, base.Add(time.Duration(i)*time.Second)))

		size, err := h.Size(ctx)
		require.NoError(t, err)
		assert.LessOrEqual(t, size, 20, "size must never exceed the cap")
	}

	ids, err := h.ListRecent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, ids, 20)

	// The retained entries are exactly the 20 most recent insertions.
	assert.Equal(t, "task-24", ids[0])
	assert.Equal(t, "task-5", ids[19])
}

func TestHistory_ReinsertUpdatesScore(t *testing.T) {
	h := newTestHistory(t, 20)
	ctx := context.Background()

	base := time.Now()
	require.NoError(t, h.RecordCompletion(ctx, "a", base))
	require.NoError(t, h.RecordCompletion(ctx, "b", base.Add(time.Second)))
	require.NoError(t, h.RecordCompletion(ctx, "a", base.Add(2*time.Second)))

	ids, err := h.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	size, err := h.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, size, "re-completion of a task id must not duplicate it")
}

func TestHistory_Remove(t *testing.T) {
	h := newTestHistory(t, 20)
	ctx := context.Background()

	require.NoError(t, h.RecordCompletion(ctx, "a", time.Now()))

	removed, err := h.Remove(ctx, "a")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = h.Remove(ctx, "a")
	require.NoError(t, err)
	assert.False(t, removed)

	ids, err := h.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestHistory_Clear(t *testing.T) {
	h := newTestHistory(t, 20)
	ctx := context.Background()

	require.NoError(t, h.RecordCompletion(ctx, "a", time.Now()))
	require.NoError(t, h.RecordCompletion(ctx, "b", time.Now().Add(time.Second)))

	require.NoError(t, h.Clear(ctx))

	size, err := h.Size(ctx)
	require.NoError(t, err)
	assert.Zero(t, size)
}
