package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billzhuang6569/gravity/internal/domain"
	errpkg "github.com/billzhuang6569/gravity/internal/errors"
)

const testTTL = 7 * 24 * time.Hour

func newTestStore(t *testing.T) (*TaskStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewTaskStore(client, testTTL), mr
}

func testRecord(id string) *domain.TaskRecord {
	now := time.Now().UTC()
	return &domain.TaskRecord{
		ID:        id,
		SourceURL: "https://www.youtube.com/watch?v=abc123",
		Status:    domain.StatusPending,
		Progress:  "queued",
		Options:   domain.DefaultOptions(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestTaskStore_CreateAndGet(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	rec := testRecord("t1")
	require.NoError(t, s.Create(ctx, rec))

	got, err := s.Get(ctx, "t1")
	require.NoError(t, err)

	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.SourceURL, got.SourceURL)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Equal(t, "queued", got.Progress)
	assert.Equal(t, rec.Options, got.Options)
	assert.WithinDuration(t, rec.CreatedAt, got.CreatedAt, time.Millisecond)
}

func TestTaskStore_CreateDuplicate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, testRecord("t1")))

	err := s.Create(ctx, testRecord("t1"))
	assert.ErrorIs(t, err, errpkg.ErrTaskExists)
}

func TestTaskStore_GetMissing(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, errpkg.ErrTaskNotFound)
}

func TestTaskStore_UpdateMissingIsNoop(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	applied, err := s.Update(ctx, "nope", domain.ProgressUpdate("50%"))
	require.NoError(t, err)
	assert.False(t, applied)

	// A no-op update must not create the key either.
	assert.False(t, mr.Exists("task:nope"))
}

func TestTaskStore_UpdateRefreshesUpdatedAt(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	rec := testRecord("t1")
	require.NoError(t, s.Create(ctx, rec))

	applied, err := s.Update(ctx, "t1", domain.ProgressUpdate("10%"))
	require.NoError(t, err)
	require.True(t, applied)

	got, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "10%", got.Progress)
	assert.False(t, got.UpdatedAt.Before(rec.UpdatedAt))
	// Untouched fields survive a partial update.
	assert.Equal(t, rec.SourceURL, got.SourceURL)
	assert.Equal(t, domain.StatusPending, got.Status)
}

func TestTaskStore_UpdateIdempotent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, testRecord("t1")))

	upd := domain.FailedUpdate("boom")
	_, err := s.Update(ctx, "t1", upd)
	require.NoError(t, err)
	first, err := s.Get(ctx, "t1")
	require.NoError(t, err)

	_, err = s.Update(ctx, "t1", upd)
	require.NoError(t, err)
	second, err := s.Get(ctx, "t1")
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.Error, second.Error)
	assert.Equal(t, first.Progress, second.Progress)
}

func TestTaskStore_TTLExpiry(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, testRecord("t1")))

	remaining, ok, err := s.TTLRemaining(ctx, "t1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, testTTL.Seconds(), remaining.Seconds(), 5)

	mr.FastForward(testTTL + time.Minute)

	_, err = s.Get(ctx, "t1")
	assert.ErrorIs(t, err, errpkg.ErrTaskNotFound)

	exists, err := s.Exists(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, exists)

	_, ok, err = s.TTLRemaining(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTaskStore_UpdateRearmsTTL(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, testRecord("t1")))

	// Halfway to expiry a touch re-arms the full window.
	mr.FastForward(testTTL / 2)
	applied, err := s.Update(ctx, "t1", domain.ProgressUpdate("50%"))
	require.NoError(t, err)
	require.True(t, applied)

	mr.FastForward(3 * testTTL / 4)
	exists, err := s.Exists(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, exists, "update should act as a heartbeat extending life")

	mr.FastForward(testTTL)
	exists, err = s.Exists(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestTaskStore_Delete(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, testRecord("t1")))

	deleted, err := s.Delete(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.Delete(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestTaskStore_LastWriteWinsOnProgress(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, testRecord("t1")))

	for _, p := range []string{"10%", "100%", "55%"} {
		_, err := s.Update(ctx, "t1", domain.ProgressUpdate(p))
		require.NoError(t, err)
	}

	got, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "55%", got.Progress, "final progress is whichever was written last")
}
