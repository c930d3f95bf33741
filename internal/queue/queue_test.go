package queue

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	q, err := OpenInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func TestEnqueue_OneJobPerBook(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	first, err := q.Enqueue(ctx, "book-1", "review created")
	require.NoError(t, err)
	second, err := q.Enqueue(ctx, "book-1", "review deleted")
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, "book-2", "shelved")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := q.Get(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
	assert.Equal(t, "review deleted", got.Reason)
}

func TestAck_StaleJobIsKept(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	stale, err := q.Enqueue(ctx, "book-1", "first")
	require.NoError(t, err)
	fresh, err := q.Enqueue(ctx, "book-1", "second")
	require.NoError(t, err)

	acked, err := q.Ack(ctx, stale)
	require.NoError(t, err)
	assert.False(t, acked, "stale job must not remove the newer request")

	n, _ := q.Len(ctx)
	assert.Equal(t, 1, n)

	acked, err = q.Ack(ctx, fresh)
	require.NoError(t, err)
	assert.True(t, acked)

	n, _ = q.Len(ctx)
	assert.Equal(t, 0, n)

	// Acking an already removed job is harmless.
	acked, err = q.Ack(ctx, fresh)
	require.NoError(t, err)
	assert.False(t, acked)
}

func TestFail_CountsAttemptsAcrossReplacement(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	job, err := q.Enqueue(ctx, "book-1", "x")
	require.NoError(t, err)
	require.NoError(t, q.Fail(ctx, job, errors.New("database is locked")))
	require.NoError(t, q.Fail(ctx, job, errors.New("database is locked")))
	assert.Equal(t, 2, job.Attempts)

	replaced, err := q.Enqueue(ctx, "book-1", "y")
	require.NoError(t, err)
	assert.Equal(t, 2, replaced.Attempts)
	assert.Equal(t, "database is locked", replaced.LastError)

	// Failing the stale job does nothing.
	require.NoError(t, q.Fail(ctx, job, errors.New("ignored")))
	got, err := q.Get(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Attempts)
}

func TestPending_Limit(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	for _, id := range []string{"book-c", "book-a", "book-b"} {
		_, err := q.Enqueue(ctx, id, "x")
		require.NoError(t, err)
	}

	jobs, err := q.Pending(ctx, 2)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "book-a", jobs[0].BookID)
	assert.Equal(t, "book-b", jobs[1].BookID)

	all, err := q.Pending(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestConcurrentEnqueue(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = q.Enqueue(ctx, "book-1", "race")
		}()
	}
	wg.Wait()

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOpen_Persists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "queue")
	ctx := context.Background()

	q, err := Open(dir, nil)
	require.NoError(t, err)
	job, err := q.Enqueue(ctx, "book-1", "x")
	require.NoError(t, err)
	require.NoError(t, q.Close())

	q, err = Open(dir, nil)
	require.NoError(t, err)
	defer q.Close()

	got, err := q.Get(ctx, "book-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, job.ID, got.ID)
}

func TestCanceledContext(t *testing.T) {
	q := newTestQueue(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.Enqueue(ctx, "book-1", "x")
	assert.ErrorIs(t, err, context.Canceled)
}
