package repositories

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blinkchat/internal/db"
	"blinkchat/internal/models"
)

func newTestRepo(t *testing.T) *MessageRepo {
	t.Helper()
	database, err := db.Connect("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewMessageRepo(database)
}

func TestInsertAssignsIncreasingIDs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first, err := repo.Insert(ctx, models.Message{Room: "lobby", Text: "one", Timestamp: now, SenderSID: "a"})
	require.NoError(t, err)
	second, err := repo.Insert(ctx, models.Message{Room: "lobby", Text: "two", Timestamp: now, SenderSID: "a"})
	require.NoError(t, err)

	assert.Greater(t, first.ID, int64(0))
	assert.Greater(t, second.ID, first.ID)
}

func TestQueryRecentFiltersAndOrders(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	_, err := repo.Insert(ctx, models.Message{Room: "lobby", Text: "old", Timestamp: base.Add(-2 * time.Minute), SenderSID: "a"})
	require.NoError(t, err)
	_, err = repo.Insert(ctx, models.Message{Room: "lobby", Text: "boundary", Timestamp: base.Add(-time.Minute), SenderSID: "a"})
	require.NoError(t, err)
	_, err = repo.Insert(ctx, models.Message{Room: "lobby", Text: "fresh", Timestamp: base, SenderSID: "b"})
	require.NoError(t, err)
	_, err = repo.Insert(ctx, models.Message{Room: "other", Text: "elsewhere", Timestamp: base, SenderSID: "c"})
	require.NoError(t, err)

	msgs, err := repo.QueryRecent(ctx, "lobby", base.Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	// since is inclusive, ordering is ascending.
	assert.Equal(t, "boundary", msgs[0].Text)
	assert.Equal(t, "fresh", msgs[1].Text)
}

func TestQueryRecentTiesBrokenByID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for _, text := range []string{"first", "second", "third"} {
		_, err := repo.Insert(ctx, models.Message{Room: "lobby", Text: text, Timestamp: ts, SenderSID: "a"})
		require.NoError(t, err)
	}

	msgs, err := repo.QueryRecent(ctx, "lobby", ts)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[0].Text)
	assert.Equal(t, "second", msgs[1].Text)
	assert.Equal(t, "third", msgs[2].Text)
}

func TestQueryRecentEmptyRoom(t *testing.T) {
	repo := newTestRepo(t)

	msgs, err := repo.QueryRecent(context.Background(), "nowhere", time.Now().UTC())
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestDeleteOlderThanStrictBoundary(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	cutoff := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	_, err := repo.Insert(ctx, models.Message{Room: "lobby", Text: "expired", Image: "a.png", Timestamp: cutoff.Add(-time.Second), SenderSID: "a"})
	require.NoError(t, err)
	_, err = repo.Insert(ctx, models.Message{Room: "other", Text: "also expired", Timestamp: cutoff.Add(-time.Minute), SenderSID: "b"})
	require.NoError(t, err)
	_, err = repo.Insert(ctx, models.Message{Room: "lobby", Text: "at cutoff", Timestamp: cutoff, SenderSID: "c"})
	require.NoError(t, err)

	deleted, err := repo.DeleteOlderThan(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, deleted, 2)
	assert.Equal(t, "expired", deleted[1].Text)
	assert.Equal(t, "also expired", deleted[0].Text)
	assert.Equal(t, "a.png", deleted[1].Image)

	// The row exactly at the cutoff survives and is still queryable.
	remaining, err := repo.QueryRecent(ctx, "lobby", cutoff.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "at cutoff", remaining[0].Text)
}

func TestDeleteOlderThanNothingExpired(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := repo.Insert(ctx, models.Message{Room: "lobby", Text: "fresh", Timestamp: now, SenderSID: "a"})
	require.NoError(t, err)

	deleted, err := repo.DeleteOlderThan(ctx, now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Empty(t, deleted)
}

func TestConcurrentInsertAndSweep(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_, err := repo.Insert(ctx, models.Message{Room: "lobby", Text: "m", Timestamp: time.Now().UTC(), SenderSID: "a"})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 10; j++ {
			_, err := repo.DeleteOlderThan(ctx, time.Now().UTC().Add(-time.Minute))
			assert.NoError(t, err)
		}
	}()
	wg.Wait()

	msgs, err := repo.QueryRecent(ctx, "lobby", time.Now().UTC().Add(-time.Minute))
	require.NoError(t, err)
	assert.Len(t, msgs, 100)
}
