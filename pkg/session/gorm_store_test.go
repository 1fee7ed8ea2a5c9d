package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	store, err := NewGormStore(db)
	require.NoError(t, err)
	return store
}

func TestGormStoreCRUD(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	s := &Session{
		SessionID:   "sess-1",
		UserID:      1,
		ProjectPath: "/work/project",
		CreatedAt:   time.Now(),
		LastUsed:    time.Now(),
		ToolsUsed:   ToolCounts{"Read": 1},
	}
	require.NoError(t, store.Create(ctx, s))
	assert.NotZero(t, s.RowID)

	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.UserID)
	assert.Equal(t, ToolCounts{"Read": 1}, got.ToolsUsed)

	got.TotalCost = 0.25
	got.MessageCount = 3
	got.ToolsUsed.Union([]string{"Bash"})
	require.NoError(t, store.Update(ctx, got))

	got, err = store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 0.25, got.TotalCost)
	assert.Equal(t, 3, got.MessageCount)
	assert.Equal(t, ToolCounts{"Read": 1, "Bash": 1}, got.ToolsUsed)

	require.NoError(t, store.Delete(ctx, "sess-1"))
	_, err = store.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormStoreGetMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormStoreListByUser(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	base := time.Now().Truncate(time.Second)

	for _, s := range []*Session{
		{SessionID: "old", UserID: 1, ProjectPath: "/p", LastUsed: base.Add(-2 * time.Hour)},
		{SessionID: "new", UserID: 1, ProjectPath: "/p", LastUsed: base},
		{SessionID: "other-user", UserID: 2, ProjectPath: "/p", LastUsed: base},
	} {
		require.NoError(t, store.Create(ctx, s))
	}

	sessions, err := store.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "new", sessions[0].SessionID)
	assert.Equal(t, "old", sessions[1].SessionID)
}

func TestGormStoreDeleteExpired(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	now := time.Now()

	for _, s := range []*Session{
		{SessionID: "stale-1", UserID: 1, ProjectPath: "/p", LastUsed: now.Add(-48 * time.Hour)},
		{SessionID: "stale-2", UserID: 2, ProjectPath: "/p", LastUsed: now.Add(-25 * time.Hour)},
		{SessionID: "fresh", UserID: 1, ProjectPath: "/p", LastUsed: now},
	} {
		require.NoError(t, store.Create(ctx, s))
	}

	n, err := store.DeleteExpired(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = store.Get(ctx, "stale-1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, "fresh")
	assert.NoError(t, err)
}
