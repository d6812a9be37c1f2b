package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gtaskall/gtaskall/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "gtaskall.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndListAccounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveAccount(ctx, model.Account{
		ID:     "acc-1",
		Name:   "Work",
		Email:  "work@example.com",
		Token:  "tok-1",
		Status: model.AccountActive,
	}))
	require.NoError(t, s.SaveAccount(ctx, model.Account{
		ID:     "acc-2",
		Email:  "home@example.com",
		Status: model.AccountExpired,
	}))

	accounts, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	// Ordered by email.
	assert.Equal(t, "home@example.com", accounts[0].Email)
	assert.Equal(t, model.AccountExpired, accounts[0].Status)
	assert.Equal(t, "work@example.com", accounts[1].Email)
	assert.Equal(t, "tok-1", accounts[1].Token)
}

func TestSaveAccountReplacesByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	acc := model.Account{ID: "acc-1", Email: "work@example.com", Token: "old", Status: model.AccountActive}
	require.NoError(t, s.SaveAccount(ctx, acc))

	acc.Token = ""
	acc.Status = model.AccountExpired
	require.NoError(t, s.SaveAccount(ctx, acc))

	accounts, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Empty(t, accounts[0].Token)
	assert.Equal(t, model.AccountExpired, accounts[0].Status)
}

func TestTaskCacheRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	due := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	tasks := []model.Task{
		{
			ID: "t1", ListID: "l1", AccountEmail: "work@example.com",
			Title: "Write report", Notes: "quarterly", Due: due,
			State: model.StateInProgress, Start: due.AddDate(0, 0, -1),
			Color: "#FF8800", Recurring: true,
		},
		{
			ID: "t2", ListID: "l1", AccountEmail: "work@example.com",
			Title: "Done thing", State: model.StateCompleted,
			Completed: due.Add(10 * time.Hour),
		},
	}

	require.NoError(t, s.ReplaceTaskCache(ctx, tasks))

	loaded, err := s.LoadTaskCache(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, "t1", loaded[0].ID)
	assert.True(t, loaded[0].Due.Equal(due))
	assert.Equal(t, model.StateInProgress, loaded[0].State)
	assert.True(t, loaded[0].Start.Equal(due.AddDate(0, 0, -1)))
	assert.Equal(t, "#FF8800", loaded[0].Color)
	assert.True(t, loaded[0].Recurring)

	assert.Equal(t, model.StateCompleted, loaded[1].State)
	assert.True(t, loaded[1].Due.IsZero(), "NULL due must come back as zero time")
	assert.False(t, loaded[1].Completed.IsZero())
}

func TestReplaceTaskCacheReplacesWholeSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceTaskCache(ctx, []model.Task{
		{ID: "old", ListID: "l1", AccountEmail: "a@example.com"},
	}))
	require.NoError(t, s.ReplaceTaskCache(ctx, []model.Task{
		{ID: "new", ListID: "l1", AccountEmail: "a@example.com"},
	}))

	loaded, err := s.LoadTaskCache(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "new", loaded[0].ID)
}

func TestDeleteAccountDropsCachedTasks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveAccount(ctx, model.Account{
		ID: "acc-1", Email: "work@example.com", Status: model.AccountActive,
	}))
	require.NoError(t, s.ReplaceTaskCache(ctx, []model.Task{
		{ID: "t1", ListID: "l1", AccountEmail: "work@example.com"},
		{ID: "t2", ListID: "l2", AccountEmail: "other@example.com"},
	}))

	require.NoError(t, s.DeleteAccount(ctx, "acc-1"))

	accounts, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)

	loaded, err := s.LoadTaskCache(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "other@example.com", loaded[0].AccountEmail)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gtaskall.db")

	s1, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s1.SaveAccount(context.Background(), model.Account{
		ID: "acc-1", Email: "work@example.com", Status: model.AccountActive,
	}))
	require.NoError(t, s1.Close())

	// Reopening runs migrations again; existing data must survive.
	s2, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer s2.Close()

	accounts, err := s2.ListAccounts(context.Background())
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}
