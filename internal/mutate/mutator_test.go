package mutate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gtaskall/gtaskall/internal/model"
)

type fakeWriter struct {
	mu      sync.Mutex
	err     error
	patched []model.Task
	// transform lets a test simulate server-side normalization.
	transform func(model.Task) model.Task
}

func (f *fakeWriter) PatchTask(_ context.Context, _, listID, taskID string, t model.Task) (model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return model.Task{}, f.err
	}
	t.ListID = listID
	t.ID = taskID
	if f.transform != nil {
		t = f.transform(t)
	}
	f.patched = append(f.patched, t)
	return t, nil
}

func (f *fakeWriter) InsertTask(_ context.Context, _, listID string, t model.Task) (model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return model.Task{}, f.err
	}
	t.ListID = listID
	t.ID = "server-assigned"
	return t, nil
}

type fakeLocal struct {
	mu    sync.Mutex
	tasks map[string]model.Task
}

func newFakeLocal(tasks ...model.Task) *fakeLocal {
	l := &fakeLocal{tasks: make(map[string]model.Task)}
	for _, t := range tasks {
		l.tasks[t.Key()] = t
	}
	return l
}

func (l *fakeLocal) TaskByKey(key string) (model.Task, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.tasks[key]
	return t, ok
}

func (l *fakeLocal) UpsertTask(t model.Task) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tasks[t.Key()] = t
}

func (l *fakeLocal) RemoveTask(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.tasks, key)
}

func (l *fakeLocal) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

type fakeTokens struct {
	accounts map[string]model.Account
}

func (f *fakeTokens) ByEmail(email string) (model.Account, bool) {
	acc, ok := f.accounts[email]
	return acc, ok
}

type fakeNotifier struct {
	calls int
}

func (f *fakeNotifier) SyncSoon() { f.calls++ }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var fixedNow = time.Date(2024, 3, 20, 14, 30, 0, 0, time.UTC)

func newMutator(t *testing.T, writer *fakeWriter, local *fakeLocal) (*Mutator, *fakeNotifier) {
	t.Helper()
	tokens := &fakeTokens{accounts: map[string]model.Account{
		"alice@example.com": {
			ID: "a", Name: "Alice", Email: "alice@example.com",
			Token: "tok-a", Status: model.AccountActive,
		},
		"expired@example.com": {
			ID: "e", Email: "expired@example.com", Status: model.AccountExpired,
		},
	}}
	notifier := &fakeNotifier{}
	m := NewMutator(writer, local, tokens, notifier, discardLogger())
	m.now = func() time.Time { return fixedNow }
	return m, notifier
}

func task() model.Task {
	return model.Task{
		ID:           "t1",
		ListID:       "l1",
		AccountEmail: "alice@example.com",
		AccountName:  "Alice",
		Title:        "Write report",
		Notes:        "quarterly numbers",
		Due:          time.Date(2024, 3, 22, 0, 0, 0, 0, time.UTC),
		State:        model.StateTodo,
	}
}

func TestCompleteAppliesAndNotifies(t *testing.T) {
	writer := &fakeWriter{}
	local := newFakeLocal(task())
	m, notifier := newMutator(t, writer, local)

	got, err := m.Complete(context.Background(), task().Key())
	require.NoError(t, err)

	assert.Equal(t, model.StateCompleted, got.State)
	assert.Equal(t, fixedNow, got.Completed)
	stored, ok := local.TaskByKey(task().Key())
	require.True(t, ok)
	assert.Equal(t, model.StateCompleted, stored.State)
	assert.Equal(t, 1, notifier.calls)
}

func TestFailedPatchRollsBackToPreImage(t *testing.T) {
	writer := &fakeWriter{err: errors.New("backend unavailable")}
	pre := task()
	local := newFakeLocal(pre)
	m, notifier := newMutator(t, writer, local)

	_, err := m.Complete(context.Background(), pre.Key())
	require.Error(t, err)
	assert.ErrorContains(t, err, "backend unavailable")

	restored, ok := local.TaskByKey(pre.Key())
	require.True(t, ok)
	assert.Equal(t, pre, restored, "rollback must restore the pre-image exactly")
	assert.Zero(t, notifier.calls, "no follow-up sync after a failed mutation")
}

func TestReconcileUsesServerCopy(t *testing.T) {
	writer := &fakeWriter{transform: func(t model.Task) model.Task {
		t.Title = strings.TrimSpace(t.Title)
		return t
	}}
	pre := task()
	pre.Title = "  Write report  "
	local := newFakeLocal(pre)
	m, _ := newMutator(t, writer, local)

	title := "  Renamed  "
	got, err := m.EditTask(context.Background(), pre.Key(), Edit{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title, "snapshot must carry the server's normalized copy")
	assert.Equal(t, "alice@example.com", got.AccountEmail, "account identity survives reconciliation")
}

func TestUncompleteClearsCompletion(t *testing.T) {
	done := task()
	done.State = model.StateCompleted
	done.Completed = fixedNow.Add(-time.Hour)
	local := newFakeLocal(done)
	m, _ := newMutator(t, &fakeWriter{}, local)

	got, err := m.Uncomplete(context.Background(), done.Key())
	require.NoError(t, err)
	assert.Equal(t, model.StateTodo, got.State)
	assert.True(t, got.Completed.IsZero())
}

func TestRescheduleAndClearDue(t *testing.T) {
	local := newFakeLocal(task())
	m, _ := newMutator(t, &fakeWriter{}, local)

	due := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	got, err := m.Reschedule(context.Background(), task().Key(), due)
	require.NoError(t, err)
	assert.Equal(t, due, got.Due)

	got, err = m.Reschedule(context.Background(), task().Key(), time.Time{})
	require.NoError(t, err)
	assert.True(t, got.Due.IsZero())
}

func TestMoveToColumnStashesAndRestoresDue(t *testing.T) {
	pre := task()
	local := newFakeLocal(pre)
	m, _ := newMutator(t, &fakeWriter{}, local)

	got, err := m.MoveToColumn(context.Background(), pre.Key(), model.StateInProgress)
	require.NoError(t, err)
	assert.Equal(t, model.StateInProgress, got.State)
	assert.True(t, got.Due.IsZero(), "due date moves aside while in progress")
	assert.Equal(t, pre.Due, got.Start, "due date is stashed as start date")

	got, err = m.MoveToColumn(context.Background(), pre.Key(), model.StateTodo)
	require.NoError(t, err)
	assert.Equal(t, model.StateTodo, got.State)
	assert.Equal(t, pre.Due, got.Due, "moving back restores the original due date")
	assert.True(t, got.Start.IsZero())
}

func TestMoveToDoneSetsCompletion(t *testing.T) {
	local := newFakeLocal(task())
	m, _ := newMutator(t, &fakeWriter{}, local)

	got, err := m.MoveToColumn(context.Background(), task().Key(), model.StateCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.StateCompleted, got.State)
	assert.Equal(t, fixedNow, got.Completed)
}

func TestCreateReplacesPlaceholder(t *testing.T) {
	local := newFakeLocal()
	m, notifier := newMutator(t, &fakeWriter{}, local)

	got, err := m.Create(context.Background(), "alice@example.com", "l1", model.Task{Title: "New"})
	require.NoError(t, err)
	assert.Equal(t, "server-assigned", got.ID)
	assert.Equal(t, "Alice", got.AccountName)
	assert.Equal(t, 1, local.len(), "placeholder must be replaced, not kept")
	assert.Equal(t, 1, notifier.calls)
}

func TestCreateFailureRemovesPlaceholder(t *testing.T) {
	local := newFakeLocal()
	m, _ := newMutator(t, &fakeWriter{err: errors.New("quota exceeded")}, local)

	_, err := m.Create(context.Background(), "alice@example.com", "l1", model.Task{Title: "New"})
	require.Error(t, err)
	assert.Zero(t, local.len())
}

func TestMutationErrors(t *testing.T) {
	local := newFakeLocal(task())
	m, _ := newMutator(t, &fakeWriter{}, local)

	_, err := m.Complete(context.Background(), "l1/missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	orphan := task()
	orphan.ID = "t9"
	orphan.AccountEmail = "expired@example.com"
	local.UpsertTask(orphan)
	_, err = m.Complete(context.Background(), orphan.Key())
	assert.ErrorIs(t, err, ErrAccountUnavailable)

	_, err = m.Create(context.Background(), "nobody@example.com", "l1", model.Task{Title: "X"})
	assert.ErrorIs(t, err, ErrAccountUnavailable)
}
