package mutate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gtaskall/gtaskall/internal/logging"
	"github.com/gtaskall/gtaskall/internal/model"
)

var (
	// ErrTaskNotFound means the key does not exist in the local snapshot.
	ErrTaskNotFound = errors.New("task not found")

	// ErrAccountUnavailable means the owning account is disconnected or
	// its token has expired, so no remote write can be attempted.
	ErrAccountUnavailable = errors.New("account unavailable")
)

// RemoteWriter performs the remote writes behind each mutation.
type RemoteWriter interface {
	PatchTask(ctx context.Context, token, listID, taskID string, t model.Task) (model.Task, error)
	InsertTask(ctx context.Context, token, listID string, t model.Task) (model.Task, error)
}

// LocalState is the snapshot the mutation is applied to optimistically.
type LocalState interface {
	TaskByKey(key string) (model.Task, bool)
	UpsertTask(t model.Task)
	RemoveTask(key string)
}

// Tokens resolves an account email to its credentials.
type Tokens interface {
	ByEmail(email string) (model.Account, bool)
}

// Notifier is asked for a follow-up sync after a successful mutation.
type Notifier interface {
	SyncSoon()
}

// Recorder receives mutation outcomes. A nil Recorder disables
// recording.
type Recorder interface {
	Mutation(op string, rolledBack bool)
}

// Edit describes a partial update. Nil fields are left unchanged.
type Edit struct {
	Title     *string
	Notes     *string
	Color     *string
	Recurring *bool
}

// Mutator applies task mutations optimistically: the local snapshot is
// updated first, then the remote write runs. On success the local copy
// is reconciled with the server's authoritative response; on failure the
// snapshot is rolled back to the exact pre-image and the error is
// returned to the caller.
type Mutator struct {
	remote   RemoteWriter
	local    LocalState
	tokens   Tokens
	notifier Notifier
	logger   *slog.Logger
	recorder Recorder

	now func() time.Time
}

// Option configures a Mutator.
type Option func(*Mutator)

// WithRecorder attaches a mutation recorder.
func WithRecorder(r Recorder) Option {
	return func(m *Mutator) { m.recorder = r }
}

// NewMutator creates a mutation layer over the given snapshot and
// remote writer.
func NewMutator(remote RemoteWriter, local LocalState, tokens Tokens, notifier Notifier, logger *slog.Logger, opts ...Option) *Mutator {
	m := &Mutator{
		remote:   remote,
		local:    local,
		tokens:   tokens,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Complete marks a task done with a completion timestamp.
func (m *Mutator) Complete(ctx context.Context, key string) (model.Task, error) {
	return m.patch(ctx, "complete", key, func(t model.Task) model.Task {
		t.State = model.StateCompleted
		t.Completed = m.now().UTC()
		return t
	})
}

// Uncomplete reopens a completed task.
func (m *Mutator) Uncomplete(ctx context.Context, key string) (model.Task, error) {
	return m.patch(ctx, "uncomplete", key, func(t model.Task) model.Task {
		t.State = model.StateTodo
		t.Completed = time.Time{}
		return t
	})
}

// Reschedule changes a task's due date. A zero due clears it.
func (m *Mutator) Reschedule(ctx context.Context, key string, due time.Time) (model.Task, error) {
	return m.patch(ctx, "reschedule", key, func(t model.Task) model.Task {
		t.Due = due
		return t
	})
}

// EditTask applies a partial field update.
func (m *Mutator) EditTask(ctx context.Context, key string, edit Edit) (model.Task, error) {
	return m.patch(ctx, "edit", key, func(t model.Task) model.Task {
		if edit.Title != nil {
			t.Title = *edit.Title
		}
		if edit.Notes != nil {
			t.Notes = *edit.Notes
		}
		if edit.Color != nil {
			t.Color = *edit.Color
		}
		if edit.Recurring != nil {
			t.Recurring = *edit.Recurring
		}
		return t
	})
}

// MoveToColumn moves a task between board columns. Moving into the
// in-progress column stashes the due date as the start date; moving
// back to the first column restores it. Moving to done records a
// completion timestamp.
func (m *Mutator) MoveToColumn(ctx context.Context, key string, col model.State) (model.Task, error) {
	return m.patch(ctx, "move_column", key, func(t model.Task) model.Task {
		switch col {
		case model.StateCompleted:
			t.State = model.StateCompleted
			t.Completed = m.now().UTC()
		case model.StateInProgress:
			t.State = model.StateInProgress
			t.Completed = time.Time{}
			if !t.Due.IsZero() {
				t.Start = t.Due
				t.Due = time.Time{}
			}
		default:
			t.State = model.StateTodo
			t.Completed = time.Time{}
			if t.Due.IsZero() && !t.Start.IsZero() {
				t.Due = t.Start
			}
			t.Start = time.Time{}
		}
		return t
	})
}

// Create inserts a new task in one of the account's lists. The task
// appears in the snapshot immediately under a placeholder ID, which the
// server's assigned ID replaces on success.
func (m *Mutator) Create(ctx context.Context, email, listID string, t model.Task) (model.Task, error) {
	acc, ok := m.tokens.ByEmail(email)
	if !ok || !acc.Usable() {
		return model.Task{}, fmt.Errorf("create task: account %s: %w", logging.AnonymizeEmail(email), ErrAccountUnavailable)
	}

	t.ListID = listID
	t.AccountEmail = acc.Email
	t.AccountName = acc.Name
	t.AccountPicture = acc.Picture

	placeholder := t
	placeholder.ID = "pending-" + uuid.NewString()
	m.local.UpsertTask(placeholder)

	created, err := m.remote.InsertTask(ctx, acc.Token, listID, t)
	if err != nil {
		m.local.RemoveTask(placeholder.Key())
		m.record("create", true)
		m.logger.Warn("task create failed, placeholder removed",
			logging.Operation("mutate_create"),
			logging.Account(acc.Email),
			logging.List(listID),
			logging.Err(err))
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}

	created.AccountEmail = acc.Email
	created.AccountName = acc.Name
	created.AccountPicture = acc.Picture
	m.local.RemoveTask(placeholder.Key())
	m.local.UpsertTask(created)
	m.record("create", false)
	if m.notifier != nil {
		m.notifier.SyncSoon()
	}
	return created, nil
}

func (m *Mutator) patch(ctx context.Context, op, key string, change func(model.Task) model.Task) (model.Task, error) {
	pre, ok := m.local.TaskByKey(key)
	if !ok {
		return model.Task{}, fmt.Errorf("%s task %s: %w", op, key, ErrTaskNotFound)
	}
	acc, ok := m.tokens.ByEmail(pre.AccountEmail)
	if !ok || !acc.Usable() {
		return model.Task{}, fmt.Errorf("%s task %s: %w", op, key, ErrAccountUnavailable)
	}

	desired := change(pre)
	m.local.UpsertTask(desired)

	authoritative, err := m.remote.PatchTask(ctx, acc.Token, desired.ListID, desired.ID, desired)
	if err != nil {
		m.local.UpsertTask(pre)
		m.record(op, true)
		m.logger.Warn("mutation failed, local state rolled back",
			logging.Operation("mutate_"+op),
			logging.Account(acc.Email),
			logging.List(pre.ListID),
			logging.Err(err))
		return model.Task{}, fmt.Errorf("%s task %s: %w", op, key, err)
	}

	authoritative.AccountEmail = pre.AccountEmail
	authoritative.AccountName = pre.AccountName
	authoritative.AccountPicture = pre.AccountPicture
	m.local.UpsertTask(authoritative)
	m.record(op, false)
	if m.notifier != nil {
		m.notifier.SyncSoon()
	}
	return authoritative, nil
}

func (m *Mutator) record(op string, rolledBack bool) {
	if m.recorder != nil {
		m.recorder.Mutation(op, rolledBack)
	}
}
