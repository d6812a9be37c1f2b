package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gtaskall/gtaskall/internal/gtasks"
	"github.com/gtaskall/gtaskall/internal/logging"
	"github.com/gtaskall/gtaskall/internal/model"
	"github.com/gtaskall/gtaskall/internal/store"
)

// ErrSyncInFlight is returned by RunCycle when a previous cycle has not
// finished yet. Overlapping cycles are dropped, not queued.
var ErrSyncInFlight = errors.New("sync cycle already in flight")

const (
	persistDebounce = 100 * time.Millisecond
	persistTimeout  = 5 * time.Second
)

// Remote fetches task lists and tasks for one account's credentials.
type Remote interface {
	ListTaskLists(ctx context.Context, token string) ([]model.TaskList, error)
	ListTasks(ctx context.Context, token, listID string) ([]model.Task, error)
}

// Accounts provides the connected accounts to sync and receives
// expiry notifications when a token is rejected. Load refreshes the set
// from durable storage, so removals made by another process are picked
// up on the next cycle.
type Accounts interface {
	Load(ctx context.Context) error
	Active() []model.Account
	All() []model.Account
	MarkExpired(ctx context.Context, id string) error
}

// Recorder receives sync cycle measurements. Implementations must be
// safe for concurrent use. A nil Recorder disables recording.
type Recorder interface {
	SyncCycle(d time.Duration, accounts, failed int)
	AccountConnected(ctx context.Context, delta int64)
}

type accountResult struct {
	email string
	lists []model.TaskList
	tasks []model.Task
	err   error
}

// Engine owns the aggregated task snapshot. It fetches all connected
// accounts concurrently, merges the results only once every account has
// finished, and publishes the merged snapshot atomically. Accounts that
// fail a cycle keep their previously published tasks.
type Engine struct {
	accounts Accounts
	remote   Remote
	store    store.Store
	logger   *slog.Logger
	recorder Recorder

	inFlight atomic.Bool

	// Registered-account count as of the previous cycle, for gauge deltas.
	registered int

	mu       sync.RWMutex
	snapshot map[string][]model.Task     // account email -> tasks
	lists    map[string][]model.TaskList // account email -> task lists

	persistMu    sync.Mutex
	persistTimer *time.Timer
}

// Option configures an Engine.
type Option func(*Engine)

// WithRecorder attaches a sync cycle recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// NewEngine creates a sync engine. It does not start any background
// work; drive it with a Scheduler or by calling RunCycle directly.
func NewEngine(accounts Accounts, remote Remote, s store.Store, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		accounts: accounts,
		remote:   remote,
		store:    s,
		logger:   logger,
		snapshot: make(map[string][]model.Task),
		lists:    make(map[string][]model.TaskList),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunCycle fetches every active account and publishes the merged
// snapshot. It returns ErrSyncInFlight when a cycle is already running,
// and an error when every account failed; in both cases the previous
// snapshot stays published.
func (e *Engine) RunCycle(ctx context.Context) error {
	if !e.inFlight.CompareAndSwap(false, true) {
		return ErrSyncInFlight
	}
	defer e.inFlight.Store(false)

	start := time.Now()

	if err := e.accounts.Load(ctx); err != nil {
		e.logger.Warn("refreshing account set failed, using cached accounts",
			logging.Operation("sync_cycle"),
			logging.Err(err))
	}
	registered := e.accounts.All()
	pruned := e.pruneUnregistered(registered)
	if e.recorder != nil && len(registered) != e.registered {
		e.recorder.AccountConnected(ctx, int64(len(registered)-e.registered))
	}
	e.registered = len(registered)

	active := e.accounts.Active()

	results := make([]accountResult, len(active))
	var wg sync.WaitGroup
	for i, acc := range active {
		wg.Add(1)
		go func(i int, acc model.Account) {
			defer wg.Done()
			results[i] = e.fetchAccount(ctx, acc)
		}(i, acc)
	}
	wg.Wait()

	failed := 0
	e.mu.Lock()
	for _, res := range results {
		if res.err != nil {
			failed++
			continue
		}
		e.snapshot[res.email] = res.tasks
		e.lists[res.email] = res.lists
	}
	e.mu.Unlock()

	if pruned || failed < len(active) {
		e.persistSoon()
	}

	elapsed := time.Since(start)
	if e.recorder != nil {
		e.recorder.SyncCycle(elapsed, len(active), failed)
	}
	e.logger.Info("sync cycle finished",
		logging.Operation("sync_cycle"),
		logging.Duration(elapsed),
		slog.Int("accounts", len(active)),
		slog.Int("failed", failed))

	if len(active) > 0 && failed == len(active) {
		return fmt.Errorf("sync cycle: all %d accounts failed", len(active))
	}
	return nil
}

func (e *Engine) fetchAccount(ctx context.Context, acc model.Account) accountResult {
	res := accountResult{email: acc.Email}

	lists, err := e.remote.ListTaskLists(ctx, acc.Token)
	if err != nil {
		res.err = e.fetchError(ctx, acc, err)
		return res
	}
	for i := range lists {
		lists[i].AccountEmail = acc.Email
	}
	res.lists = lists

	for _, list := range lists {
		tasks, err := e.remote.ListTasks(ctx, acc.Token, list.ID)
		if err != nil {
			res.err = e.fetchError(ctx, acc, err)
			return res
		}
		for _, t := range tasks {
			t.AccountEmail = acc.Email
			t.AccountName = acc.Name
			t.AccountPicture = acc.Picture
			res.tasks = append(res.tasks, t)
		}
	}
	return res
}

func (e *Engine) fetchError(ctx context.Context, acc model.Account, err error) error {
	if errors.Is(err, gtasks.ErrUnauthorized) {
		if markErr := e.accounts.MarkExpired(ctx, acc.ID); markErr != nil {
			e.logger.Error("marking account expired failed",
				logging.Operation("sync_account"),
				logging.Account(acc.Email),
				logging.Err(markErr))
		}
		e.logger.Warn("account token rejected, sign-in required",
			logging.Operation("sync_account"),
			logging.Account(acc.Email))
		return err
	}
	e.logger.Warn("account fetch failed",
		logging.Operation("sync_account"),
		logging.Account(acc.Email),
		logging.Err(err))
	return err
}

// Tasks returns a copy of the published snapshot, merged across
// accounts, in a deterministic order.
func (e *Engine) Tasks() []model.Task {
	e.mu.RLock()
	var out []model.Task
	for _, tasks := range e.snapshot {
		out = append(out, tasks...)
	}
	e.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AccountEmail != out[j].AccountEmail {
			return out[i].AccountEmail < out[j].AccountEmail
		}
		return out[i].Key() < out[j].Key()
	})
	return out
}

// Lists returns the task lists of every synced account, ordered by
// account email then list ID.
func (e *Engine) Lists() []model.TaskList {
	e.mu.RLock()
	var out []model.TaskList
	for _, lists := range e.lists {
		out = append(out, lists...)
	}
	e.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AccountEmail != out[j].AccountEmail {
			return out[i].AccountEmail < out[j].AccountEmail
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// TaskByKey returns the snapshot's copy of a task.
func (e *Engine) TaskByKey(key string) (model.Task, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, tasks := range e.snapshot {
		for _, t := range tasks {
			if t.Key() == key {
				return t, true
			}
		}
	}
	return model.Task{}, false
}

// UpsertTask replaces a task in the snapshot, or adds it when absent.
// Used by the mutation layer for optimistic local application.
func (e *Engine) UpsertTask(t model.Task) {
	e.mu.Lock()
	tasks := e.snapshot[t.AccountEmail]
	replaced := false
	for i := range tasks {
		if tasks[i].Key() == t.Key() {
			tasks[i] = t
			replaced = true
			break
		}
	}
	if !replaced {
		tasks = append(tasks, t)
	}
	e.snapshot[t.AccountEmail] = tasks
	e.mu.Unlock()

	e.persistSoon()
}

// RemoveTask drops a task from the snapshot.
func (e *Engine) RemoveTask(key string) {
	e.mu.Lock()
	for email, tasks := range e.snapshot {
		kept := tasks[:0]
		for _, t := range tasks {
			if t.Key() != key {
				kept = append(kept, t)
			}
		}
		e.snapshot[email] = kept
	}
	e.mu.Unlock()

	e.persistSoon()
}

// pruneUnregistered drops snapshot entries whose account is no longer
// in the registry. Expired accounts stay registered and keep their
// cached tasks; only removed accounts disappear. Reports whether
// anything was dropped.
func (e *Engine) pruneUnregistered(registered []model.Account) bool {
	known := make(map[string]struct{}, len(registered))
	for _, a := range registered {
		known[a.Email] = struct{}{}
	}

	pruned := false
	e.mu.Lock()
	for email := range e.snapshot {
		if _, ok := known[email]; !ok {
			delete(e.snapshot, email)
			delete(e.lists, email)
			pruned = true
		}
	}
	e.mu.Unlock()
	return pruned
}

// RestoreFromStore loads the persisted snapshot so tasks are available
// before the first cycle completes after a restart.
func (e *Engine) RestoreFromStore(ctx context.Context) error {
	tasks, err := e.store.LoadTaskCache(ctx)
	if err != nil {
		return fmt.Errorf("restoring task snapshot: %w", err)
	}

	e.mu.Lock()
	for _, t := range tasks {
		e.snapshot[t.AccountEmail] = append(e.snapshot[t.AccountEmail], t)
	}
	e.mu.Unlock()

	e.logger.Info("task snapshot restored",
		logging.Operation("restore_snapshot"),
		slog.Int("tasks", len(tasks)))
	return nil
}

func (e *Engine) persistSoon() {
	e.persistMu.Lock()
	defer e.persistMu.Unlock()
	if e.persistTimer != nil {
		e.persistTimer.Stop()
	}
	e.persistTimer = time.AfterFunc(persistDebounce, func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := e.store.ReplaceTaskCache(ctx, e.Tasks()); err != nil {
			e.logger.Error("persisting task snapshot failed",
				logging.Operation("persist_snapshot"),
				logging.Err(err))
		}
	})
}

// Close cancels any pending debounced save and writes the current
// snapshot synchronously.
func (e *Engine) Close(ctx context.Context) error {
	e.persistMu.Lock()
	if e.persistTimer != nil {
		e.persistTimer.Stop()
		e.persistTimer = nil
	}
	e.persistMu.Unlock()

	if err := e.store.ReplaceTaskCache(ctx, e.Tasks()); err != nil {
		return fmt.Errorf("persisting task snapshot on close: %w", err)
	}
	return nil
}
