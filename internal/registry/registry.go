// Package registry owns the set of connected accounts and their tokens.
//
// The registry is the single writer of account state: the sync engine only
// reads tokens and reports status transitions back through MarkExpired.
// Every change is written through to the durable store, so a restart
// restores the same set of accounts before the first sync cycle.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/gtaskall/gtaskall/internal/logging"
	"github.com/gtaskall/gtaskall/internal/model"
	"github.com/gtaskall/gtaskall/internal/store"
)

// Registry is the in-memory account set backed by the durable store.
type Registry struct {
	store  store.Store
	logger *slog.Logger

	mu       sync.Mutex
	accounts map[string]model.Account // keyed by account ID
}

// New creates an empty registry backed by the given store.
func New(s store.Store, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		store:    s,
		logger:   logger,
		accounts: make(map[string]model.Account),
	}
}

// Load populates the registry from the durable store.
func (r *Registry) Load(ctx context.Context) error {
	accounts, err := r.store.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("loading accounts: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts = make(map[string]model.Account, len(accounts))
	for _, a := range accounts {
		r.accounts[a.ID] = a
	}
	return nil
}

// Add inserts or replaces an account. Identity is the email address: a
// second consent for the same email replaces the previous connection.
// Returns the stored account, with an ID assigned if it was missing.
func (r *Registry) Add(ctx context.Context, account model.Account) (model.Account, error) {
	r.mu.Lock()
	for id, existing := range r.accounts {
		if existing.Email == account.Email {
			account.ID = id
			break
		}
	}
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	if account.Status == "" {
		account.Status = model.AccountActive
	}
	r.accounts[account.ID] = account
	r.mu.Unlock()

	if err := r.store.SaveAccount(ctx, account); err != nil {
		return model.Account{}, fmt.Errorf("persisting account: %w", err)
	}

	r.logger.Info("account connected",
		logging.Operation("registry.add"),
		logging.UserHash(account.Email))
	return account, nil
}

// MarkExpired clears the account's token and flips it to expired. It is
// idempotent: marking an already-expired account is a no-op.
func (r *Registry) MarkExpired(ctx context.Context, id string) error {
	r.mu.Lock()
	account, ok := r.accounts[id]
	if !ok || account.Status == model.AccountExpired {
		r.mu.Unlock()
		return nil
	}
	account.Status = model.AccountExpired
	account.Token = ""
	r.accounts[id] = account
	r.mu.Unlock()

	if err := r.store.SaveAccount(ctx, account); err != nil {
		return fmt.Errorf("persisting expired account: %w", err)
	}

	r.logger.Warn("account token expired, reconnect required",
		logging.Operation("registry.mark_expired"),
		logging.UserHash(account.Email))
	return nil
}

// MarkActive restores an expired account with a fresh token.
func (r *Registry) MarkActive(ctx context.Context, id, token string) error {
	r.mu.Lock()
	account, ok := r.accounts[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("unknown account %s", id)
	}
	account.Status = model.AccountActive
	account.Token = token
	r.accounts[id] = account
	r.mu.Unlock()

	if err := r.store.SaveAccount(ctx, account); err != nil {
		return fmt.Errorf("persisting reconnected account: %w", err)
	}

	r.logger.Info("account reconnected",
		logging.Operation("registry.mark_active"),
		logging.UserHash(account.Email))
	return nil
}

// Remove deletes an account. The caller is responsible for pruning the
// account's tasks from any published snapshot; the store drops its cached
// rows here.
func (r *Registry) Remove(ctx context.Context, id string) (model.Account, error) {
	r.mu.Lock()
	account, ok := r.accounts[id]
	if ok {
		delete(r.accounts, id)
	}
	r.mu.Unlock()

	if !ok {
		return model.Account{}, fmt.Errorf("unknown account %s", id)
	}

	if err := r.store.DeleteAccount(ctx, id); err != nil {
		return model.Account{}, fmt.Errorf("deleting account: %w", err)
	}

	r.logger.Info("account removed",
		logging.Operation("registry.remove"),
		logging.UserHash(account.Email))
	return account, nil
}

// Active returns the accounts the sync engine can fetch with, ordered by
// email for deterministic cycles.
func (r *Registry) Active() []model.Account {
	r.mu.Lock()
	defer r.mu.Unlock()

	var active []model.Account
	for _, a := range r.accounts {
		if a.Usable() {
			active = append(active, a)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Email < active[j].Email })
	return active
}

// All returns every account, active or expired, ordered by email.
func (r *Registry) All() []model.Account {
	r.mu.Lock()
	defer r.mu.Unlock()

	accounts := make([]model.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Email < accounts[j].Email })
	return accounts
}

// ByEmail looks up an account by its email identity.
func (r *Registry) ByEmail(email string) (model.Account, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		if a.Email == email {
			return a, true
		}
	}
	return model.Account{}, false
}
