package store

import (
	"context"

	"github.com/gtaskall/gtaskall/internal/model"
)

// Store is the durable local persistence used by the account registry and
// the sync engine. A restart restores connected accounts and the
// last-known-good task snapshot from here before the first sync cycle
// completes.
type Store interface {
	// SaveAccount inserts or replaces an account by ID.
	SaveAccount(ctx context.Context, account model.Account) error

	// DeleteAccount removes an account and its cached tasks.
	DeleteAccount(ctx context.Context, id string) error

	// ListAccounts returns all persisted accounts, ordered by email.
	ListAccounts(ctx context.Context) ([]model.Account, error)

	// ReplaceTaskCache atomically replaces the cached task snapshot.
	ReplaceTaskCache(ctx context.Context, tasks []model.Task) error

	// LoadTaskCache returns the cached task snapshot.
	LoadTaskCache(ctx context.Context) ([]model.Task, error)

	Close() error
}
