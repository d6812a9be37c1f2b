package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/gtaskall/gtaskall/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// SaveAccount inserts or replaces an account. A missing ID gets a new UUID.
func (s *SQLiteStore) SaveAccount(ctx context.Context, account model.Account) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO accounts (id, name, email, picture, token, status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		account.ID, account.Name, account.Email, account.Picture,
		account.Token, string(account.Status),
	)
	if err != nil {
		return fmt.Errorf("saving account %s: %w", account.ID, err)
	}
	return nil
}

// DeleteAccount removes an account and its cached tasks.
func (s *SQLiteStore) DeleteAccount(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var email string
	if err := tx.GetContext(ctx, &email, "SELECT email FROM accounts WHERE id = ?", id); err == nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM task_cache WHERE account_email = ?", email); err != nil {
			return fmt.Errorf("deleting cached tasks for account %s: %w", id, err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting account %s: %w", id, err)
	}

	return tx.Commit()
}

// ListAccounts retrieves all persisted accounts, ordered by email.
func (s *SQLiteStore) ListAccounts(ctx context.Context) ([]model.Account, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT id, name, email, picture, token, status FROM accounts ORDER BY email",
	)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		var (
			a      model.Account
			status string
		)
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.Picture, &a.Token, &status); err != nil {
			return nil, fmt.Errorf("scanning account row: %w", err)
		}
		a.Status = model.AccountStatus(status)
		accounts = append(accounts, a)
	}

	return accounts, rows.Err()
}

// ReplaceTaskCache atomically replaces the cached snapshot with the given
// task set.
func (s *SQLiteStore) ReplaceTaskCache(ctx context.Context, tasks []model.Task) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM task_cache"); err != nil {
		return fmt.Errorf("clearing task cache: %w", err)
	}

	const query = `
		INSERT INTO task_cache (
			id, list_id, account_email, account_name, account_picture,
			title, notes, due, completed, state, start, color, recurring
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing task insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range tasks {
		_, err = stmt.ExecContext(ctx,
			t.ID, t.ListID, t.AccountEmail, t.AccountName, t.AccountPicture,
			t.Title, t.Notes,
			nullableTime(t.Due), nullableTime(t.Completed),
			t.State.String(), nullableTime(t.Start),
			t.Color, boolToInt(t.Recurring),
		)
		if err != nil {
			return fmt.Errorf("caching task %s: %w", t.Key(), err)
		}
	}

	return tx.Commit()
}

// LoadTaskCache returns the cached task snapshot.
func (s *SQLiteStore) LoadTaskCache(ctx context.Context) ([]model.Task, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, list_id, account_email, account_name, account_picture,
		       title, notes, due, completed, state, start, color, recurring
		FROM task_cache ORDER BY list_id, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying task cache: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var (
			t         model.Task
			due       *time.Time
			completed *time.Time
			start     *time.Time
			state     string
			recurring int
		)
		err := rows.Scan(
			&t.ID, &t.ListID, &t.AccountEmail, &t.AccountName, &t.AccountPicture,
			&t.Title, &t.Notes, &due, &completed, &state, &start,
			&t.Color, &recurring,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning task row: %w", err)
		}

		t.State, err = model.ParseState(state)
		if err != nil {
			return nil, fmt.Errorf("decoding cached task %s: %w", t.Key(), err)
		}
		t.Due = derefTime(due)
		t.Completed = derefTime(completed)
		t.Start = derefTime(start)
		t.Recurring = recurring != 0

		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}

// nullableTime maps the zero time onto NULL for storage.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	utc := t.UTC()
	return &utc
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
