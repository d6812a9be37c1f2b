package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS accounts (
	id      TEXT PRIMARY KEY,
	name    TEXT NOT NULL DEFAULT '',
	email   TEXT NOT NULL UNIQUE,
	picture TEXT NOT NULL DEFAULT '',
	token   TEXT NOT NULL DEFAULT '',
	status  TEXT NOT NULL DEFAULT 'active'
);

CREATE TABLE IF NOT EXISTS task_cache (
	id              TEXT NOT NULL,
	list_id         TEXT NOT NULL,
	account_email   TEXT NOT NULL,
	account_name    TEXT NOT NULL DEFAULT '',
	account_picture TEXT NOT NULL DEFAULT '',
	title           TEXT NOT NULL DEFAULT '',
	notes           TEXT NOT NULL DEFAULT '',
	due             DATETIME,
	completed       DATETIME,
	state           TEXT NOT NULL DEFAULT 'todo',
	start           DATETIME,
	color           TEXT NOT NULL DEFAULT '',
	recurring       INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (list_id, id)
);

CREATE INDEX IF NOT EXISTS idx_task_cache_account ON task_cache(account_email);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
