package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// sqliteMigrations is the ordered list of SQLite schema migrations.
// Each migration's version must be sequential starting from 1.
var sqliteMigrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'todo'
		CHECK(status IN ('todo', 'doing', 'done', 'expired')),
	deadline   DATETIME,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS checklist_items (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	task_id  INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	text     TEXT NOT NULL,
	checked  INTEGER NOT NULL DEFAULT 0 CHECK(checked IN (0, 1)),
	position INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks(created_at);
CREATE INDEX IF NOT EXISTS idx_checklist_items_task_id ON checklist_items(task_id, position);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
ALTER TABLE tasks ADD COLUMN status_source TEXT NOT NULL DEFAULT 'derived'
	CHECK(status_source IN ('derived', 'manual', 'deadline'));

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}

// postgresMigrations mirrors sqliteMigrations for PostgreSQL.
var postgresMigrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'todo'
		CHECK(status IN ('todo', 'doing', 'done', 'expired')),
	deadline   TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS checklist_items (
	id       BIGSERIAL PRIMARY KEY,
	task_id  BIGINT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	text     TEXT NOT NULL,
	checked  INTEGER NOT NULL DEFAULT 0 CHECK(checked IN (0, 1)),
	position INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks(created_at);
CREATE INDEX IF NOT EXISTS idx_checklist_items_task_id ON checklist_items(task_id, position);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
ALTER TABLE tasks ADD COLUMN IF NOT EXISTS status_source TEXT NOT NULL DEFAULT 'derived'
	CHECK(status_source IN ('derived', 'manual', 'deadline'));

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
