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

CREATE TABLE IF NOT EXISTS users (
	id                                TEXT PRIMARY KEY,
	name                              TEXT NOT NULL DEFAULT '',
	notify_scheduled_task_is_due      INTEGER,
	notify_non_priority_goes_overtime INTEGER,
	last_weekly_notification          DATETIME,
	created_at                        DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	title            TEXT NOT NULL,
	priority         TEXT NOT NULL DEFAULT 'C1' CHECK(priority IN (
		'A1', 'A2', 'A3', 'B1', 'B2', 'B3', 'C1', 'C2', 'C3', 'D', 'E'
	)),
	completed        INTEGER NOT NULL DEFAULT 0 CHECK(completed IN (0, 1)),
	completed_at     DATETIME,
	due_date         DATETIME,
	scheduled_start  DATETIME,
	time_spent       INTEGER NOT NULL DEFAULT 0,
	is_timer_running INTEGER NOT NULL DEFAULT 0 CHECK(is_timer_running IN (0, 1)),
	timer_start_time DATETIME,
	created_at       DATETIME NOT NULL,
	updated_at       DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_user_completed ON tasks(user_id, completed);
CREATE INDEX IF NOT EXISTS idx_tasks_completed_at ON tasks(user_id, completed_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	task_id    TEXT,
	kind       TEXT NOT NULL DEFAULT '',
	message    TEXT NOT NULL,
	read       INTEGER NOT NULL DEFAULT 0 CHECK(read IN (0, 1)),
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_dedup
	ON notifications(user_id, message, created_at);
CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(user_id, read);

CREATE TABLE IF NOT EXISTS task_notify_state (
	task_id    TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	kind       TEXT NOT NULL CHECK(kind IN ('scheduled_start', 'due_soon', 'overdue', 'overtime')),
	trigger_at DATETIME NOT NULL,
	sent_at    DATETIME NOT NULL,
	PRIMARY KEY (task_id, kind)
);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
