package store

// schemaVersion1 is the current schema: case snapshots as JSON documents,
// an append-only event log, and session documents keyed independently.
const schemaVersion1 = 1

var schemaDDL = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);

CREATE TABLE IF NOT EXISTS cases (
	id         TEXT PRIMARY KEY,
	state      TEXT NOT NULL,
	title      TEXT NOT NULL,
	body       BLOB NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

-- Append-only audit trail. Rows are never updated or deleted; the case
-- snapshot does not embed events so a snapshot overwrite cannot lose them.
CREATE TABLE IF NOT EXISTS case_events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	case_id    TEXT NOT NULL REFERENCES cases(id),
	type       TEXT NOT NULL,
	actor      TEXT NOT NULL,
	detail     TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_case_events_case ON case_events(case_id);

CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	case_id    TEXT NOT NULL,
	status     TEXT NOT NULL,
	body       BLOB NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_case ON sessions(case_id);
`
