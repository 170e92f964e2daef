package store

const schemaVersion = 1

var schema = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);

CREATE TABLE IF NOT EXISTS interview_qa (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	user_id TEXT NOT NULL DEFAULT 'guest',
	question TEXT NOT NULL,
	answer TEXT NOT NULL DEFAULT '',
	difficulty TEXT NOT NULL,
	score REAL NOT NULL DEFAULT 0,
	feedback TEXT NOT NULL DEFAULT '',
	confidence_score REAL,
	confidence_feedback TEXT,
	created_at TEXT NOT NULL,
	evaluated_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_interview_qa_session ON interview_qa(session_id, id);
`
