package store

// schemaVersion is bumped whenever the tables change shape; an older
// database is dropped and rebuilt since it only holds derived data.
const schemaVersion = 2

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
    file_path             TEXT PRIMARY KEY,
    session_id            TEXT NOT NULL,
    project               TEXT NOT NULL DEFAULT '',
    first_timestamp       TEXT NOT NULL DEFAULT '',
    input_tokens          INTEGER NOT NULL DEFAULT 0,
    output_tokens         INTEGER NOT NULL DEFAULT 0,
    cache_creation_tokens INTEGER NOT NULL DEFAULT 0,
    cache_read_tokens     INTEGER NOT NULL DEFAULT 0,
    total_cost            REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS session_models (
    file_path             TEXT NOT NULL REFERENCES sessions(file_path) ON DELETE CASCADE,
    model                 TEXT NOT NULL,
    calls                 INTEGER NOT NULL,
    PRIMARY KEY (file_path, model)
);

CREATE TABLE IF NOT EXISTS file_tracker (
    file_path             TEXT PRIMARY KEY,
    mtime_ns              INTEGER NOT NULL,
    size_bytes            INTEGER NOT NULL,
    fingerprint           TEXT NOT NULL,
    parse_errors          INTEGER NOT NULL DEFAULT 0,
    parsed_at             TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_first ON sessions(first_timestamp);
CREATE INDEX IF NOT EXISTS idx_sessions_id ON sessions(session_id);
`

const dropSQL = `
DROP TABLE IF EXISTS session_models;
DROP TABLE IF EXISTS sessions;
DROP TABLE IF EXISTS file_tracker;
`
