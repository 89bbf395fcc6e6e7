// Package store provides a SQLite-backed cache of per-file session usage.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/sessionlens/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Cache memoizes metered session usage keyed by file path.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return err
	}
	if version != schemaVersion {
		if _, err := db.Exec(dropSQL); err != nil {
			return err
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return err
	}
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion))
	return err
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// FileInfo is the state a file was in when it was last metered.
type FileInfo struct {
	MtimeNs     int64
	SizeBytes   int64
	Fingerprint string
	ParseErrors int
}

// Matches reports whether a tracked entry is still valid for a file with
// the given mtime and size, metered against the given catalog.
func (fi FileInfo) Matches(mtimeNs, sizeBytes int64, fingerprint string) bool {
	return fi.MtimeNs == mtimeNs && fi.SizeBytes == sizeBytes && fi.Fingerprint == fingerprint
}

// GetTrackedFiles returns a map of file_path -> FileInfo for all tracked files.
func (c *Cache) GetTrackedFiles() (map[string]FileInfo, error) {
	rows, err := c.db.Query("SELECT file_path, mtime_ns, size_bytes, fingerprint, parse_errors FROM file_tracker")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes, &fi.Fingerprint, &fi.ParseErrors); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// SaveFile records the metering outcome for path. A nil usage tracks the
// file without a session row, so files with no usage are not reparsed.
func (c *Cache) SaveFile(path string, fi FileInfo, u *model.SessionUsage) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteSession(tx, path); err != nil {
		return err
	}

	if u != nil {
		_, err = tx.Exec(`INSERT INTO sessions
			(file_path, session_id, project, first_timestamp,
			 input_tokens, output_tokens, cache_creation_tokens, cache_read_tokens, total_cost)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			path, u.SessionID, u.Project, u.FirstTimestamp,
			u.InputTokens, u.OutputTokens, u.CacheCreationTokens, u.CacheReadTokens, u.TotalCost,
		)
		if err != nil {
			return err
		}
		for modelName, calls := range u.ModelCalls {
			_, err = tx.Exec(`INSERT INTO session_models (file_path, model, calls) VALUES (?, ?, ?)`,
				path, modelName, calls)
			if err != nil {
				return err
			}
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.Exec(`INSERT OR REPLACE INTO file_tracker
		(file_path, mtime_ns, size_bytes, fingerprint, parse_errors, parsed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		path, fi.MtimeNs, fi.SizeBytes, fi.Fingerprint, fi.ParseErrors, now)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// LoadAllSessions reads every cached session record, keyed by file path.
func (c *Cache) LoadAllSessions() (map[string]model.SessionUsage, error) {
	rows, err := c.db.Query(`SELECT
		file_path, session_id, project, first_timestamp,
		input_tokens, output_tokens, cache_creation_tokens, cache_read_tokens, total_cost
		FROM sessions`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	sessions := make(map[string]model.SessionUsage)
	for rows.Next() {
		var s model.SessionUsage
		err := rows.Scan(
			&s.FilePath, &s.SessionID, &s.Project, &s.FirstTimestamp,
			&s.InputTokens, &s.OutputTokens, &s.CacheCreationTokens, &s.CacheReadTokens, &s.TotalCost,
		)
		if err != nil {
			return nil, err
		}
		s.ModelCalls = make(map[string]int)
		sessions[s.FilePath] = s
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Batch-load model calls
	modelRows, err := c.db.Query(`SELECT file_path, model, calls FROM session_models`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = modelRows.Close() }()

	for modelRows.Next() {
		var path, modelName string
		var calls int
		if err := modelRows.Scan(&path, &modelName, &calls); err != nil {
			return nil, err
		}
		if s, ok := sessions[path]; ok {
			s.ModelCalls[modelName] = calls
		}
	}

	return sessions, modelRows.Err()
}

// DeleteFile removes a file's tracking entry and session record.
func (c *Cache) DeleteFile(path string) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteSession(tx, path); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM file_tracker WHERE file_path = ?", path); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteSession(tx *sql.Tx, path string) error {
	if _, err := tx.Exec("DELETE FROM session_models WHERE file_path = ?", path); err != nil {
		return err
	}
	_, err := tx.Exec("DELETE FROM sessions WHERE file_path = ?", path)
	return err
}

// SessionCount returns the number of cached sessions.
func (c *Cache) SessionCount() (int, error) {
	var count int
	err := c.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&count)
	return count, err
}
