// Package fingerprint persists per-document change-detection state in a
// SQLite database next to the index artifact. Each row records what a
// document looked like at the last successful indexing pass, keyed by
// source and locator.
package fingerprint

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	dserrors "github.com/radhakrish-venkat/desktop-search/internal/errors"
)

// Fingerprint is the recorded state of one document at indexing time.
// Hash is empty for remote documents, where diffing never downloads
// content and only size and modified time are compared.
type Fingerprint struct {
	Source  string
	Locator string
	Size    int64
	ModTime time.Time
	Hash    string
}

// Store wraps the SQLite fingerprint database.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS fingerprints (
	source   TEXT NOT NULL,
	locator  TEXT NOT NULL,
	size     INTEGER NOT NULL,
	mod_time INTEGER NOT NULL,
	hash     TEXT NOT NULL DEFAULT '',
	updated  INTEGER NOT NULL,
	PRIMARY KEY (source, locator)
);
`

// Open opens (creating if needed) the fingerprint database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, dserrors.New(dserrors.ErrCodePersistFailed, "failed to open fingerprint database", err).
			WithDetail("path", path)
	}

	// modernc.org/sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent passes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, dserrors.New(dserrors.ErrCodePersistFailed, "failed to initialize fingerprint schema", err).
			WithDetail("path", path)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put inserts or replaces the fingerprint for one document.
func (s *Store) Put(ctx context.Context, fp Fingerprint) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO fingerprints (source, locator, size, mod_time, hash, updated)
		VALUES (?, ?, ?, ?, ?, ?)`,
		fp.Source, fp.Locator, fp.Size, fp.ModTime.UnixNano(), fp.Hash, time.Now().UnixNano())
	if err != nil {
		return dserrors.New(dserrors.ErrCodePersistFailed, "failed to store fingerprint", err).
			WithDetail("locator", fp.Locator)
	}
	return nil
}

// Delete removes the fingerprint for one document. Deleting an unknown
// locator is a no-op.
func (s *Store) Delete(ctx context.Context, source, locator string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM fingerprints WHERE source = ? AND locator = ?`, source, locator)
	if err != nil {
		return dserrors.New(dserrors.ErrCodePersistFailed, "failed to delete fingerprint", err).
			WithDetail("locator", locator)
	}
	return nil
}

// BySource returns all fingerprints recorded for one source, keyed by
// locator.
func (s *Store) BySource(ctx context.Context, source string) (map[string]Fingerprint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT locator, size, mod_time, hash
		FROM fingerprints WHERE source = ?`, source)
	if err != nil {
		return nil, dserrors.New(dserrors.ErrCodePersistFailed, "failed to query fingerprints", err).
			WithDetail("source", source)
	}
	defer rows.Close()

	result := make(map[string]Fingerprint)
	for rows.Next() {
		var fp Fingerprint
		var modNanos int64
		if err := rows.Scan(&fp.Locator, &fp.Size, &modNanos, &fp.Hash); err != nil {
			return nil, dserrors.New(dserrors.ErrCodePersistFailed, "failed to scan fingerprint row", err)
		}
		fp.Source = source
		fp.ModTime = time.Unix(0, modNanos)
		result[fp.Locator] = fp
	}
	if err := rows.Err(); err != nil {
		return nil, dserrors.New(dserrors.ErrCodePersistFailed, "fingerprint query failed", err)
	}
	return result, nil
}

// ReplaceSource atomically swaps every fingerprint for one source with
// the given set. Used after a successful indexing pass so the stored
// state always matches exactly one persisted snapshot.
func (s *Store) ReplaceSource(ctx context.Context, source string, fps []Fingerprint) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dserrors.New(dserrors.ErrCodePersistFailed, "failed to begin fingerprint transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM fingerprints WHERE source = ?`, source); err != nil {
		return dserrors.New(dserrors.ErrCodePersistFailed, "failed to clear source fingerprints", err).
			WithDetail("source", source)
	}

	now := time.Now().UnixNano()
	for _, fp := range fps {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO fingerprints (source, locator, size, mod_time, hash, updated)
			VALUES (?, ?, ?, ?, ?, ?)`,
			source, fp.Locator, fp.Size, fp.ModTime.UnixNano(), fp.Hash, now); err != nil {
			return dserrors.New(dserrors.ErrCodePersistFailed, "failed to store fingerprint", err).
				WithDetail("locator", fp.Locator)
		}
	}

	if err := tx.Commit(); err != nil {
		return dserrors.New(dserrors.ErrCodePersistFailed, "failed to commit fingerprint transaction", err)
	}
	return nil
}

// LastUpdated returns the most recent fingerprint write time across all
// sources, or the zero time when the store is empty.
func (s *Store) LastUpdated(ctx context.Context) (time.Time, error) {
	var nanos sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(updated) FROM fingerprints`).Scan(&nanos)
	if err != nil {
		return time.Time{}, dserrors.New(dserrors.ErrCodePersistFailed, "failed to query last update time", err)
	}
	if !nanos.Valid {
		return time.Time{}, nil
	}
	return time.Unix(0, nanos.Int64), nil
}
