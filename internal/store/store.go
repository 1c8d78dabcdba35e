package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// FormatVersion is the recording layout written by this build, kept in
// PRAGMA user_version. A fresh database reads 0.
const FormatVersion = 1

// Connection settings, passed to go-sqlite3 as DSN parameters so that every
// pooled connection gets them.
const dsnParams = "_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on"

// Store is a SQLite recording of applied batches.
type Store struct {
	db *sql.DB
}

// Open creates or opens the recording at path. A recording written by a
// newer build is refused rather than misread.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?"+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("open recording %s: %w", path, err)
	}
	// SQLite serialises writers.
	db.SetMaxOpenConns(1)

	if err := initialise(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open recording %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initialise(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read format version: %w", err)
	}
	if version > FormatVersion {
		return fmt.Errorf("recording format v%d is newer than supported v%d", version, FormatVersion)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	if version < FormatVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", FormatVersion)); err != nil {
			return fmt.Errorf("write format version: %w", err)
		}
	}
	return nil
}
