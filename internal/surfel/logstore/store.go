package logstore

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/surfelmap/core/internal/surfel"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is a sqlite-backed surfel.LogSink: every Append on the engine's
// Logger becomes one row, keyed by a fresh UUID.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) a sqlite database at path and
// brings its schema up to date.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("logstore: open %s: %w", path, err)
	}
	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("logstore: pragmas: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// applyPragmas sets the WAL/busy-timeout profile the fusion engine's
// per-frame write rate needs: each ingested frame writes one
// log_records row, and WAL plus a busy_timeout keep those writes from
// colliding with a concurrent reader.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("exec %q: %w", p, err)
		}
	}
	return nil
}

func (s *Store) migrateUp() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("logstore: migration source: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("logstore: migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("logstore: migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("logstore: migrate up: %w", err)
	}
	return nil
}

type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...interface{}) { log.Printf("[logstore] "+format, v...) }
func (migrateLogger) Verbose() bool                          { return false }

// WriteRecord implements surfel.LogSink.
func (s *Store) WriteRecord(rec surfel.LogRecord) error {
	payload, err := json.Marshal(rec.Fields)
	if err != nil {
		return fmt.Errorf("logstore: marshal fields: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO log_records (record_id, frame, fields_json) VALUES (?, ?, ?)`,
		uuid.NewString(), rec.Frame, string(payload),
	)
	if err != nil {
		return fmt.Errorf("logstore: insert record: %w", err)
	}
	return nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }
