// Package db provides the local store accessor: the SQLite data file, its
// schema migrations and the single lock that serializes access to it.
package db

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// FileName is the name of the live data file inside the data directory.
const FileName = "database.db"

// sqliteHeader starts every SQLite 3 database file.
var sqliteHeader = []byte("SQLite format 3\x00")

// Store owns the database connection and the mutex guarding it. File-level
// operations (backup, restore) go through the same mutex as queries.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// Open opens the data file in dataDir, creating the directory if needed,
// and applies pending migrations. The database is opened with:
// - a single connection (SQLite has one writer)
// - WAL journal mode
// - foreign key constraints enabled
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	path := filepath.Join(dataDir, FileName)
	conn, err := openConn(path)
	if err != nil {
		return nil, err
	}

	return &Store{db: conn, path: path}, nil
}

func openConn(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	migrator := NewMigrator(conn, Migrations)
	if err := migrator.Initialize(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize migrations: %w", err)
	}
	if err := migrator.Up(); err != nil {
		conn.Close()
		return nil, err
	}

	return conn, nil
}

// Path returns the location of the live data file.
func (s *Store) Path() string {
	return s.path
}

// WithLock runs fn with exclusive access to the connection. The lock is
// released when fn returns.
func (s *Store) WithLock(fn func(*sql.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return errors.New("database is closed")
	}
	return fn(s.db)
}

// Snapshot flushes the WAL into the data file and runs fn with the file
// path while holding the lock, so fn sees a complete, quiescent file.
func (s *Store) Snapshot(fn func(path string) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		if err := checkpoint(s.db); err != nil {
			return err
		}
	}
	return fn(s.path)
}

// Suspend closes the connection, runs fn with the data file path and
// reopens the database afterwards, whether or not fn succeeded. fn may
// replace the file entirely. When the reopen fails the store stays closed
// until a later Suspend reopens it.
func (s *Store) Suspend(fn func(path string) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		if err := checkpoint(s.db); err != nil {
			return err
		}
		if err := s.db.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
		s.db = nil
	}

	fnErr := fn(s.path)

	// Sidecars belong to the file that was just replaced.
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(s.path + suffix); err != nil && !os.IsNotExist(err) {
			fnErr = errors.Join(fnErr, fmt.Errorf("failed to remove %s sidecar: %w", suffix, err))
		}
	}

	conn, err := openConn(s.path)
	if err != nil {
		return errors.Join(fnErr, fmt.Errorf("failed to reopen database: %w", err))
	}
	s.db = conn

	return fnErr
}

// Verify checks that path holds a SQLite 3 database.
func (s *Store) Verify(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	header := make([]byte, len(sqliteHeader))
	if _, err := io.ReadFull(f, header); err != nil {
		return fmt.Errorf("%s is not a SQLite database: %w", filepath.Base(path), err)
	}
	if !bytes.Equal(header, sqliteHeader) {
		return fmt.Errorf("%s is not a SQLite database", filepath.Base(path))
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func checkpoint(conn *sql.DB) error {
	if _, err := conn.Exec("PRAGMA wal_checkpoint(TRUNCATE);"); err != nil {
		return fmt.Errorf("WAL checkpoint failed: %w", err)
	}
	return nil
}
