// Package db tests for versioned schema migrations.
package db

import (
	"database/sql"
	"strings"
	"testing"

	apperrors "github.com/kimhsiao/salonbook/backend/internal/errors"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// TestMigrator_Up verifies all migrations apply and are recorded.
func TestMigrator_Up(t *testing.T) {
	conn := openMemory(t)
	m := NewMigrator(conn, Migrations)
	if err := m.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if err := m.Up(); err != nil {
		t.Fatalf("Up() error = %v", err)
	}

	version, err := m.CurrentVersion()
	if err != nil {
		t.Fatalf("CurrentVersion() error = %v", err)
	}
	if version != 3 {
		t.Errorf("CurrentVersion() = %d, want 3", version)
	}

	applied, err := m.GetAppliedMigrations()
	if err != nil {
		t.Fatalf("GetAppliedMigrations() error = %v", err)
	}
	if len(applied) != 3 {
		t.Fatalf("applied = %d, want 3", len(applied))
	}
	for _, a := range applied {
		if len(a.Checksum) != 64 {
			t.Errorf("V%d checksum length = %d, want 64", a.Version, len(a.Checksum))
		}
	}

	if _, err := conn.Exec("UPDATE customers SET allergies = 'none'"); err != nil {
		t.Errorf("V2 column missing: %v", err)
	}
	if _, err := conn.Exec("UPDATE reservations SET customer_id = NULL"); err != nil {
		t.Errorf("V3 column missing: %v", err)
	}
}

// TestMigrator_Up_idempotent verifies a second Up is a no-op.
func TestMigrator_Up_idempotent(t *testing.T) {
	conn := openMemory(t)
	m := NewMigrator(conn, Migrations)
	m.Initialize()
	if err := m.Up(); err != nil {
		t.Fatalf("first Up() error = %v", err)
	}
	if err := m.Up(); err != nil {
		t.Fatalf("second Up() error = %v", err)
	}
}

// TestMigrator_Up_pendingOnly verifies only newer versions are applied.
func TestMigrator_Up_pendingOnly(t *testing.T) {
	conn := openMemory(t)
	first := NewMigrator(conn, Migrations[:1])
	first.Initialize()
	if err := first.Up(); err != nil {
		t.Fatalf("Up(V1) error = %v", err)
	}

	// Listed out of order on purpose.
	all := NewMigrator(conn, []Migration{Migrations[2], Migrations[0], Migrations[1]})
	if err := all.Up(); err != nil {
		t.Fatalf("Up(all) error = %v", err)
	}
	version, _ := all.CurrentVersion()
	if version != 3 {
		t.Errorf("CurrentVersion() = %d, want 3", version)
	}
}

// TestMigrator_Up_failure verifies a broken step surfaces a migration error
// and leaves no record behind.
func TestMigrator_Up_failure(t *testing.T) {
	conn := openMemory(t)
	m := NewMigrator(conn, []Migration{
		{Version: 1, Description: "broken", SQL: "CREATE TABLE oops ("},
	})
	m.Initialize()

	err := m.Up()
	if err == nil {
		t.Fatal("Up() should fail on invalid SQL")
	}
	if !apperrors.Is(err, apperrors.ErrMigration) {
		t.Errorf("Up() error code = %v, want MIGRATION_FAILED", err)
	}
	if !strings.Contains(err.Error(), "V1") {
		t.Errorf("error should name the version: %v", err)
	}
	version, _ := m.CurrentVersion()
	if version != 0 {
		t.Errorf("CurrentVersion() = %d, want 0", version)
	}
}
