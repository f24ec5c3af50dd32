package db

import (
	"database/sql"
	"errors"
	"time"
)

// GetSetting returns the value stored under key, and false when the key
// has never been written.
func GetSetting(conn *sql.DB, key string) (string, bool, error) {
	var value sql.NullString
	err := conn.QueryRow("SELECT value FROM app_settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value.String, true, nil
}

// PutSetting inserts or replaces the value stored under key.
func PutSetting(conn *sql.DB, key, value string) error {
	now := time.Now().UTC().Format("2006-01-02 15:04:05")
	_, err := conn.Exec(
		"INSERT OR REPLACE INTO app_settings (key, value, updated_at) VALUES (?, ?, ?)",
		key, value, now,
	)
	return err
}
