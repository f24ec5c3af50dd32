// Package models provides data model definitions for the salon backend.
package models

import (
	"strings"
	"time"

	apperrors "github.com/kimhsiao/salonbook/backend/internal/errors"
)

// Backend identifies which storage destination holds a backup.
type Backend string

const (
	// BackendLocal stores snapshots under <app-data>/backups.
	BackendLocal Backend = "local"
	// BackendRemoteDrive is a future remote drive backend. Not implemented.
	BackendRemoteDrive Backend = "google_drive"
	// BackendCloudService stores snapshots in a synced drive folder and
	// mirrors them to the remote sync adapter.
	BackendCloudService Backend = "icloud"
)

// ParseBackend maps a user-supplied selector to a Backend.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "local":
		return BackendLocal, nil
	case "icloud":
		return BackendCloudService, nil
	case "google_drive", "googledrive":
		return BackendRemoteDrive, nil
	default:
		return "", apperrors.Newf(apperrors.ErrValidation, "invalid cloud service: %s", s)
	}
}

// String returns the selector form of the backend.
func (b Backend) String() string {
	return string(b)
}

// BackupRecord describes one snapshot of the data store.
type BackupRecord struct {
	ID        string    `json:"id"`
	Backend   Backend   `json:"service"`
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}
