// Package backup implements the backup and restore lifecycle of the data
// store: directory resolution, snapshot creation, listing, deletion,
// retention, restore and scheduled backups.
package backup

import (
	"os"
	"path/filepath"

	apperrors "github.com/kimhsiao/salonbook/backend/internal/errors"
	"github.com/kimhsiao/salonbook/backend/internal/models"
)

// DirName is the name of the local backup directory under app data.
const DirName = "backups"

// Resolver maps a backend to the directory that holds its snapshots.
type Resolver struct {
	AppDataDir string
	// CloudDir overrides the platform cloud-drive folder when set.
	CloudDir string
}

// ResolveDir returns the backup directory for backend under appDataDir,
// creating it if needed.
func ResolveDir(appDataDir string, backend models.Backend) (string, error) {
	return Resolver{AppDataDir: appDataDir}.Resolve(backend)
}

// Resolve returns the directory for backend, creating it if needed.
func (r Resolver) Resolve(backend models.Backend) (string, error) {
	var dir string
	switch backend {
	case models.BackendLocal:
		dir = filepath.Join(r.AppDataDir, DirName)
	case models.BackendCloudService:
		if r.CloudDir != "" {
			dir = r.CloudDir
			break
		}
		d, err := cloudServiceDir(r.AppDataDir)
		if err != nil {
			return "", err
		}
		dir = d
	case models.BackendRemoteDrive:
		return "", apperrors.New(apperrors.ErrBackendUnavailable, "google drive backup is not supported yet")
	default:
		return "", apperrors.Newf(apperrors.ErrValidation, "invalid cloud service: %s", backend)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", apperrors.Wrap(apperrors.ErrIOFailure, "failed to create backup directory "+dir, err)
	}
	return dir, nil
}
