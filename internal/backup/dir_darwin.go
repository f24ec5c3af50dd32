//go:build darwin

package backup

import (
	"os"
	"path/filepath"

	apperrors "github.com/kimhsiao/salonbook/backend/internal/errors"
)

// cloudServiceDir is the app folder inside iCloud Drive.
func cloudServiceDir(string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrIOFailure, "cannot find home directory", err)
	}
	return filepath.Join(home, "Library", "Mobile Documents", "com~apple~CloudDocs", "SistersSalon", "backups"), nil
}
