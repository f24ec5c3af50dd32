//go:build !darwin

package backup

import "path/filepath"

// cloudServiceDir falls back to the local backup directory where no synced
// drive folder exists.
func cloudServiceDir(appDataDir string) (string, error) {
	return filepath.Join(appDataDir, DirName), nil
}
