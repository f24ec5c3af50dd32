// Command salon manages the salon data store from the command line:
// backups and restores, cloud sync, reservation exports and the app lock.
package main

import (
	"fmt"
	"os"

	apperrors "github.com/kimhsiao/salonbook/backend/internal/errors"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps error codes to process exit statuses.
func exitCode(err error) int {
	switch apperrors.CodeOf(err) {
	case apperrors.ErrNotFound:
		return 3
	case apperrors.ErrValidation, apperrors.ErrInvalidPIN:
		return 2
	case apperrors.ErrBackendUnavailable:
		return 4
	default:
		return 1
	}
}
