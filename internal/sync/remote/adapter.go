// Package remote defines the remote sync adapter used to mirror backup
// snapshots to an object store, and its implementations.
package remote

import (
	"context"
	"sort"
	"time"

	apperrors "github.com/kimhsiao/salonbook/backend/internal/errors"
	"github.com/kimhsiao/salonbook/backend/internal/logging"
)

// RemoteRetention is the number of remote snapshots kept after an upload.
const RemoteRetention = 10

var (
	// ErrNotFound is returned when the backend has no record with the id.
	ErrNotFound = apperrors.New(apperrors.ErrNotFound, "remote record not found")
	// ErrUnavailable is returned by adapters that cannot run on this platform
	// or are not configured.
	ErrUnavailable = apperrors.New(apperrors.ErrBackendUnavailable, "remote backend unavailable")
)

// Record is a snapshot as reported by the remote backend.
type Record struct {
	ID        string
	Filename  string
	Size      int64
	CreatedAt time.Time
}

// Adapter abstracts a remote snapshot store. It only deals in opaque ids
// and local paths.
type Adapter interface {
	// Available probes the backend. It never returns an error; any failure
	// means unavailable.
	Available(ctx context.Context) bool

	// Upload transmits the file at localPath and returns its remote id.
	// The local file is left untouched.
	Upload(ctx context.Context, localPath string) (string, error)

	// List returns all records, newest first.
	List(ctx context.Context) ([]Record, error)

	// Delete removes a record. Missing records yield ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Download writes the record's content to destPath.
	Download(ctx context.Context, id, destPath string) error
}

// sortNewestFirst orders records by creation time descending, then id
// descending.
func sortNewestFirst(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ID > records[j].ID
	})
}

// ApplyRetention deletes every remote record beyond the newest keep.
// Individual delete failures are logged and skipped. It returns the number
// of records removed.
func ApplyRetention(ctx context.Context, a Adapter, keep int) (int, error) {
	records, err := a.List(ctx)
	if err != nil {
		return 0, err
	}
	if keep < 0 {
		keep = 0
	}
	if len(records) <= keep {
		return 0, nil
	}

	deleted := 0
	for _, r := range records[keep:] {
		if err := a.Delete(ctx, r.ID); err != nil {
			logging.Warn("failed to delete old remote backup", map[string]interface{}{
				"id":    r.ID,
				"error": err.Error(),
			})
			continue
		}
		deleted++
		logging.Info("deleted old remote backup", map[string]interface{}{"id": r.ID})
	}
	return deleted, nil
}
