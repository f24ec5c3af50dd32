package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	apperrors "github.com/kimhsiao/salonbook/backend/internal/errors"
	"github.com/kimhsiao/salonbook/backend/internal/logging"
	"github.com/kimhsiao/salonbook/backend/internal/models"
	"github.com/kimhsiao/salonbook/backend/internal/sync/remote"
)

const (
	checkpointSuffix = ".bak"
	stagingSuffix    = ".restore"
)

// Target releases the live data file while fn replaces it.
type Target interface {
	Suspend(fn func(path string) error) error
}

// Verifier is implemented by targets that can check a snapshot before it
// replaces the live file.
type Verifier interface {
	Verify(path string) error
}

// FileTarget is a Target for a plain file with no open handles.
type FileTarget string

// Suspend calls fn with the file path.
func (f FileTarget) Suspend(fn func(path string) error) error {
	return fn(string(f))
}

// Restorer replaces the live data file with a snapshot.
//
// Steps run strictly in order: locate (download cloud snapshots that are
// not staged locally), verify, checkpoint the live file to <db>.bak, apply
// through <db>.restore and a rename, then commit by removing the checkpoint
// once the target has reopened, or roll back by copying it over the live
// file.
type Restorer struct {
	remote remote.Adapter
	copy   func(src, dst string) (int64, error)
}

// NewRestorer creates a Restorer that downloads cloud snapshots through
// adapter.
func NewRestorer(adapter remote.Adapter) *Restorer {
	if adapter == nil {
		adapter = remote.Unavailable{}
	}
	return &Restorer{
		remote: adapter,
		copy:   copyFile,
	}
}

// Restore replaces the target's data file with the snapshot name from dir.
func (r *Restorer) Restore(ctx context.Context, target Target, name, dir string, backend models.Backend) error {
	if backend == models.BackendRemoteDrive {
		return unsupportedDrive()
	}
	filename, err := snapshotFileName(name)
	if err != nil {
		return err
	}
	snapshot := filepath.Join(dir, filename)

	if backend == models.BackendCloudService {
		if err := r.locate(ctx, filename, snapshot); err != nil {
			return err
		}
	}

	if _, err := os.Stat(snapshot); err != nil {
		if os.IsNotExist(err) {
			return apperrors.New(apperrors.ErrNotFound, "backup not found")
		}
		return apperrors.Wrap(apperrors.ErrIOFailure, "failed to read backup "+snapshot, err)
	}
	if v, ok := target.(Verifier); ok {
		if err := v.Verify(snapshot); err != nil {
			return apperrors.Wrap(apperrors.ErrValidation, "backup is not a valid database: "+filename, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var live string
	applied := false
	err = target.Suspend(func(dbPath string) error {
		live = dbPath
		if err := r.apply(snapshot, dbPath); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		if applied {
			// The file was replaced but the target could not take it back.
			err = r.recover(target, live, err)
		}
		logging.Error("restore failed", err, map[string]interface{}{"filename": filename})
		return err
	}

	r.commit(live)
	logging.Info("backup restored", map[string]interface{}{
		"filename": filename,
		"service":  backend.String(),
	})
	return nil
}

func (r *Restorer) locate(ctx context.Context, id, snapshot string) error {
	if _, err := os.Stat(snapshot); err == nil {
		return nil
	}
	if err := r.remote.Download(ctx, id, snapshot); err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			return apperrors.Wrap(apperrors.ErrNotFound, "backup not found", err)
		}
		return remoteError("failed to download cloud backup", err)
	}
	logging.Info("cloud backup downloaded", map[string]interface{}{"id": id})
	return nil
}

// apply checkpoints dbPath and replaces it with the snapshot, rolling
// back in place when the replace fails. The checkpoint is kept on success
// until commit.
func (r *Restorer) apply(snapshot, dbPath string) error {
	bak := dbPath + checkpointSuffix

	hadLive := false
	if _, err := os.Stat(dbPath); err == nil {
		if _, err := r.copy(dbPath, bak); err != nil {
			_ = os.Remove(bak)
			return apperrors.Wrap(apperrors.ErrIOFailure, "failed to checkpoint current database", err)
		}
		hadLive = true
	}

	if err := r.replace(snapshot, dbPath); err != nil {
		return r.rollback(dbPath, bak, hadLive, err)
	}
	return nil
}

// commit drops the checkpoint once the target is running on the new file.
func (r *Restorer) commit(dbPath string) {
	bak := dbPath + checkpointSuffix
	if err := os.Remove(bak); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove restore checkpoint", map[string]interface{}{
			"path":  bak,
			"error": err.Error(),
		})
	}
}

// recover suspends the target again and puts the checkpoint back after the
// restored file was rejected. Without a checkpoint the rejected file is
// removed so the target starts from an empty store.
func (r *Restorer) recover(target Target, dbPath string, cause error) error {
	applyErr := apperrors.Wrap(apperrors.ErrIOFailure, "failed to restore backup", cause)
	bak := dbPath + checkpointSuffix

	hadLive := true
	if _, err := os.Stat(bak); err != nil {
		hadLive = false
	}
	err := target.Suspend(func(path string) error {
		if !hadLive {
			return os.Remove(path)
		}
		_, err := r.copy(bak, path)
		return err
	})
	if err != nil {
		logging.Error("restore rollback failed", err, map[string]interface{}{"checkpoint": bak})
		return errors.Join(applyErr, apperrors.Wrap(apperrors.ErrIOFailure, "failed to roll back, previous database kept at "+bak, err))
	}
	if hadLive {
		_ = os.Remove(bak)
	}
	logging.Warn("restore rolled back", map[string]interface{}{"error": cause.Error()})
	return applyErr
}

// replace stages the snapshot next to dbPath and renames it into place.
func (r *Restorer) replace(snapshot, dbPath string) error {
	staging := dbPath + stagingSuffix
	if _, err := r.copy(snapshot, staging); err != nil {
		_ = os.Remove(staging)
		return err
	}
	if err := os.Rename(staging, dbPath); err != nil {
		_ = os.Remove(staging)
		return err
	}
	return nil
}

// rollback puts the checkpoint back and returns the apply error. When the
// rollback itself fails both errors are returned and the checkpoint is kept.
func (r *Restorer) rollback(dbPath, bak string, hadLive bool, cause error) error {
	applyErr := apperrors.Wrap(apperrors.ErrIOFailure, "failed to restore backup", cause)
	if !hadLive {
		return applyErr
	}

	if _, err := r.copy(bak, dbPath); err != nil {
		logging.Error("restore rollback failed", err, map[string]interface{}{"checkpoint": bak})
		return errors.Join(applyErr, apperrors.Wrap(apperrors.ErrIOFailure, "failed to roll back, previous database kept at "+bak, err))
	}
	_ = os.Remove(bak)
	logging.Warn("restore rolled back", map[string]interface{}{"error": cause.Error()})
	return applyErr
}
