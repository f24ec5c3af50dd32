package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	apperrors "github.com/kimhsiao/salonbook/backend/internal/errors"
	"github.com/kimhsiao/salonbook/backend/internal/logging"
	"github.com/kimhsiao/salonbook/backend/internal/models"
	"github.com/kimhsiao/salonbook/backend/internal/sync/remote"
	"github.com/kimhsiao/salonbook/backend/internal/uuid"
)

const (
	// FilePrefix starts every snapshot file name.
	FilePrefix = "salon_backup_"
	// FileExt is the snapshot file extension.
	FileExt = ".db"

	timestampLayout = "20060102_150405"
)

// Source yields a consistent path to the live data file while fn runs.
type Source interface {
	Snapshot(fn func(path string) error) error
}

// FileSource is a Source for a plain file with no writers.
type FileSource string

// Snapshot calls fn with the file path.
func (f FileSource) Snapshot(fn func(path string) error) error {
	return fn(string(f))
}

// CreateResult is the outcome of a successful Create. Warning is set when
// the snapshot exists locally but could not be mirrored remotely.
type CreateResult struct {
	Record  models.BackupRecord `json:"record"`
	Warning string              `json:"warning,omitempty"`
}

// Manager creates, lists, deletes and prunes snapshots.
type Manager struct {
	remote remote.Adapter
	now    func() time.Time
	remove func(path string) error
}

// NewManager creates a Manager mirroring cloud snapshots through adapter.
func NewManager(adapter remote.Adapter) *Manager {
	if adapter == nil {
		adapter = remote.Unavailable{}
	}
	return &Manager{
		remote: adapter,
		now:    time.Now,
		remove: os.Remove,
	}
}

// Create copies the data file into dir. For the cloud backend the copy is
// then uploaded; upload failures only produce a warning.
func (m *Manager) Create(ctx context.Context, src Source, dir string, backend models.Backend) (*CreateResult, error) {
	if backend == models.BackendRemoteDrive {
		return nil, unsupportedDrive()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var record models.BackupRecord
	var dest string
	err := src.Snapshot(func(dbPath string) error {
		if _, err := os.Stat(dbPath); err != nil {
			if os.IsNotExist(err) {
				return apperrors.New(apperrors.ErrNotFound, "database not found")
			}
			return apperrors.Wrap(apperrors.ErrIOFailure, "failed to read database", err)
		}

		createdAt := m.now().UTC()
		name, err := nextFileName(dir, createdAt)
		if err != nil {
			return err
		}
		dest = filepath.Join(dir, name)

		size, err := copyFile(dbPath, dest)
		if err != nil {
			_ = os.Remove(dest)
			return apperrors.Wrap(apperrors.ErrIOFailure, "failed to copy database to "+dest, err)
		}

		record = models.BackupRecord{
			ID:        uuid.New(),
			Backend:   backend,
			Filename:  name,
			Size:      size,
			CreatedAt: createdAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Info("backup created", map[string]interface{}{
		"filename": record.Filename,
		"service":  record.Backend.String(),
		"size":     record.Size,
	})

	result := &CreateResult{Record: record}
	if backend == models.BackendCloudService {
		result.Warning = m.publish(ctx, dest)
	}
	return result, nil
}

// publish uploads a local snapshot and prunes the remote. It returns a
// warning message instead of failing.
func (m *Manager) publish(ctx context.Context, path string) string {
	id, err := m.remote.Upload(ctx, path)
	if err != nil {
		logging.Warn("cloud upload failed, backup kept locally", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return fmt.Sprintf("backup saved locally but cloud upload failed: %v", err)
	}
	logging.Info("backup uploaded", map[string]interface{}{"id": id})

	if _, err := remote.ApplyRetention(ctx, m.remote, remote.RemoteRetention); err != nil {
		logging.Warn("remote retention failed", map[string]interface{}{"error": err.Error()})
	}
	return ""
}

// nextFileName returns a snapshot name for t that does not exist in dir.
func nextFileName(dir string, t time.Time) (string, error) {
	base := FilePrefix + t.Format(timestampLayout)
	name := base + FileExt
	for i := 1; ; i++ {
		_, err := os.Stat(filepath.Join(dir, name))
		if os.IsNotExist(err) {
			return name, nil
		}
		if err != nil {
			return "", apperrors.Wrap(apperrors.ErrIOFailure, "failed to inspect backup directory "+dir, err)
		}
		name = fmt.Sprintf("%s_%d%s", base, i, FileExt)
	}
}

// List returns the snapshots of backend, newest first. Cloud listings come
// from the remote adapter only.
func (m *Manager) List(ctx context.Context, dir string, backend models.Backend) ([]models.BackupRecord, error) {
	switch backend {
	case models.BackendRemoteDrive:
		return nil, unsupportedDrive()
	case models.BackendCloudService:
		return m.listRemote(ctx)
	default:
		return listLocal(dir, backend)
	}
}

func (m *Manager) listRemote(ctx context.Context) ([]models.BackupRecord, error) {
	records, err := m.remote.List(ctx)
	if err != nil {
		return nil, remoteError("failed to list cloud backups", err)
	}
	out := make([]models.BackupRecord, 0, len(records))
	for _, r := range records {
		out = append(out, models.BackupRecord{
			ID:        r.ID,
			Backend:   models.BackendCloudService,
			Filename:  r.Filename,
			Size:      r.Size,
			CreatedAt: r.CreatedAt.UTC(),
		})
	}
	sortNewestFirst(out)
	return out, nil
}

func listLocal(dir string, backend models.Backend) ([]models.BackupRecord, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.BackupRecord{}, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrIOFailure, "failed to read backup directory "+dir, err)
	}

	records := make([]models.BackupRecord, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != FileExt {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		records = append(records, models.BackupRecord{
			ID:        strings.TrimSuffix(strings.TrimPrefix(name, FilePrefix), FileExt),
			Backend:   backend,
			Filename:  name,
			Size:      info.Size(),
			CreatedAt: info.ModTime().UTC(),
		})
	}
	sortNewestFirst(records)
	return records, nil
}

// sortNewestFirst orders by CreatedAt descending, then filename descending.
func sortNewestFirst(records []models.BackupRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].Filename > records[j].Filename
	})
}

// Delete removes one snapshot. Cloud deletes go to the remote and also drop
// the staged local copy if one exists.
func (m *Manager) Delete(ctx context.Context, name, dir string, backend models.Backend) error {
	if backend == models.BackendRemoteDrive {
		return unsupportedDrive()
	}
	filename, err := snapshotFileName(name)
	if err != nil {
		return err
	}

	if backend == models.BackendCloudService {
		if err := m.remote.Delete(ctx, filename); err != nil {
			if errors.Is(err, remote.ErrNotFound) {
				return apperrors.Wrap(apperrors.ErrNotFound, "backup not found: "+name, err)
			}
			return remoteError("failed to delete cloud backup", err)
		}
		if dir != "" {
			if err := os.Remove(filepath.Join(dir, filename)); err != nil && !os.IsNotExist(err) {
				logging.Warn("failed to remove staged cloud backup", map[string]interface{}{
					"filename": filename,
					"error":    err.Error(),
				})
			}
		}
		logging.Info("cloud backup deleted", map[string]interface{}{"filename": filename})
		return nil
	}

	path := filepath.Join(dir, filename)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return apperrors.New(apperrors.ErrNotFound, "backup not found: "+name)
		}
		return apperrors.Wrap(apperrors.ErrIOFailure, "failed to delete backup "+path, err)
	}
	logging.Info("backup deleted", map[string]interface{}{"filename": filename})
	return nil
}

// Cleanup deletes the oldest local snapshots so that at most keep remain.
// It stops at the first failed delete; earlier deletes are not undone.
func (m *Manager) Cleanup(ctx context.Context, dir string, keep int) (int, error) {
	if keep < 0 {
		return 0, apperrors.Newf(apperrors.ErrValidation, "keep count must not be negative: %d", keep)
	}
	records, err := listLocal(dir, models.BackendLocal)
	if err != nil {
		return 0, err
	}
	if len(records) <= keep {
		return 0, nil
	}

	// Oldest first.
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		}
		return records[i].Filename < records[j].Filename
	})

	deleted := 0
	for _, r := range records[:len(records)-keep] {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		path := filepath.Join(dir, r.Filename)
		if err := m.remove(path); err != nil {
			return deleted, apperrors.Wrap(apperrors.ErrIOFailure, "failed to delete old backup "+path, err)
		}
		deleted++
	}

	logging.Info("old backups cleaned up", map[string]interface{}{
		"deleted": deleted,
		"kept":    keep,
	})
	return deleted, nil
}

// snapshotFileName accepts a file name or a local id and returns the file
// name. Path components are rejected.
func snapshotFileName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return "", apperrors.Newf(apperrors.ErrValidation, "invalid backup name: %q", name)
	}
	if filepath.Ext(name) == FileExt {
		return name, nil
	}
	return FilePrefix + name + FileExt, nil
}

func unsupportedDrive() error {
	return apperrors.New(apperrors.ErrBackendUnavailable, "google drive backup is not supported yet")
}

// remoteError keeps coded adapter errors and marks the rest as backend
// failures.
func remoteError(msg string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Wrap(apperrors.ErrBackendUnavailable, msg, err)
}
