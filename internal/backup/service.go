package backup

import (
	"context"

	"github.com/kimhsiao/salonbook/backend/internal/models"
	"github.com/kimhsiao/salonbook/backend/internal/sync/remote"
)

// Store is the live data store. db.Store implements it; Snapshot and
// Suspend share the store's lock so backups, restores and writes are
// serialized.
type Store interface {
	Source
	Target
}

// Service is the entry point for backup operations.
type Service struct {
	store    Store
	resolver Resolver
	remote   remote.Adapter
	manager  *Manager
	restorer *Restorer
}

// NewService wires a Service. A nil adapter means no remote backend.
func NewService(store Store, resolver Resolver, adapter remote.Adapter) *Service {
	if adapter == nil {
		adapter = remote.Unavailable{}
	}
	return &Service{
		store:    store,
		resolver: resolver,
		remote:   adapter,
		manager:  NewManager(adapter),
		restorer: NewRestorer(adapter),
	}
}

// ListBackups returns backend's snapshots, newest first.
func (s *Service) ListBackups(ctx context.Context, backend models.Backend) ([]models.BackupRecord, error) {
	switch backend {
	case models.BackendRemoteDrive:
		return nil, unsupportedDrive()
	case models.BackendCloudService:
		return s.manager.List(ctx, "", backend)
	}
	dir, err := s.resolver.Resolve(backend)
	if err != nil {
		return nil, err
	}
	return s.manager.List(ctx, dir, backend)
}

// CreateBackup snapshots the live store into backend.
func (s *Service) CreateBackup(ctx context.Context, backend models.Backend) (*CreateResult, error) {
	dir, err := s.resolver.Resolve(backend)
	if err != nil {
		return nil, err
	}
	return s.manager.Create(ctx, s.store, dir, backend)
}

// RestoreBackup replaces the live store with the named snapshot.
func (s *Service) RestoreBackup(ctx context.Context, name string, backend models.Backend) error {
	dir, err := s.resolver.Resolve(backend)
	if err != nil {
		return err
	}
	return s.restorer.Restore(ctx, s.store, name, dir, backend)
}

// DeleteBackup removes the named snapshot from backend.
func (s *Service) DeleteBackup(ctx context.Context, name string, backend models.Backend) error {
	dir, err := s.resolver.Resolve(backend)
	if err != nil {
		return err
	}
	return s.manager.Delete(ctx, name, dir, backend)
}

// CleanupOldBackups keeps the newest keep local snapshots.
func (s *Service) CleanupOldBackups(ctx context.Context, keep int) error {
	dir, err := s.resolver.Resolve(models.BackendLocal)
	if err != nil {
		return err
	}
	_, err = s.manager.Cleanup(ctx, dir, keep)
	return err
}

// IsRemoteBackendAvailable probes the remote backend.
func (s *Service) IsRemoteBackendAvailable(ctx context.Context) bool {
	return s.remote.Available(ctx)
}
