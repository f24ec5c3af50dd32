package remote

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Memory is an in-process Adapter. It backs tests and the offline demo
// mode; the Fail* fields inject errors into the matching operation.
type Memory struct {
	mu      sync.Mutex
	objects map[string]memoryObject

	Unreachable  bool
	FailUpload   error
	FailList     error
	FailDownload error
	FailDelete   map[string]error

	// Now supplies creation times. Defaults to time.Now.
	Now func() time.Time
}

type memoryObject struct {
	data      []byte
	createdAt time.Time
}

var _ Adapter = (*Memory)(nil)

// NewMemory returns an empty, reachable Memory adapter.
func NewMemory() *Memory {
	return &Memory{
		objects:    make(map[string]memoryObject),
		FailDelete: make(map[string]error),
	}
}

func (m *Memory) now() time.Time {
	if m.Now != nil {
		return m.Now().UTC()
	}
	return time.Now().UTC()
}

func (m *Memory) Available(context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.Unreachable
}

func (m *Memory) Upload(_ context.Context, localPath string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Unreachable {
		return "", ErrUnavailable
	}
	if m.FailUpload != nil {
		return "", m.FailUpload
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to read snapshot: %w", err)
	}
	id := filepath.Base(localPath)
	m.objects[id] = memoryObject{data: data, createdAt: m.now()}
	return id, nil
}

// Put stores data under id with an explicit creation time.
func (m *Memory) Put(id string, data []byte, createdAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[id] = memoryObject{data: data, createdAt: createdAt.UTC()}
}

func (m *Memory) List(context.Context) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Unreachable {
		return nil, ErrUnavailable
	}
	if m.FailList != nil {
		return nil, m.FailList
	}
	records := make([]Record, 0, len(m.objects))
	for id, obj := range m.objects {
		records = append(records, Record{
			ID:        id,
			Filename:  id,
			Size:      int64(len(obj.data)),
			CreatedAt: obj.createdAt,
		})
	}
	sortNewestFirst(records)
	return records, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Unreachable {
		return ErrUnavailable
	}
	if err := m.FailDelete[id]; err != nil {
		return err
	}
	if _, ok := m.objects[id]; !ok {
		return ErrNotFound
	}
	delete(m.objects, id)
	return nil
}

func (m *Memory) Download(_ context.Context, id, destPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Unreachable {
		return ErrUnavailable
	}
	if m.FailDownload != nil {
		return m.FailDownload
	}
	obj, ok := m.objects[id]
	if !ok {
		return ErrNotFound
	}
	return writeFileAtomic(destPath, obj.data)
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
