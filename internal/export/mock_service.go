package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// MockExportService is an ExportServiceInterface for command tests. It
// writes a placeholder file instead of querying the database.
type MockExportService struct {
	mu            sync.Mutex
	shouldSucceed bool
	lastConfig    *ExportConfig
	callCount     int
}

// NewMockExportService creates a mock that succeeds by default.
func NewMockExportService() *MockExportService {
	return &MockExportService{shouldSucceed: true}
}

// Export records config and writes a placeholder report.
func (m *MockExportService) Export(config *ExportConfig) (*ExportResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCount++
	m.lastConfig = config

	if !m.shouldSucceed {
		return nil, fmt.Errorf("mock export failed")
	}

	format := config.Format
	if format == "" {
		format = FormatXLSX
	}
	outputPath := config.OutputPath
	if outputPath == "" {
		outputPath = filepath.Join(config.OutputDir, FileName(format, time.Now()))
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	data := []byte("mock export data")
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to create mock export file: %w", err)
	}

	return &ExportResult{
		FilePath:  outputPath,
		SizeBytes: int64(len(data)),
		Checksum:  "mock-checksum",
		Duration:  time.Millisecond,
	}, nil
}

// SetShouldSucceed controls whether Export succeeds.
func (m *MockExportService) SetShouldSucceed(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldSucceed = ok
}

// GetCallCount returns the number of Export calls.
func (m *MockExportService) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// GetLastConfig returns the config of the last Export call.
func (m *MockExportService) GetLastConfig() *ExportConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastConfig
}
