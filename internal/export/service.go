// Package export writes reservation reports as CSV or XLSX files.
package export

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kimhsiao/salonbook/backend/internal/db"
	apperrors "github.com/kimhsiao/salonbook/backend/internal/errors"
	"github.com/kimhsiao/salonbook/backend/internal/logging"
	"github.com/kimhsiao/salonbook/backend/internal/models"
)

// Format is the output file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat maps a selector to a Format. Empty means XLSX.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatXLSX, "excel":
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", apperrors.Newf(apperrors.ErrValidation, "invalid export format: %s", s)
	}
}

// Headers are the report column titles.
var Headers = []string{"날짜", "시간", "고객명", "연락처", "디자이너", "서비스", "상태", "메모"}

// Reader runs fn with exclusive database access. db.Store implements it.
type Reader interface {
	WithLock(fn func(*sql.DB) error) error
}

// ExportService exports reservations.
type ExportService struct {
	store Reader
	now   func() time.Time
}

// NewExportService creates a new ExportService.
func NewExportService(store Reader) *ExportService {
	return &ExportService{store: store, now: time.Now}
}

// ExportConfig holds export configuration.
type ExportConfig struct {
	OutputDir  string // used when OutputPath is empty
	OutputPath string
	Format     Format
	Period     Period
}

// ExportResult represents the result of an export operation.
type ExportResult struct {
	FilePath  string
	SizeBytes int64
	RowCount  int
	Checksum  string
	Duration  time.Duration
}

// FileName returns the default report name for format at t.
func FileName(format Format, t time.Time) string {
	return fmt.Sprintf("reservations_%s.%s", t.Format("20060102_150405"), format)
}

// Export writes the reservations of config.Period to a file.
func (s *ExportService) Export(config *ExportConfig) (*ExportResult, error) {
	startTime := s.now()

	format := config.Format
	if format == "" {
		format = FormatXLSX
	}
	period := config.Period
	if period == "" {
		period = PeriodAll
	}

	outputPath := config.OutputPath
	if outputPath == "" {
		outputPath = filepath.Join(config.OutputDir, FileName(format, startTime))
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrIOFailure, "failed to create export directory", err)
	}

	start, end := period.Range(startTime)
	var rows []models.ReservationExport
	err := s.store.WithLock(func(conn *sql.DB) error {
		var err error
		rows, err = db.ListReservationsBetween(conn, start, end)
		return err
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to load reservations", err)
	}

	switch format {
	case FormatCSV:
		err = writeCSV(outputPath, rows)
	case FormatXLSX:
		err = writeXLSX(outputPath, rows)
	default:
		return nil, apperrors.Newf(apperrors.ErrValidation, "invalid export format: %s", format)
	}
	if err != nil {
		_ = os.Remove(outputPath)
		return nil, apperrors.Wrap(apperrors.ErrExportFailed, "failed to write "+outputPath, err)
	}

	size, checksum, err := fileChecksum(outputPath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrIOFailure, "failed to read export", err)
	}

	result := &ExportResult{
		FilePath:  outputPath,
		SizeBytes: size,
		RowCount:  len(rows),
		Checksum:  checksum,
		Duration:  time.Since(startTime),
	}
	logging.Info("reservations exported", map[string]interface{}{
		"file":   result.FilePath,
		"format": string(format),
		"period": string(period),
		"rows":   result.RowCount,
	})
	return result, nil
}

// record converts a reservation into report cells. Missing values are
// rendered as placeholder for the optional columns.
func record(r models.ReservationExport, placeholder string) []string {
	or := func(s string) string {
		if s == "" {
			return placeholder
		}
		return s
	}
	return []string{
		r.Date,
		r.Time,
		r.CustomerName,
		or(r.CustomerPhone),
		or(r.DesignerName),
		or(r.ServiceType),
		r.Status.Label(),
		r.Notes,
	}
}

func fileChecksum(path string) (int64, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, "", err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return 0, "", err
	}
	return n, hex.EncodeToString(h.Sum(nil)), nil
}
