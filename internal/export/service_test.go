package export

import (
	"database/sql"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kimhsiao/salonbook/backend/internal/db"
	apperrors "github.com/kimhsiao/salonbook/backend/internal/errors"
)

var fixedNow = time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) (*ExportService, *db.Store) {
	t.Helper()
	store, err := db.Open(t.TempDir())
	if err != nil {
		t.Fatalf("db.Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	err = store.WithLock(func(conn *sql.DB) error {
		stmts := []string{
			`INSERT INTO designers (id, name) VALUES ('d1', '민지')`,
			`INSERT INTO reservations (id, customer_name, customer_phone, date, time, designer_id, service_type, status, notes)
			 VALUES ('r1', '김하나', '010-1111-2222', '2026-03-10', '10:00', 'd1', '커트', 'completed', 'regular, prefers "short"')`,
			`INSERT INTO reservations (id, customer_name, date, time, status)
			 VALUES ('r2', '이둘', '2026-03-10', '15:30', 'no_show')`,
			`INSERT INTO reservations (id, customer_name, date, time, status)
			 VALUES ('r3', '박셋', '2025-12-01', '09:00', 'pending')`,
			`INSERT INTO reservations (id, customer_name, date, time, status)
			 VALUES ('r4', '최넷', '2024-01-01', '09:00', 'cancelled')`,
		}
		for _, s := range stmts {
			if _, err := conn.Exec(s); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	svc := NewExportService(store)
	svc.now = func() time.Time { return fixedNow }
	return svc, store
}

func TestPeriodRange(t *testing.T) {
	tests := []struct {
		period     Period
		now        time.Time
		start, end string
	}{
		{PeriodThisMonth, fixedNow, "2026-03-01", "2026-03-31"},
		{PeriodThisMonth, time.Date(2026, 12, 5, 0, 0, 0, 0, time.UTC), "2026-12-01", "2026-12-31"},
		{PeriodThisMonth, time.Date(2028, 2, 10, 0, 0, 0, 0, time.UTC), "2028-02-01", "2028-02-29"},
		{PeriodLast3Months, fixedNow, "2025-12-15", "2026-03-15"},
		{PeriodAll, fixedNow, "1970-01-01", "2099-12-31"},
	}
	for _, tt := range tests {
		start, end := tt.period.Range(tt.now)
		if start != tt.start || end != tt.end {
			t.Errorf("%s.Range(%s) = %s..%s, want %s..%s", tt.period, tt.now.Format(dateLayout), start, end, tt.start, tt.end)
		}
	}
}

func TestParsePeriodAndFormat(t *testing.T) {
	if p, err := ParsePeriod(""); err != nil || p != PeriodAll {
		t.Errorf("ParsePeriod(\"\") = %s, %v", p, err)
	}
	if _, err := ParsePeriod("yesterday"); !apperrors.Is(err, apperrors.ErrValidation) {
		t.Errorf("ParsePeriod(yesterday) error = %v", err)
	}
	if f, err := ParseFormat("CSV"); err != nil || f != FormatCSV {
		t.Errorf("ParseFormat(CSV) = %s, %v", f, err)
	}
	if f, err := ParseFormat(""); err != nil || f != FormatXLSX {
		t.Errorf("ParseFormat(\"\") = %s, %v", f, err)
	}
	if _, err := ParseFormat("pdf"); !apperrors.Is(err, apperrors.ErrValidation) {
		t.Errorf("ParseFormat(pdf) error = %v", err)
	}
}

// TestExport_CSV verifies header, ordering, labels and quoting.
func TestExport_CSV(t *testing.T) {
	svc, _ := newTestService(t)
	dir := t.TempDir()

	result, err := svc.Export(&ExportConfig{OutputDir: dir, Format: FormatCSV, Period: PeriodThisMonth})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if filepath.Base(result.FilePath) != "reservations_20260315_143000.csv" {
		t.Errorf("FilePath = %s", result.FilePath)
	}
	if result.RowCount != 2 {
		t.Errorf("RowCount = %d, want 2", result.RowCount)
	}
	if len(result.Checksum) != 64 {
		t.Errorf("Checksum = %q", result.Checksum)
	}

	f, err := os.Open(result.FilePath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("csv parse error = %v", err)
	}
	if strings.Join(records[0], ",") != strings.Join(Headers, ",") {
		t.Errorf("header = %v", records[0])
	}
	// Same date, later time first.
	if records[1][2] != "이둘" || records[1][6] != "노쇼" {
		t.Errorf("row 1 = %v", records[1])
	}
	if records[1][4] != "" {
		t.Errorf("missing designer rendered as %q in CSV", records[1][4])
	}
	want := []string{"2026-03-10", "10:00", "김하나", "010-1111-2222", "민지", "커트", "완료", `regular, prefers "short"`}
	for i, v := range want {
		if records[2][i] != v {
			t.Errorf("row 2 col %d = %q, want %q", i, records[2][i], v)
		}
	}
}

// TestExport_XLSX verifies the workbook contents.
func TestExport_XLSX(t *testing.T) {
	svc, _ := newTestService(t)
	path := filepath.Join(t.TempDir(), "out.xlsx")

	result, err := svc.Export(&ExportConfig{OutputPath: path, Period: PeriodAll})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if result.RowCount != 4 {
		t.Errorf("RowCount = %d, want 4", result.RowCount)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("rows = %d, want 5", len(rows))
	}
	if rows[0][0] != "날짜" || rows[0][7] != "메모" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][4] != "-" {
		t.Errorf("missing designer = %q, want -", rows[1][4])
	}
	if rows[4][0] != "2024-01-01" || rows[4][6] != "취소" {
		t.Errorf("last row = %v", rows[4])
	}
}

func TestExport_Last3Months(t *testing.T) {
	svc, _ := newTestService(t)
	result, err := svc.Export(&ExportConfig{OutputDir: t.TempDir(), Format: FormatCSV, Period: PeriodLast3Months})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if result.RowCount != 2 {
		t.Errorf("RowCount = %d, want 2", result.RowCount)
	}
}

// TestMockExportService verifies the mock records calls and fails on demand.
func TestMockExportService(t *testing.T) {
	mock := NewMockExportService()
	cfg := &ExportConfig{OutputDir: t.TempDir(), Format: FormatCSV}

	result, err := mock.Export(cfg)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if filepath.Ext(result.FilePath) != ".csv" {
		t.Errorf("FilePath = %s", result.FilePath)
	}
	if mock.GetCallCount() != 1 || mock.GetLastConfig() != cfg {
		t.Error("call not recorded")
	}

	mock.SetShouldSucceed(false)
	if _, err := mock.Export(cfg); err == nil {
		t.Error("Export() expected error")
	}
}
