package backup

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	apperrors "github.com/kimhsiao/salonbook/backend/internal/errors"
	"github.com/kimhsiao/salonbook/backend/internal/models"
)

func TestParseSchedule(t *testing.T) {
	tests := []struct {
		expr    string
		manual  bool
		wantErr bool
	}{
		{"", true, false},
		{"manual", true, false},
		{"MANUAL", true, false},
		{"0 2 * * *", false, false},
		{"*/15 * * * *", false, false},
		{"0 0 2 * * *", false, true},
		{"daily", false, true},
	}
	for _, tt := range tests {
		sched, err := ParseSchedule(tt.expr)
		if tt.wantErr {
			if !apperrors.Is(err, apperrors.ErrValidation) {
				t.Errorf("ParseSchedule(%q) error = %v, want VALIDATION_ERROR", tt.expr, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSchedule(%q) error = %v", tt.expr, err)
		}
		if (sched == nil) != tt.manual {
			t.Errorf("ParseSchedule(%q) manual = %v, want %v", tt.expr, sched == nil, tt.manual)
		}
	}
}

// TestScheduler_RunOnce verifies a run creates a backup and applies retention.
func TestScheduler_RunOnce(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		writeBackup(t, f.localDir(), fmt.Sprintf("salon_backup_old%d.db", i), "x", base.Add(time.Duration(i)*time.Hour))
	}

	s := NewScheduler(f.service, SchedulerConfig{Schedule: "0 2 * * *", Retention: 3})
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	records, _ := f.service.ListBackups(context.Background(), models.BackendLocal)
	if len(records) != 3 {
		t.Fatalf("remaining = %d, want 3", len(records))
	}
	if !strings.HasPrefix(records[0].Filename, FilePrefix+"20") {
		t.Errorf("newest = %s, want the scheduled backup", records[0].Filename)
	}
}

func TestScheduler_ManualStart(t *testing.T) {
	f := newFixture(t)
	s := NewScheduler(f.service, SchedulerConfig{Schedule: ScheduleManual})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !s.NextRun(time.Now()).IsZero() {
		t.Error("NextRun() should be zero in manual mode")
	}
	s.Stop()
}

func TestScheduler_StartStop(t *testing.T) {
	f := newFixture(t)
	s := NewScheduler(f.service, SchedulerConfig{Schedule: "0 2 * * *"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	from := time.Date(2026, 4, 1, 3, 0, 0, 0, time.Local)
	want := time.Date(2026, 4, 2, 2, 0, 0, 0, time.Local)
	if got := s.NextRun(from); !got.Equal(want) {
		t.Errorf("NextRun() = %v, want %v", got, want)
	}
	s.Stop()
	s.Stop()
}

// TestScheduler_Restart verifies a stopped scheduler can be started again
// and that cancelling the context stops it.
func TestScheduler_Restart(t *testing.T) {
	f := newFixture(t)
	s := NewScheduler(f.service, SchedulerConfig{Schedule: "0 2 * * *"})
	from := time.Date(2026, 4, 1, 3, 0, 0, 0, time.Local)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	s.Stop()
	if !s.NextRun(from).IsZero() {
		t.Error("NextRun() should be zero after Stop")
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	if s.NextRun(from).IsZero() {
		t.Fatal("NextRun() is zero after restart")
	}

	cancel()
	deadline := time.Now().Add(2 * time.Second)
	for !s.NextRun(from).IsZero() {
		if time.Now().After(deadline) {
			t.Fatal("scheduler still running after context cancel")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	f := newFixture(t)
	s := NewScheduler(f.service, SchedulerConfig{Schedule: "not a cron"})
	if err := s.Start(context.Background()); err == nil {
		t.Error("Start() expected error")
	}
}
