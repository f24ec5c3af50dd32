package backup

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	apperrors "github.com/kimhsiao/salonbook/backend/internal/errors"
	"github.com/kimhsiao/salonbook/backend/internal/logging"
	"github.com/kimhsiao/salonbook/backend/internal/models"
)

// ScheduleManual disables automatic backups.
const ScheduleManual = "manual"

// SchedulerConfig holds the automatic backup settings.
type SchedulerConfig struct {
	Schedule  string // 5-field cron expression, "manual" or empty to disable
	Retention int    // local snapshots to keep after each run (0 = unlimited)
}

// Scheduler runs local backups on a cron schedule.
type Scheduler struct {
	service *Service
	config  SchedulerConfig

	mu       sync.Mutex
	cron     *cron.Cron
	schedule cron.Schedule
	done     chan struct{}
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ParseSchedule validates a cron expression. Manual schedules return nil.
func ParseSchedule(expr string) (cron.Schedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" || strings.EqualFold(expr, ScheduleManual) {
		return nil, nil
	}
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrValidation, "invalid backup schedule: "+expr, err)
	}
	return sched, nil
}

// NewScheduler creates a scheduler for service.
func NewScheduler(service *Service, config SchedulerConfig) *Scheduler {
	if config.Retention < 0 {
		config.Retention = 0
	}
	return &Scheduler{
		service: service,
		config:  config,
	}
}

// Start begins scheduled backups. It returns immediately; runs stop when
// Stop is called or ctx is done. Starting a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	sched, err := ParseSchedule(s.config.Schedule)
	if err != nil {
		return err
	}
	if sched == nil {
		logging.Info("backup scheduler in manual mode, automatic backups disabled")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}

	c := cron.New(
		cron.WithParser(cronParser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	c.Schedule(sched, cron.FuncJob(func() {
		_ = s.RunOnce(ctx)
	}))
	c.Start()
	done := make(chan struct{})
	s.cron = c
	s.schedule = sched
	s.done = done

	logging.Info("backup scheduler started", map[string]interface{}{
		"schedule":  s.config.Schedule,
		"retention": s.config.Retention,
		"next_run":  sched.Next(time.Now()).Format(time.RFC3339),
	})

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-done:
		}
	}()
	return nil
}

// Stop halts the scheduler and waits for a running backup to finish.
// The scheduler can be started again afterwards.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c, done := s.cron, s.done
	s.cron, s.schedule, s.done = nil, nil, nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	close(done)
	<-c.Stop().Done()
	logging.Info("backup scheduler stopped")
}

// NextRun reports the next scheduled run after from. The zero time means
// the scheduler is not running.
func (s *Scheduler) NextRun(from time.Time) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schedule == nil {
		return time.Time{}
	}
	return s.schedule.Next(from)
}

// RunOnce creates a local backup and applies retention. Failures are
// logged and returned.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	logging.Info("starting scheduled backup")

	result, err := s.service.CreateBackup(ctx, models.BackendLocal)
	if err != nil {
		logging.Error("scheduled backup failed", err)
		return err
	}
	logging.Info("scheduled backup completed", map[string]interface{}{
		"filename": result.Record.Filename,
		"size":     result.Record.Size,
	})

	if s.config.Retention > 0 {
		if err := s.service.CleanupOldBackups(ctx, s.config.Retention); err != nil {
			// The backup itself succeeded.
			logging.Error("retention policy failed", err)
		}
	}
	return nil
}
