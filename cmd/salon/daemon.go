package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kimhsiao/salonbook/backend/internal/backup"
)

func newDaemonCmd(a *app) *cobra.Command {
	var schedule string
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run scheduled backups until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("schedule") {
				schedule = a.cfg.Backup.Schedule
			}
			sched, err := backup.ParseSchedule(schedule)
			if err != nil {
				return err
			}
			if sched == nil {
				return fmt.Errorf("backup schedule is %q, nothing to run", backup.ScheduleManual)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s := backup.NewScheduler(a.backups, backup.SchedulerConfig{
				Schedule:  schedule,
				Retention: a.cfg.Backup.Retention,
			})
			if err := s.Start(ctx); err != nil {
				return err
			}
			<-ctx.Done()
			s.Stop()
			return nil
		},
	}
	cmd.Flags().StringVar(&schedule, "schedule", "", "Cron expression (default: backup.schedule)")
	return cmd
}
