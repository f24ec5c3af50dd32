package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/kimhsiao/salonbook/backend/internal/models"
)

func newBackupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create, list, restore and delete backups",
	}
	cmd.AddCommand(
		newBackupListCmd(a),
		newBackupCreateCmd(a),
		newBackupRestoreCmd(a),
		newBackupDeleteCmd(a),
		newBackupCleanupCmd(a),
		newBackupRemoteStatusCmd(a),
	)
	return cmd
}

func newBackupListCmd(a *app) *cobra.Command {
	var service string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := models.ParseBackend(service)
			if err != nil {
				return err
			}
			records, err := a.backups.ListBackups(cmd.Context(), backend)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), records)
			}
			tw := tablewriter.NewWriter(cmd.OutOrStdout())
			tw.SetHeader([]string{"ID", "FILENAME", "SIZE", "CREATED_AT", "AGE"})
			for _, r := range records {
				tw.Append([]string{
					r.ID,
					r.Filename,
					humanize.Bytes(uint64(r.Size)),
					r.CreatedAt.Format(time.RFC3339),
					humanize.Time(r.CreatedAt),
				})
			}
			tw.Render()
			return nil
		},
	}
	serviceFlag(cmd, &service)
	return cmd
}

func newBackupCreateCmd(a *app) *cobra.Command {
	var service string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Snapshot the data store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := models.ParseBackend(service)
			if err != nil {
				return err
			}
			result, err := a.backups.CreateBackup(cmd.Context(), backend)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", result.Record.Filename, humanize.Bytes(uint64(result.Record.Size)))
			if result.Warning != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", result.Warning)
			}
			return nil
		},
	}
	serviceFlag(cmd, &service)
	return cmd
}

func newBackupRestoreCmd(a *app) *cobra.Command {
	var service string
	cmd := &cobra.Command{
		Use:   "restore NAME",
		Short: "Replace the data store with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := models.ParseBackend(service)
			if err != nil {
				return err
			}
			if err := a.backups.RestoreBackup(cmd.Context(), args[0], backend); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s\n", args[0])
			return nil
		},
	}
	serviceFlag(cmd, &service)
	return cmd
}

func newBackupDeleteCmd(a *app) *cobra.Command {
	var service string
	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := models.ParseBackend(service)
			if err != nil {
				return err
			}
			if err := a.backups.DeleteBackup(cmd.Context(), args[0], backend); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
	serviceFlag(cmd, &service)
	return cmd
}

func newBackupCleanupCmd(a *app) *cobra.Command {
	var keep int
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete the oldest local backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("keep") {
				keep = a.cfg.Backup.Retention
				if keep == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "backup retention is unlimited, nothing to clean up")
					return nil
				}
			}
			if err := a.backups.CleanupOldBackups(cmd.Context(), keep); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "kept newest %d backups\n", keep)
			return nil
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 10, "Number of backups to keep (default: backup.retention, 0 there means unlimited)")
	return cmd
}

func newBackupRemoteStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remote-status",
		Short: "Report whether the cloud backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ok := a.backups.IsRemoteBackendAvailable(cmd.Context())
			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]bool{"available": ok})
			}
			if ok {
				fmt.Fprintln(cmd.OutOrStdout(), "cloud backend available")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "cloud backend unavailable")
			}
			return nil
		},
	}
}
