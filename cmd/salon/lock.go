package main

import (
	"fmt"

	"github.com/spf13/cobra"

	apperrors "github.com/kimhsiao/salonbook/backend/internal/errors"
)

func newLockCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Manage the app lock PIN and settings",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set PIN",
			Short: "Set the lock PIN and enable the lock",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.lock.SetPIN(args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "lock enabled")
				return nil
			},
		},
		&cobra.Command{
			Use:   "verify PIN",
			Short: "Check a PIN",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ok, err := a.lock.VerifyPIN(args[0])
				if err != nil {
					return err
				}
				if !ok {
					return apperrors.New(apperrors.ErrInvalidPIN, "PIN is incorrect")
				}
				fmt.Fprintln(cmd.OutOrStdout(), "PIN ok")
				return nil
			},
		},
		&cobra.Command{
			Use:   "change OLD NEW",
			Short: "Change the lock PIN",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.lock.ChangePIN(args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "PIN changed")
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove",
			Short: "Remove the PIN and disable the lock",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.lock.RemovePIN(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "lock disabled")
				return nil
			},
		},
		newLockSettingsCmd(a),
	)
	return cmd
}

func newLockSettingsCmd(a *app) *cobra.Command {
	var (
		biometric    bool
		timeout      uint32
		onBackground bool
	)
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or update lock settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := a.lock.GetSettings()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("biometric") || flags.Changed("timeout") || flags.Changed("lock-on-background") {
				if flags.Changed("biometric") {
					settings.UseBiometric = biometric
				}
				if flags.Changed("timeout") {
					settings.AutoLockTimeout = timeout
				}
				if flags.Changed("lock-on-background") {
					settings.LockOnBackground = onBackground
				}
				if err := a.lock.SaveSettings(settings); err != nil {
					return err
				}
			}
			enabled, err := a.lock.IsLockEnabled()
			if err != nil {
				return err
			}
			settings.IsEnabled = enabled
			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), settings)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "enabled:            %t\n", settings.IsEnabled)
			fmt.Fprintf(out, "biometric:          %t\n", settings.UseBiometric)
			fmt.Fprintf(out, "auto-lock timeout:  %d min\n", settings.AutoLockTimeout)
			fmt.Fprintf(out, "lock on background: %t\n", settings.LockOnBackground)
			return nil
		},
	}
	cmd.Flags().BoolVar(&biometric, "biometric", false, "Use biometric unlock")
	cmd.Flags().Uint32Var(&timeout, "timeout", 5, "Auto-lock timeout in minutes (0 = immediate)")
	cmd.Flags().BoolVar(&onBackground, "lock-on-background", true, "Lock when the app goes to background")
	return cmd
}
