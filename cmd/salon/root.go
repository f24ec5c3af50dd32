package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kimhsiao/salonbook/backend/internal/backup"
	"github.com/kimhsiao/salonbook/backend/internal/config"
	"github.com/kimhsiao/salonbook/backend/internal/db"
	"github.com/kimhsiao/salonbook/backend/internal/export"
	"github.com/kimhsiao/salonbook/backend/internal/logging"
	"github.com/kimhsiao/salonbook/backend/internal/models"
	"github.com/kimhsiao/salonbook/backend/internal/security"
	"github.com/kimhsiao/salonbook/backend/internal/sync/remote"
)

// app holds the services shared by all commands.
type app struct {
	cfg      *config.Config
	store    *db.Store
	backups  *backup.Service
	exporter export.ExportServiceInterface
	lock     *security.Service

	configPath string
	envFile    string
	dataDir    string
	jsonOut    bool
}

// Overridable in tests.
var (
	newRemote   = remote.New
	newExporter = func(store *db.Store) export.ExportServiceInterface { return export.NewExportService(store) }
	newKeychain = security.SystemKeychain
)

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "salon",
		Short:         "Salon data store administration",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", os.Getenv("SALON_CONFIG"), "Path to YAML config file")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Path to .env file")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "Application data directory (overrides config)")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "Output JSON")

	root.AddCommand(newBackupCmd(a))
	root.AddCommand(newDaemonCmd(a))
	root.AddCommand(newExportCmd(a))
	root.AddCommand(newLockCmd(a))
	return root
}

func (a *app) open(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(a.configPath, a.envFile)
	if err != nil {
		return err
	}
	if a.dataDir != "" {
		cfg.DataDir = a.dataDir
		cfg.ExportDir = ""
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg

	logging.Init(os.Stderr, logging.ParseLevel(cfg.Logging.Level))
	logging.Get().SetLevel(logging.ParseLevel(cfg.Logging.Level))

	store, err := db.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	a.store = store

	resolver := backup.Resolver{AppDataDir: cfg.DataDir, CloudDir: cfg.CloudDir}
	a.backups = backup.NewService(store, resolver, newRemote(ctx, cfg.S3()))
	a.exporter = newExporter(store)
	a.lock = security.NewService(store, newKeychain())
	return nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func serviceFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "service", "s", string(models.BackendLocal), "Backup service: local, icloud, google_drive")
}
