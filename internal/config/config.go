// Package config loads application settings from a YAML file, a .env file
// and SALON_* environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	apperrors "github.com/kimhsiao/salonbook/backend/internal/errors"
	"github.com/kimhsiao/salonbook/backend/internal/sync/remote"
)

// AppID names the per-user application data directory.
const AppID = "com.sisters-salon.app"

type Config struct {
	DataDir   string        `yaml:"dataDir"`
	ExportDir string        `yaml:"exportDir"`
	CloudDir  string        `yaml:"cloudDir"` // overrides the platform cloud-drive folder
	Logging   LoggingConfig `yaml:"logging"`
	Backup    BackupConfig  `yaml:"backup"`
	Remote    RemoteConfig  `yaml:"remote"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
}

type BackupConfig struct {
	Schedule  string `yaml:"schedule"`  // cron expression or "manual"
	Retention int    `yaml:"retention"` // local snapshots kept by the scheduler
}

type RemoteConfig struct {
	Provider   string `yaml:"provider"` // "aws", "r2", "minio"
	Bucket     string `yaml:"bucket"`
	Region     string `yaml:"region"`
	Endpoint   string `yaml:"endpoint"`
	AccountID  string `yaml:"accountId"`
	AccessKey  string `yaml:"accessKey"`
	SecretKey  string `yaml:"secretKey"`
	UseSSL     bool   `yaml:"useSSL"`
	PathStyle  bool   `yaml:"pathStyle"`
	Passphrase string `yaml:"passphrase"`
	Compress   bool   `yaml:"compress"`
}

// Default returns the built-in settings.
func Default() *Config {
	dataDir := "."
	if dir, err := os.UserConfigDir(); err == nil {
		dataDir = filepath.Join(dir, AppID)
	}
	return &Config{
		DataDir: dataDir,
		Logging: LoggingConfig{Level: "info"},
		Backup: BackupConfig{
			Schedule:  "manual",
			Retention: 10,
		},
	}
}

// matches $(VAR_NAME)
var envPattern = regexp.MustCompile(`\$\(([A-Za-z0-9_]+)\)`)

// expandEnvVars replaces $(VAR) with os.Getenv(VAR).
func expandEnvVars(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(m string) string {
		return os.Getenv(envPattern.FindStringSubmatch(m)[1])
	})
}

// Load builds the configuration. path may be empty; envFile is loaded when
// it exists and never overrides variables already set.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("loading %s: %w", envFile, err)
			}
		}
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("unmarshalling yaml: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"SALON_DATA_DIR":          &c.DataDir,
		"SALON_EXPORT_DIR":        &c.ExportDir,
		"SALON_CLOUD_DIR":         &c.CloudDir,
		"SALON_LOG_LEVEL":         &c.Logging.Level,
		"SALON_BACKUP_SCHEDULE":   &c.Backup.Schedule,
		"SALON_S3_PROVIDER":       &c.Remote.Provider,
		"SALON_S3_BUCKET":         &c.Remote.Bucket,
		"SALON_S3_REGION":         &c.Remote.Region,
		"SALON_S3_ENDPOINT":       &c.Remote.Endpoint,
		"SALON_S3_ACCOUNT_ID":     &c.Remote.AccountID,
		"SALON_S3_ACCESS_KEY":     &c.Remote.AccessKey,
		"SALON_S3_SECRET_KEY":     &c.Remote.SecretKey,
		"SALON_BACKUP_PASSPHRASE": &c.Remote.Passphrase,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv("SALON_BACKUP_RETENTION"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return apperrors.Wrap(apperrors.ErrValidation, "invalid SALON_BACKUP_RETENTION", err)
		}
		c.Backup.Retention = n
	}
	bools := map[string]*bool{
		"SALON_S3_USE_SSL":    &c.Remote.UseSSL,
		"SALON_S3_PATH_STYLE": &c.Remote.PathStyle,
		"SALON_S3_COMPRESS":   &c.Remote.Compress,
	}
	for key, dst := range bools {
		if v, ok := os.LookupEnv(key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return apperrors.Wrap(apperrors.ErrValidation, "invalid "+key, err)
			}
			*dst = b
		}
	}
	return nil
}

// Validate checks the settings and fills derived defaults.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return apperrors.New(apperrors.ErrValidation, "data directory is required")
	}
	if c.ExportDir == "" {
		c.ExportDir = filepath.Join(c.DataDir, "exports")
	}
	if c.Backup.Retention < 0 {
		return apperrors.Newf(apperrors.ErrValidation, "backup retention must not be negative: %d", c.Backup.Retention)
	}
	if _, err := remote.ParseProvider(c.Remote.Provider); err != nil {
		return apperrors.Wrap(apperrors.ErrValidation, "invalid remote provider", err)
	}
	return nil
}

// S3 returns the remote adapter settings.
func (c *Config) S3() remote.S3Config {
	provider, _ := remote.ParseProvider(c.Remote.Provider)
	return remote.S3Config{
		Provider:   provider,
		Bucket:     c.Remote.Bucket,
		Region:     c.Remote.Region,
		Endpoint:   c.Remote.Endpoint,
		AccountID:  c.Remote.AccountID,
		AccessKey:  c.Remote.AccessKey,
		SecretKey:  c.Remote.SecretKey,
		UseSSL:     c.Remote.UseSSL,
		PathStyle:  c.Remote.PathStyle,
		Passphrase: c.Remote.Passphrase,
		Compress:   c.Remote.Compress,
	}
}
