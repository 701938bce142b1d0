package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v3"

	"github.com/cyberdeck-app/cyberdeck/internal/backup"
	"github.com/cyberdeck-app/cyberdeck/internal/gig"
	"github.com/cyberdeck-app/cyberdeck/internal/job"
	"github.com/cyberdeck-app/cyberdeck/internal/logging"
)

const (
	fileMode = 0o600
	dirMode  = 0o750
)

// ErrInvalid marks a config that failed validation or migration.
var ErrInvalid = errors.New("invalid config")

// Config represents the cyberdeck configuration.
type Config struct {
	Version     int            `yaml:"version"`
	Storage     StorageConfig  `yaml:"storage"`
	Remote      RemoteConfig   `yaml:"remote"`
	Log         LogConfig      `yaml:"log"`
	Defaults    DefaultsConfig `yaml:"defaults"`
	DueSoonDays int            `yaml:"due_soon_days"`
	Tracker     TrackerConfig  `yaml:"tracker"`
	Backup      BackupConfig   `yaml:"backup,omitempty"`

	// dir is the absolute path to the config directory (not serialized).
	dir string `yaml:"-"`
	// exists reports whether the config was read from disk.
	exists bool `yaml:"-"`
	// envFile remembers file values replaced by ApplyEnv so Save does not
	// persist environment secrets.
	envFile []envOverride `yaml:"-"`
}

type envOverride struct {
	field func(*Config) *string
	file  string
}

// StorageConfig locates the local data files.
type StorageConfig struct {
	DataDir string `yaml:"data_dir,omitempty"`
}

// RemoteConfig holds the hosted database settings. Remote mode is active when
// both the URL and the secret are set.
type RemoteConfig struct {
	DatabaseURL string `yaml:"database_url,omitempty"`
	JWTSecret   string `yaml:"jwt_secret,omitempty"`
	SessionFile string `yaml:"session_file,omitempty"`
	AutoMigrate bool   `yaml:"auto_migrate,omitempty"`
	Timeout     string `yaml:"timeout,omitempty"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty"`
	MaxAgeDays int    `yaml:"max_age_days,omitempty"`
}

// DefaultsConfig holds default values for new gigs and jobs.
type DefaultsConfig struct {
	GigStatus   string `yaml:"gig_status"`
	JobStatus   string `yaml:"job_status"`
	JobPriority string `yaml:"job_priority"`
}

// TrackerConfig configures the time tracker.
type TrackerConfig struct {
	FlushInterval string `yaml:"flush_interval"`
}

// BackupConfig addresses the object storage used by backup push/pull.
type BackupConfig struct {
	Endpoint  string `yaml:"endpoint,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	Bucket    string `yaml:"bucket,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
	Region    string `yaml:"region,omitempty"`
	UseSSL    bool   `yaml:"use_ssl,omitempty"`
}

// NewDefault creates a Config with default values.
func NewDefault() *Config {
	return &Config{
		Version: CurrentVersion,
		Remote: RemoteConfig{
			SessionFile: DefaultSessionFile,
			AutoMigrate: true,
			Timeout:     DefaultRemoteTimeout,
		},
		Log: LogConfig{
			Level:      DefaultLogLevel,
			Format:     DefaultLogFormat,
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogMaxBackups,
			MaxAgeDays: DefaultLogMaxAgeDays,
		},
		Defaults: DefaultsConfig{
			GigStatus:   gig.StatusActive,
			JobStatus:   job.StatusTodo,
			JobPriority: job.PriorityMedium,
		},
		DueSoonDays: DefaultDueSoonDays,
		Tracker:     TrackerConfig{FlushInterval: DefaultFlushInterval},
		Backup:      BackupConfig{Prefix: DefaultBackupPrefix, UseSSL: true},
	}
}

// DefaultDir returns the default config directory, ~/.config/cyberdeck on Linux.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, AppName), nil
}

// Dir returns the absolute path to the config directory.
func (c *Config) Dir() string {
	return c.dir
}

// SetDir sets the config directory path.
func (c *Config) SetDir(dir string) {
	c.dir = dir
}

// Exists reports whether the config was read from a file.
func (c *Config) Exists() bool {
	return c.exists
}

// ConfigPath returns the absolute path to the config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.dir, ConfigFileName)
}

// DataDir returns the configured local data directory with ~ expanded, or
// "" when the platform default should be used.
func (c *Config) DataDir() string {
	return c.expand(c.Storage.DataDir)
}

// SessionPath returns the absolute path of the session token file.
func (c *Config) SessionPath() string {
	p := c.Remote.SessionFile
	if p == "" {
		p = DefaultSessionFile
	}
	return c.expand(p)
}

// RemoteConfigured reports whether remote mode can be used.
func (c *Config) RemoteConfigured() bool {
	return c.Remote.DatabaseURL != "" && c.Remote.JWTSecret != ""
}

// RemoteTimeout returns the per-request remote timeout.
func (c *Config) RemoteTimeout() time.Duration {
	return durationOr(c.Remote.Timeout, DefaultRemoteTimeout)
}

// FlushInterval returns how often a running tracker persists.
func (c *Config) FlushInterval() time.Duration {
	return durationOr(c.Tracker.FlushInterval, DefaultFlushInterval)
}

// BackupConfigured reports whether backup push/pull can be used.
func (c *Config) BackupConfigured() bool {
	return c.Backup.Endpoint != "" && c.Backup.Bucket != ""
}

// BucketConfig returns the object storage settings.
func (c *Config) BucketConfig() backup.BucketConfig {
	return backup.BucketConfig{
		Endpoint:  c.Backup.Endpoint,
		AccessKey: c.Backup.AccessKey,
		SecretKey: c.Backup.SecretKey,
		Bucket:    c.Backup.Bucket,
		Prefix:    c.Backup.Prefix,
		Region:    c.Backup.Region,
		UseSSL:    c.Backup.UseSSL,
	}
}

// LogOptions returns the logger settings.
func (c *Config) LogOptions() logging.Options {
	return logging.Options{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		File:       c.expand(c.Log.File),
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
	}
}

// Validate checks the config for errors.
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("%w: unsupported version %d (expected %d)", ErrInvalid, c.Version, CurrentVersion)
	}
	if c.DueSoonDays < 1 {
		return fmt.Errorf("%w: due_soon_days must be at least 1", ErrInvalid)
	}
	if err := validateDuration("tracker.flush_interval", c.Tracker.FlushInterval, time.Second); err != nil {
		return err
	}
	if err := validateDuration("remote.timeout", c.Remote.Timeout, time.Second); err != nil {
		return err
	}
	if !slices.Contains(LogLevels, c.Log.Level) {
		return fmt.Errorf("%w: log.level %q not in %v", ErrInvalid, c.Log.Level, LogLevels)
	}
	if !slices.Contains(LogFormats, c.Log.Format) {
		return fmt.Errorf("%w: log.format %q not in %v", ErrInvalid, c.Log.Format, LogFormats)
	}
	if !slices.Contains(gig.Statuses, c.Defaults.GigStatus) {
		return fmt.Errorf("%w: default gig status %q not in %v", ErrInvalid, c.Defaults.GigStatus, gig.Statuses)
	}
	if !slices.Contains(job.Statuses, c.Defaults.JobStatus) {
		return fmt.Errorf("%w: default job status %q not in %v", ErrInvalid, c.Defaults.JobStatus, job.Statuses)
	}
	if !slices.Contains(job.Priorities, c.Defaults.JobPriority) {
		return fmt.Errorf("%w: default job priority %q not in %v", ErrInvalid, c.Defaults.JobPriority, job.Priorities)
	}
	if (c.Remote.DatabaseURL == "") != (c.Remote.JWTSecret == "") {
		return fmt.Errorf("%w: remote.database_url and remote.jwt_secret must be set together", ErrInvalid)
	}
	if c.Backup.Endpoint != "" && c.Backup.Bucket == "" {
		return fmt.Errorf("%w: backup.bucket is required when backup.endpoint is set", ErrInvalid)
	}
	return nil
}

func validateDuration(field, value string, minimum time.Duration) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalid, field, err)
	}
	if d < minimum {
		return fmt.Errorf("%w: %s must be at least %s", ErrInvalid, field, minimum)
	}
	return nil
}

// Init writes a default config to dir unless one exists, and returns the
// effective config.
func Init(dir string) (*Config, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	if _, err := os.Stat(filepath.Join(absDir, ConfigFileName)); err == nil {
		return Load(absDir)
	}

	cfg := NewDefault()
	cfg.SetDir(absDir)
	if err := os.MkdirAll(absDir, dirMode); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}
	if err := cfg.Save(); err != nil {
		return nil, fmt.Errorf("writing config: %w", err)
	}
	cfg.exists = true
	return cfg, nil
}

// Save writes the config to its config file.
func (c *Config) Save() error {
	out := *c
	for _, o := range c.envFile {
		*o.field(&out) = o.file
	}
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(c.ConfigPath(), data, fileMode)
}

// Load reads, migrates and validates the config in dir. Keys missing from
// the file keep their defaults; a missing file yields the defaults. Dotenv
// files and environment overrides are applied after the file and before
// validation.
func Load(dir string) (*Config, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg := NewDefault()
	data, err := os.ReadFile(filepath.Join(absDir, ConfigFileName)) //nolint:gosec // config path from trusted source
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
		cfg.exists = true
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg.dir = absDir

	// Migrate old config versions forward before validating.
	oldVersion := cfg.Version
	if err := migrate(cfg); err != nil {
		return nil, err
	}

	// Persist migrated config so future loads skip re-migration.
	if cfg.exists && cfg.Version != oldVersion {
		if err := cfg.Save(); err != nil {
			return nil, fmt.Errorf("saving migrated config: %w", err)
		}
	}

	if err := loadDotenv(absDir); err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides config values from the environment.
func (c *Config) ApplyEnv() {
	override := func(field func(*Config) *string, key string) {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			return
		}
		dst := field(c)
		c.envFile = append(c.envFile, envOverride{field: field, file: *dst})
		*dst = v
	}
	override(func(c *Config) *string { return &c.Remote.DatabaseURL }, EnvDatabaseURL)
	override(func(c *Config) *string { return &c.Remote.JWTSecret }, EnvJWTSecret)
	override(func(c *Config) *string { return &c.Storage.DataDir }, EnvDataDir)
	override(func(c *Config) *string { return &c.Log.Level }, EnvLogLevel)
	override(func(c *Config) *string { return &c.Backup.AccessKey }, EnvBackupAccess)
	override(func(c *Config) *string { return &c.Backup.SecretKey }, EnvBackupSecret)
}

// loadDotenv reads .env from the config dir and the working directory.
// Variables already in the environment win.
func loadDotenv(dir string) error {
	for _, p := range []string{filepath.Join(dir, EnvFileName), EnvFileName} {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// expand resolves ~ and paths relative to the config dir.
func (c *Config) expand(p string) string {
	if p == "" {
		return ""
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(c.dir, p)
	}
	return p
}

func durationOr(value, fallback string) time.Duration {
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(fallback)
	return d
}
