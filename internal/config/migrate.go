package config

import "fmt"

// migrate upgrades a config from its current version to CurrentVersion.
// Each migration function transforms the config one version forward.
// Returns an error if the config version is newer than what this binary supports.
func migrate(cfg *Config) error {
	if cfg.Version == CurrentVersion {
		return nil
	}
	if cfg.Version > CurrentVersion {
		return fmt.Errorf(
			"%w: config version %d is newer than supported version %d (upgrade cyberdeck)",
			ErrInvalid, cfg.Version, CurrentVersion,
		)
	}
	if cfg.Version < 1 {
		return fmt.Errorf("%w: config version %d is invalid", ErrInvalid, cfg.Version)
	}

	for cfg.Version < CurrentVersion {
		fn, ok := migrations[cfg.Version]
		if !ok {
			return fmt.Errorf("%w: no migration path from version %d", ErrInvalid, cfg.Version)
		}
		if err := fn(cfg); err != nil {
			return fmt.Errorf("migrating config from v%d: %w", cfg.Version, err)
		}
	}
	return nil
}

// migrations maps each version to the function that migrates it to the next version.
// The migration function must increment cfg.Version after a successful migration.
var migrations = map[int]func(*Config) error{
	1: migrateV1ToV2,
	2: migrateV2ToV3,
}

// migrateV1ToV2 adds due_soon_days and tracker.flush_interval.
func migrateV1ToV2(cfg *Config) error { //nolint:unparam // signature must match migrations map type
	if cfg.DueSoonDays == 0 {
		cfg.DueSoonDays = DefaultDueSoonDays
	}
	if cfg.Tracker.FlushInterval == "" {
		cfg.Tracker.FlushInterval = DefaultFlushInterval
	}
	cfg.Version = 2
	return nil
}

// migrateV2ToV3 adds log rotation limits, the remote timeout and the backup
// key prefix. v2 configs had no defaults section either.
func migrateV2ToV3(cfg *Config) error { //nolint:unparam // signature must match migrations map type
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = DefaultLogMaxBackups
	}
	if cfg.Log.MaxAgeDays == 0 {
		cfg.Log.MaxAgeDays = DefaultLogMaxAgeDays
	}
	if cfg.Remote.Timeout == "" {
		cfg.Remote.Timeout = DefaultRemoteTimeout
	}
	if cfg.Remote.SessionFile == "" {
		cfg.Remote.SessionFile = DefaultSessionFile
	}
	if cfg.Backup.Prefix == "" {
		cfg.Backup.Prefix = DefaultBackupPrefix
	}
	defaults := NewDefault().Defaults
	if cfg.Defaults.GigStatus == "" {
		cfg.Defaults.GigStatus = defaults.GigStatus
	}
	if cfg.Defaults.JobStatus == "" {
		cfg.Defaults.JobStatus = defaults.JobStatus
	}
	if cfg.Defaults.JobPriority == "" {
		cfg.Defaults.JobPriority = defaults.JobPriority
	}
	cfg.Version = 3
	return nil
}
