package cmd

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cyberdeck-app/cyberdeck/internal/clierr"
	"github.com/cyberdeck-app/cyberdeck/internal/config"
	"github.com/cyberdeck-app/cyberdeck/internal/gig"
	"github.com/cyberdeck-app/cyberdeck/internal/job"
	"github.com/cyberdeck-app/cyberdeck/internal/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify configuration",
	Long: `View the effective configuration, get a specific key, or set a writable value.
Secrets are never printed; their keys show whether a value is set.`,
	RunE: runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2), //nolint:mnd // key and value
	RunE:  runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configGetCmd, configSetCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// configAccessor describes how to get and set a config key.
type configAccessor struct {
	get      func(*config.Config) any
	set      func(*config.Config, string) error
	writable bool
}

func stringKey(field func(*config.Config) *string) configAccessor {
	return configAccessor{
		get:      func(c *config.Config) any { return *field(c) },
		set:      func(c *config.Config, v string) error { *field(c) = v; return nil },
		writable: true,
	}
}

// secretKey reports only whether the value is set.
func secretKey(field func(*config.Config) *string) configAccessor {
	return configAccessor{
		get:      func(c *config.Config) any { return *field(c) != "" },
		set:      func(c *config.Config, v string) error { *field(c) = v; return nil },
		writable: true,
	}
}

func enumKey(name string, allowed []string, field func(*config.Config) *string) configAccessor {
	return configAccessor{
		get: func(c *config.Config) any { return *field(c) },
		set: func(c *config.Config, v string) error {
			if !slices.Contains(allowed, v) {
				return clierr.Newf(clierr.InvalidInput,
					"invalid %s %q; allowed: %s", name, v, strings.Join(allowed, ", "))
			}
			*field(c) = v
			return nil
		},
		writable: true,
	}
}

func durationKey(name string, field func(*config.Config) *string) configAccessor {
	return configAccessor{
		get: func(c *config.Config) any { return *field(c) },
		set: func(c *config.Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return clierr.Newf(clierr.InvalidInput, "invalid %s %q: %v", name, v, err)
			}
			*field(c) = v
			return nil // validation handles the minimum
		},
		writable: true,
	}
}

func intKey(name string, field func(*config.Config) *int) configAccessor {
	return configAccessor{
		get: func(c *config.Config) any { return *field(c) },
		set: func(c *config.Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return clierr.Newf(clierr.InvalidInput, "invalid %s %q: must be an integer", name, v)
			}
			*field(c) = n
			return nil
		},
		writable: true,
	}
}

func boolKey(name string, field func(*config.Config) *bool) configAccessor {
	return configAccessor{
		get: func(c *config.Config) any { return *field(c) },
		set: func(c *config.Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return clierr.Newf(clierr.InvalidInput, "invalid %s %q: must be true or false", name, v)
			}
			*field(c) = b
			return nil
		},
		writable: true,
	}
}

func configAccessors() map[string]configAccessor {
	return map[string]configAccessor{
		"version": {
			get: func(c *config.Config) any { return c.Version },
		},
		"mode": {
			get: func(c *config.Config) any {
				if c.RemoteConfigured() {
					return "remote"
				}
				return "local"
			},
		},
		"due_soon_days": intKey("due_soon_days", func(c *config.Config) *int { return &c.DueSoonDays }),
		"tracker.flush_interval": durationKey("tracker.flush_interval",
			func(c *config.Config) *string { return &c.Tracker.FlushInterval }),
		"defaults.gig_status": enumKey("default gig status", gig.Statuses,
			func(c *config.Config) *string { return &c.Defaults.GigStatus }),
		"defaults.job_status": enumKey("default job status", job.Statuses,
			func(c *config.Config) *string { return &c.Defaults.JobStatus }),
		"defaults.job_priority": enumKey("default job priority", job.Priorities,
			func(c *config.Config) *string { return &c.Defaults.JobPriority }),
		"storage.data_dir": stringKey(func(c *config.Config) *string { return &c.Storage.DataDir }),
		"log.level": enumKey("log.level", config.LogLevels,
			func(c *config.Config) *string { return &c.Log.Level }),
		"log.format": enumKey("log.format", config.LogFormats,
			func(c *config.Config) *string { return &c.Log.Format }),
		"log.file":            stringKey(func(c *config.Config) *string { return &c.Log.File }),
		"remote.database_url": secretKey(func(c *config.Config) *string { return &c.Remote.DatabaseURL }),
		"remote.jwt_secret":   secretKey(func(c *config.Config) *string { return &c.Remote.JWTSecret }),
		"remote.session_file": stringKey(func(c *config.Config) *string { return &c.Remote.SessionFile }),
		"remote.auto_migrate": boolKey("remote.auto_migrate", func(c *config.Config) *bool { return &c.Remote.AutoMigrate }),
		"remote.timeout":      durationKey("remote.timeout", func(c *config.Config) *string { return &c.Remote.Timeout }),
		"backup.endpoint":     stringKey(func(c *config.Config) *string { return &c.Backup.Endpoint }),
		"backup.bucket":       stringKey(func(c *config.Config) *string { return &c.Backup.Bucket }),
		"backup.prefix":       stringKey(func(c *config.Config) *string { return &c.Backup.Prefix }),
		"backup.region":       stringKey(func(c *config.Config) *string { return &c.Backup.Region }),
		"backup.use_ssl":      boolKey("backup.use_ssl", func(c *config.Config) *bool { return &c.Backup.UseSSL }),
		"backup.access_key":   secretKey(func(c *config.Config) *string { return &c.Backup.AccessKey }),
		"backup.secret_key":   secretKey(func(c *config.Config) *string { return &c.Backup.SecretKey }),
	}
}

// allConfigKeys returns config keys in display order.
func allConfigKeys() []string {
	return []string{
		"version",
		"mode",
		"due_soon_days",
		"tracker.flush_interval",
		"defaults.gig_status",
		"defaults.job_status",
		"defaults.job_priority",
		"storage.data_dir",
		"log.level",
		"log.format",
		"log.file",
		"remote.database_url",
		"remote.jwt_secret",
		"remote.session_file",
		"remote.auto_migrate",
		"remote.timeout",
		"backup.endpoint",
		"backup.bucket",
		"backup.prefix",
		"backup.region",
		"backup.use_ssl",
		"backup.access_key",
		"backup.secret_key",
	}
}

func isSecretKey(key string) bool {
	switch key {
	case "remote.database_url", "remote.jwt_secret", "backup.access_key", "backup.secret_key":
		return true
	}
	return false
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	accessors := configAccessors()

	if outputFormat() == output.FormatJSON {
		m := make(map[string]any, len(accessors))
		for _, key := range allConfigKeys() {
			m[key] = accessors[key].get(cfg)
		}
		return output.JSON(os.Stdout, m)
	}

	for _, key := range allConfigKeys() {
		fmt.Fprintf(os.Stdout, "%-24s %s\n", key, formatConfigValue(key, accessors[key].get(cfg)))
	}
	return nil
}

func runConfigGet(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	key := args[0]
	acc, ok := configAccessors()[key]
	if !ok {
		return clierr.Newf(clierr.InvalidInput, "unknown config key %q", key)
	}

	val := acc.get(cfg)
	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, val)
	}
	fmt.Fprintln(os.Stdout, formatConfigValue(key, val))
	return nil
}

func runConfigSet(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	key, value := args[0], args[1]
	acc, ok := configAccessors()[key]
	if !ok {
		return clierr.Newf(clierr.InvalidInput, "unknown config key %q", key)
	}
	if !acc.writable {
		return clierr.Newf(clierr.InvalidInput, "config key %q is read-only", key)
	}

	if err := acc.set(cfg, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return clierr.New(clierr.InvalidInput, err.Error())
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{"key": key, "value": acc.get(cfg)})
	}
	output.Messagef(os.Stdout, "Set %s = %s", key, formatConfigValue(key, acc.get(cfg)))
	return nil
}

func runConfigPath(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{"path": cfg.ConfigPath(), "exists": cfg.Exists()})
	}
	fmt.Fprintln(os.Stdout, cfg.ConfigPath())
	return nil
}

func formatConfigValue(key string, val any) string {
	if isSecretKey(key) {
		if set, _ := val.(bool); set {
			return "(set)"
		}
		return "--"
	}
	if s, ok := val.(string); ok && s == "" {
		return "--"
	}
	return fmt.Sprintf("%v", val)
}
