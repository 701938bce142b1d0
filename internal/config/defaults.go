// Package config handles cyberdeck configuration.
package config

const (
	// AppName names the config directory and environment prefix.
	AppName = "cyberdeck"

	// ConfigFileName is the name of the config file within the config directory.
	ConfigFileName = "config.yml"

	// EnvFileName is the optional dotenv file loaded before env overrides.
	EnvFileName = ".env"

	// CurrentVersion is the current config schema version.
	CurrentVersion = 3

	// DefaultDueSoonDays is the look-ahead window for upcoming deadlines.
	DefaultDueSoonDays = 3
	// DefaultFlushInterval is how often a running tracker persists.
	DefaultFlushInterval = "10s"
	// DefaultRemoteTimeout bounds each remote database round trip.
	DefaultRemoteTimeout = "15s"
	// DefaultSessionFile holds the signed-in session token, relative to the config dir.
	DefaultSessionFile = "session"
	// DefaultBackupPrefix is the object key prefix for pushed backups.
	DefaultBackupPrefix = "backups"

	// DefaultLogLevel and friends configure logging.
	DefaultLogLevel      = "warn"
	DefaultLogFormat     = "text"
	DefaultLogMaxSizeMB  = 10
	DefaultLogMaxBackups = 3
	DefaultLogMaxAgeDays = 28
)

// Environment variables read after the config file.
const (
	EnvDatabaseURL  = "CYBERDECK_DATABASE_URL"
	EnvJWTSecret    = "CYBERDECK_JWT_SECRET"
	EnvDataDir      = "CYBERDECK_DATA_DIR"
	EnvLogLevel     = "CYBERDECK_LOG_LEVEL"
	EnvBackupAccess = "CYBERDECK_BACKUP_ACCESS_KEY"
	EnvBackupSecret = "CYBERDECK_BACKUP_SECRET_KEY"
	// EnvSessionToken takes precedence over remote.session_file.
	EnvSessionToken = "CYBERDECK_SESSION_TOKEN"
)

// LogLevels and LogFormats list the accepted log settings.
var (
	LogLevels  = []string{"debug", "info", "warn", "error"}
	LogFormats = []string{"text", "json", "logfmt"}
)
