package constants

const (
	AppName            = "daybook"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/daybook/daybook.db"
	Version            = "v0.3.0"

	// DateFormat is the standard calendar-date format used throughout the
	// application (YYYY-MM-DD). Date strings in this format sort
	// chronologically, which the storage layer relies on.
	DateFormat = "2006-01-02"

	// DefaultUser is the user id commands operate as when none is given.
	DefaultUser = "me"

	// PerfectDayBaseline is the fixed number of completed tasks that counts
	// as a perfect day for rankings.
	PerfectDayBaseline = 9

	// RolloverLookback bounds the "most recent prior entry" search during
	// passive rollover: only this many of the newest entries (by last-write
	// timestamp) are considered as carryover sources.
	RolloverLookback = 10

	// LeaderboardWindowDays is the span of the trailing leaderboard window,
	// inclusive of the requested day.
	LeaderboardWindowDays = 7

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "daybook-"
	BackupFileSuffix = ".db"

	// ConnectionEnvVar names the environment variable holding a PostgreSQL
	// connection string, consulted when the OS keyring has none stored.
	ConnectionEnvVar = "DAYBOOK_DB_CONNECTION"
)
