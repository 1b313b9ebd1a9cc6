package constants

import "time"

const (
	AppName            = "routinely"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/routinely/routinely.db"
	Version            = "v0.1.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	MinutesPerDay = 24 * 60

	// Environment variables
	EnvConnectionString = "ROUTINELY_DB_CONNECTION"

	// Context aggregation
	ContextCacheTTL        = 5 * time.Minute
	ProviderTimeout        = 5 * time.Second
	ContextCacheKeyPrefix  = "routinely:ctx"
	DefaultHistoryDays     = 14
	DefaultAnalyticsWindow = 30

	// MaxBackups is how many database snapshots rotation keeps
	MaxBackups = 14
)
