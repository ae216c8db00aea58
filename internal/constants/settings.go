package constants

import "time"

const (
	// Config keys
	ConfigStorage      = "storage"
	ConfigMaxCoinLimit = "max_coin_limit"
	ConfigDebug        = "debug"
	ConfigUser         = "user"
	ConfigDir          = "config_dir"

	EnvPrefix      = "COINLIT"
	ConfigFileName = "coinlit"

	// Default Settings Values
	DefaultTimezone          = "UTC"
	DefaultWeekStartDay      = time.Monday
	DefaultAutoBackup        = true
	DefaultLanguage          = "en"
	DefaultNumberFormatting  = true
	DefaultNumberGrouping    = true
	DefaultAdminUsername     = "admin"
	DefaultTargetCompletions = 1
)
