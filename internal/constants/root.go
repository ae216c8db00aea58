package constants

import "time"

// TransactionType identifies the economic event behind a ledger entry
type TransactionType string

// Domain names a persisted document
type Domain string

// Resource is a permission-scoped area of the app
type Resource string

// Action is a permission-scoped verb
type Action string

const (
	AppName            = "coinlit"
	DefaultKeyringUser = "database-connection"
	DefaultConfigDir   = "~/.config/coinlit"
	DefaultConfigPath  = "~/.config/coinlit/coinlit.db"
	Version            = "v0.1.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// InstantFormat is the stored form of completion and transaction timestamps.
	// Always rendered in UTC, so the zone suffix is "Z".
	InstantFormat = "2006-01-02T15:04:05.000Z07:00"

	// MaxCoinLimit is the default upper bound for a single manual adjustment
	MaxCoinLimit = 1000

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "coinlit-"
	BackupFileSuffix = ".db"

	// Transaction types
	TxHabitCompletion  TransactionType = "HABIT_COMPLETION"
	TxHabitUndo        TransactionType = "HABIT_UNDO"
	TxWishRedemption   TransactionType = "WISH_REDEMPTION"
	TxManualAdjustment TransactionType = "MANUAL_ADJUSTMENT"
	TxTaskCompletion   TransactionType = "TASK_COMPLETION"
	TxTaskUndo         TransactionType = "TASK_UNDO"

	// Document domains
	DomainHabits   Domain = "habits"
	DomainCoins    Domain = "coins"
	DomainWishlist Domain = "wishlist"
	DomainSettings Domain = "settings"
	DomainAuth     Domain = "auth"

	// Permission resources and actions
	ResourceHabit    Resource = "habit"
	ResourceWishlist Resource = "wishlist"
	ResourceCoins    Resource = "coins"

	ActionWrite    Action = "write"
	ActionInteract Action = "interact"
)

// Domains lists every persisted document in load order.
var Domains = []Domain{DomainSettings, DomainAuth, DomainHabits, DomainCoins, DomainWishlist}

// DefaultRuleAnchor is the DTSTART used for recurrence rules that omit one.
// It is a Monday so that bare FREQ=WEEKLY rules land on Mondays.
var DefaultRuleAnchor = time.Date(2000, time.January, 3, 0, 0, 0, 0, time.UTC)
