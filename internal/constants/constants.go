package constants

import "time"

const (
	DefaultDebounceDelay  = 150 * time.Millisecond
	UpdatedAgoInterval    = 1 * time.Second
	DefaultReadRetries    = 5
	DefaultReadRetryDelay = 60 * time.Millisecond
)

const (
	MaxRosterSlots   = 4
	FriendlyIDLength = 12
	IntegerTolerance = 0.0005
	RankingMetric    = "DamageDealt"
	UnusedSlotName   = "(unused slot)"
	MultiplayerTag   = "S_Player_"
)

const (
	DefaultOverlayOpacity = 0.9
	MinOverlayOpacity     = 0.2
	MaxOverlayOpacity     = 1.0
	DefaultCompactColumns = 2
	DefaultFontSize       = 12.0
	MinFontSize           = 8.0
	MaxFontSize           = 32.0
	DefaultCustom1Name    = "Custom 1"
	DefaultCustom2Name    = "Custom 2"
)

const (
	WaitingForData = "Waiting for data…"
)

const (
	DBMaxOpenConns    = 4
	DBMaxIdleConns    = 2
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
	JournalRetention  = 500
	JournalListLimit  = 50
	JournalMaxLimit   = 500
)

const (
	DatabaseTimeout = 5 * time.Second
	RequestTimeout  = 10 * time.Second
	ShutdownTimeout = 5 * time.Second
)
