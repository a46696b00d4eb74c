package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"battle-tracker/internal/constants"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	StatsPath        string
	SettingsPath     string
	DBPath           string
	ServerPort       string
	LogLevel         string
	DebounceDelay    time.Duration
	ReadRetries      int
	ReadRetryDelay   time.Duration
	JournalRetention int
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	base, err := os.UserCacheDir()
	if err != nil {
		logger.Warn().Err(err).Msg("user cache dir unavailable, falling back to working directory")
		base = "."
	}

	cfg := &Config{
		StatsPath:        getEnv("STATS_PATH", DefaultStatsPath(base)),
		SettingsPath:     getEnv("SETTINGS_PATH", filepath.Join(base, "BattleTrackerOverlay", "overlay-settings.json")),
		DBPath:           getEnv("DB_PATH", filepath.Join(base, "BattleTrackerOverlay", "overlay-journal.db")),
		ServerPort:       getEnv("SERVER_PORT", "8765"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DebounceDelay:    getDuration("DEBOUNCE_DELAY", constants.DefaultDebounceDelay),
		ReadRetries:      getInt("READ_RETRIES", constants.DefaultReadRetries),
		ReadRetryDelay:   getDuration("READ_RETRY_DELAY", constants.DefaultReadRetryDelay),
		JournalRetention: getInt("JOURNAL_RETENTION", constants.JournalRetention),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info().
		Str("stats_path", cfg.StatsPath).
		Str("settings_path", cfg.SettingsPath).
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Dur("debounce", cfg.DebounceDelay).
		Int("read_retries", cfg.ReadRetries).
		Dur("read_retry_delay", cfg.ReadRetryDelay).
		Msg("configuration loaded")

	return cfg, nil
}

// DefaultStatsPath is where the BattleTracker script extender mod writes its live view.
func DefaultStatsPath(base string) string {
	return filepath.Join(base, "Larian Studios", "Baldur's Gate 3", "Script Extender", "BattleTracker", "views", "current.json")
}

func (c *Config) Validate() error {
	if c.StatsPath == "" {
		return fmt.Errorf("STATS_PATH is required")
	}
	if c.ReadRetries < 1 {
		return fmt.Errorf("READ_RETRIES must be at least 1, got %d", c.ReadRetries)
	}
	if c.ReadRetryDelay <= 0 {
		return fmt.Errorf("READ_RETRY_DELAY must be positive, got %s", c.ReadRetryDelay)
	}
	if c.DebounceDelay <= 0 {
		return fmt.Errorf("DEBOUNCE_DELAY must be positive, got %s", c.DebounceDelay)
	}
	if c.JournalRetention < 0 {
		return fmt.Errorf("JOURNAL_RETENTION must not be negative, got %d", c.JournalRetention)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

var Module = fx.Provide(Load)
