package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	BoardSize      int
	PawnsPerPlayer int
	WinLength      int

	SessionTTL    time.Duration
	SweepInterval time.Duration
	MatchInterval time.Duration
	StatsInterval time.Duration

	RedisURL    string
	DatabaseURL string

	HistoryLimit int
	AIMoveDelay  time.Duration

	LogLevel       string
	LogFormat      string
	LogFile        string
	MsgOverrideDir string
}

// Load reads the environment over built-in defaults. Values that fail to
// parse keep the default; nothing here is required, so Load cannot fail.
func Load() *AppConfig {
	cfg := &AppConfig{
		BoardSize:      8,
		PawnsPerPlayer: 6,
		WinLength:      4,

		SessionTTL:    24 * time.Hour,
		SweepInterval: 30 * time.Minute,
		MatchInterval: 5 * time.Second,
		StatsInterval: 5 * time.Minute,

		HistoryLimit: 10,

		LogLevel:  "info",
		LogFormat: "json",
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.LogFile = strings.TrimSpace(os.Getenv("LOG_FILE"))
	cfg.MsgOverrideDir = strings.TrimSpace(os.Getenv("MSG_OVERRIDE_DIR"))

	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT"))); v == "json" || v == "console" {
		cfg.LogFormat = v
	}

	cfg.BoardSize = envInt("BOARD_SIZE", cfg.BoardSize)
	cfg.PawnsPerPlayer = envInt("PAWNS_PER_PLAYER", cfg.PawnsPerPlayer)
	cfg.WinLength = envInt("WIN_LENGTH", cfg.WinLength)
	cfg.HistoryLimit = envInt("HISTORY_LIMIT", cfg.HistoryLimit)

	cfg.SessionTTL = envDuration("SESSION_TTL", cfg.SessionTTL)
	cfg.SweepInterval = envDuration("SWEEP_INTERVAL", cfg.SweepInterval)
	cfg.MatchInterval = envDuration("MATCH_INTERVAL", cfg.MatchInterval)
	cfg.StatsInterval = envDuration("STATS_INTERVAL", cfg.StatsInterval)
	cfg.AIMoveDelay = envDuration("AI_MOVE_DELAY", cfg.AIMoveDelay)

	return cfg
}

func envInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			return d
		}
	}
	return def
}
