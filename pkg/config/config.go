package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultMessageLimit  = 30
	defaultTimeout       = 30 * time.Second
	defaultWatchSchedule = "@every 5m"
)

// Config holds the environment configuration of one invocation
type Config struct {
	APIURL        string
	APIKey        string
	AgentID       string
	StateDir      string
	WatchSchedule string
	MessageLimit  int
	Timeout       time.Duration
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() *Config {
	// optional; a missing .env is the normal case
	_ = godotenv.Load()

	cfg := &Config{
		APIURL:        os.Getenv("SUBCONSCIOUS_API_URL"),
		APIKey:        os.Getenv("SUBCONSCIOUS_API_KEY"),
		AgentID:       os.Getenv("SUBCONSCIOUS_AGENT_ID"),
		StateDir:      os.Getenv("SUBCONSCIOUS_STATE_DIR"),
		WatchSchedule: os.Getenv("SUBCONSCIOUS_WATCH_SCHEDULE"),
		MessageLimit:  defaultMessageLimit,
		Timeout:       defaultTimeout,
	}

	if cfg.StateDir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.StateDir = home + "/.claude-subconscious"
		} else {
			cfg.StateDir = ".claude-subconscious"
		}
	}
	if cfg.WatchSchedule == "" {
		cfg.WatchSchedule = defaultWatchSchedule
	}
	if v := os.Getenv("SUBCONSCIOUS_MESSAGE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MessageLimit = n
		}
	}
	// the feed contract allows a bounded window only
	if cfg.MessageLimit < 20 {
		cfg.MessageLimit = 20
	}
	if cfg.MessageLimit > 50 {
		cfg.MessageLimit = 50
	}
	if v := os.Getenv("SUBCONSCIOUS_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		}
	}

	return cfg
}

// Enabled reports whether enough configuration exists to sync at all.
// When false the caller skips silently, this is not an error condition.
func (c *Config) Enabled() bool {
	return c.APIURL != "" && c.AgentID != ""
}
