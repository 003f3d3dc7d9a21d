package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
)

// QuotaConfig holds the free-tier usage quota parameters.
type QuotaConfig struct {
	// Limit is the number of turns a free identity may consume per window.
	Limit int `json:"limit"`
	// Mode is the reset cadence: "lifetime", "daily" or "weekly".
	Mode string `json:"mode"`
}

// SelectorConfig holds candidate-selection tunables.
type SelectorConfig struct {
	// TopN is how many store candidates are fetched and scored per slot.
	TopN int `json:"top_n"`
	// TieEpsilon is the score distance within which top candidates are
	// treated as tied and sampled uniformly.
	TieEpsilon float64 `json:"tie_epsilon"`
}

// RepairConfig holds repair-chain tunables.
type RepairConfig struct {
	// GeneratorRetries bounds external-generation attempts before the
	// chain falls through to the safe fallback bank.
	GeneratorRetries int `json:"generator_retries"`
}

// Config holds all configurable engine and server parameters.
type Config struct {
	HTTPPort    int    `json:"http_port"`
	DatabaseURL string `json:"database_url"`

	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password"`

	// AuthBaseURL is the auth provider base URL used to fetch JWKS.
	AuthBaseURL string `json:"auth_base_url"`

	// TargetLength is the nominal session length in turns; the pacing
	// curve and the effective-step wrap both derive from it.
	TargetLength int `json:"target_length"`

	// QueueTargetSize is the per-session look-ahead buffer size.
	QueueTargetSize int `json:"queue_target_size"`

	// AvoidMaybeUntil is the step before which uncertain-consent items
	// are rejected outright.
	AvoidMaybeUntil int `json:"avoid_maybe_until"`

	// PlayerHistoryWindow is how many of a player's most recent plays
	// are excluded from re-selection.
	PlayerHistoryWindow int `json:"player_history_window"`

	MaxNameLength int `json:"max_name_length"`

	Quota    QuotaConfig    `json:"quota"`
	Selector SelectorConfig `json:"selector"`
	Repair   RepairConfig   `json:"repair"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		HTTPPort:            8080,
		TargetLength:        25,
		QueueTargetSize:     3,
		AvoidMaybeUntil:     6,
		PlayerHistoryWindow: 100,
		MaxNameLength:       24,
		Quota:               QuotaConfig{Limit: 10, Mode: "weekly"},
		Selector:            SelectorConfig{TopN: 75, TieEpsilon: 0.01},
		Repair:              RepairConfig{GeneratorRetries: 3},
	}
}

// Load reads configuration from an optional config.json file,
// then applies environment variable overrides. Fields not set
// in either source retain their default values.
func Load() *Config {
	cfg := Defaults()

	// Try to load from config.json
	if f, err := os.Open("config.json"); err == nil {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			log.Printf("Warning: failed to parse config.json: %v", err)
		}
	}

	// Environment variable overrides
	overrideInt(&cfg.HTTPPort, "HTTP_PORT")
	overrideString(&cfg.DatabaseURL, "DATABASE_URL")
	overrideString(&cfg.RedisAddr, "REDIS_ADDR")
	overrideString(&cfg.RedisPassword, "REDIS_PASSWORD")
	overrideString(&cfg.AuthBaseURL, "AUTH_BASE_URL")
	overrideInt(&cfg.TargetLength, "TARGET_LENGTH")
	overrideInt(&cfg.QueueTargetSize, "QUEUE_TARGET_SIZE")
	overrideInt(&cfg.AvoidMaybeUntil, "AVOID_MAYBE_UNTIL")
	overrideInt(&cfg.PlayerHistoryWindow, "PLAYER_HISTORY_WINDOW")
	overrideInt(&cfg.MaxNameLength, "MAX_NAME_LENGTH")
	overrideInt(&cfg.Quota.Limit, "FREE_TIER_ACTIVITY_LIMIT")
	overrideString(&cfg.Quota.Mode, "FREE_TIER_LIMIT_MODE")
	overrideInt(&cfg.Selector.TopN, "SELECTOR_TOP_N")
	overrideFloat(&cfg.Selector.TieEpsilon, "SELECTOR_TIE_EPSILON")
	overrideInt(&cfg.Repair.GeneratorRetries, "REPAIR_GENERATOR_RETRIES")

	return cfg
}

func overrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*field = n
		} else {
			log.Printf("Warning: invalid value for %s: %q", envKey, val)
		}
	}
}

func overrideFloat(field *float64, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*field = f
		} else {
			log.Printf("Warning: invalid value for %s: %q", envKey, val)
		}
	}
}

func overrideString(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}
