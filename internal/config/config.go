// Package config holds engine configuration. Values come from defaults,
// then an optional YAML file, then environment variables, in that order
// of increasing precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all engine settings
type Config struct {
	// DBPath is the SQLite database file path
	// Default: ".dayfold/dayfold.db"
	DBPath string `yaml:"db_path"`

	// TimeZone is the IANA zone the clock resolves "today" in. Every
	// temporal decision (materialization, closing, streaks) uses this
	// single zone.
	// Default: "Local"
	TimeZone string `yaml:"time_zone"`

	// Owner is the default owner identity for CLI operations
	// Default: $USER
	Owner string `yaml:"owner"`

	// EventRetentionDays is how long domain events are kept in the
	// audit feed. Events newer than this are never deleted, which
	// bounds how far back derived state can be replayed.
	// Default: 365, Range: 30-3650
	EventRetentionDays int `yaml:"event_retention_days"`

	// EventCleanupBatchSize is the number of events deleted per
	// transaction during retention cleanup
	// Default: 500, Range: 50-5000
	EventCleanupBatchSize int `yaml:"event_cleanup_batch_size"`

	// GoalEvalConcurrency bounds how many goals are snapshotted in
	// parallel when a day closes
	// Default: 4, Range: 1-32
	GoalEvalConcurrency int `yaml:"goal_eval_concurrency"`

	// NudgesPerHour caps nudge creation per owner
	// Default: 4, Range: 1-60
	NudgesPerHour int `yaml:"nudges_per_hour"`
}

// Default returns the default configuration
func Default() Config {
	owner := os.Getenv("USER")
	if owner == "" {
		owner = "default"
	}
	return Config{
		DBPath:                ".dayfold/dayfold.db",
		TimeZone:              "Local",
		Owner:                 owner,
		EventRetentionDays:    365,
		EventCleanupBatchSize: 500,
		GoalEvalConcurrency:   4,
		NudgesPerHour:         4,
	}
}

// Validate checks if the configuration has valid values
func (c Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path cannot be empty")
	}
	if c.Owner == "" {
		return fmt.Errorf("owner cannot be empty")
	}
	if c.TimeZone != "Local" {
		if _, err := time.LoadLocation(c.TimeZone); err != nil {
			return fmt.Errorf("invalid time_zone %q: %w", c.TimeZone, err)
		}
	}
	if c.EventRetentionDays < 30 || c.EventRetentionDays > 3650 {
		return fmt.Errorf("event_retention_days must be between 30 and 3650 (got %d)",
			c.EventRetentionDays)
	}
	if c.EventCleanupBatchSize < 50 || c.EventCleanupBatchSize > 5000 {
		return fmt.Errorf("event_cleanup_batch_size must be between 50 and 5000 (got %d)",
			c.EventCleanupBatchSize)
	}
	if c.GoalEvalConcurrency < 1 || c.GoalEvalConcurrency > 32 {
		return fmt.Errorf("goal_eval_concurrency must be between 1 and 32 (got %d)",
			c.GoalEvalConcurrency)
	}
	if c.NudgesPerHour < 1 || c.NudgesPerHour > 60 {
		return fmt.Errorf("nudges_per_hour must be between 1 and 60 (got %d)", c.NudgesPerHour)
	}
	return nil
}

// String returns a human-readable representation of the config
func (c Config) String() string {
	return fmt.Sprintf(
		"Config{DBPath: %s, TimeZone: %s, Owner: %s, RetentionDays: %d, "+
			"CleanupBatch: %d, GoalEvalConcurrency: %d, NudgesPerHour: %d}",
		c.DBPath, c.TimeZone, c.Owner, c.EventRetentionDays,
		c.EventCleanupBatchSize, c.GoalEvalConcurrency, c.NudgesPerHour,
	)
}

// FromEnv creates a Config from the optional config file and environment
// variables, falling back to defaults.
//
// Environment variables:
//   - DAYFOLD_DB_PATH: SQLite database path (default: .dayfold/dayfold.db)
//   - DAYFOLD_TIME_ZONE: IANA zone for "today" (default: Local)
//   - DAYFOLD_OWNER: default owner identity (default: $USER)
//   - DAYFOLD_EVENT_RETENTION_DAYS: audit feed retention (default: 365)
//   - DAYFOLD_EVENT_CLEANUP_BATCH_SIZE: deletes per transaction (default: 500)
//   - DAYFOLD_GOAL_EVAL_CONCURRENCY: parallel goal snapshots (default: 4)
//   - DAYFOLD_NUDGES_PER_HOUR: per-owner nudge cap (default: 4)
//
// Returns an error if any value is invalid.
func FromEnv() (Config, error) {
	cfg := Default()

	if err := mergeFile(&cfg, DefaultFilePath()); err != nil {
		return cfg, err
	}

	if err := parseEnvString("DAYFOLD_DB_PATH", &cfg.DBPath); err != nil {
		return cfg, err
	}
	if err := parseEnvString("DAYFOLD_TIME_ZONE", &cfg.TimeZone); err != nil {
		return cfg, err
	}
	if err := parseEnvString("DAYFOLD_OWNER", &cfg.Owner); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("DAYFOLD_EVENT_RETENTION_DAYS", &cfg.EventRetentionDays); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("DAYFOLD_EVENT_CLEANUP_BATCH_SIZE", &cfg.EventCleanupBatchSize); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("DAYFOLD_GOAL_EVAL_CONCURRENCY", &cfg.GoalEvalConcurrency); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("DAYFOLD_NUDGES_PER_HOUR", &cfg.NudgesPerHour); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Location resolves the configured time zone
func (c Config) Location() (*time.Location, error) {
	if c.TimeZone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.TimeZone)
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvString reads a string from an environment variable
func parseEnvString(key string, dest *string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	*dest = value
	return nil
}
