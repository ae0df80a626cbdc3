package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// Config captures environment driven configuration values for the occupancy tools.
type Config struct {
	CalendarFile     string
	LogLevel         slog.Level
	SearchHorizon    time.Duration
	Location         *time.Location
	FetchConcurrency int
}

// Option adjusts the configuration before the environment is read. Values
// supplied through options count as set for required keys.
type Option func(*Config)

// WithCalendarFile supplies the calendar document path, typically from a
// command line flag. Blank paths are ignored.
func WithCalendarFile(path string) Option {
	return func(cfg *Config) {
		if path = strings.TrimSpace(path); path != "" {
			cfg.CalendarFile = path
		}
	}
}

// Load parses configuration values from the current process environment.
//
// The loader applies defaults for optional fields while validating required
// values and reporting localized error messages for missing entries. Options
// take precedence over the environment.
func Load(opts ...Option) (Config, error) {
	cfg := Config{
		LogLevel:         slog.LevelInfo,
		SearchHorizon:    366 * 24 * time.Hour,
		FetchConcurrency: 4,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 4)

	if path := strings.TrimSpace(os.Getenv("OCCUPANCY_CALENDAR_FILE")); path != "" {
		cfg.CalendarFile = path
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.CalendarFile == "" {
		missing = append(missing, "OCCUPANCY_CALENDAR_FILE")
	}

	if levelValue := strings.TrimSpace(os.Getenv("OCCUPANCY_LOG_LEVEL")); levelValue != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(levelValue)); err != nil {
			invalid = append(invalid, "OCCUPANCY_LOG_LEVEL")
		} else {
			cfg.LogLevel = level
		}
	}

	if horizonValue := strings.TrimSpace(os.Getenv("OCCUPANCY_SEARCH_HORIZON")); horizonValue != "" {
		horizon, err := time.ParseDuration(horizonValue)
		if err != nil || horizon < 0 {
			invalid = append(invalid, "OCCUPANCY_SEARCH_HORIZON")
		} else {
			cfg.SearchHorizon = horizon
		}
	}

	zone := "Asia/Tokyo"
	if zoneValue := strings.TrimSpace(os.Getenv("OCCUPANCY_TIMEZONE")); zoneValue != "" {
		zone = zoneValue
	}
	if loc, err := time.LoadLocation(zone); err != nil {
		invalid = append(invalid, "OCCUPANCY_TIMEZONE")
	} else {
		cfg.Location = loc
	}

	if concurrencyValue := strings.TrimSpace(os.Getenv("OCCUPANCY_FETCH_CONCURRENCY")); concurrencyValue != "" {
		n, err := strconv.Atoi(concurrencyValue)
		if err != nil || n <= 0 {
			invalid = append(invalid, "OCCUPANCY_FETCH_CONCURRENCY")
		} else {
			cfg.FetchConcurrency = n
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("必須の環境変数が設定されていません: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("環境変数の値が不正です: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
