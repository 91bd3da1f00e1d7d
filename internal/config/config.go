package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// DBPath is the SQLite database file location.
	DBPath string `yaml:"db_path" json:"db_path"`

	// Timezone is the IANA display timezone (e.g. "America/New_York").
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart controls which weekday opens calendar views.
	// Supported values: "monday" (default) and "sunday".
	WeekStart string `yaml:"week_start" json:"week_start"`

	// DayStartHour and DayEndHour bound the hour axis of week and
	// day views.
	DayStartHour int `yaml:"day_start_hour" json:"day_start_hour"`
	DayEndHour   int `yaml:"day_end_hour" json:"day_end_hour"`

	// RecurrenceCap limits how many instances a single recurring task
	// may contribute to a view.
	RecurrenceCap int `yaml:"recurrence_cap" json:"recurrence_cap"`

	// ReminderCron is a cron-style schedule for the reminder sweep
	// (e.g. "* * * * *" for every minute).
	ReminderCron string `yaml:"reminder_sweep" json:"reminder_sweep"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:        "127.0.0.1:8484",
		DBPath:        "tickcal.db",
		Timezone:      "UTC",
		WeekStart:     "monday",
		DayStartHour:  6,
		DayEndHour:    22,
		RecurrenceCap: 365,
		ReminderCron:  "* * * * *",
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8484"
	}
	if c.DBPath == "" {
		c.DBPath = "tickcal.db"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	switch c.WeekStart {
	case "monday", "sunday":
	default:
		c.WeekStart = "monday"
	}
	if c.DayStartHour < 0 || c.DayStartHour > 23 {
		c.DayStartHour = 6
	}
	if c.DayEndHour <= c.DayStartHour || c.DayEndHour > 24 {
		c.DayEndHour = 22
	}
	if c.RecurrenceCap <= 0 || c.RecurrenceCap > 365 {
		c.RecurrenceCap = 365
	}
	if c.ReminderCron == "" {
		c.ReminderCron = "* * * * *"
	}
}

// WeekStartDay maps the configured week start to a time.Weekday.
func (c *Config) WeekStartDay() time.Weekday {
	if c.WeekStart == "sunday" {
		return time.Sunday
	}
	return time.Monday
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Load loads configuration from the given YAML path. If the file does
// not exist, a default config is written there and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with
// 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tickcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
