package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path" validate:"required"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=json console"`
}

// NotifyConfig holds engine-wide defaults. Per-user values on User win.
type NotifyConfig struct {
	// ScheduledLeadMinutes is the default scheduled-start lead time.
	ScheduledLeadMinutes int `mapstructure:"scheduled_lead_minutes" yaml:"scheduled_lead_minutes" validate:"gt=0"`

	// OvertimeHours is the default non-priority overtime threshold.
	OvertimeHours int `mapstructure:"overtime_hours" yaml:"overtime_hours" validate:"gt=0"`

	// DedupWindow is how far back the due-soon and overdue rules look for
	// an identical message.
	DedupWindow time.Duration `mapstructure:"dedup_window" yaml:"dedup_window" validate:"gt=0"`

	// Timezone names the location used for 12-hour times and week
	// boundaries ("Local", "UTC", or an IANA name).
	Timezone string `mapstructure:"timezone" yaml:"timezone" validate:"required"`

	// UserTimeout bounds how long one user's processing may take within a
	// cycle.
	UserTimeout time.Duration `mapstructure:"user_timeout" yaml:"user_timeout" validate:"gt=0"`
}

// TriggerConfig controls how often the cycles run.
type TriggerConfig struct {
	FrequentInterval time.Duration `mapstructure:"frequent_interval" yaml:"frequent_interval" validate:"gt=0"`

	// WeeklySchedule is a five-field cron expression.
	WeeklySchedule string `mapstructure:"weekly_schedule" yaml:"weekly_schedule" validate:"required"`
}

// MetricsConfig controls the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Notify   NotifyConfig   `mapstructure:"notify" yaml:"notify"`
	Trigger  TriggerConfig  `mapstructure:"trigger" yaml:"trigger"`
	Metrics  MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
}

// Location resolves Notify.Timezone.
func (c *AppConfig) Location() (*time.Location, error) {
	if c.Notify.Timezone == "" || strings.EqualFold(c.Notify.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Notify.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Notify.Timezone, err)
	}
	return loc, nil
}

// Validate checks field constraints and the timezone.
func (c *AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/taskboard/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "taskboard")
}

// DefaultAppConfig returns a sensible default configuration.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Database: DatabaseConfig{
			Path: filepath.Join(configDir(), "taskboard.db"),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Notify: NotifyConfig{
			ScheduledLeadMinutes: 5,
			OvertimeHours:        1,
			DedupWindow:          5 * time.Minute,
			Timezone:             "Local",
			UserTimeout:          30 * time.Second,
		},
		Trigger: TriggerConfig{
			FrequentInterval: 5 * time.Second,
			WeeklySchedule:   "30 9 * * MON",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// TASKBOARD_* environment variables override file values (for example
// TASKBOARD_LOG_LEVEL). A missing file yields the defaults.
func LoadConfig(path string) (*AppConfig, error) {
	def := DefaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TASKBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values, and so
	// AutomaticEnv knows which keys exist.
	v.SetDefault("database.path", def.Database.Path)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("notify.scheduled_lead_minutes", def.Notify.ScheduledLeadMinutes)
	v.SetDefault("notify.overtime_hours", def.Notify.OvertimeHours)
	v.SetDefault("notify.dedup_window", def.Notify.DedupWindow)
	v.SetDefault("notify.timezone", def.Notify.Timezone)
	v.SetDefault("notify.user_timeout", def.Notify.UserTimeout)
	v.SetDefault("trigger.frequent_interval", def.Trigger.FrequentInterval)
	v.SetDefault("trigger.weekly_schedule", def.Trigger.WeeklySchedule)
	v.SetDefault("metrics.addr", def.Metrics.Addr)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("database.path", cfg.Database.Path)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.format", cfg.Log.Format)
	v.Set("notify.scheduled_lead_minutes", cfg.Notify.ScheduledLeadMinutes)
	v.Set("notify.overtime_hours", cfg.Notify.OvertimeHours)
	v.Set("notify.dedup_window", cfg.Notify.DedupWindow.String())
	v.Set("notify.timezone", cfg.Notify.Timezone)
	v.Set("notify.user_timeout", cfg.Notify.UserTimeout.String())
	v.Set("trigger.frequent_interval", cfg.Trigger.FrequentInterval.String())
	v.Set("trigger.weekly_schedule", cfg.Trigger.WeeklySchedule)
	v.Set("metrics.addr", cfg.Metrics.Addr)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
