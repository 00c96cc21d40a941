// Package config provides Viper-based configuration loading for the dialogue engine.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DialogConfig holds dialogue content settings.
type DialogConfig struct {
	// Root is the directory that dialogue-root-absolute include paths resolve from.
	Root string `mapstructure:"root"`
	// PluginDir is the directory holding condition/effect descriptor files
	// (pre/ and post/ subdirectories).
	PluginDir string `mapstructure:"plugin_dir"`
	// MaxMessageLength is the longest message line the validator accepts
	// without a warning.
	MaxMessageLength int `mapstructure:"max_message_length"`
}

// ScriptConfig holds Lua pre-function script settings.
type ScriptConfig struct {
	// Dir is the directory of shared *.lua hook files.
	Dir string `mapstructure:"dir"`
	// InstructionLimit caps Lua opcodes per hook call; 0 uses the package default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// CalendarConfig holds the game calendar constants used by the age condition.
type CalendarConfig struct {
	MonthsPerYear int `mapstructure:"months_per_year"`
	WeeksPerMonth int `mapstructure:"weeks_per_month"`
	DaysPerWeek   int `mapstructure:"days_per_week"`
	HoursPerDay   int `mapstructure:"hours_per_day"`
}

// DatabaseConfig holds PostgreSQL connection settings for the flag store.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	Dialog   DialogConfig   `mapstructure:"dialog"`
	Script   ScriptConfig   `mapstructure:"script"`
	Calendar CalendarConfig `mapstructure:"calendar"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateDialog(c.Dialog); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateScript(c.Script); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateCalendar(c.Calendar); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateDatabase(c.Database); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDialog(d DialogConfig) error {
	var errs []string
	if d.Root == "" {
		errs = append(errs, "dialog.root must not be empty")
	}
	if d.PluginDir == "" {
		errs = append(errs, "dialog.plugin_dir must not be empty")
	}
	if d.MaxMessageLength < 1 {
		errs = append(errs, fmt.Sprintf("dialog.max_message_length must be >= 1, got %d", d.MaxMessageLength))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateScript(s ScriptConfig) error {
	if s.InstructionLimit < 0 {
		return fmt.Errorf("script.instruction_limit must be >= 0, got %d", s.InstructionLimit)
	}
	return nil
}

func validateCalendar(c CalendarConfig) error {
	var errs []string
	if c.MonthsPerYear < 1 {
		errs = append(errs, fmt.Sprintf("calendar.months_per_year must be >= 1, got %d", c.MonthsPerYear))
	}
	if c.WeeksPerMonth < 1 {
		errs = append(errs, fmt.Sprintf("calendar.weeks_per_month must be >= 1, got %d", c.WeeksPerMonth))
	}
	if c.DaysPerWeek < 1 {
		errs = append(errs, fmt.Sprintf("calendar.days_per_week must be >= 1, got %d", c.DaysPerWeek))
	}
	if c.HoursPerDay < 1 {
		errs = append(errs, fmt.Sprintf("calendar.hours_per_day must be >= 1, got %d", c.HoursPerDay))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with DIALOG_ prefix
	v.SetEnvPrefix("DIALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	if v == nil {
		return Config{}, errors.New("nil viper instance")
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dialog.root", "content/dialog")
	v.SetDefault("dialog.plugin_dir", "content/dialog")
	v.SetDefault("dialog.max_message_length", 2048)

	v.SetDefault("script.dir", "content/scripts")
	v.SetDefault("script.instruction_limit", 0)

	// Crossfire-style game calendar.
	v.SetDefault("calendar.months_per_year", 17)
	v.SetDefault("calendar.weeks_per_month", 5)
	v.SetDefault("calendar.days_per_week", 7)
	v.SetDefault("calendar.hours_per_day", 28)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "dialog")
	v.SetDefault("database.password", "dialog")
	v.SetDefault("database.name", "dialog")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
