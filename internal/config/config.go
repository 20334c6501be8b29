// Package config provides Viper-based configuration loading for the
// calculator server and CLI.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. MAPLECALC_LOGGING_LEVEL.
const EnvPrefix = "MAPLECALC"

// FileConfig holds the optional rotated log file sink.
type FileConfig struct {
	// Path enables the file sink when non-empty.
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string     `mapstructure:"format"`
	File   FileConfig `mapstructure:"file"`
}

// ServerConfig holds listener settings for cmd/server.
type ServerConfig struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	GRPCAddr        string        `mapstructure:"grpc_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// SimulationConfig holds Monte Carlo defaults used when a request leaves
// them unset.
type SimulationConfig struct {
	// Precision is "low", "medium" or "high".
	Precision        string `mapstructure:"precision"`
	SweepIterations  int    `mapstructure:"sweep_iterations"`
	SearchIterations int    `mapstructure:"search_iterations"`
	Workers          int    `mapstructure:"workers"`
	// ProgressInterval is the trial count between progress callbacks.
	ProgressInterval int `mapstructure:"progress_interval"`
}

// TablesConfig points at the reference table override directory.
type TablesConfig struct {
	Dir   string `mapstructure:"dir"`
	Watch bool   `mapstructure:"watch"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Server     ServerConfig     `mapstructure:"server"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Tables     TablesConfig     `mapstructure:"tables"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	errs = append(errs, validateLogging(c.Logging)...)
	errs = append(errs, validateServer(c.Server)...)
	errs = append(errs, validateSimulation(c.Simulation)...)
	if c.Tables.Watch && c.Tables.Dir == "" {
		errs = append(errs, "tables.watch requires tables.dir")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) []string {
	var errs []string
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		errs = append(errs, fmt.Sprintf("logging.level must be one of [debug, info, warn, error], got %q", l.Level))
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		errs = append(errs, fmt.Sprintf("logging.format must be one of [json, console], got %q", l.Format))
	}
	if l.File.Path != "" {
		if l.File.MaxSizeMB < 1 {
			errs = append(errs, fmt.Sprintf("logging.file.max_size_mb must be >= 1, got %d", l.File.MaxSizeMB))
		}
		if l.File.MaxBackups < 0 {
			errs = append(errs, "logging.file.max_backups must be >= 0")
		}
		if l.File.MaxAgeDays < 0 {
			errs = append(errs, "logging.file.max_age_days must be >= 0")
		}
	}
	return errs
}

func validateServer(s ServerConfig) []string {
	var errs []string
	if s.HTTPAddr == "" {
		errs = append(errs, "server.http_addr must not be empty")
	}
	if s.GRPCAddr == "" {
		errs = append(errs, "server.grpc_addr must not be empty")
	}
	if s.ShutdownTimeout <= 0 {
		errs = append(errs, "server.shutdown_timeout must be positive")
	}
	return errs
}

func validateSimulation(s SimulationConfig) []string {
	var errs []string
	validPrecision := map[string]bool{"low": true, "medium": true, "high": true}
	if !validPrecision[s.Precision] {
		errs = append(errs, fmt.Sprintf("simulation.precision must be one of [low, medium, high], got %q", s.Precision))
	}
	if s.SweepIterations < 1 {
		errs = append(errs, fmt.Sprintf("simulation.sweep_iterations must be >= 1, got %d", s.SweepIterations))
	}
	if s.SearchIterations < 1 {
		errs = append(errs, fmt.Sprintf("simulation.search_iterations must be >= 1, got %d", s.SearchIterations))
	}
	if s.Workers < 1 {
		errs = append(errs, fmt.Sprintf("simulation.workers must be >= 1, got %d", s.Workers))
	}
	if s.ProgressInterval < 0 {
		errs = append(errs, "simulation.progress_interval must be >= 0")
	}
	return errs
}

// Load reads configuration from the given file path, applies environment
// variable overrides, and validates the result. An empty path uses defaults
// and the environment only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with MAPLECALC_ prefix
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the built-in defaults, ignoring files and environment.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := LoadFromViper(v)
	if err != nil {
		panic(fmt.Sprintf("config defaults are invalid: %v", err))
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file.path", "")
	v.SetDefault("logging.file.max_size_mb", 10)
	v.SetDefault("logging.file.max_backups", 5)
	v.SetDefault("logging.file.max_age_days", 30)

	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.grpc_addr", ":9090")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("simulation.precision", "medium")
	v.SetDefault("simulation.sweep_iterations", 300)
	v.SetDefault("simulation.search_iterations", 500)
	v.SetDefault("simulation.workers", 4)
	v.SetDefault("simulation.progress_interval", 250)

	v.SetDefault("tables.dir", "")
	v.SetDefault("tables.watch", false)
}
