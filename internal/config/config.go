// Package config provides Viper-based configuration loading for the
// Wormhole Warp engine.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings for save-game storage.
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

// TimingConfig holds the fixed delays that pace a turn. The presentation
// layer animates during these windows; the engine only schedules against them.
type TimingConfig struct {
	// RollDelay is the dice-roll animation duration.
	RollDelay time.Duration `mapstructure:"roll_delay"`
	// MoveSettle is the pause after a token finishes moving.
	MoveSettle time.Duration `mapstructure:"move_settle"`
	// TeleportSettle is the pause after a wormhole teleport lands.
	TeleportSettle time.Duration `mapstructure:"teleport_settle"`
	// ChallengeTick is the math-challenge countdown tick interval.
	ChallengeTick time.Duration `mapstructure:"challenge_tick"`
}

// RulesConfig holds match rules that are not wormhole tuning.
type RulesConfig struct {
	// MinPlayers and MaxPlayers bound the allowed player count at setup.
	MinPlayers int `mapstructure:"min_players"`
	MaxPlayers int `mapstructure:"max_players"`
	// ChallengeChance is the probability of a math challenge on a landing
	// that produced neither a collision nor a wormhole.
	ChallengeChance float64 `mapstructure:"challenge_chance"`
	// ChallengeTicks is the countdown length in ticks.
	ChallengeTicks int `mapstructure:"challenge_ticks"`
	// TuningFile optionally overrides the built-in wormhole tuning preset.
	TuningFile string `mapstructure:"tuning_file"`
	// ScriptDir optionally points at a directory of Lua house-rule scripts;
	// empty disables scripting.
	ScriptDir string `mapstructure:"script_dir"`
	// ScriptInstructionLimit caps Lua opcodes per hook call (0 = default).
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Timing   TimingConfig   `mapstructure:"timing"`
	Rules    RulesConfig    `mapstructure:"rules"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateDatabase(c.Database); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateTiming(c.Timing); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateRules(c.Rules); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
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
		return errors.New(strings.Join(errs, "; "))
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

func validateTiming(t TimingConfig) error {
	var errs []string
	if t.RollDelay < 0 {
		errs = append(errs, "timing.roll_delay must not be negative")
	}
	if t.MoveSettle < 0 {
		errs = append(errs, "timing.move_settle must not be negative")
	}
	if t.TeleportSettle < 0 {
		errs = append(errs, "timing.teleport_settle must not be negative")
	}
	if t.ChallengeTick <= 0 {
		errs = append(errs, "timing.challenge_tick must be positive")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateRules(r RulesConfig) error {
	var errs []string
	if r.MinPlayers < 2 {
		errs = append(errs, fmt.Sprintf("rules.min_players must be >= 2, got %d", r.MinPlayers))
	}
	if r.MaxPlayers < r.MinPlayers {
		errs = append(errs, fmt.Sprintf("rules.max_players must be >= rules.min_players, got %d", r.MaxPlayers))
	}
	if r.MaxPlayers > 4 {
		errs = append(errs, fmt.Sprintf("rules.max_players must be <= 4 (palette size), got %d", r.MaxPlayers))
	}
	if r.ChallengeChance < 0 || r.ChallengeChance > 1 {
		errs = append(errs, fmt.Sprintf("rules.challenge_chance must be in [0,1], got %g", r.ChallengeChance))
	}
	if r.ChallengeTicks < 1 {
		errs = append(errs, fmt.Sprintf("rules.challenge_ticks must be >= 1, got %d", r.ChallengeTicks))
	}
	if r.ScriptInstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("rules.script_instruction_limit must be >= 0, got %d", r.ScriptInstructionLimit))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
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

	// Environment variable overrides with WARP_ prefix
	v.SetEnvPrefix("WARP")
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

// Default returns the built-in configuration without reading any file.
//
// Postcondition: Returns a Config that passes Validate.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Unmarshalling in-memory defaults cannot fail.
	_ = v.Unmarshal(&cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "warp")
	v.SetDefault("database.password", "warp")
	v.SetDefault("database.name", "warp")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("timing.roll_delay", "1000ms")
	v.SetDefault("timing.move_settle", "500ms")
	v.SetDefault("timing.teleport_settle", "800ms")
	v.SetDefault("timing.challenge_tick", "200ms")

	v.SetDefault("rules.min_players", 2)
	v.SetDefault("rules.max_players", 4)
	v.SetDefault("rules.challenge_chance", 0.12)
	v.SetDefault("rules.challenge_ticks", 50)
	v.SetDefault("rules.script_instruction_limit", 0)
}
