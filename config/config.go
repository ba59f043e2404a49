// Package config loads the engine's configuration from an optional YAML
// file and the environment. Precedence: env > file > defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/warp/scheduling-engine/policy"
)

// Config is the full application configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	DB     DBConfig     `mapstructure:"db"`
	Auth   AuthConfig   `mapstructure:"auth"`
	Log    LogConfig    `mapstructure:"log"`
	Policy PolicyConfig `mapstructure:"policy"`
}

// ServerConfig is the HTTP server configuration.
type ServerConfig struct {
	Port         int      `mapstructure:"port"`
	AllowOrigins []string `mapstructure:"allow_origins"`

	// KioskRatePerSecond / KioskBurst bound the per-IP token bucket on
	// kiosk-reachable routes.
	KioskRatePerSecond float64 `mapstructure:"kiosk_rate_per_second"`
	KioskBurst         int     `mapstructure:"kiosk_burst"`
}

// DBConfig points at the SQLite database. ":memory:" works for demos.
type DBConfig struct {
	Path string `mapstructure:"path"`
}

// AuthConfig configures the role tokens presented by callers.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	TokenTTL  string `mapstructure:"token_ttl"`
}

// TTL parses the configured token lifetime.
func (a AuthConfig) TTL() (time.Duration, error) {
	d, err := time.ParseDuration(a.TokenTTL)
	if err != nil {
		return 0, fmt.Errorf("config: auth.token_ttl: %w", err)
	}
	return d, nil
}

// LogConfig configures zap.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// PolicyConfig mirrors policy.RuleSet in configuration form. Editable by
// administrators; the engine never hardcodes these flags.
type PolicyConfig struct {
	BlockDecember                  bool     `mapstructure:"block_december"`
	RecessWindowEnforced           bool     `mapstructure:"recess_window_enforced"`
	ManagerNovemberLastWeekBlocked bool     `mapstructure:"manager_november_last_week_blocked"`
	ManagerPositions               []string `mapstructure:"manager_positions"`
}

// RuleSet converts the configuration into the injectable rule set.
func (p PolicyConfig) RuleSet() policy.RuleSet {
	return policy.RuleSet{
		BlockDecember:                  p.BlockDecember,
		RecessWindowEnforced:           p.RecessWindowEnforced,
		ManagerNovemberLastWeekBlocked: p.ManagerNovemberLastWeekBlocked,
		ManagerPositions:               p.ManagerPositions,
	}
}

// Load reads configuration. An empty path falls back to ./config.yaml if
// present; missing files are fine, defaults and env cover everything
// except the auth secret.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allow_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.kiosk_rate_per_second", 2.0)
	v.SetDefault("server.kiosk_burst", 5)

	v.SetDefault("db.path", "scheduling.db")

	v.SetDefault("auth.token_ttl", "12h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("policy.block_december", true)
	v.SetDefault("policy.recess_window_enforced", true)
	v.SetDefault("policy.manager_november_last_week_blocked", true)
	v.SetDefault("policy.manager_positions", []string{"branch manager"})

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SCHED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the server cannot run without.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("config: auth.jwt_secret is required")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("config: auth.jwt_secret must be at least 16 characters")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	return nil
}
