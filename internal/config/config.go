// Package config loads gateway configuration from a YAML file and
// AGENTGATE_* environment variables.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/agentgate-dev/agentgate/pkg/apperrors"
	"github.com/agentgate-dev/agentgate/pkg/validator"
)

// Config is the full gateway configuration. The security section feeds the
// validator policy; everything here is consumed at construction time.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Sessions SessionsConfig `mapstructure:"sessions"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DatabaseConfig selects and configures the session store backend.
type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `mapstructure:"driver"`
	// Path is the SQLite database file (":memory:" for ephemeral).
	Path string `mapstructure:"path"`
	// DSN is the postgres connection string.
	DSN string `mapstructure:"dsn"`
}

// SessionsConfig holds session lifecycle settings.
type SessionsConfig struct {
	// Timeout is the idle duration after which a session expires.
	Timeout time.Duration `mapstructure:"timeout"`
}

// SecurityConfig holds the tool validation policy inputs.
type SecurityConfig struct {
	AllowedTools        []string `mapstructure:"allowed_tools"`
	DisallowedTools     []string `mapstructure:"disallowed_tools"`
	ApprovedDirectories []string `mapstructure:"approved_directories"`
	DangerousPatterns   []string `mapstructure:"dangerous_patterns"`
	CriticalTools       []string `mapstructure:"critical_tools"`
	DisableNameChecks   bool     `mapstructure:"disable_name_checks"`
	RelaxedMode         bool     `mapstructure:"relaxed_mode"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Verbosity maps to logr V-levels; 0 is info only.
	Verbosity   int  `mapstructure:"verbosity"`
	Development bool `mapstructure:"development"`
}

// Load reads configuration from the given file (optional) and the
// environment, applies defaults and validates.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("AGENTGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, apperrors.New(apperrors.ErrCodeConfigInvalid, "failed to read config file", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.New(apperrors.ErrCodeConfigInvalid, "failed to parse config", err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills unset fields with the stock values.
func (c *Config) SetDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "agentgate.db"
	}
	if c.Sessions.Timeout == 0 {
		c.Sessions.Timeout = 24 * time.Hour
	}
	if c.Security.DangerousPatterns == nil {
		c.Security.DangerousPatterns = validator.DefaultDangerousPatterns()
	}
	if len(c.Security.CriticalTools) == 0 {
		c.Security.CriticalTools = validator.DefaultCriticalTools()
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return apperrors.New(apperrors.ErrCodeConfigInvalid, "database.path is required for sqlite", nil)
		}
	case "postgres":
		if c.Database.DSN == "" {
			return apperrors.New(apperrors.ErrCodeConfigInvalid, "database.dsn is required for postgres", nil)
		}
	default:
		return apperrors.New(apperrors.ErrCodeConfigInvalid, "unsupported database driver: "+c.Database.Driver, nil)
	}

	if c.Sessions.Timeout <= 0 {
		return apperrors.New(apperrors.ErrCodeConfigInvalid, "sessions.timeout must be positive", nil)
	}
	return nil
}

// ValidatorPolicy maps the security section to a validator policy.
func (c *Config) ValidatorPolicy() validator.Policy {
	return validator.Policy{
		AllowedTools:      c.Security.AllowedTools,
		DisallowedTools:   c.Security.DisallowedTools,
		DisableNameChecks: c.Security.DisableNameChecks,
		RelaxedMode:       c.Security.RelaxedMode,
		DangerousPatterns: c.Security.DangerousPatterns,
		CriticalTools:     c.Security.CriticalTools,
	}
}
