// Package config loads the YAML configuration used by the bpmcore command.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/bpmcore/expression"
	"github.com/hupe1980/bpmcore/internal/gormdb"
)

// Environment variables that override file values.
const (
	EnvDSN       = "BPMCORE_DSN"
	EnvDriver    = "BPMCORE_DRIVER"
	EnvRedisAddr = "BPMCORE_REDIS_ADDR"
	EnvLogLevel  = "BPMCORE_LOG_LEVEL"
)

// Config holds all runtime configuration.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Storage    StorageConfig    `yaml:"storage"`
	External   ExternalConfig   `yaml:"external"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Engine     EngineConfig     `yaml:"engine"`
}

// LoggingConfig selects the logging backend.
type LoggingConfig struct {
	Level   string `yaml:"level"`   // debug, info, warn, error
	Format  string `yaml:"format"`  // json, text
	Backend string `yaml:"backend"` // slog, zap
}

// StorageConfig configures the durable stores.
type StorageConfig struct {
	Driver   string `yaml:"driver"` // memory, sqlite, postgres
	DSN      string `yaml:"dsn"`
	LogLevel string `yaml:"log_level"`
	// SlowThreshold is a duration string such as "500ms".
	SlowThreshold string `yaml:"slow_threshold"`
}

// ExternalConfig configures the EXTERNAL_DATA store. An empty RedisAddr
// keeps external data in memory.
type ExternalConfig struct {
	RedisAddr string `yaml:"redis_addr"`
	KeyPrefix string `yaml:"key_prefix"`
	TTL       string `yaml:"ttl"`
}

// EvaluationConfig tunes constraint evaluation.
type EvaluationConfig struct {
	ScriptPolicy     string   `yaml:"script_policy"` // strict, lenient
	RulePolicy       string   `yaml:"rule_policy"`
	ScriptImports    []string `yaml:"script_imports"`
	KeepContractData bool     `yaml:"keep_contract_data"`
}

// EngineConfig tunes operation batches.
type EngineConfig struct {
	MaxOperations int `yaml:"max_operations"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			Format:  "text",
			Backend: "slog",
		},
		Storage: StorageConfig{
			Driver:        "memory",
			LogLevel:      "silent",
			SlowThreshold: "1s",
		},
		External: ExternalConfig{
			KeyPrefix: "bpmcore",
		},
		Evaluation: EvaluationConfig{
			ScriptPolicy:     "strict",
			RulePolicy:       "lenient",
			ScriptImports:    append([]string(nil), expression.DefaultScriptImports...),
			KeepContractData: true,
		},
		Engine: EngineConfig{
			MaxOperations: 10000,
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func (c *Config) applyEnvOverrides() {
	if dsn := os.Getenv(EnvDSN); dsn != "" {
		c.Storage.DSN = dsn
		// A bare dsn implies sqlite.
		if c.Storage.Driver == "memory" {
			c.Storage.Driver = gormdb.DriverSQLite
		}
	}
	if driver := os.Getenv(EnvDriver); driver != "" {
		c.Storage.Driver = driver
	}
	if addr := os.Getenv(EnvRedisAddr); addr != "" {
		c.External.RedisAddr = addr
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Logging.Level = level
	}
}

// ValidDrivers lists the supported storage drivers.
var ValidDrivers = []string{"memory", gormdb.DriverSQLite, gormdb.DriverPostgres}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !oneOf(c.Storage.Driver, ValidDrivers) {
		return fmt.Errorf("invalid storage driver: %s (valid: %v)", c.Storage.Driver, ValidDrivers)
	}
	if c.Storage.Driver == gormdb.DriverPostgres && c.Storage.DSN == "" {
		return fmt.Errorf("postgres storage requires a dsn (set %s)", EnvDSN)
	}
	if !oneOf(c.Logging.Backend, []string{"slog", "zap"}) {
		return fmt.Errorf("invalid logging backend: %s", c.Logging.Backend)
	}
	if !oneOf(c.Logging.Format, []string{"json", "text"}) {
		return fmt.Errorf("invalid logging format: %s", c.Logging.Format)
	}
	if _, err := expression.ParsePolicy(c.Evaluation.ScriptPolicy); err != nil {
		return fmt.Errorf("script_policy: %w", err)
	}
	if _, err := expression.ParsePolicy(c.Evaluation.RulePolicy); err != nil {
		return fmt.Errorf("rule_policy: %w", err)
	}
	if _, err := parseDuration(c.Storage.SlowThreshold); err != nil {
		return fmt.Errorf("slow_threshold: %w", err)
	}
	if _, err := parseDuration(c.External.TTL); err != nil {
		return fmt.Errorf("ttl: %w", err)
	}
	if c.Engine.MaxOperations < 0 {
		return fmt.Errorf("max_operations must not be negative")
	}
	return nil
}

// ScriptPolicy returns the parsed script policy.
func (c *Config) ScriptPolicy() expression.Policy {
	p, _ := expression.ParsePolicy(c.Evaluation.ScriptPolicy)
	return p
}

// RulePolicy returns the parsed rule policy.
func (c *Config) RulePolicy() expression.Policy {
	p, _ := expression.ParsePolicy(c.Evaluation.RulePolicy)
	return p
}

// SlowThreshold returns the parsed GORM slow statement threshold.
func (c *Config) SlowThreshold() time.Duration {
	d, _ := parseDuration(c.Storage.SlowThreshold)
	return d
}

// ExternalTTL returns the parsed redis key TTL, zero when unset.
func (c *Config) ExternalTTL() time.Duration {
	d, _ := parseDuration(c.External.TTL)
	return d
}

// UsesDatabase reports whether the durable stores are GORM backed.
func (c *Config) UsesDatabase() bool {
	return c.Storage.Driver != "memory"
}

func parseDuration(s string) (time.Duration, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func oneOf(s string, valid []string) bool {
	for _, v := range valid {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
