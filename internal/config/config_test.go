package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/bpmcore/expression"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.False(t, cfg.UsesDatabase())
	assert.Equal(t, expression.PolicyStrict, cfg.ScriptPolicy())
	assert.Equal(t, expression.PolicyLenient, cfg.RulePolicy())
	assert.Equal(t, time.Second, cfg.SlowThreshold())
	assert.Zero(t, cfg.ExternalTTL())
	assert.True(t, cfg.Evaluation.KeepContractData)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Storage, cfg.Storage)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bpmcore.yaml")
	data := []byte(`
logging:
  level: debug
  backend: zap
storage:
  driver: sqlite
  dsn: file:test.db
external:
  ttl: 10m
evaluation:
  rule_policy: strict
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "zap", cfg.Logging.Backend)
	assert.Equal(t, "text", cfg.Logging.Format, "unset keys keep their defaults")
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.True(t, cfg.UsesDatabase())
	assert.Equal(t, 10*time.Minute, cfg.ExternalTTL())
	assert.Equal(t, expression.PolicyStrict, cfg.RulePolicy())
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage: [oops"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvDSN, "file:env.db")
	t.Setenv(EnvRedisAddr, "localhost:6379")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "file:env.db", cfg.Storage.DSN)
	assert.Equal(t, "sqlite", cfg.Storage.Driver, "a dsn switches the memory driver to sqlite")
	assert.Equal(t, "localhost:6379", cfg.External.RedisAddr)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_EnvDriverWins(t *testing.T) {
	t.Setenv(EnvDSN, "postgres://localhost/bpm")
	t.Setenv(EnvDriver, "postgres")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"bad driver", func(c *Config) { c.Storage.Driver = "mysql" }, "invalid storage driver"},
		{"postgres without dsn", func(c *Config) { c.Storage.Driver = "postgres" }, "requires a dsn"},
		{"bad backend", func(c *Config) { c.Logging.Backend = "logrus" }, "invalid logging backend"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "invalid logging format"},
		{"bad script policy", func(c *Config) { c.Evaluation.ScriptPolicy = "maybe" }, "script_policy"},
		{"bad rule policy", func(c *Config) { c.Evaluation.RulePolicy = "maybe" }, "rule_policy"},
		{"bad slow threshold", func(c *Config) { c.Storage.SlowThreshold = "soon" }, "slow_threshold"},
		{"bad ttl", func(c *Config) { c.External.TTL = "forever" }, "ttl"},
		{"negative batch size", func(c *Config) { c.Engine.MaxOperations = -1 }, "max_operations"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "bpmcore.yaml")
	cfg := DefaultConfig()
	cfg.Engine.MaxOperations = 42
	cfg.External.RedisAddr = "redis:6379"

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
