package bench

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, "bench.toml", `
key-file = "keys.txt"
output-dir = "/tmp/out"
copy-keys = true
hash = "xxh3"
memory-limit = 1048576

[log]
level = "debug"
development = true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "keys.txt", cfg.KeyFile)
	assert.Equal(t, "/tmp/out", cfg.OutputDir)
	assert.True(t, cfg.CopyKeys)
	assert.Equal(t, "xxh3", cfg.Hash)
	assert.Equal(t, uint64(1<<20), cfg.MemoryLimit)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)

	// Untouched keys keep their defaults.
	assert.Equal(t, int64(DefaultSeed), cfg.Seed)
	assert.Equal(t, DefaultMaxKeySize, cfg.MaxKeySize)

	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_UnknownKey(t *testing.T) {
	path := writeFile(t, "bench.toml", `
key-file = "keys.txt"
capacity = 16
`)

	_, err := LoadConfig(path)
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "capacity")
}

func TestLoadConfig_Malformed(t *testing.T) {
	path := writeFile(t, "bench.toml", `key-file = `)

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := DefaultConfig()
	valid.KeyFile = "keys.txt"

	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"no key file", func(c *Config) { c.KeyFile = "" }},
		{"tiny key size", func(c *Config) { c.MaxKeySize = 1 }},
		{"unknown hash", func(c *Config) { c.Hash = "md5" }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
	}

	require.NoError(t, valid.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.modify(&cfg)

			require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestConfig_Logger(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Log.Development = true
	cfg.Log.Level = "warn"

	logger, err := cfg.Logger()
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}
