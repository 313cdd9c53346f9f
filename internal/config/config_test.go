package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rentbot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, 30*time.Minute, cfg.Store.IdleTTL)
	assert.Equal(t, 10000, cfg.Store.Capacity)
	assert.Equal(t, 120*time.Second, cfg.Router.TurnTimeout)
	assert.Equal(t, "heuristic", cfg.NLU.Provider)
	assert.Equal(t, "America/Chicago", cfg.Catalog.Timezone)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileThenEnvThenFlag(t *testing.T) {
	path := writeFile(t, `
log_level: debug
http:
  addr: ":9000"
store:
  backend: redis
  idle_ttl: 10m
redis:
  addr: "redis:6379"
markets:
  - Austin
  - Dallas
`)
	t.Setenv("RENTBOT_STORE_IDLE_TTL", "45m")
	t.Setenv("RENTBOT_NLU_TEMPERATURE", "0.7")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("addr", "", "")
	require.NoError(t, flags.Parse([]string{"--addr", ":7000"}))

	cfg, err := Load(path, WithFlag("http.addr", flags.Lookup("addr")))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":7000", cfg.HTTP.Addr)
	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 45*time.Minute, cfg.Store.IdleTTL)
	assert.InDelta(t, 0.7, float64(cfg.NLU.Temperature), 0.001)
	assert.Equal(t, []string{"Austin", "Dallas"}, cfg.Markets)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_UnsetFlagKeepsFile(t *testing.T) {
	path := writeFile(t, "http:\n  addr: \":9000\"\n")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("addr", ":1", "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := Load(path, WithFlag("http.addr", flags.Lookup("addr")))
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
}

func TestLoad_CommaSeparatedEnv(t *testing.T) {
	t.Setenv("RENTBOT_MARKETS", "Houston, San Antonio")

	cfg, err := Load(writeFile(t, "log_level: info\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Houston", "San Antonio"}, cfg.Markets)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	key := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"Bad log level", func(c *Config) { c.LogLevel = "loud" }, "unknown log level"},
		{"Bad backend", func(c *Config) { c.Store.Backend = "etcd" }, "store.backend"},
		{"Lock without redis", func(c *Config) { c.Store.DistributedLock = true }, "distributed_lock"},
		{"Gemini without key", func(c *Config) { c.NLU.Provider = "gemini" }, "nlu.api_key"},
		{"Short key", func(c *Config) { c.Security.EncryptionKey = base64.StdEncoding.EncodeToString([]byte("short")) }, "16, 24 or 32"},
		{"AES-128 active key", func(c *Config) { c.Security.EncryptionKey = base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 16))) }, "must be 32 bytes"},
		{"Fallback without active", func(c *Config) { c.Security.FallbackKeys = []string{key} }, "requires security.encryption_key"},
		{"Bad timezone", func(c *Config) { c.Catalog.Timezone = "Mars/Olympus" }, "catalog.timezone"},
		{"Bad transport", func(c *Config) { c.MCP.Transport = "ws" }, "mcp.transport"},
		{"Valid key", func(c *Config) { c.Security.EncryptionKey = key }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestKeys(t *testing.T) {
	active := []byte(strings.Repeat("a", 32))
	old := []byte(strings.Repeat("o", 16))

	cfg := Default()
	active0, fallback0, err := cfg.Keys()
	require.NoError(t, err)
	assert.Nil(t, active0)
	assert.Nil(t, fallback0)

	cfg.Security.EncryptionKey = base64.StdEncoding.EncodeToString(active)
	cfg.Security.FallbackKeys = []string{base64.StdEncoding.EncodeToString(old)}
	gotActive, gotFallback, err := cfg.Keys()
	require.NoError(t, err)
	assert.Equal(t, active, gotActive)
	assert.Equal(t, [][]byte{old}, gotFallback)
}
