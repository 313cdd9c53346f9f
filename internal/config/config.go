// Package config loads rentbot settings from a YAML file, RENTBOT_* environment
// variables and command-line flags, in increasing order of precedence.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/propertytek/rentbot/internal/logging"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable. Nested keys use
// underscores: store.idle_ttl is RENTBOT_STORE_IDLE_TTL.
const EnvPrefix = "RENTBOT"

// Config holds all configuration values.
type Config struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	HTTP     HTTPConfig     `mapstructure:"http"`
	MCP      MCPConfig      `mapstructure:"mcp"`
	Store    StoreConfig    `mapstructure:"store"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	NLU      NLUConfig      `mapstructure:"nlu"`
	Router   RouterConfig   `mapstructure:"router"`
	Security SecurityConfig `mapstructure:"security"`
	Booking  BookingConfig  `mapstructure:"booking"`

	// Markets overrides the served cities.
	Markets []string `mapstructure:"markets"`
}

type HTTPConfig struct {
	Addr      string  `mapstructure:"addr"`
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

type MCPConfig struct {
	Transport string `mapstructure:"transport"`
	Addr      string `mapstructure:"addr"`
	BaseURL   string `mapstructure:"base_url"`
}

type StoreConfig struct {
	// Backend is "memory" or "redis".
	Backend       string        `mapstructure:"backend"`
	IdleTTL       time.Duration `mapstructure:"idle_ttl"`
	Capacity      int           `mapstructure:"capacity"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	// DistributedLock serializes turns across replicas through Redis.
	DistributedLock bool          `mapstructure:"distributed_lock"`
	LockTTL         time.Duration `mapstructure:"lock_ttl"`
	HistoryLimit    int           `mapstructure:"history_limit"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type CatalogConfig struct {
	// Path is a JSON or YAML listing file. Empty uses the built-in sample.
	Path         string `mapstructure:"path"`
	DisplayLimit int    `mapstructure:"display_limit"`
	Timezone     string `mapstructure:"timezone"`
}

type NLUConfig struct {
	// Provider is "heuristic" or "gemini".
	Provider         string        `mapstructure:"provider"`
	APIKey           string        `mapstructure:"api_key"`
	Model            string        `mapstructure:"model"`
	Temperature      float32       `mapstructure:"temperature"`
	AnalyzeTimeout   time.Duration `mapstructure:"analyze_timeout"`
	SummarizeTimeout time.Duration `mapstructure:"summarize_timeout"`
}

type RouterConfig struct {
	TurnTimeout   time.Duration `mapstructure:"turn_timeout"`
	HistoryWindow int           `mapstructure:"history_window"`
	MaxQuerySize  int           `mapstructure:"max_query_size"`
}

type SecurityConfig struct {
	// EncryptionKey is a base64 AES-256 key. Empty disables encryption at
	// rest. FallbackKeys may be any AES size so older keys still decrypt.
	EncryptionKey string   `mapstructure:"encryption_key"`
	FallbackKeys  []string `mapstructure:"fallback_keys"`
	// Redact masks contact fields of finished bookings before they are saved.
	Redact bool `mapstructure:"redact"`
}

type BookingConfig struct {
	// LedgerPath is the SQLite appointment ledger. Empty disables it.
	LedgerPath  string `mapstructure:"ledger_path"`
	OfficePhone string `mapstructure:"office_phone"`
	Calendar    bool   `mapstructure:"calendar"`
	SMS         bool   `mapstructure:"sms"`
}

var defaults = map[string]any{
	"log_level":  "info",
	"log_format": "text",

	"http.addr":       ":8080",
	"http.rate_limit": 5.0,
	"http.rate_burst": 20,

	"mcp.transport": "stdio",
	"mcp.addr":      ":8081",
	"mcp.base_url":  "http://localhost:8081",

	"store.backend":          "memory",
	"store.idle_ttl":         30 * time.Minute,
	"store.capacity":         10000,
	"store.sweep_interval":   time.Minute,
	"store.distributed_lock": false,
	"store.lock_ttl":         30 * time.Second,
	"store.history_limit":    200,

	"redis.addr":     "localhost:6379",
	"redis.password": "",
	"redis.db":       0,
	"redis.prefix":   "rentbot:session:",

	"catalog.path":          "",
	"catalog.display_limit": 5,
	"catalog.timezone":      "America/Chicago",

	"nlu.provider":          "heuristic",
	"nlu.api_key":           "",
	"nlu.model":             "gemini-2.0-flash",
	"nlu.temperature":       0.2,
	"nlu.analyze_timeout":   30 * time.Second,
	"nlu.summarize_timeout": 30 * time.Second,

	"router.turn_timeout":   120 * time.Second,
	"router.history_window": 10,
	"router.max_query_size": 4096,

	"security.encryption_key": "",
	"security.fallback_keys":  []string{},
	"security.redact":         false,

	"booking.ledger_path":  "",
	"booking.office_phone": "",
	"booking.calendar":     true,
	"booking.sms":          true,

	"markets": []string{},
}

// Option adjusts the loader before the file is read.
type Option func(*viper.Viper)

// WithFlag lets a command-line flag override key. Unset flags keep the file
// or environment value.
func WithFlag(key string, f *pflag.Flag) Option {
	return func(v *viper.Viper) {
		if f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}

// Default returns the built-in configuration, ignoring files and environment.
func Default() *Config {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return &cfg
}

// Load reads path (or ./rentbot.yaml when path is empty and the file exists),
// then the environment, then flags.
func Load(path string, opts ...Option) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, opt := range opts {
		opt(v)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("rentbot")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Markets = splitList(cfg.Markets)
	cfg.Security.FallbackKeys = splitList(cfg.Security.FallbackKeys)
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}

	switch c.Store.Backend {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis.addr is required for the redis store"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend must be memory or redis, got %q", c.Store.Backend))
	}
	if c.Store.DistributedLock && c.Store.Backend != "redis" {
		errs = append(errs, errors.New("store.distributed_lock requires the redis store"))
	}
	if c.Store.IdleTTL <= 0 {
		errs = append(errs, errors.New("store.idle_ttl must be positive"))
	}
	if c.Store.Capacity <= 0 {
		errs = append(errs, errors.New("store.capacity must be positive"))
	}
	if c.Store.SweepInterval <= 0 {
		errs = append(errs, errors.New("store.sweep_interval must be positive"))
	}

	switch c.NLU.Provider {
	case "heuristic":
	case "gemini":
		if c.NLU.APIKey == "" {
			errs = append(errs, errors.New("nlu.api_key is required for the gemini provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("nlu.provider must be heuristic or gemini, got %q", c.NLU.Provider))
	}
	if c.NLU.AnalyzeTimeout <= 0 || c.NLU.SummarizeTimeout <= 0 {
		errs = append(errs, errors.New("nlu timeouts must be positive"))
	}
	if c.Router.TurnTimeout <= 0 {
		errs = append(errs, errors.New("router.turn_timeout must be positive"))
	}

	if c.MCP.Transport != "stdio" && c.MCP.Transport != "sse" {
		errs = append(errs, fmt.Errorf("mcp.transport must be stdio or sse, got %q", c.MCP.Transport))
	}
	if _, err := time.LoadLocation(c.Catalog.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("catalog.timezone: %w", err))
	}

	if c.Security.EncryptionKey != "" {
		if key, err := decodeKey(c.Security.EncryptionKey); err != nil {
			errs = append(errs, fmt.Errorf("security.encryption_key: %w", err))
		} else if len(key) != 32 {
			errs = append(errs, fmt.Errorf("security.encryption_key must be 32 bytes (AES-256), got %d", len(key)))
		}
	} else if len(c.Security.FallbackKeys) > 0 {
		errs = append(errs, errors.New("security.fallback_keys requires security.encryption_key"))
	}
	for i, k := range c.Security.FallbackKeys {
		if _, err := decodeKey(k); err != nil {
			errs = append(errs, fmt.Errorf("security.fallback_keys[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Keys decodes the active and fallback encryption keys. It returns nil when
// encryption is disabled.
func (c *Config) Keys() (active []byte, fallback [][]byte, err error) {
	if c.Security.EncryptionKey == "" {
		return nil, nil, nil
	}
	active, err = decodeKey(c.Security.EncryptionKey)
	if err != nil {
		return nil, nil, err
	}
	for _, k := range c.Security.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, err
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("not valid base64: %w", err)
	}
	switch len(key) {
	case 16, 24, 32:
		return key, nil
	}
	return nil, fmt.Errorf("key must be 16, 24 or 32 bytes, got %d", len(key))
}

// splitList accepts both YAML lists and comma-separated environment values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
