// Package config loads psy settings from an optional YAML file and the
// environment.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read from the working directory when PSY_CONFIG is unset.
const DefaultFile = "psy.yaml"

// Store backends.
const (
	StoreNone   = "none"
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config is the decoded configuration.
type Config struct {
	// LogLevel is empty when logging is off.
	LogLevel  string `mapstructure:"log_level"`
	Store     string `mapstructure:"store"`
	StoreDir  string `mapstructure:"store_dir"`
	StepLimit int    `mapstructure:"step_limit"`
	Redis     Redis  `mapstructure:"redis"`
	Serve     Serve  `mapstructure:"serve"`

	// StoreKey is a hex encoded AES-256 key. When set, run records are
	// encrypted before they reach the store.
	StoreKey          string   `mapstructure:"store_key"`
	StoreFallbackKeys []string `mapstructure:"store_fallback_keys"`
}

type Redis struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type Serve struct {
	Port    int           `mapstructure:"port"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Store:    StoreNone,
		StoreDir: ".psy/runs",
		Redis:    Redis{Addr: "localhost:6379"},
		Serve:    Serve{Port: 8080, Timeout: 30 * time.Second},
	}
}

// env maps environment variables to dotted config keys.
var env = []struct{ name, key string }{
	{"PSY_LOG_LEVEL", "log_level"},
	{"PSY_STORE", "store"},
	{"PSY_STORE_DIR", "store_dir"},
	{"PSY_REDIS_ADDR", "redis.addr"},
	{"PSY_STEP_LIMIT", "step_limit"},
	{"PSY_STORE_KEY", "store_key"},
}

// Load reads path, or $PSY_CONFIG, or DefaultFile, applies environment
// overrides and validates the result. A missing file is not an error unless
// it was named explicitly.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = os.Getenv("PSY_CONFIG")
		explicit = path != ""
	}
	if path == "" {
		path = DefaultFile
	}

	raw := map[string]any{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		if raw == nil {
			raw = map[string]any{}
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	for _, e := range env {
		if v, ok := os.LookupEnv(e.name); ok {
			set(raw, e.key, v)
		}
	}

	return Decode(raw)
}

// Decode applies raw on top of Default.
func Decode(raw map[string]any) (Config, error) {
	cfg := Default()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &cfg,
	})
	if err != nil {
		return Config{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks enumerations and ranges.
func (c Config) Validate() error {
	switch c.Store {
	case StoreNone, StoreMemory, StoreFile, StoreRedis:
	default:
		return fmt.Errorf("invalid config: unknown store %q", c.Store)
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid config: unknown log_level %q", c.LogLevel)
	}
	if c.StepLimit < 0 {
		return fmt.Errorf("invalid config: step_limit must not be negative")
	}
	if c.Serve.Timeout < 0 {
		return fmt.Errorf("invalid config: serve.timeout must not be negative")
	}
	if c.Serve.Port < 0 || c.Serve.Port > 65535 {
		return fmt.Errorf("invalid config: serve.port %d out of range", c.Serve.Port)
	}
	if _, _, err := c.EncryptionKeys(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// EncryptionKeys decodes StoreKey and StoreFallbackKeys. active is nil when
// encryption is off.
func (c Config) EncryptionKeys() (active []byte, fallback [][]byte, err error) {
	if c.StoreKey == "" {
		if len(c.StoreFallbackKeys) > 0 {
			return nil, nil, errors.New("store_fallback_keys requires store_key")
		}
		return nil, nil, nil
	}
	if active, err = decodeKey(c.StoreKey); err != nil {
		return nil, nil, fmt.Errorf("store_key: %w", err)
	}
	for i, k := range c.StoreFallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("store_fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, errors.New("must be hex encoded")
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

// set stores v under a dotted key, creating nested maps as needed.
func set(m map[string]any, key string, v any) {
	parts := strings.Split(key, ".")
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = v
}
