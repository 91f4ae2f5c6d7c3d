// Package config loads the settings shared by the passivate CLI and server.
package config

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Environment overrides.
const (
	EnvStore         = "PASSIVATE_STORE"
	EnvEncryptionKey = "PASSIVATE_ENCRYPTION_KEY"
)

// Store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreBolt   = "bolt"
	StoreSQLite = "sqlite"
)

// Config is the complete application configuration.
type Config struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	Store      StoreConfig      `mapstructure:"store"`
	Encryption EncryptionConfig `mapstructure:"encryption"`
	Server     ServerConfig     `mapstructure:"server"`

	// Capabilities points at a process capabilities file (see adapters/process).
	Capabilities string `mapstructure:"capabilities"`
	// VIPRule is an optional script expression deciding which orders get
	// per-item confirmations.
	VIPRule string `mapstructure:"vip_rule"`
	// Concurrency bounds how many checkpoints resume at once.
	Concurrency int           `mapstructure:"concurrency"`
	LockTTL     time.Duration `mapstructure:"lock_ttl"`
}

// StoreConfig selects and configures the checkpoint store.
type StoreConfig struct {
	Kind string `mapstructure:"kind"`
	// Path is the directory (file) or database file (bolt, sqlite).
	Path string `mapstructure:"path"`

	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// EncryptionConfig holds base64 encoded AES-256 keys.
type EncryptionConfig struct {
	Key          string   `mapstructure:"key"`
	FallbackKeys []string `mapstructure:"fallback_keys"`
}

// ServerConfig configures `passivate serve`.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Store: StoreConfig{
			Kind: StoreFile,
			Path: ".passivate/checkpoints",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Concurrency: 4,
		LockTTL:     30 * time.Second,
	}
}

// Load reads the file at path (YAML, or JSON by extension) over the
// defaults and applies environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := readFile(path)
		if err != nil {
			return nil, err
		}
		if err := decode(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	raw := map[string]any{}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	return raw, nil
}

func decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// applyEnv overrides the store and the encryption key from the environment.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvStore); ok && v != "" {
		if err := c.SetStore(v); err != nil {
			return fmt.Errorf("%s: %w", EnvStore, err)
		}
	}
	if v, ok := lookup(EnvEncryptionKey); ok && v != "" {
		c.Encryption.Key = v
	}
	return nil
}

// SetStore selects the store from a "kind" or "kind:target" string, where
// target is the path or, for redis, the address.
func (c *Config) SetStore(spec string) error {
	kind, target, _ := strings.Cut(spec, ":")
	if kind == "" {
		return fmt.Errorf("empty store kind in %q", spec)
	}
	c.Store.Kind = kind
	if target == "" {
		return nil
	}
	if kind == StoreRedis {
		c.Store.Address = target
	} else {
		c.Store.Path = target
	}
	return nil
}

// Validate checks the store kind and the encryption keys.
func (c *Config) Validate() error {
	switch c.Store.Kind {
	case StoreMemory, StoreFile, StoreBolt, StoreSQLite:
	case StoreRedis:
		if c.Store.Address == "" {
			return fmt.Errorf("store: redis requires an address")
		}
	default:
		return fmt.Errorf("store: unknown kind %q", c.Store.Kind)
	}
	if (c.Store.Kind == StoreBolt || c.Store.Kind == StoreSQLite) && c.Store.Path == "" {
		return fmt.Errorf("store: %s requires a path", c.Store.Kind)
	}
	if _, _, err := c.Encryption.Keys(); err != nil {
		return err
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative")
	}
	return nil
}

// Keys decodes the active and fallback keys. A nil active key means
// encryption is disabled.
func (e EncryptionConfig) Keys() ([]byte, [][]byte, error) {
	if e.Key == "" {
		if len(e.FallbackKeys) > 0 {
			return nil, nil, fmt.Errorf("encryption: fallback keys need an active key")
		}
		return nil, nil, nil
	}
	active, err := decodeKey(e.Key)
	if err != nil {
		return nil, nil, fmt.Errorf("encryption key: %w", err)
	}
	fallback := make([][]byte, 0, len(e.FallbackKeys))
	for i, k := range e.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("encryption fallback key %d: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("want 32 bytes, got %d", len(key))
	}
	return key, nil
}
