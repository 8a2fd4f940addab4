// Package config loads slotflow.yaml and applies environment overrides.
//
// Precedence, lowest first: built-in defaults, the YAML file, a .env file in
// the working directory, process environment (SLOTFLOW_*), then CLI flags
// applied by the caller.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read when no path is given.
const DefaultFile = "slotflow.yaml"

// Store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Config is the application configuration.
type Config struct {
	// Flow is a YAML/JSON flow file, or a directory of markdown nodes.
	Flow string `yaml:"flow"`
	// Catalog is an optional directory of markdown translations layered
	// over the flow's inline table.
	Catalog string        `yaml:"catalog"`
	Store   StoreConfig   `yaml:"store"`
	Runtime RuntimeConfig `yaml:"runtime"`
	HTTP    HTTPConfig    `yaml:"http"`
	Log     LogConfig     `yaml:"log"`
}

type StoreConfig struct {
	Kind string `yaml:"kind"`
	// Path is the directory of the file store or the sqlite database file.
	Path     string        `yaml:"path"`
	RedisURL string        `yaml:"redis_url"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
	// Lock enables the redis distributed locker.
	Lock    bool          `yaml:"lock"`
	LockTTL time.Duration `yaml:"lock_ttl"`
	// EncryptionKey is a base64 AES-256 key; snapshots are stored encrypted
	// when it is set. FallbackKeys are older keys still accepted on load.
	EncryptionKey string   `yaml:"encryption_key"`
	FallbackKeys  []string `yaml:"fallback_keys"`
	// Mask lists regular expressions of slot keys masked before saving.
	Mask []string `yaml:"mask"`
}

type RuntimeConfig struct {
	MaxSteps      int  `yaml:"max_steps"`
	SubEscalation bool `yaml:"sub_escalation"`
	// Backends is a file of allow-listed commands serving backend_call
	// tasks. A missing file means no backend.
	Backends       string        `yaml:"backends"`
	BackendTimeout time.Duration `yaml:"backend_timeout"`
	// Watch reloads a directory flow and the catalog on edits. New sessions
	// see the change; running ones keep the flow they started with.
	Watch bool `yaml:"watch"`
}

type HTTPConfig struct {
	Addr    string `yaml:"addr"`
	Metrics bool   `yaml:"metrics"`
	// Validate checks request bodies and parameters against the API schema.
	Validate bool `yaml:"validate"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	// Format is text or json.
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Flow:    "flow.yaml",
		Store:   StoreConfig{Kind: StoreMemory, Path: ".slotflow/sessions", LockTTL: 30 * time.Second},
		Runtime: RuntimeConfig{MaxSteps: 1000, Backends: "backends.yaml", BackendTimeout: 30 * time.Second},
		HTTP:    HTTPConfig{Addr: ":8080", Metrics: true, Validate: true},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// Load builds the configuration. A missing file at path is only an error
// when the path was given explicitly.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("SLOTFLOW_FLOW", &c.Flow)
	str("SLOTFLOW_CATALOG", &c.Catalog)
	str("SLOTFLOW_STORE", &c.Store.Kind)
	str("SLOTFLOW_STORE_PATH", &c.Store.Path)
	str("SLOTFLOW_REDIS_URL", &c.Store.RedisURL)
	str("SLOTFLOW_REDIS_PREFIX", &c.Store.Prefix)
	str("SLOTFLOW_HTTP_ADDR", &c.HTTP.Addr)
	str("SLOTFLOW_LOG_LEVEL", &c.Log.Level)
	str("SLOTFLOW_LOG_FORMAT", &c.Log.Format)
	str("SLOTFLOW_ENCRYPTION_KEY", &c.Store.EncryptionKey)
	str("SLOTFLOW_BACKENDS", &c.Runtime.Backends)
	if v, ok := lookup("SLOTFLOW_MASK"); ok && v != "" {
		c.Store.Mask = splitList(v)
	}

	var errs []error
	if v, ok := lookup("SLOTFLOW_MAX_STEPS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("SLOTFLOW_MAX_STEPS: %w", err))
		}
		c.Runtime.MaxSteps = n
	}
	for key, dst := range map[string]*bool{
		"SLOTFLOW_SUB_ESCALATION": &c.Runtime.SubEscalation,
		"SLOTFLOW_STORE_LOCK":     &c.Store.Lock,
		"SLOTFLOW_METRICS":        &c.HTTP.Metrics,
		"SLOTFLOW_HTTP_VALIDATE":  &c.HTTP.Validate,
		"SLOTFLOW_WATCH":          &c.Runtime.Watch,
	} {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				continue
			}
			*dst = b
		}
	}
	for key, dst := range map[string]*time.Duration{
		"SLOTFLOW_STORE_TTL":       &c.Store.TTL,
		"SLOTFLOW_LOCK_TTL":        &c.Store.LockTTL,
		"SLOTFLOW_BACKEND_TIMEOUT": &c.Runtime.BackendTimeout,
	} {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				continue
			}
			*dst = d
		}
	}
	return errors.Join(errs...)
}

// Validate checks field combinations.
func (c *Config) Validate() error {
	var errs []error
	if c.Flow == "" {
		errs = append(errs, errors.New("flow is required"))
	}
	switch c.Store.Kind {
	case StoreMemory:
	case StoreFile, StoreSQLite:
		if c.Store.Path == "" {
			errs = append(errs, fmt.Errorf("store.path is required for the %s store", c.Store.Kind))
		}
	case StoreRedis:
		if c.Store.RedisURL == "" {
			errs = append(errs, errors.New("store.redis_url is required for the redis store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store kind %q", c.Store.Kind))
	}
	if c.Store.Lock && c.Store.Kind != StoreRedis {
		errs = append(errs, errors.New("store.lock requires the redis store"))
	}
	for _, k := range append([]string{c.Store.EncryptionKey}, c.Store.FallbackKeys...) {
		if k == "" {
			continue
		}
		if _, err := DecodeKey(k); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Runtime.MaxSteps < 0 {
		errs = append(errs, errors.New("runtime.max_steps must not be negative"))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// DecodeKey decodes a base64 encryption key and checks its length.
func DecodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParseLevel maps a level name to slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}
