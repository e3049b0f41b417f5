// Package config loads haview settings.
//
// Settings are resolved in increasing priority:
//
//  1. built-in defaults ([Default])
//  2. $XDG_CONFIG_HOME/haview/config.toml (or ~/.config/haview/config.toml)
//  3. variables from a .env file in the working directory
//  4. HAVIEW_* environment variables
//  5. command-line flags (applied by the CLI)
//
// Example config.toml:
//
//	[source]
//	url = "http://lb01.internal:5000"
//	user = "admin"
//	timeout = "5s"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/haview/pkg/errors"
)

const appName = "haview"

// Cache backends.
const (
	CacheNone   = "none"
	CacheFile   = "file"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config is the complete haview configuration.
type Config struct {
	Source SourceConfig `toml:"source"`
	Layout LayoutConfig `toml:"layout"`
	Cache  CacheConfig  `toml:"cache"`
	Editor EditorConfig `toml:"editor"`
}

// SourceConfig selects where the configuration and graph come from. When
// File is set the API is not used.
type SourceConfig struct {
	URL      string   `toml:"url"`
	User     string   `toml:"user"`
	Password string   `toml:"password"`
	File     string   `toml:"file"`
	Timeout  Duration `toml:"timeout"`
	Watch    bool     `toml:"watch"`
}

// LayoutConfig selects the layout engine.
type LayoutConfig struct {
	Engine string `toml:"engine"` // "dot" or "level"
}

// CacheConfig selects the layout cache backend.
type CacheConfig struct {
	Backend       string   `toml:"backend"`
	MemorySize    int      `toml:"memory_size"`
	TTL           Duration `toml:"ttl"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
	RedisPrefix   string   `toml:"redis_prefix"`
}

// EditorConfig controls the external editor launched from the viewer.
type EditorConfig struct {
	Command string `toml:"command"` // falls back to $VISUAL, $EDITOR, then vi
}

// Duration is a time.Duration written as "10s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			URL:     "http://localhost:5000",
			Timeout: Duration{10 * time.Second},
		},
		Layout: LayoutConfig{Engine: "dot"},
		Cache: CacheConfig{
			Backend:     CacheFile,
			MemorySize:  256,
			TTL:         Duration{7 * 24 * time.Hour},
			RedisAddr:   "localhost:6379",
			RedisPrefix: "haview:",
		},
	}
}

// Dir returns the haview config directory.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, appName)
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// CacheDir returns the cache directory using XDG standard (~/.cache/haview/).
func CacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// Load reads the config file at path (the default path if empty), the .env
// file in the working directory and the environment.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()
	return LoadWith(path, os.LookupEnv)
}

// LoadWith is Load with an explicit environment lookup and without .env
// processing.
func LoadWith(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = Path()
	}

	data, err := os.ReadFile(path)
	switch {
	case stderrors.Is(err, fs.ErrNotExist) && !explicit:
	case err != nil:
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// applyEnv overrides fields from HAVIEW_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	str("HAVIEW_URL", &c.Source.URL)
	str("HAVIEW_USER", &c.Source.User)
	str("HAVIEW_PASSWORD", &c.Source.Password)
	str("HAVIEW_FILE", &c.Source.File)
	str("HAVIEW_ENGINE", &c.Layout.Engine)
	str("HAVIEW_CACHE", &c.Cache.Backend)
	str("HAVIEW_REDIS_ADDR", &c.Cache.RedisAddr)
	str("HAVIEW_REDIS_PASSWORD", &c.Cache.RedisPassword)
	str("HAVIEW_EDITOR", &c.Editor.Command)

	if v, ok := lookup("HAVIEW_TIMEOUT"); ok {
		if err := c.Source.Timeout.UnmarshalText([]byte(strings.TrimSpace(v))); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "HAVIEW_TIMEOUT")
		}
	}
	if v, ok := lookup("HAVIEW_REDIS_DB"); ok {
		db, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "HAVIEW_REDIS_DB")
		}
		c.Cache.RedisDB = db
	}
	if v, ok := lookup("HAVIEW_WATCH"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "HAVIEW_WATCH")
		}
		c.Source.Watch = b
	}
	return nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.Source.File == "" {
		if err := errors.ValidateURL(c.Source.URL); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "source.url")
		}
	}
	if c.Source.Timeout.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "source.timeout must not be negative")
	}
	switch c.Layout.Engine {
	case "dot", "graphviz", "level":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "layout.engine: unknown engine %q", c.Layout.Engine)
	}
	switch c.Cache.Backend {
	case CacheNone, CacheFile, CacheMemory, CacheRedis:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "cache.backend: unknown backend %q", c.Cache.Backend)
	}
	if c.Cache.MemorySize < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.memory_size must not be negative")
	}
	return nil
}

// Save writes cfg as TOML to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// EditorCommand returns the command used to edit configuration text.
func (c *Config) EditorCommand(lookup func(string) (string, bool)) string {
	if c.Editor.Command != "" {
		return c.Editor.Command
	}
	for _, key := range []string{"VISUAL", "EDITOR"} {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return "vi"
}
