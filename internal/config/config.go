// Package config provides configuration loading and management for taskboard.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// DirName is the per-project data directory.
const DirName = ".taskboard"

// EnvPrefix prefixes environment overrides, e.g. TASKBOARD_HTTP_ADDR.
const EnvPrefix = "TASKBOARD"

// Config is the root configuration.
type Config struct {
	Storage   StorageConfig   `json:"storage"   mapstructure:"storage"   yaml:"storage"`
	HTTP      HTTPConfig      `json:"http"      mapstructure:"http"      yaml:"http"`
	Cache     CacheConfig     `json:"cache"     mapstructure:"cache"     yaml:"cache"`
	Hydration HydrationConfig `json:"hydration" mapstructure:"hydration" yaml:"hydration"`
	Board     BoardConfig     `json:"board"     mapstructure:"board"     yaml:"board"`
	Log       LogConfig       `json:"log"       mapstructure:"log"       yaml:"log"`
}

// StorageConfig locates the SQLite database.
type StorageConfig struct {
	Path string `json:"path" mapstructure:"path" yaml:"path"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr         string        `json:"addr"          mapstructure:"addr"          yaml:"addr"`
	ReadTimeout  time.Duration `json:"read_timeout"  mapstructure:"read_timeout"  yaml:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" mapstructure:"write_timeout" yaml:"write_timeout"`
}

// CacheConfig configures the optional Redis read cache. An empty RedisURL disables it.
type CacheConfig struct {
	RedisURL string        `json:"redis_url,omitempty" mapstructure:"redis_url" yaml:"redis_url,omitempty"`
	TTL      time.Duration `json:"ttl"                 mapstructure:"ttl"       yaml:"ttl"`
}

// HydrationConfig bounds concurrent root hydration.
type HydrationConfig struct {
	Concurrency int `json:"concurrency" mapstructure:"concurrency" yaml:"concurrency"`
}

// BoardConfig lists the stages seeded into an empty board.
type BoardConfig struct {
	Stages []string `json:"stages" mapstructure:"stages" yaml:"stages"`
}

// LogConfig selects the log output format (console or json).
type LogConfig struct {
	Format string `json:"format" mapstructure:"format" yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Storage: StorageConfig{Path: filepath.Join(DirName, "taskboard.db")},
		HTTP: HTTPConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Cache:     CacheConfig{TTL: 5 * time.Minute},
		Hydration: HydrationConfig{Concurrency: 4},
		Board:     BoardConfig{Stages: []string{"To Do", "Doing", "Done"}},
		Log:       LogConfig{Format: "console"},
	}
}

// DefaultPath is the config file location relative to the working directory.
func DefaultPath() string {
	return filepath.Join(DirName, "config.yaml")
}

// SetDefaults registers the built-in values on v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("http.read_timeout", d.HTTP.ReadTimeout.String())
	v.SetDefault("http.write_timeout", d.HTTP.WriteTimeout.String())
	v.SetDefault("cache.redis_url", d.Cache.RedisURL)
	v.SetDefault("cache.ttl", d.Cache.TTL.String())
	v.SetDefault("hydration.concurrency", d.Hydration.Concurrency)
	v.SetDefault("board.stages", d.Board.Stages)
	v.SetDefault("log.format", d.Log.Format)
}

// Load reads the config file at path (a missing file yields defaults), validates
// it against the schema, applies environment overrides and decodes it.
func Load(v *viper.Viper, path string) (Config, error) {
	SetDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	if err := ValidateSettings(v.AllSettings()); err != nil {
		return Config{}, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks decoded values, including those overridden from the environment.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Storage.Path) == "" {
		return fmt.Errorf("%w: storage.path is required", ErrInvalid)
	}
	if c.Hydration.Concurrency <= 0 {
		return fmt.Errorf("%w: hydration.concurrency must be > 0", ErrInvalid)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("%w: cache.ttl must not be negative", ErrInvalid)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: log.format must be console or json, got %q", ErrInvalid, c.Log.Format)
	}
	seen := make(map[string]struct{}, len(c.Board.Stages))
	for _, stage := range c.Board.Stages {
		name := strings.TrimSpace(stage)
		if name == "" {
			return fmt.Errorf("%w: board.stages must not contain empty names", ErrInvalid)
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("%w: board.stages contains duplicate %q", ErrInvalid, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}
