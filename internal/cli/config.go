package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	cerrors "github.com/matzehuels/callchain/pkg/errors"
)

// Cache backends selectable in the config file.
const (
	cacheBackendFile  = "file"
	cacheBackendRedis = "redis"
	cacheBackendNone  = "none"
)

// defaultServerAddr is the listen address of the serve command.
const defaultServerAddr = "127.0.0.1:8420"

// Config is the on-disk configuration. Zero values mean "use the built-in
// default"; command-line flags override everything here.
//
//	page_size = 16384
//	image_base = 0x100000000
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "24h"
//
//	[server]
//	addr = ":8420"
type Config struct {
	PageSize  uint64       `toml:"page_size"`
	ImageBase uint64       `toml:"image_base"`
	Cache     CacheConfig  `toml:"cache"`
	Server    ServerConfig `toml:"server"`
}

// CacheConfig selects and configures the result cache.
type CacheConfig struct {
	Backend   string        `toml:"backend"` // file (default), redis, none
	Dir       string        `toml:"dir"`     // file backend directory
	RedisAddr string        `toml:"redis_addr"`
	TTL       time.Duration `toml:"ttl"` // 0 keeps the per-kind defaults
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// defaultConfig returns the configuration used when no file exists.
func defaultConfig() *Config {
	return &Config{
		Cache:  CacheConfig{Backend: cacheBackendFile},
		Server: ServerConfig{Addr: defaultServerAddr},
	}
}

// loadConfig reads the config file at path on top of the defaults. An empty
// path means the XDG default location, which may be absent; an explicit path
// must exist.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	explicit := path != ""
	if !explicit {
		p, err := configPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, cerrors.Wrap(cerrors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidInput, err, "config %s", path)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.PageSize != 0 {
		if err := cerrors.ValidatePageSize(c.PageSize); err != nil {
			return err
		}
	}
	switch c.Cache.Backend {
	case "", cacheBackendFile, cacheBackendNone:
	case cacheBackendRedis:
		if c.Cache.RedisAddr == "" {
			return cerrors.New(cerrors.ErrCodeInvalidInput, "cache.redis_addr is required for the redis backend")
		}
	default:
		return cerrors.New(cerrors.ErrCodeInvalidInput, "unknown cache backend %q (must be one of: file, redis, none)", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return cerrors.New(cerrors.ErrCodeInvalidInput, "cache.ttl must not be negative")
	}
	return nil
}

// configPath returns the config file location using XDG standard
// (~/.config/callchain/config.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}
