// Package config loads kintree settings from a TOML file and the environment.
//
// Precedence, lowest first: [Default], the config file, KINTREE_* environment
// variables, then command-line flags applied by the caller.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/graph"
)

const (
	// DefaultConfigDir is the directory under the user config dir.
	DefaultConfigDir = "kintree"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.toml"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Cache backends.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Environment variables read by [Config.ApplyEnv].
const (
	EnvAddr        = "KINTREE_ADDR"
	EnvStoreDriver = "KINTREE_STORE_DRIVER"
	EnvStoreDSN    = "KINTREE_STORE_DSN"
	EnvRedisAddr   = "KINTREE_REDIS_ADDR"
	EnvRedisDB     = "KINTREE_REDIS_DB"
)

// Config holds every runtime setting.
type Config struct {
	Server ServerConfig `toml:"server"`
	Store  StoreConfig  `toml:"store"`
	Cache  CacheConfig  `toml:"cache"`
	Layout LayoutConfig `toml:"layout"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string        `toml:"addr"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
	// CORSOrigin is sent as Access-Control-Allow-Origin. Empty disables CORS.
	CORSOrigin string `toml:"cors_origin"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
	// Database names the MongoDB database.
	Database string `toml:"database"`
}

// CacheConfig selects where layout results are cached.
type CacheConfig struct {
	Backend   string        `toml:"backend"`
	Dir       string        `toml:"dir"`
	RedisAddr string        `toml:"redis_addr"`
	RedisDB   int           `toml:"redis_db"`
	TTL       time.Duration `toml:"ttl"`
}

// LayoutConfig holds layout defaults for the API and the CLI.
type LayoutConfig struct {
	Placer    string  `toml:"placer"`
	Direction string  `toml:"direction"`
	RankSep   float64 `toml:"rank_sep"`
	NodeSep   float64 `toml:"node_sep"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Store: StoreConfig{
			Driver:   DriverMemory,
			Database: "kintree",
		},
		Cache: CacheConfig{
			Backend: CacheFile,
			TTL:     7 * 24 * time.Hour,
		},
		Layout: LayoutConfig{
			Placer:    "layered",
			Direction: graph.DirectionTB,
		},
	}
}

// DefaultPath returns the config file location under the user config
// directory, or "" when it cannot be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, DefaultConfigDir, DefaultConfigFile)
}

// Load reads path over the defaults and applies the environment. A missing
// file is not an error when path is the default location.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		_, err := toml.DecodeFile(path, cfg)
		switch {
		case err == nil:
		case os.IsNotExist(err) && !explicit:
		case os.IsNotExist(err):
			return nil, fmt.Errorf("config file not found: %s", path)
		default:
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from KINTREE_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvStoreDriver); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv(EnvStoreDSN); v != "" {
		c.Store.DSN = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Cache.RedisAddr = v
		c.Cache.Backend = CacheRedis
	}
	if v := os.Getenv(EnvRedisDB); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return errors.New(errors.ErrCodeInvalidRequest, "%s: %q is not a number", EnvRedisDB, v)
		}
		c.Cache.RedisDB = db
	}
	return nil
}

// Validate normalizes names and rejects unknown drivers and backends.
func (c *Config) Validate() error {
	c.Store.Driver = strings.ToLower(c.Store.Driver)
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres, DriverMongo:
		if c.Store.DSN == "" {
			return errors.New(errors.ErrCodeInvalidRequest, "store driver %s needs a dsn", c.Store.Driver)
		}
	default:
		return errors.New(errors.ErrCodeInvalidRequest, "unknown store driver %q", c.Store.Driver)
	}

	c.Cache.Backend = strings.ToLower(c.Cache.Backend)
	switch c.Cache.Backend {
	case CacheNone, CacheFile:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidRequest, "redis cache needs redis_addr")
		}
	default:
		return errors.New(errors.ErrCodeInvalidRequest, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidRequest, "cache ttl must be >= 0")
	}

	c.Layout.Direction = strings.ToUpper(c.Layout.Direction)
	if c.Layout.Direction != graph.DirectionTB && c.Layout.Direction != graph.DirectionLR {
		return errors.New(errors.ErrCodeInvalidRequest, "layout direction must be TB or LR, got %q", c.Layout.Direction)
	}
	if c.Server.Addr == "" {
		return errors.New(errors.ErrCodeInvalidRequest, "server addr cannot be empty")
	}
	return nil
}
