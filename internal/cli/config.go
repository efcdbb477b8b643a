package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/store/mongo"
)

// Cache backends for serve.
const (
	cacheBackendFile  = "file"
	cacheBackendRedis = "redis"
	cacheBackendNone  = "none"
)

// Store backends for serve.
const (
	storeBackendMemory = "memory"
	storeBackendFile   = "file"
	storeBackendMongo  = "mongo"
)

// Config is the on-disk configuration.
//
//	[layout]
//	horizontal_spacing = 240
//
//	[cache]
//	backend = "redis"
//	[cache.redis]
//	addr = "localhost:6379"
//
//	[server]
//	addr = ":8080"
//
//	[store]
//	backend = "mongo"
//	[store.mongo]
//	uri = "mongodb://localhost:27017"
type Config struct {
	Layout layout.Config `toml:"layout"`
	Cache  CacheConfig   `toml:"cache"`
	Server ServerConfig  `toml:"server"`
	Store  StoreConfig   `toml:"store"`
}

// CacheConfig selects the layout cache. The CLI commands always use the
// file cache; Backend only applies to serve.
type CacheConfig struct {
	Dir      string            `toml:"dir"`
	Disabled bool              `toml:"disabled"`
	Backend  string            `toml:"backend"`
	Prefix   string            `toml:"prefix"`
	Redis    cache.RedisConfig `toml:"redis"`
}

// ServerConfig configures serve.
type ServerConfig struct {
	Addr         string `toml:"addr"`
	MaxBodyBytes int64  `toml:"max_body_bytes"`
}

// StoreConfig selects where serve keeps trees.
type StoreConfig struct {
	Backend string       `toml:"backend"`
	Dir     string       `toml:"dir"`
	Mongo   mongo.Config `toml:"mongo"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Layout: layout.DefaultConfig(),
		Cache:  CacheConfig{Backend: cacheBackendFile},
		Server: ServerConfig{Addr: ":8080"},
		Store:  StoreConfig{Backend: storeBackendMemory},
	}
}

// loadConfig reads path, or the default location when path is empty.
// A missing default file is not an error; a missing explicit file is.
func loadConfig(path string, logger *log.Logger) (Config, error) {
	cfg := DefaultConfig()
	explicit := path != ""
	if !explicit {
		dir, err := configDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(dir, "config.toml")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) && !explicit {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		logger.Warn("unknown config key", "key", key.String(), "file", path)
	}
	cfg.Layout = cfg.Layout.WithDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	logger.Debug("loaded config", "file", path)
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Cache.Backend {
	case "", cacheBackendFile, cacheBackendRedis, cacheBackendNone:
	default:
		return fmt.Errorf("cache.backend: unknown backend %q (want file, redis or none)", c.Cache.Backend)
	}
	switch c.Store.Backend {
	case "", storeBackendMemory, storeBackendFile, storeBackendMongo:
	default:
		return fmt.Errorf("store.backend: unknown backend %q (want memory, file or mongo)", c.Store.Backend)
	}
	if c.Cache.Backend == cacheBackendRedis && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr is required for the redis backend")
	}
	if c.Store.Backend == storeBackendMongo && c.Store.Mongo.URI == "" {
		return fmt.Errorf("store.mongo.uri is required for the mongo backend")
	}
	return nil
}
