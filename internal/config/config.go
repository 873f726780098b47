// Package config provides configuration loading and structs for the revgeo tools.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	LogLevel   string           `yaml:"log_level"`
	Index      IndexConfig      `yaml:"index"`
	Storage    StorageConfig    `yaml:"storage"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Search     SearchConfig     `yaml:"search"`
	Attributes AttributesConfig `yaml:"attributes"`
	Cache      CacheConfig      `yaml:"cache"`
	Import     ImportConfig     `yaml:"import"`
}

// IndexConfig selects the point index backend.
type IndexConfig struct {
	// Backend is one of "sqlite", "bleve" or "postgres".
	Backend string `yaml:"backend"`
	// Table is the SQL table holding places (sqlite and postgres only).
	Table string `yaml:"table"`
}

// StorageConfig holds paths for the local index backends.
type StorageConfig struct {
	DatabasePath   string `yaml:"database_path"`
	BleveIndexPath string `yaml:"bleve_index_path"`
}

// PostgresConfig holds connection settings for the postgres backend.
// DSN wins over the discrete fields when set.
type PostgresConfig struct {
	DSN          string `yaml:"dsn"`
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	DBName       string `yaml:"dbname"`
	SSLMode      string `yaml:"sslmode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// ConnString returns the postgres connection string.
func (p *PostgresConfig) ConnString() string {
	if p.DSN != "" {
		return p.DSN
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     p.Host + ":" + strconv.Itoa(p.Port),
		Path:     "/" + p.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(p.SSLMode),
	}
	if p.Password != "" {
		u.User = url.UserPassword(p.User, p.Password)
	} else {
		u.User = url.User(p.User)
	}
	return u.String()
}

// SearchConfig holds the adaptive search bounds and paging defaults.
type SearchConfig struct {
	// InitialDelta is doubled once before the first query.
	InitialDelta  float64 `yaml:"initial_delta"`
	MaxDelta      float64 `yaml:"max_delta"`
	MaxIterations int     `yaml:"max_iterations"`
	// ParallelSplit runs the two meridian split queries concurrently.
	ParallelSplit bool `yaml:"parallel_split"`
	DefaultCount  int  `yaml:"default_count"`
	MaxCount      int  `yaml:"max_count"`
}

// AttributesConfig controls the attribute catalog built at startup.
type AttributesConfig struct {
	Names     []string `yaml:"names"`
	MaxValues int      `yaml:"max_values"`
}

// CacheConfig holds Redis result cache settings.
type CacheConfig struct {
	Enabled          bool   `yaml:"enabled"`
	Addr             string `yaml:"addr"`
	Password         string `yaml:"password"`
	DB               int    `yaml:"db"`
	TTLSeconds       int    `yaml:"ttl_seconds"`
	GeohashPrecision int    `yaml:"geohash_precision"`
}

// TTL returns the cache entry lifetime.
func (c *CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// ImportConfig holds dataset import and watch settings.
type ImportConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	BatchSize   int      `yaml:"batch_size"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (i *ImportConfig) RecursiveOrDefault() bool {
	if i.Recursive != nil {
		return *i.Recursive
	}
	return true
}

// Load reads and parses the config file at path, applies environment overrides,
// expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyEnv(&cfg)
	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	for i := range cfg.Import.Directories {
		cfg.Import.Directories[i] = expandPath(cfg.Import.Directories[i], configDir)
	}

	return &cfg, nil
}

// LoadEnv loads .env files into the process environment. Missing files are ignored.
func LoadEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// ApplyEnv overrides cfg with PG_*, REDIS_* and REVGEO_* environment variables when set.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("REVGEO_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("REVGEO_INDEX_BACKEND"); v != "" {
		cfg.Index.Backend = v
	}
	if v := os.Getenv("PG_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("PG_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = n
		}
	}
	if v := os.Getenv("PG_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("PG_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("PG_DB"); v != "" {
		cfg.Postgres.DBName = v
	}
	if v := os.Getenv("PG_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
