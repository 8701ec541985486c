package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the wikiquery API configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Backend BackendConfig `yaml:"backend"`
	Redis   RedisConfig   `yaml:"redis"`
	Graph   GraphConfig   `yaml:"graph"`
	Query   QueryConfig   `yaml:"query"`
	Breaker BreakerConfig `yaml:"breaker"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// Backend drivers.
const (
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// BackendConfig selects where articles live.
type BackendConfig struct {
	Driver  string `yaml:"driver"`  // redis (Redis + Neo4j) or memory (default: redis)
	Fixture string `yaml:"fixture"` // YAML corpus for the memory driver
}

// RedisConfig holds search index connection settings.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
}

// GraphConfig holds Neo4j connection settings.
type GraphConfig struct {
	URI              string `yaml:"uri"`
	Username         string `yaml:"username"`
	Password         string `yaml:"password"`
	Database         string `yaml:"database"`
	ReadinessTimeout int    `yaml:"readiness_timeout_sec"`
}

// QueryConfig holds pipeline limits.
type QueryConfig struct {
	TimeoutMs           int `yaml:"timeout_ms"`
	BackendTimeoutMs    int `yaml:"backend_timeout_ms"`
	Workers             int `yaml:"workers"`
	MaxTextHits         int `yaml:"max_text_hits"`
	IdentityInlineLimit int `yaml:"identity_inline_limit"`
	DefaultPageSize     int `yaml:"default_page_size"`
	MaxPageSize         int `yaml:"max_page_size"`
}

// BreakerConfig holds circuit breaker settings shared by all backends.
type BreakerConfig struct {
	Enabled     bool    `yaml:"enabled"`
	MaxRequests uint32  `yaml:"max_requests"`
	MinRequests uint32  `yaml:"min_requests"`
	IntervalSec int     `yaml:"interval_sec"`
	TimeoutSec  int     `yaml:"timeout_sec"`
	TripRatio   float64 `yaml:"trip_ratio"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Backend.Driver == "" {
		c.Backend.Driver = DriverRedis
	}
	if c.Redis.ReadinessTimeout <= 0 {
		c.Redis.ReadinessTimeout = 10
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "wikiquery:"
	}
	if c.Graph.Database == "" {
		c.Graph.Database = "neo4j"
	}
	if c.Graph.ReadinessTimeout <= 0 {
		c.Graph.ReadinessTimeout = 30
	}
	if c.Query.TimeoutMs <= 0 {
		c.Query.TimeoutMs = 5000
	}
	if c.Query.BackendTimeoutMs <= 0 {
		c.Query.BackendTimeoutMs = 2000
	}
	if c.Query.Workers <= 0 {
		c.Query.Workers = 8
	}
	if c.Query.MaxTextHits <= 0 {
		c.Query.MaxTextHits = 10000
	}
	if c.Query.IdentityInlineLimit <= 0 {
		c.Query.IdentityInlineLimit = 256
	}
	if c.Query.DefaultPageSize <= 0 {
		c.Query.DefaultPageSize = 20
	}
	if c.Query.MaxPageSize <= 0 {
		c.Query.MaxPageSize = 1000
	}
	if c.Breaker.MaxRequests == 0 {
		c.Breaker.MaxRequests = 1
	}
	if c.Breaker.MinRequests == 0 {
		c.Breaker.MinRequests = 10
	}
	if c.Breaker.IntervalSec <= 0 {
		c.Breaker.IntervalSec = 60
	}
	if c.Breaker.TimeoutSec <= 0 {
		c.Breaker.TimeoutSec = 30
	}
	if c.Breaker.TripRatio <= 0 {
		c.Breaker.TripRatio = 0.5
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Backend.Driver {
	case DriverRedis:
		if len(c.Redis.Addrs) == 0 {
			return fmt.Errorf("redis.addrs is required")
		}
		if c.Graph.URI == "" {
			return fmt.Errorf("graph.uri is required")
		}
	case DriverMemory:
		if c.Backend.Fixture == "" {
			return fmt.Errorf("backend.fixture is required for the memory driver")
		}
	default:
		return fmt.Errorf("backend.driver must be %q or %q, got %q", DriverRedis, DriverMemory, c.Backend.Driver)
	}
	if c.Query.DefaultPageSize > c.Query.MaxPageSize {
		return fmt.Errorf("query.default_page_size (%d) exceeds query.max_page_size (%d)",
			c.Query.DefaultPageSize, c.Query.MaxPageSize)
	}
	if c.Breaker.TripRatio > 1 {
		return fmt.Errorf("breaker.trip_ratio must be in (0, 1], got %g", c.Breaker.TripRatio)
	}
	return nil
}

// QueryTimeout returns the overall evaluation timeout.
func (q QueryConfig) QueryTimeout() time.Duration {
	return time.Duration(q.TimeoutMs) * time.Millisecond
}

// BackendTimeout returns the per-call backend timeout.
func (q QueryConfig) BackendTimeout() time.Duration {
	return time.Duration(q.BackendTimeoutMs) * time.Millisecond
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
