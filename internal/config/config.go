package config

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shaond/tax2go-search/internal/domain/search/request"
)

// Config holds the tax2go-search service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	Storage   StorageConfig   `yaml:"storage"`
	Search    SearchConfig    `yaml:"search"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port              int   `yaml:"port"`
	ReadTimeoutSec    int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec   int   `yaml:"write_timeout_sec"`
	ShutdownSec       int   `yaml:"shutdown_timeout_sec"`
	RequestTimeoutSec int   `yaml:"request_timeout_sec"`
	MaxBodyBytes      int64 `yaml:"max_body_bytes"`

	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"` // empty disables CORS
	WebUIEnabled       bool     `yaml:"web_ui_enabled"`       // serves /ui and binds to loopback only
}

// ListenAddr returns the listen address. Enabling the web UI restricts it to loopback.
func (h HTTPConfig) ListenAddr() string {
	if h.WebUIEnabled {
		return net.JoinHostPort("127.0.0.1", strconv.Itoa(h.Port))
	}
	return fmt.Sprintf(":%d", h.Port)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys    []string `yaml:"api_keys"`    // empty disables bearer auth
	UserHeader string   `yaml:"user_header"` // header carrying the user identity
}

// StorageConfig holds on-disk index settings.
type StorageConfig struct {
	DataDir        string `yaml:"data_dir"`
	WriterMemoryMB int    `yaml:"writer_memory_mb"`
}

// WriterMemoryBytes returns the writer memory budget in bytes.
func (s StorageConfig) WriterMemoryBytes() uint64 {
	return uint64(s.WriterMemoryMB) << 20 //nolint:gosec // validated positive
}

// SearchConfig holds query defaults.
type SearchConfig struct {
	DefaultLimit       int `yaml:"default_limit"`
	DefaultBrowseLimit int `yaml:"default_browse_limit"`
	SlowQueryMs        int `yaml:"slow_query_ms"`
}

// SlowQueryThreshold returns the duration above which a search is logged as slow.
func (s SearchConfig) SlowQueryThreshold() time.Duration {
	return time.Duration(s.SlowQueryMs) * time.Millisecond
}

// RateLimitConfig holds per-user request rate limits. RequestsPerSec <= 0 disables limiting.
type RateLimitConfig struct {
	RequestsPerSec float64 `yaml:"requests_per_sec"`
	Burst          int     `yaml:"burst"`
	MaxUsers       int     `yaml:"max_users"` // size of the limiter table
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level         string `yaml:"level"`           // debug, info, warn, error (default: determined by env)
	IncludeUserID bool   `yaml:"include_user_id"` // log raw identities next to their hash
	UserHashSalt  string `yaml:"user_hash_salt"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit YAML file.
func LoadFile(configPath string) (Config, error) {
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
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 15
	}
	if c.HTTP.RequestTimeoutSec <= 0 {
		c.HTTP.RequestTimeoutSec = 30
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = 8 << 20
	}
	if c.HTTP.CORSAllowedOrigins == nil {
		c.HTTP.CORSAllowedOrigins = []string{"*"}
	}
	if c.Auth.UserHeader == "" {
		c.Auth.UserHeader = "X-User-Id"
	}
	if c.Storage.WriterMemoryMB <= 0 {
		c.Storage.WriterMemoryMB = 50
	}
	if c.Search.DefaultLimit <= 0 {
		c.Search.DefaultLimit = request.DefaultLimit
	}
	if c.Search.DefaultBrowseLimit <= 0 {
		c.Search.DefaultBrowseLimit = request.DefaultBrowseLimit
	}
	if c.Search.SlowQueryMs <= 0 {
		c.Search.SlowQueryMs = 500
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 20
	}
	if c.RateLimit.MaxUsers <= 0 {
		c.RateLimit.MaxUsers = 10000
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if strings.TrimSpace(c.Storage.DataDir) == "" {
		return fmt.Errorf("storage.data_dir is required")
	}
	if c.Search.DefaultLimit > request.MaxLimit {
		return fmt.Errorf("search.default_limit must not exceed %d, got %d", request.MaxLimit, c.Search.DefaultLimit)
	}
	if c.Search.DefaultBrowseLimit > request.MaxBrowseLimit {
		return fmt.Errorf("search.default_browse_limit must not exceed %d, got %d",
			request.MaxBrowseLimit, c.Search.DefaultBrowseLimit)
	}
	if c.RateLimit.RequestsPerSec < 0 {
		return fmt.Errorf("rate_limit.requests_per_sec must not be negative, got %v", c.RateLimit.RequestsPerSec)
	}
	if http.CanonicalHeaderKey(c.Auth.UserHeader) == "Authorization" {
		return fmt.Errorf("auth.user_header must not be Authorization")
	}
	for i, k := range c.Auth.APIKeys {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("auth.api_keys[%d] is empty", i)
		}
	}
	return nil
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
