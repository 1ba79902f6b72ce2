package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Corpus source formats.
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
	FormatSQLite  = "sqlite"
)

// DefaultPromptTemplate renders the food description as a photography prompt.
const DefaultPromptTemplate = "A beautiful photograph of %s, food photography"

// Config holds the artpair configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Logging   LoggingConfig   `yaml:"logging"`
	Auth      AuthConfig      `yaml:"auth"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Pairing   PairingConfig   `yaml:"pairing"`
	Image     ImageConfig     `yaml:"image"`
	Cache     CacheConfig     `yaml:"cache"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. Empty disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// CORSConfig holds allowed browser origins. Empty disables CORS headers.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RateLimitConfig holds per-IP request limits. 0 disables limiting.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// CorpusConfig holds the two dataset sources.
type CorpusConfig struct {
	Recipes  TableConfig `yaml:"recipes"`
	Artworks TableConfig `yaml:"artworks"`
}

// TableConfig describes where a table lives and how its columns are named.
// Columns maps logical field names (name, description, title, artist, style,
// category, image_url) to source column names.
type TableConfig struct {
	Path    string            `yaml:"path"`
	Format  string            `yaml:"format"` // csv, parquet, sqlite (default: from extension)
	Table   string            `yaml:"table"`  // sqlite only
	Columns map[string]string `yaml:"columns"`
}

// PairingConfig holds matching pipeline settings.
type PairingConfig struct {
	ArtworkMatches int `yaml:"artwork_matches"`
}

// ImageConfig holds image synthesis provider settings.
type ImageConfig struct {
	Enabled           bool          `yaml:"enabled"`
	Provider          string        `yaml:"provider"`
	BaseURL           string        `yaml:"base_url"`
	APIKey            string        `yaml:"api_key"`
	Model             string        `yaml:"model"`
	Size              string        `yaml:"size"`
	PromptTemplate    *string       `yaml:"prompt_template"` // nil = default, "" = pass-through
	TimeoutSec        int           `yaml:"timeout_sec"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	Breaker           BreakerConfig `yaml:"breaker"`
}

// BreakerConfig holds circuit breaker settings for the image provider.
type BreakerConfig struct {
	MinRequests  uint32  `yaml:"min_requests"`
	FailureRatio float64 `yaml:"failure_ratio"`
	IntervalSec  int     `yaml:"interval_sec"`
	OpenSec      int     `yaml:"open_sec"`
}

// CacheConfig holds the optional Redis/Valkey image cache. Empty addrs disables it.
type CacheConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	TTLHours         int      `yaml:"ttl_hours"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
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
		// Image synthesis on CPU takes minutes.
		c.HTTP.WriteTimeoutSec = 300
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Pairing.ArtworkMatches <= 0 {
		c.Pairing.ArtworkMatches = 3
	}

	c.Corpus.Recipes.applyDefaults(map[string]string{
		"name":        "name",
		"description": "description",
	}, "recipes")
	c.Corpus.Artworks.applyDefaults(map[string]string{
		"title":     "Title",
		"artist":    "Artist",
		"style":     "Style",
		"category":  "Category",
		"image_url": "Image URL",
	}, "artworks")

	if c.Image.Provider == "" {
		c.Image.Provider = "openai"
	}
	if c.Image.Model == "" {
		c.Image.Model = "stable-diffusion-v1-5"
	}
	if c.Image.Size == "" {
		c.Image.Size = "512x512"
	}
	if c.Image.PromptTemplate == nil {
		tpl := DefaultPromptTemplate
		c.Image.PromptTemplate = &tpl
	}
	if c.Image.TimeoutSec <= 0 {
		c.Image.TimeoutSec = 240
	}
	if c.Image.RequestsPerSecond <= 0 {
		c.Image.RequestsPerSecond = 1
	}
	if c.Image.Burst <= 0 {
		c.Image.Burst = 2
	}
	if c.Image.Breaker.MinRequests == 0 {
		c.Image.Breaker.MinRequests = 5
	}
	if c.Image.Breaker.FailureRatio <= 0 {
		c.Image.Breaker.FailureRatio = 0.6
	}
	if c.Image.Breaker.IntervalSec <= 0 {
		c.Image.Breaker.IntervalSec = 60
	}
	if c.Image.Breaker.OpenSec <= 0 {
		c.Image.Breaker.OpenSec = 120
	}

	if c.Cache.TTLHours <= 0 {
		c.Cache.TTLHours = 24
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
}

func (t *TableConfig) applyDefaults(columns map[string]string, table string) {
	if t.Format == "" {
		t.Format = formatFromPath(t.Path)
	}
	if t.Table == "" {
		t.Table = table
	}
	if t.Columns == nil {
		t.Columns = make(map[string]string, len(columns))
	}
	for field, col := range columns {
		if t.Columns[field] == "" {
			t.Columns[field] = col
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if err := c.Corpus.Recipes.validate("corpus.recipes"); err != nil {
		return err
	}
	if err := c.Corpus.Artworks.validate("corpus.artworks"); err != nil {
		return err
	}
	if c.RateLimit.RequestsPerMinute < 0 {
		return fmt.Errorf("rate_limit.requests_per_minute must not be negative")
	}
	if c.Image.Enabled {
		if c.Image.BaseURL == "" {
			return fmt.Errorf("image.base_url is required when image.enabled is true")
		}
		if c.Image.Provider != "openai" {
			return fmt.Errorf("image.provider must be \"openai\", got %q", c.Image.Provider)
		}
		if c.Image.Breaker.FailureRatio > 1 {
			return fmt.Errorf("image.breaker.failure_ratio must be in (0,1], got %g", c.Image.Breaker.FailureRatio)
		}
		if tpl := *c.Image.PromptTemplate; tpl != "" && strings.Count(tpl, "%s") != 1 {
			return fmt.Errorf("image.prompt_template must contain exactly one %%s, got %q", tpl)
		}
	}
	return nil
}

func (t *TableConfig) validate(section string) error {
	if t.Path == "" {
		return fmt.Errorf("%s.path is required", section)
	}
	switch t.Format {
	case FormatCSV, FormatParquet, FormatSQLite:
		return nil
	default:
		return fmt.Errorf("%s.format must be csv, parquet or sqlite, got %q", section, t.Format)
	}
}

func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return FormatParquet
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	case ".csv":
		return FormatCSV
	default:
		return ""
	}
}

// findConfigPath locates config/<env>.yaml in the working directory or project root.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// envVarRegex matches ${VAR} and ${VAR:-default}.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
