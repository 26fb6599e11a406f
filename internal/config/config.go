// Package config provides unified configuration loading for the phone advisor.
// Supports YAML files, .env files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Catalog sources.
const (
	CatalogEmbedded = "embedded"
	CatalogFile     = "file"
	CatalogSQLite   = "sqlite"
	CatalogPostgres = "postgres"
)

// No-results policies for catalog lookups that match nothing.
const (
	PolicyGuidance     = "guidance"
	PolicyAlternatives = "alternatives"
)

// Generation providers.
const (
	ProviderNone   = "none"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds all configuration for the phone advisor.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Catalog       CatalogConfig       `yaml:"catalog"`
	Assistant     AssistantConfig     `yaml:"assistant"`
	Safety        SafetyConfig        `yaml:"safety"`
	Generation    GenerationConfig    `yaml:"generation"`
	Cache         CacheConfig         `yaml:"cache"`
	Audit         AuditConfig         `yaml:"audit"`
	Auth          AuthConfig          `yaml:"auth"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	CORSOrigins      []string      `yaml:"cors_origins"`
	MaxBodyBytes     int64         `yaml:"max_body_bytes"`
}

// CatalogConfig selects where the phone catalog is loaded from.
type CatalogConfig struct {
	Source string `yaml:"source"` // embedded, file, sqlite or postgres
	Path   string `yaml:"path"`   // YAML file or sqlite database path
	DSN    string `yaml:"dsn"`    // postgres connection string
}

// AssistantConfig tunes the orchestrator.
type AssistantConfig struct {
	NoResultsPolicy    string   `yaml:"no_results_policy"`
	MaxHistory         int      `yaml:"max_history"`
	SearchLimit        int      `yaml:"search_limit"`
	FeatureRatingFloor float64  `yaml:"feature_rating_floor"`
	PopularPhoneIDs    []string `yaml:"popular_phone_ids"`
}

// SafetyConfig tunes the safety filter.
type SafetyConfig struct {
	ToxicMatch         string `yaml:"toxic_match"` // token or substring
	MaxSanitizedLength int    `yaml:"max_sanitized_length"`
}

// GenerationConfig configures the optional text generation provider.
type GenerationConfig struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
	Temperature float64       `yaml:"temperature"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Driver     string      `yaml:"driver"` // memory or redis
	MaxEntries int         `yaml:"max_entries"`
	Redis      RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"` // host:port or redis:// URL
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	Prefix   string `yaml:"prefix"`
}

// AuditConfig controls turn auditing.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Channel string `yaml:"channel"` // redis channel, empty disables publishing
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	Enabled      bool     `yaml:"enabled"`
	JWTSecret    string   `yaml:"jwt_secret"`
	JWTIssuer    string   `yaml:"jwt_issuer"`
	APIKeyHashes []string `yaml:"api_key_hashes"` // bcrypt hashes
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	ServiceName string `yaml:"service_name"`
}

// Load reads configuration from a YAML file and applies .env and environment overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()
	_ = godotenv.Load("../.env")

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}

		if cfg.Catalog.Path != "" && cfg.Catalog.Source != CatalogPostgres {
			cfg.Catalog.Path = ResolveRelativePath(path, cfg.Catalog.Path)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8090,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     60 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
			RequestTimeout:   45 * time.Second,
			CORSOrigins:      []string{"*"},
			MaxBodyBytes:     64 << 10,
		},
		Catalog: CatalogConfig{
			Source: CatalogEmbedded,
		},
		Assistant: AssistantConfig{
			NoResultsPolicy:    PolicyGuidance,
			MaxHistory:         6,
			SearchLimit:        6,
			FeatureRatingFloor: 4.0,
			PopularPhoneIDs:    []string{"iphone-15-pro", "pixel-8a", "samsung-galaxy-s24"},
		},
		Safety: SafetyConfig{
			ToxicMatch:         "token",
			MaxSanitizedLength: 500,
		},
		Generation: GenerationConfig{
			Provider:    ProviderNone,
			Model:       "gemini-1.5-flash",
			Timeout:     20 * time.Second,
			MaxRetries:  2,
			Temperature: 0.7,
			CacheTTL:    24 * time.Hour,
		},
		Cache: CacheConfig{
			Driver:     "memory",
			MaxEntries: 1000,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				DB:       0,
				PoolSize: 10,
				Prefix:   "advisor:",
			},
		},
		Audit: AuditConfig{
			Enabled: true,
		},
		Auth: AuthConfig{
			Enabled:   false,
			JWTIssuer: "phone-advisor",
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogFormat:   "json",
			ServiceName: "phone-advisor",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Catalog.Source {
	case CatalogEmbedded:
	case CatalogFile, CatalogSQLite:
		if c.Catalog.Path == "" {
			return fmt.Errorf("catalog source %s requires a path", c.Catalog.Source)
		}
	case CatalogPostgres:
		if c.Catalog.DSN == "" {
			return fmt.Errorf("catalog source postgres requires a dsn")
		}
	default:
		return fmt.Errorf("invalid catalog source: %s", c.Catalog.Source)
	}

	if c.Assistant.NoResultsPolicy != PolicyGuidance && c.Assistant.NoResultsPolicy != PolicyAlternatives {
		return fmt.Errorf("invalid no_results_policy: %s", c.Assistant.NoResultsPolicy)
	}

	if c.Assistant.MaxHistory < 0 || c.Assistant.MaxHistory > 50 {
		return fmt.Errorf("max_history must be between 0 and 50")
	}

	if c.Assistant.SearchLimit < 1 {
		return fmt.Errorf("search_limit must be positive")
	}

	if c.Assistant.FeatureRatingFloor < 0 || c.Assistant.FeatureRatingFloor > 5 {
		return fmt.Errorf("feature_rating_floor must be between 0 and 5")
	}

	if c.Safety.ToxicMatch != "token" && c.Safety.ToxicMatch != "substring" {
		return fmt.Errorf("invalid toxic_match mode: %s", c.Safety.ToxicMatch)
	}

	switch c.Generation.Provider {
	case ProviderNone, ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("invalid generation provider: %s", c.Generation.Provider)
	}

	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	if c.Auth.Enabled && c.Auth.JWTSecret == "" && len(c.Auth.APIKeyHashes) == 0 {
		return fmt.Errorf("auth enabled but neither jwt_secret nor api_key_hashes is set")
	}

	return nil
}

// GenerationEnabled reports whether a generation provider is selected.
func (c *Config) GenerationEnabled() bool {
	return c.Generation.Provider != "" && c.Generation.Provider != ProviderNone
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}

	if v := os.Getenv("CATALOG_SOURCE"); v != "" {
		cfg.Catalog.Source = v
	}

	if v := os.Getenv("CATALOG_PATH"); v != "" {
		cfg.Catalog.Path = v
		if cfg.Catalog.Source == CatalogEmbedded {
			cfg.Catalog.Source = CatalogFile
		}
	}

	if v := os.Getenv("CATALOG_DSN"); v != "" {
		cfg.Catalog.DSN = v
		if strings.HasPrefix(v, "postgres") {
			cfg.Catalog.Source = CatalogPostgres
		}
	}

	if v := os.Getenv("NO_RESULTS_POLICY"); v != "" {
		cfg.Assistant.NoResultsPolicy = v
	}

	if v := os.Getenv("TOXIC_MATCH"); v != "" {
		cfg.Safety.ToxicMatch = v
	}

	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.Generation.Provider = v
	}

	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.Generation.Model = v
	}

	// Provider keys only apply to their own provider.
	switch cfg.Generation.Provider {
	case ProviderGemini:
		if v := os.Getenv("GEMINI_API_KEY"); v != "" {
			cfg.Generation.APIKey = v
		}
	case ProviderOpenAI:
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			cfg.Generation.APIKey = v
		}
		if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
			cfg.Generation.BaseURL = v
		}
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.Addr = v
	}

	if v := os.Getenv("AUTH_ENABLED"); v == "true" {
		cfg.Auth.Enabled = true
	}

	if v := os.Getenv("AUTH_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ResolveRelativePath resolves a path relative to the config file location.
func ResolveRelativePath(configPath, targetPath string) string {
	if filepath.IsAbs(targetPath) {
		return targetPath
	}
	return filepath.Join(filepath.Dir(configPath), targetPath)
}
