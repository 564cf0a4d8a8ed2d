package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Vision   VisionConfig
	Catalog  CatalogConfig
	Cache    CacheConfig
	Matcher  MatcherConfig
	Database DatabaseConfig
	Auth     AuthConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxBodyBytes   int64    `mapstructure:"max_body_bytes"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// VisionConfig holds Google Cloud Vision configuration
type VisionConfig struct {
	CredentialsJSON string `mapstructure:"credentials_json"`
	ProjectID       string `mapstructure:"project_id"`
	Endpoint        string `mapstructure:"endpoint"`
}

// CatalogConfig holds BoardGameGeek XML API configuration.
// PageSize, MaxPages and the retry settings have no documented upstream
// rationale; they are kept as tunables.
type CatalogConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIToken          string        `mapstructure:"api_token"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryBaseDelay    time.Duration `mapstructure:"retry_base_delay"`
	PageSize          int           `mapstructure:"page_size"`
	MaxPages          int           `mapstructure:"max_pages"`
	DetailConcurrency int           `mapstructure:"detail_concurrency"`
	NotFoundTTL       time.Duration `mapstructure:"not_found_ttl"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type       string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL   string        `mapstructure:"redis_url"`
	TTL        time.Duration `mapstructure:"ttl"` // 0 keeps entries for the process lifetime
	MaxEntries int           `mapstructure:"max_entries"`
}

// MatcherConfig holds shelf matching configuration
type MatcherConfig struct {
	BatchSize       int           `mapstructure:"batch_size"`
	BatchDelay      time.Duration `mapstructure:"batch_delay"`
	SkipNoiseLabels bool          `mapstructure:"skip_noise_labels"`
}

// DatabaseConfig holds persistence configuration
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // "sqlite" or "mysql"
	DSN    string `mapstructure:"dsn"`
}

// AuthConfig holds JWT configuration
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// Load loads configuration from .env files, environment variables and config files
func Load() (*Config, error) {
	LoadDotEnv()

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/gameshelf/")

	// Environment variable settings
	v.SetEnvPrefix("GAMESHELF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadDotEnv loads .env.local and .env if present.
// godotenv never overwrites variables already set in the environment.
func LoadDotEnv() []string {
	var loaded []string
	for _, f := range []string{".env.local", ".env"} {
		if _, err := os.Stat(f); err == nil {
			loaded = append(loaded, f)
		}
	}
	if len(loaded) > 0 {
		_ = godotenv.Load(loaded...)
	}
	return loaded
}

// bindLegacyEnv also accepts the unprefixed PORT and GOOGLE_CLOUD_* variables
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("server.port", "GAMESHELF_SERVER_PORT", "PORT")
	_ = v.BindEnv("vision.credentials_json", "GAMESHELF_VISION_CREDENTIALS_JSON", "GOOGLE_CLOUD_VISION_CREDENTIALS")
	_ = v.BindEnv("vision.project_id", "GAMESHELF_VISION_PROJECT_ID", "GOOGLE_CLOUD_PROJECT_ID")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.max_body_bytes", 50<<20)

	v.SetDefault("log.level", "info")

	// Vision defaults (empty credentials fall back to application default credentials)
	v.SetDefault("vision.credentials_json", "")
	v.SetDefault("vision.project_id", "")
	v.SetDefault("vision.endpoint", "")

	// Catalog defaults
	v.SetDefault("catalog.base_url", "https://boardgamegeek.com/xmlapi2")
	v.SetDefault("catalog.api_token", "")
	v.SetDefault("catalog.timeout", "30s")
	v.SetDefault("catalog.requests_per_second", 2.0)
	v.SetDefault("catalog.burst", 10)
	v.SetDefault("catalog.max_retries", 2)
	v.SetDefault("catalog.retry_base_delay", "500ms")
	v.SetDefault("catalog.page_size", 10)
	v.SetDefault("catalog.max_pages", 3)
	v.SetDefault("catalog.detail_concurrency", 10)
	v.SetDefault("catalog.not_found_ttl", "10m")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "0s")
	v.SetDefault("cache.max_entries", 10000)

	// Matcher defaults
	v.SetDefault("matcher.batch_size", 3)
	v.SetDefault("matcher.batch_delay", "1s")
	v.SetDefault("matcher.skip_noise_labels", false)

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "gameshelf.sqlite3")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "24h")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Database.Driver != "sqlite" && config.Database.Driver != "mysql" {
		return fmt.Errorf("database driver must be 'sqlite' or 'mysql', got: %s", config.Database.Driver)
	}

	if config.Catalog.PageSize < 1 {
		return fmt.Errorf("catalog page size must be positive, got: %d", config.Catalog.PageSize)
	}

	if config.Catalog.MaxPages < 1 {
		return fmt.Errorf("catalog max pages must be positive, got: %d", config.Catalog.MaxPages)
	}

	if config.Matcher.BatchSize < 1 {
		return fmt.Errorf("matcher batch size must be positive, got: %d", config.Matcher.BatchSize)
	}

	if config.Matcher.BatchDelay < 0 {
		return fmt.Errorf("matcher batch delay cannot be negative")
	}

	if config.Server.Environment == "production" && config.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required in production (set GAMESHELF_AUTH_JWT_SECRET)")
	}

	return nil
}
