package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configurations
// All sensitive values are loaded from .env
type Config struct {
	// Server Configuration
	Environment        string
	ServerPort         string
	LogLevel           string
	LogDir             string
	RateLimitPerMinute int
	AllowedOrigins     []string
	AdminAPIKey        string // Protects the cache administration endpoints when set

	// Storage backend: redis, postgres or memory
	StorageBackend string

	// Redis configuration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisRoot     string

	// DB configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Cache namespaces
	CacheCodec          string
	CacheSingleFlight   bool
	ExerciseCache       NamespaceConfig
	ExerciseDetailCache NamespaceConfig
	GeneralCache        NamespaceConfig

	// Exercise API
	ExerciseAPIBaseURL string
	ExerciseAPIKey     string
	ExerciseAPIHost    string
	ExerciseAPITimeout time.Duration
	ExercisePageSize   int

	// Startup warmup
	PreloadOnStart   bool
	PreloadBodyParts []string
}

// NamespaceConfig is the prefix and default TTL of one cache namespace
type NamespaceConfig struct {
	KeyPrefix  string
	DefaultTTL time.Duration
}

// LoadConfig loads configuration from environment variables
// Returns error if required environment variables are missing
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Environment:        getEnv("ENVIRONMENT", "development"),
		ServerPort:         getEnv("SERVER_PORT", "8081"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogDir:             getEnv("LOG_DIR", "logs"),
		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 120),
		AllowedOrigins:     getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
		AdminAPIKey:        getEnv("ADMIN_API_KEY", ""),

		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", "redis")),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		RedisRoot:     getEnv("REDIS_ROOT", "nextrep:"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "nextrep"),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),

		CacheCodec:        strings.ToLower(getEnv("CACHE_CODEC", "json")),
		CacheSingleFlight: getEnvAsBool("CACHE_SINGLE_FLIGHT", false),
		ExerciseCache: NamespaceConfig{
			KeyPrefix:  getEnv("EXERCISE_CACHE_PREFIX", "exercises_"),
			DefaultTTL: getEnvAsDuration("EXERCISE_CACHE_TTL", time.Hour),
		},
		ExerciseDetailCache: NamespaceConfig{
			KeyPrefix:  getEnv("EXERCISE_DETAIL_CACHE_PREFIX", "exercise_details_"),
			DefaultTTL: getEnvAsDuration("EXERCISE_DETAIL_CACHE_TTL", 2*time.Hour),
		},
		GeneralCache: NamespaceConfig{
			KeyPrefix:  getEnv("GENERAL_CACHE_PREFIX", "general_"),
			DefaultTTL: getEnvAsDuration("GENERAL_CACHE_TTL", 30*time.Minute),
		},

		ExerciseAPIBaseURL: getEnv("EXERCISE_API_BASE_URL", "https://gym-fit.p.rapidapi.com"),
		ExerciseAPIKey:     getEnv("EXERCISE_API_KEY", ""),
		ExerciseAPIHost:    getEnv("EXERCISE_API_HOST", "gym-fit.p.rapidapi.com"),
		ExerciseAPITimeout: getEnvAsDuration("EXERCISE_API_TIMEOUT", 10*time.Second),
		ExercisePageSize:   getEnvAsInt("EXERCISE_PAGE_SIZE", 50),

		PreloadOnStart:   getEnvAsBool("PRELOAD_ON_START", false),
		PreloadBodyParts: getEnvAsList("PRELOAD_BODY_PARTS", []string{"legs", "arms", "chest", "abdominal", "back", "shoulders"}),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration is present and valid
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case "redis", "postgres", "memory":
	default:
		return fmt.Errorf("STORAGE_BACKEND must be redis, postgres or memory, got %q", c.StorageBackend)
	}

	switch c.CacheCodec {
	case "json", "msgpack":
	default:
		return fmt.Errorf("CACHE_CODEC must be json or msgpack, got %q", c.CacheCodec)
	}

	if c.StorageBackend == "postgres" && c.IsProduction() && c.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required in production")
	}

	if c.IsProduction() && c.ExerciseAPIKey == "" {
		return fmt.Errorf("EXERCISE_API_KEY is required in production")
	}

	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", c.RateLimitPerMinute)
	}

	namespaces := map[string]NamespaceConfig{
		"EXERCISE_CACHE":        c.ExerciseCache,
		"EXERCISE_DETAIL_CACHE": c.ExerciseDetailCache,
		"GENERAL_CACHE":         c.GeneralCache,
	}
	for name, ns := range namespaces {
		if ns.KeyPrefix == "" {
			return fmt.Errorf("%s_PREFIX cannot be empty", name)
		}
		if ns.DefaultTTL <= 0 {
			return fmt.Errorf("%s_TTL must be positive, got %s", name, ns.DefaultTTL)
		}
		for other, o := range namespaces {
			if other != name && strings.HasPrefix(ns.KeyPrefix, o.KeyPrefix) {
				return fmt.Errorf("%s_PREFIX %q overlaps %s_PREFIX %q", name, ns.KeyPrefix, other, o.KeyPrefix)
			}
		}
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowsOrigin reports whether origin is in CORS_ALLOWED_ORIGINS
func (c *Config) AllowsOrigin(origin string) bool {
	for _, allowed := range c.AllowedOrigins {
		if allowed == origin {
			return true
		}
	}
	return false
}

// PostgresDSN builds the connection string for the postgres backend
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode,
	)
}

// Helper functions for reading environment variables

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an environment variable as integer or returns default
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsBool reads an environment variable as boolean or returns default
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsDuration reads a Go duration string ("90m") or whole seconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}

	return defaultValue
}

// getEnvAsList reads a comma separated list, dropping blanks
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
