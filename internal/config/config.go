// Package config loads the service configuration from the environment.
//
// Files are loaded before the environment is read, in this order (earlier wins,
// and variables already set in the process environment are never overridden):
//
//  1. ENV_FILE (if set, loads only this file)
//  2. .env.local
//  3. .env
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/nurulhuda/masjid-content/internal/core/domain"
)

// Run modes
const (
	ModeServe = "serve"
	ModeWarm  = "warm"
	ModeToken = "token"
)

// Cache backends
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds every setting of the service
type Config struct {
	RunMode string `validate:"oneof=serve warm token"`

	Host      string `validate:"required"`
	Port      int    `validate:"min=1,max=65535"`
	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=json text"`

	ContentAPIURL     string        `validate:"required,url"`
	ContentAPITimeout time.Duration `validate:"gt=0"`
	UserAgent         string

	CacheBackend string                               `validate:"oneof=memory redis postgres"`
	RedisURL     string                               `validate:"required_if=CacheBackend redis"`
	DatabaseURL  string                               `validate:"required_if=CacheBackend postgres"`
	CacheTTL     time.Duration                        `validate:"gt=0"`
	CacheTTLs    map[domain.ContentType]time.Duration `validate:"-"`

	CatalogConcurrency int           `validate:"min=1,max=64"`
	CatalogItemTimeout time.Duration `validate:"gt=0"`
	CatalogMaxPageSize int           `validate:"min=1,max=1000"`
	SearchDefaultLimit int           `validate:"min=1"`
	SearchMaxLimit     int           `validate:"gtefield=SearchDefaultLimit"`

	AdminJWTSecret string
	SiteBaseURL    string `validate:"required,url"`
	WarmSchedule   string
	CORSOrigins    []string
}

// Load reads .env files and the environment. args are the command line
// arguments after the program name; the first one overrides RUN_MODE.
func Load(args []string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	var errs []error
	cfg := &Config{
		RunMode:            getEnv("RUN_MODE", ModeServe),
		Host:               getEnv("HOST", "0.0.0.0"),
		Port:               getEnvInt("PORT", 8080, &errs),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "json")),
		ContentAPIURL:      getEnv("CONTENT_API_URL", "https://api.myquran.com/v2"),
		ContentAPITimeout:  getEnvDuration("CONTENT_API_TIMEOUT", 4*time.Second, &errs),
		UserAgent:          getEnv("USER_AGENT", "masjid-content/1.0"),
		CacheBackend:       strings.ToLower(getEnv("CACHE_BACKEND", BackendMemory)),
		RedisURL:           getEnv("REDIS_URL", ""),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		CacheTTL:           getEnvDuration("CACHE_TTL", 24*time.Hour, &errs),
		CacheTTLs:          make(map[domain.ContentType]time.Duration),
		CatalogConcurrency: getEnvInt("CATALOG_CONCURRENCY", 8, &errs),
		CatalogItemTimeout: getEnvDuration("CATALOG_ITEM_TIMEOUT", 5*time.Second, &errs),
		CatalogMaxPageSize: getEnvInt("CATALOG_MAX_PAGE_SIZE", 100, &errs),
		SearchDefaultLimit: getEnvInt("SEARCH_DEFAULT_LIMIT", 20, &errs),
		SearchMaxLimit:     getEnvInt("SEARCH_MAX_LIMIT", 100, &errs),
		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		SiteBaseURL:        strings.TrimRight(getEnv("SITE_BASE_URL", "http://localhost:8080"), "/"),
		WarmSchedule:       getEnv("WARM_SCHEDULE", ""),
		CORSOrigins:        splitList(getEnv("CORS_ORIGINS", "")),
	}
	if len(args) > 0 && args[0] != "" {
		cfg.RunMode = args[0]
	}

	for _, t := range domain.AllContentTypes() {
		name := "CACHE_TTL_" + strings.ToUpper(string(t))
		if ttl := getEnvDuration(name, 0, &errs); ttl > 0 {
			cfg.CacheTTLs[t] = ttl
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", errors.Join(errs...), domain.ErrConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s: %w", strings.Join(msgs, ", "), domain.ErrConfig)
		}
		return fmt.Errorf("invalid configuration: %v: %w", err, domain.ErrConfig)
	}
	return nil
}

// loadEnvFiles loads .env files; missing files are ignored
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	// godotenv never overrides, so .env.local loaded first takes precedence
	if err := godotenv.Load(".env.local"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env.local: %w", err)
	}
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int, errs *[]error) int {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s=%q is not an integer", key, value))
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s=%q is not a duration", key, value))
		return defaultValue
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
