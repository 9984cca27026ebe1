package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the engine configuration
type Config struct {
	BackendURL  string
	UserID      int
	PerPage     int
	ServiceName string
	Version     string
	Environment string
	LogLevel    string
	LogFormat   string

	// SearchDebounce is the quiet period after the last keystroke before a
	// query-only search fires.
	SearchDebounce time.Duration

	// RevealDelay is the pacing delay between a successful pack open and the
	// reveal. It exists so the reveal animation can play; it is not a timeout.
	RevealDelay time.Duration

	// CatalogTTL bounds how long cached pack catalog entries are served
	// before a re-fetch, since quantity fields go stale.
	CatalogTTL time.Duration

	// CatalogCacheSize is the maximum number of cached pack records.
	CatalogCacheSize int

	// RequestTimeout bounds every individual HTTP call to the backend.
	RequestTimeout time.Duration
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		BackendURL:  getEnv("BACKEND_URL", "http://localhost:8080"),
		ServiceName: getEnv("SERVICE_NAME", "packrat"),
		Version:     getEnv("VERSION", "dev"),
		Environment: getEnv("ENVIRONMENT", "dev"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
	}

	var err error
	if cfg.UserID, err = getEnvInt("USER_ID", DefaultUserID); err != nil {
		return nil, err
	}
	if cfg.PerPage, err = getEnvInt("PER_PAGE", DefaultPerPage); err != nil {
		return nil, err
	}
	if cfg.CatalogCacheSize, err = getEnvInt("CATALOG_CACHE_SIZE", DefaultCatalogCacheSize); err != nil {
		return nil, err
	}
	if cfg.SearchDebounce, err = getEnvMillis("SEARCH_DEBOUNCE_MS", DefaultSearchDebounce); err != nil {
		return nil, err
	}
	if cfg.RevealDelay, err = getEnvMillis("REVEAL_DELAY_MS", DefaultRevealDelay); err != nil {
		return nil, err
	}
	if cfg.CatalogTTL, err = getEnvMillis("CATALOG_TTL_MS", DefaultCatalogTTL); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = getEnvMillis("REQUEST_TIMEOUT_MS", DefaultRequestTimeout); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the loaded configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("BACKEND_URL must be set")
	}
	if c.UserID <= 0 {
		return fmt.Errorf("USER_ID must be positive, got %d", c.UserID)
	}
	if c.PerPage <= 0 {
		return fmt.Errorf("PER_PAGE must be positive, got %d", c.PerPage)
	}
	if c.SearchDebounce < 0 {
		return fmt.Errorf("SEARCH_DEBOUNCE_MS must be non-negative")
	}
	if c.RevealDelay < 0 {
		return fmt.Errorf("REVEAL_DELAY_MS must be non-negative")
	}
	if c.CatalogCacheSize <= 0 {
		return fmt.Errorf("CATALOG_CACHE_SIZE must be positive, got %d", c.CatalogCacheSize)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return v, nil
}

func getEnvMillis(key string, defaultValue time.Duration) (time.Duration, error) {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	ms, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
