package di

import (
	"os"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by LoadConfig.
const EnvPrefix = "TIERED_CACHE_"

// Memory tier backends.
const (
	MemoryLRU      = "lru"
	MemorySturdyc  = "sturdyc"
	MemoryGoCache  = "go-cache"
	MemoryDisabled = "none"
)

// Config describes the tiers and defaults a Container builds.
type Config struct {
	// StaleTime is the default freshness window. Zero means Forever.
	StaleTime            time.Duration
	ServeStaleHitOnError bool

	// MemoryBackend selects the first tier: lru, sturdyc, go-cache or none.
	MemoryBackend string
	MemorySize    int
	MemoryTTL     time.Duration
	// MemoryRetention bounds how long sturdyc and go-cache keep entries.
	MemoryRetention time.Duration

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RedisPrefix     string
	RedisExpiration time.Duration

	SQLDriver      string
	SQLDSN         string
	SQLAutoMigrate bool

	LogLevel string
}

// DefaultConfig returns an in-process only configuration.
func DefaultConfig() Config {
	return Config{
		StaleTime:       5 * time.Minute,
		MemoryBackend:   MemoryLRU,
		MemorySize:      1000,
		MemoryRetention: 24 * time.Hour,
		RedisPrefix:     "cache",
		SQLDriver:       "sqlite3",
		SQLAutoMigrate:  true,
		LogLevel:        "info",
	}
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.StaleTime, validation.Min(time.Duration(0))),
		validation.Field(&c.MemoryBackend, validation.Required, validation.In(MemoryLRU, MemorySturdyc, MemoryGoCache, MemoryDisabled)),
		validation.Field(&c.MemorySize, validation.Min(0)),
		validation.Field(&c.MemoryTTL, validation.Min(time.Duration(0))),
		validation.Field(&c.MemoryRetention, validation.Min(time.Duration(0))),
		validation.Field(&c.RedisDB, validation.Min(0)),
		validation.Field(&c.RedisExpiration, validation.Min(time.Duration(0))),
		validation.Field(&c.SQLDriver, validation.When(c.SQLDSN != "", validation.Required, validation.In("sqlite3", "sqlite", "postgres", "pg"))),
		validation.Field(&c.LogLevel, validation.In("trace", "debug", "info", "warn", "warning", "error")),
	)
}

// LoadConfig reads the configuration from the environment, after loading
// files into it. Without files, a .env in the working directory is loaded
// when present.
func LoadConfig(files ...string) (Config, error) {
	if len(files) == 0 {
		_ = godotenv.Load()
	} else if err := godotenv.Load(files...); err != nil {
		return Config{}, err
	}

	d := DefaultConfig()
	cfg := Config{
		StaleTime:            getDurationEnv("STALE_TIME", d.StaleTime),
		ServeStaleHitOnError: getBoolEnv("SERVE_STALE_ON_ERROR", d.ServeStaleHitOnError),
		MemoryBackend:        getEnv("MEMORY_BACKEND", d.MemoryBackend),
		MemorySize:           getIntEnv("MEMORY_SIZE", d.MemorySize),
		MemoryTTL:            getDurationEnv("MEMORY_TTL", d.MemoryTTL),
		MemoryRetention:      getDurationEnv("MEMORY_RETENTION", d.MemoryRetention),
		RedisAddr:            getEnv("REDIS_ADDR", d.RedisAddr),
		RedisPassword:        getEnv("REDIS_PASSWORD", d.RedisPassword),
		RedisDB:              getIntEnv("REDIS_DB", d.RedisDB),
		RedisPrefix:          getEnv("REDIS_PREFIX", d.RedisPrefix),
		RedisExpiration:      getDurationEnv("REDIS_EXPIRATION", d.RedisExpiration),
		SQLDriver:            getEnv("SQL_DRIVER", d.SQLDriver),
		SQLDSN:               getEnv("SQL_DSN", d.SQLDSN),
		SQLAutoMigrate:       getBoolEnv("SQL_AUTO_MIGRATE", d.SQLAutoMigrate),
		LogLevel:             getEnv("LOG_LEVEL", d.LogLevel),
	}

	return cfg, cfg.Validate()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
