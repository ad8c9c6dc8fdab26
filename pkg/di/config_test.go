package di

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// unsetEnv clears key for the test and restores it afterwards.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.MemoryBackend != MemoryLRU {
		t.Errorf("expected lru memory tier, got %q", cfg.MemoryBackend)
	}
	if cfg.RedisAddr != "" || cfg.SQLDSN != "" {
		t.Error("default config must not require external services")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "unknown backend", mutate: func(c *Config) { c.MemoryBackend = "memcached" }, wantErr: true},
		{name: "missing backend", mutate: func(c *Config) { c.MemoryBackend = "" }, wantErr: true},
		{name: "negative stale time", mutate: func(c *Config) { c.StaleTime = -time.Second }, wantErr: true},
		{name: "negative size", mutate: func(c *Config) { c.MemorySize = -1 }, wantErr: true},
		{name: "unknown sql driver", mutate: func(c *Config) { c.SQLDSN = "x"; c.SQLDriver = "oracle" }, wantErr: true},
		{name: "postgres", mutate: func(c *Config) { c.SQLDSN = "postgres://localhost/db"; c.SQLDriver = "postgres" }},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv(EnvPrefix+"STALE_TIME", "2m")
	t.Setenv(EnvPrefix+"SERVE_STALE_ON_ERROR", "true")
	t.Setenv(EnvPrefix+"MEMORY_BACKEND", MemoryGoCache)
	t.Setenv(EnvPrefix+"MEMORY_SIZE", "42")
	t.Setenv(EnvPrefix+"REDIS_DB", "not-a-number")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.StaleTime != 2*time.Minute {
		t.Errorf("expected 2m, got %v", cfg.StaleTime)
	}
	if !cfg.ServeStaleHitOnError {
		t.Error("expected serve stale on error")
	}
	if cfg.MemoryBackend != MemoryGoCache || cfg.MemorySize != 42 {
		t.Errorf("unexpected memory config %q %d", cfg.MemoryBackend, cfg.MemorySize)
	}
	if cfg.RedisDB != 0 {
		t.Errorf("invalid numbers fall back to the default, got %d", cfg.RedisDB)
	}
}

func TestLoadConfig_File(t *testing.T) {
	for _, key := range []string{"MEMORY_BACKEND", "STALE_TIME", "REDIS_PREFIX"} {
		unsetEnv(t, EnvPrefix+key)
	}

	path := filepath.Join(t.TempDir(), "cache.env")
	content := "TIERED_CACHE_MEMORY_BACKEND=sturdyc\nTIERED_CACHE_STALE_TIME=90s\nTIERED_CACHE_REDIS_PREFIX=app\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.MemoryBackend != MemorySturdyc {
		t.Errorf("expected sturdyc, got %q", cfg.MemoryBackend)
	}
	if cfg.StaleTime != 90*time.Second {
		t.Errorf("expected 90s, got %v", cfg.StaleTime)
	}
	if cfg.RedisPrefix != "app" {
		t.Errorf("expected prefix app, got %q", cfg.RedisPrefix)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("expected error for a missing explicit file")
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv(EnvPrefix+"MEMORY_BACKEND", "memcached")
	if _, err := LoadConfig(); err == nil {
		t.Error("expected validation error")
	}
}
