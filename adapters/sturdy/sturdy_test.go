package sturdy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-tiered-cache/cache"
	"github.com/goliatone/go-tiered-cache/pkg/testsupport"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Capacity != 10000 {
		t.Errorf("expected Capacity to be 10000, got %d", cfg.Capacity)
	}

	if cfg.NumShards != 256 {
		t.Errorf("expected NumShards to be 256, got %d", cfg.NumShards)
	}

	if cfg.Retention != 24*time.Hour {
		t.Errorf("expected Retention to be 24h, got %v", cfg.Retention)
	}

	if cfg.EvictionPercentage != 10 {
		t.Errorf("expected EvictionPercentage to be 10, got %d", cfg.EvictionPercentage)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected default config to be valid, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{name: "zero capacity", mutate: func(c *Config) { c.Capacity = 0 }, field: "Capacity"},
		{name: "zero shards", mutate: func(c *Config) { c.NumShards = 0 }, field: "NumShards"},
		{name: "zero retention", mutate: func(c *Config) { c.Retention = 0 }, field: "Retention"},
		{name: "eviction percentage too low", mutate: func(c *Config) { c.EvictionPercentage = 0 }, field: "EvictionPercentage"},
		{name: "eviction percentage too high", mutate: func(c *Config) { c.EvictionPercentage = 101 }, field: "EvictionPercentage"},
		{name: "negative eviction interval", mutate: func(c *Config) { c.EvictionInterval = -time.Second }, field: "EvictionInterval"},
		{name: "negative ttl", mutate: func(c *Config) { c.TTL = -time.Second }, field: "TTL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			var cfgErr *cache.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, cfgErr.Field)
			}
		})
	}
}

func TestToSturdycOptions(t *testing.T) {
	cfg := DefaultConfig()
	if got := len(cfg.ToSturdycOptions()); got != 0 {
		t.Errorf("expected no options, got %d", got)
	}

	cfg.EvictionInterval = time.Minute
	if got := len(cfg.ToSturdycOptions()); got != 1 {
		t.Errorf("expected 1 option, got %d", got)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	if _, err := New[string](Config{}); err == nil {
		t.Error("expected error for empty config")
	}
}

func TestAdapter_GetSetEvict(t *testing.T) {
	a, err := New[string](DefaultConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()

	if entry, err := a.Get(ctx, "missing"); err != nil || entry != nil {
		t.Fatalf("expected absent entry, got %+v, %v", entry, err)
	}

	created := time.Now()
	value, err := a.Set(ctx, "k", &cache.Entry[string]{Value: "v", Metadata: cache.NewMetadata(created, time.Minute)})
	if err != nil || value != "v" {
		t.Fatalf("Set returned %q, %v", value, err)
	}

	entry, err := a.Get(ctx, "k")
	if err != nil || entry == nil {
		t.Fatalf("expected entry, got %+v, %v", entry, err)
	}
	if entry.Value != "v" || entry.Metadata.TTL != time.Minute {
		t.Errorf("unexpected entry %+v", entry)
	}

	if err := a.Evict(ctx, "k"); err != nil {
		t.Fatalf("Evict failed: %v", err)
	}
	if entry, _ := a.Get(ctx, "k"); entry != nil {
		t.Error("expected entry to be evicted")
	}
}

func TestAdapter_KeepsStaleEntries(t *testing.T) {
	a, err := New[string](DefaultConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()

	old := time.Now().Add(-time.Hour)
	if _, err := a.Set(ctx, "k", &cache.Entry[string]{Value: "v", Metadata: cache.NewMetadata(old, time.Minute)}); err != nil {
		t.Fatal(err)
	}

	entry, _ := a.Get(ctx, "k")
	if entry == nil {
		t.Fatal("stale entries must stay until retention passes")
	}
	if cache.IsFresh(entry, time.Now()) {
		t.Error("entry should be stale")
	}
}

func TestAdapter_EvictPrefix(t *testing.T) {
	a, err := New[int](DefaultConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()

	for i, key := range []string{"users::1", "users::2", "posts::1"} {
		if _, err := a.Set(ctx, key, &cache.Entry[int]{Value: i}); err != nil {
			t.Fatal(err)
		}
	}

	if err := a.EvictPrefix(ctx, "users::"); err != nil {
		t.Fatalf("EvictPrefix failed: %v", err)
	}
	if a.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", a.Len())
	}
	if entry, _ := a.Get(ctx, "posts::1"); entry == nil {
		t.Error("unrelated keys must survive")
	}
}

func TestAdapter_TTLOverride(t *testing.T) {
	cfg := DefaultConfig()
	a, _ := New[string](cfg)
	if _, ok := a.TTL(); ok {
		t.Error("expected no override by default")
	}

	cfg.TTL = time.Second
	a, _ = New[string](cfg)
	if ttl, ok := a.TTL(); !ok || ttl != time.Second {
		t.Errorf("expected 1s override, got %v %v", ttl, ok)
	}
}

func TestNew_NegativeTTLMeansNoOverride(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TTL = -time.Second

	a, err := New[string](cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, ok := a.TTL(); ok {
		t.Error("expected no TTL override for a negative TTL")
	}
}

func TestAdapter_AsClientTier(t *testing.T) {
	a, err := New[string](DefaultConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	calls := 0
	client, err := cache.New(cache.Config[string, string]{
		CacheName: "sturdy",
		Tiers:     []cache.Adapter[string]{a},
		Fetch: func(_ context.Context, c *cache.Context[string]) (string, error) {
			calls++
			return "value:" + c.Params, nil
		},
		CacheKey:  func(p string, _ *string) string { return p },
		StaleTime: cache.FixedTTL(time.Minute),
		Clock:     testsupport.NewManualClock(time.Now()),
	})
	if err != nil {
		t.Fatalf("cache.New failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		got, err := client.Fetch(context.Background(), "a")
		if err != nil || got != "value:a" {
			t.Fatalf("unexpected result %q, %v", got, err)
		}
	}
	if calls != 1 {
		t.Errorf("expected a single producer call, got %d", calls)
	}
}
