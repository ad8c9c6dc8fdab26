package di

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/goliatone/go-tiered-cache/cache"
	"github.com/goliatone/go-tiered-cache/pkg/testsupport"
)

func lookupKey(p string, _ *string) string { return p }

func TestNewContainer(t *testing.T) {
	container, err := NewContainer(DefaultConfig())
	if err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}
	defer container.Close()

	if container.KeySerializer() == nil {
		t.Error("Container should have a non-nil key serializer")
	}
	if container.Stats() == nil {
		t.Error("Container should have stats")
	}
	if container.Redis() != nil || container.DB() != nil {
		t.Error("default container must not connect to external services")
	}
	if container.Config().MemoryBackend != MemoryLRU {
		t.Errorf("unexpected config %+v", container.Config())
	}
}

func TestNewContainer_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MemoryBackend = "memcached"

	_, err := NewContainer(cfg)
	var cfgErr *cache.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestNewContainer_RedisUnreachable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RedisAddr = "127.0.0.1:1"

	if _, err := NewContainer(cfg); err == nil {
		t.Error("expected connection error")
	}
}

func TestNewContainerWithDefaults(t *testing.T) {
	container, err := NewContainerWithDefaults()
	if err != nil {
		t.Fatalf("NewContainerWithDefaults() failed: %v", err)
	}
	defer container.Close()
}

func TestTiers_Backends(t *testing.T) {
	tests := []struct {
		backend string
		want    int
	}{
		{backend: MemoryLRU, want: 1},
		{backend: MemorySturdyc, want: 1},
		{backend: MemoryGoCache, want: 1},
		{backend: MemoryDisabled, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.MemoryBackend = tt.backend
			container, err := NewContainer(cfg)
			if err != nil {
				t.Fatal(err)
			}
			defer container.Close()

			tiers, err := Tiers[string](container, "posts")
			if err != nil {
				t.Fatalf("Tiers failed: %v", err)
			}
			if len(tiers) != tt.want {
				t.Errorf("expected %d tiers, got %d", tt.want, len(tiers))
			}
		})
	}
}

func TestTiers_AllBackends(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	defer mr.Close()

	cfg := DefaultConfig()
	cfg.RedisAddr = mr.Addr()
	cfg.SQLDSN = ":memory:"

	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer failed: %v", err)
	}
	defer container.Close()

	tiers, err := Tiers[string](container, "posts")
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, tier := range tiers {
		names = append(names, tier.Name())
	}
	if len(names) != 3 || names[0] != "memory" || names[1] != "redis" || names[2] != "sql" {
		t.Errorf("unexpected tier order %v", names)
	}
}

func TestNewClient_ThroughEveryTier(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	defer mr.Close()

	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	events := &testsupport.EventLog{}

	cfg := DefaultConfig()
	cfg.RedisAddr = mr.Addr()
	cfg.SQLDSN = ":memory:"
	container, err := NewContainer(cfg, WithLogger(logger), WithReporter(events))
	if err != nil {
		t.Fatal(err)
	}
	defer container.Close()

	calls := 0
	fetch := func(_ context.Context, c *cache.Context[string]) (string, error) {
		calls++
		return "value:" + c.Params, nil
	}

	client, err := NewClient[string, string](container, "posts", fetch, lookupKey)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	ctx := context.Background()
	if _, err := client.Fetch(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if !mr.Exists("cache:posts:a") {
		t.Errorf("expected redis key, have %v", mr.Keys())
	}

	// A second client has its own memory tier but shares redis and sql.
	other, err := NewClient[string, string](container, "posts", fetch, lookupKey)
	if err != nil {
		t.Fatal(err)
	}
	got, err := other.Fetch(ctx, "a")
	if err != nil || got != "value:a" {
		t.Fatalf("unexpected result %q, %v", got, err)
	}
	if calls != 1 {
		t.Errorf("expected a single producer call, got %d", calls)
	}

	if container.Stats().CountFor(cache.EventGetCachedHit, "redis") != 1 {
		t.Errorf("expected a redis hit, stats %v", container.Stats().Snapshot())
	}
	if events.CountFor(cache.EventStoreSuccess, "sql") != 1 {
		t.Error("expected the sql tier to be written once")
	}
	if len(hook.AllEntries()) == 0 {
		t.Error("expected log entries")
	}
}

type Article struct {
	ID         string
	Identifier string
	Title      string
}

type articleSource struct {
	reads int
}

func (s *articleSource) GetByID(_ context.Context, id string, _ ...repository.SelectCriteria) (*Article, error) {
	s.reads++
	return &Article{ID: id, Title: "T" + id}, nil
}

func (s *articleSource) GetByIdentifier(_ context.Context, identifier string, _ ...repository.SelectCriteria) (*Article, error) {
	s.reads++
	return &Article{ID: "1", Identifier: identifier}, nil
}

func (s *articleSource) Update(_ context.Context, record *Article, _ ...repository.UpdateCriteria) (*Article, error) {
	return record, nil
}

func (s *articleSource) Delete(context.Context, *Article) error { return nil }

func TestNewCachedRepository(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StaleTime = time.Minute
	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer container.Close()

	source := &articleSource{}
	repo, err := NewCachedRepository[*Article](container, source)
	if err != nil {
		t.Fatalf("NewCachedRepository failed: %v", err)
	}
	if repo.Namespace() != "article" {
		t.Errorf("unexpected namespace %q", repo.Namespace())
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := repo.GetByID(ctx, "1"); err != nil {
			t.Fatal(err)
		}
	}
	if source.reads != 1 {
		t.Errorf("expected 1 read, got %d", source.reads)
	}
}
