package di

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-tiered-cache/adapters/expiring"
	"github.com/goliatone/go-tiered-cache/adapters/lru"
	"github.com/goliatone/go-tiered-cache/adapters/redistier"
	"github.com/goliatone/go-tiered-cache/adapters/sqlstore"
	"github.com/goliatone/go-tiered-cache/adapters/sturdy"
	"github.com/goliatone/go-tiered-cache/cache"
	"github.com/goliatone/go-tiered-cache/report"
	"github.com/goliatone/go-tiered-cache/repositorycache"
)

// Container provides dependency injection for cache related components.
// It owns the shared connections (Redis, SQL), the key serializer and the
// reporters, and builds typed tiers and clients on demand.
type Container struct {
	config        Config
	keySerializer cache.KeySerializer
	logger        logrus.FieldLogger
	stats         *report.Stats
	reporters     []cache.Reporter

	redis     *redis.Client
	ownsRedis bool
	db        *bun.DB
	ownsDB    bool
}

// Option customises a Container.
type Option func(*Container)

// WithRedis uses an existing client instead of dialing RedisAddr.
func WithRedis(rdb *redis.Client) Option {
	return func(c *Container) { c.redis = rdb }
}

// WithDB uses an existing bun DB instead of opening SQLDSN.
func WithDB(db *bun.DB) Option {
	return func(c *Container) { c.db = db }
}

// WithLogger sets the logger used for cache events.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Container) { c.logger = logger }
}

// WithReporter adds a reporter next to the log and stats sinks.
func WithReporter(r cache.Reporter) Option {
	return func(c *Container) { c.reporters = append(c.reporters, r) }
}

// NewContainer validates config, connects the configured backends and
// returns the container.
func NewContainer(config Config, opts ...Option) (*Container, error) {
	if err := config.Validate(); err != nil {
		return nil, &cache.ConfigError{Field: "di", Message: err.Error()}
	}

	c := &Container{
		config:        config,
		keySerializer: cache.NewDefaultKeySerializer(),
		stats:         report.NewStats(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		logger := logrus.New()
		if level, err := logrus.ParseLevel(config.LogLevel); err == nil {
			logger.SetLevel(level)
		}
		c.logger = logger
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if c.redis == nil && config.RedisAddr != "" {
		c.redis = redis.NewClient(&redis.Options{
			Addr:     config.RedisAddr,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
		})
		c.ownsRedis = true
		if err := c.redis.Ping(ctx).Err(); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
	}

	if c.db == nil && config.SQLDSN != "" {
		db, err := sqlstore.Open(config.SQLDriver, config.SQLDSN)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		c.db, c.ownsDB = db, true
	}

	if c.db != nil && config.SQLAutoMigrate {
		if err := sqlstore.CreateTable(ctx, c.db); err != nil {
			_ = c.Close()
			return nil, err
		}
	}

	return c, nil
}

// NewContainerWithDefaults creates a container from LoadConfig.
func NewContainerWithDefaults(opts ...Option) (*Container, error) {
	config, err := LoadConfig()
	if err != nil {
		return nil, &cache.ConfigError{Field: "di", Message: err.Error()}
	}
	return NewContainer(config, opts...)
}

// Config returns a copy of the container configuration.
func (c *Container) Config() Config {
	return c.config
}

// KeySerializer returns the shared key serializer.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// Stats returns the in-memory event counters fed by every client.
func (c *Container) Stats() *report.Stats {
	return c.stats
}

// Redis returns the Redis client, or nil when not configured.
func (c *Container) Redis() *redis.Client {
	return c.redis
}

// DB returns the bun DB, or nil when not configured.
func (c *Container) DB() *bun.DB {
	return c.db
}

// Reporter returns the sink shared by every client the container builds.
func (c *Container) Reporter() cache.Reporter {
	return report.Multi(append([]cache.Reporter{report.Logrus(c.logger), c.stats}, c.reporters...)...)
}

// Close releases the connections the container opened itself.
func (c *Container) Close() error {
	var firstErr error
	if c.redis != nil && c.ownsRedis {
		if err := c.redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.db != nil && c.ownsDB {
		if err := c.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Tiers builds the configured tiers for values of type V, fastest first.
// name namespaces the durable tiers.
//
// Since Go methods cannot have type parameters, this is provided as a package-level function.
func Tiers[V any](c *Container, name string) ([]cache.Adapter[V], error) {
	var tiers []cache.Adapter[V]
	cfg := c.config

	switch cfg.MemoryBackend {
	case MemoryLRU:
		tiers = append(tiers, lru.New[V](lru.Config{Name: "memory", Size: cfg.MemorySize, TTL: cfg.MemoryTTL}))

	case MemorySturdyc:
		sc := sturdy.DefaultConfig()
		sc.Name = "memory"
		sc.TTL = cfg.MemoryTTL
		if cfg.MemorySize > 0 {
			sc.Capacity = cfg.MemorySize
		}
		if cfg.MemoryRetention > 0 {
			sc.Retention = cfg.MemoryRetention
		}
		tier, err := sturdy.New[V](sc)
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, tier)

	case MemoryGoCache:
		tier, err := expiring.New[V](expiring.Config{
			Name:            "memory",
			Retention:       cfg.MemoryRetention,
			CleanupInterval: time.Minute,
			TTL:             cfg.MemoryTTL,
		})
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, tier)
	}

	if c.redis != nil {
		prefix := name
		if cfg.RedisPrefix != "" {
			prefix = cfg.RedisPrefix + ":" + name
		}
		tier, err := redistier.New[V](c.redis, redistier.Config{
			Name:       "redis",
			Prefix:     prefix,
			Expiration: cfg.RedisExpiration,
		})
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, tier)
	}

	if c.db != nil {
		tier, err := sqlstore.New[V](sqlstore.NewBunRecords(c.db), sqlstore.Config{Name: "sql"})
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, namespaced[V]{Adapter: tier, prefix: name + cache.KeySeparator})
	}

	return tiers, nil
}

// NewClient builds a client over the configured tiers with the container's
// defaults and reporters.
func NewClient[P, V any](c *Container, name string, fetch cache.Producer[P, V], key cache.KeyFunc[P, V]) (*cache.Client[P, V], error) {
	tiers, err := Tiers[V](c, name)
	if err != nil {
		return nil, err
	}

	var staleTime cache.TTLPolicy
	if c.config.StaleTime > 0 {
		staleTime = cache.FixedTTL(c.config.StaleTime)
	}

	return cache.New(cache.Config[P, V]{
		CacheName:            name,
		Tiers:                tiers,
		Fetch:                fetch,
		CacheKey:             key,
		StaleTime:            staleTime,
		ServeStaleHitOnError: c.config.ServeStaleHitOnError,
		Reporter:             report.Static[P](c.Reporter()),
	})
}

// NewCachedRepository creates a cached repository that wraps the provided base repository.
// Example: NewCachedRepository[*User](container, baseUserRepository)
func NewCachedRepository[T any](c *Container, base repositorycache.Source[T]) (*repositorycache.CachedRepository[T], error) {
	namespace := repositorycache.NamespaceOf[T]()

	tiers, err := Tiers[T](c, namespace)
	if err != nil {
		return nil, err
	}

	cfg := repositorycache.Config[T]{
		Namespace:            namespace,
		Tiers:                tiers,
		KeySerializer:        c.keySerializer,
		ServeStaleHitOnError: c.config.ServeStaleHitOnError,
		Reporter:             report.Static[repositorycache.Lookup](c.Reporter()),
	}
	if c.config.StaleTime > 0 {
		cfg.StaleTime = cache.FixedTTL(c.config.StaleTime)
	}

	return repositorycache.New[T](base, cfg)
}

// namespaced prefixes keys for tiers shared by several caches in one table.
type namespaced[V any] struct {
	cache.Adapter[V]
	prefix string
}

func (n namespaced[V]) Get(ctx context.Context, key string) (*cache.Entry[V], error) {
	return n.Adapter.Get(ctx, n.prefix+key)
}

func (n namespaced[V]) Set(ctx context.Context, key string, entry *cache.Entry[V]) (V, error) {
	return n.Adapter.Set(ctx, n.prefix+key, entry)
}

func (n namespaced[V]) Evict(ctx context.Context, key string) error {
	return n.Adapter.Evict(ctx, n.prefix+key)
}
