package repositorycache

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	repository "github.com/goliatone/go-repository-bun"

	"github.com/goliatone/go-tiered-cache/cache"
)

const (
	MethodGetByID         = "GetByID"
	MethodGetByIdentifier = "GetByIdentifier"
)

// Source is the part of a go-repository-bun repository the decorator uses.
type Source[T any] interface {
	GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (T, error)
	GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (T, error)
	Update(ctx context.Context, record T, criteria ...repository.UpdateCriteria) (T, error)
	Delete(ctx context.Context, record T) error
}

var _ Source[any] = (repository.Repository[any])(nil)

// Lookup is the cache client parameter for one read.
type Lookup struct {
	Method   string
	Value    string
	Criteria []repository.SelectCriteria
}

// Config configures a CachedRepository.
type Config[T any] struct {
	// Namespace prefixes every key. Defaults to the snake_case type name.
	Namespace string

	Tiers                []cache.Adapter[T]
	StaleTime            cache.TTLPolicy
	ServeStaleHitOnError bool
	IsCacheable          func(c *cache.Context[Lookup], record T) bool
	Reporter             func(l Lookup) cache.Reporter
	Clock                cache.Clock

	// KeySerializer defaults to cache.NewDefaultKeySerializer.
	KeySerializer cache.KeySerializer

	// IDOf and IdentifierOf locate the keys to evict after a write. When
	// nil, the ID and Identifier (or Name, Code) fields are read by
	// reflection.
	IDOf         func(record T) string
	IdentifierOf func(record T) string
}

// CachedRepository serves GetByID and GetByIdentifier through tiered cache
// clients and evicts the affected keys after Update and Delete.
type CachedRepository[T any] struct {
	base          Source[T]
	namespace     string
	keySerializer cache.KeySerializer
	byID          *cache.Client[Lookup, T]
	byIdentifier  *cache.Client[Lookup, T]
	idOf          func(T) string
	identifierOf  func(T) string
	keyRegistry   *sync.Map // key -> Lookup
}

// New wraps base.
func New[T any](base Source[T], cfg Config[T]) (*CachedRepository[T], error) {
	if base == nil {
		return nil, &cache.ConfigError{Field: "Source", Message: "base repository is required"}
	}

	c := &CachedRepository[T]{
		base:          base,
		namespace:     cfg.Namespace,
		keySerializer: cfg.KeySerializer,
		idOf:          cfg.IDOf,
		identifierOf:  cfg.IdentifierOf,
		keyRegistry:   &sync.Map{},
	}
	if c.namespace == "" {
		c.namespace = NamespaceOf[T]()
	}
	if c.keySerializer == nil {
		c.keySerializer = cache.NewDefaultKeySerializer()
	}
	if c.idOf == nil {
		c.idOf = func(record T) string { return fieldString(record, "ID", "Id") }
	}
	if c.identifierOf == nil {
		c.identifierOf = func(record T) string { return fieldString(record, "Identifier", "Name", "Code") }
	}

	var err error
	if c.byID, err = c.newClient(cfg, MethodGetByID, func(ctx context.Context, l Lookup) (T, error) {
		return base.GetByID(ctx, l.Value, l.Criteria...)
	}); err != nil {
		return nil, err
	}
	if c.byIdentifier, err = c.newClient(cfg, MethodGetByIdentifier, func(ctx context.Context, l Lookup) (T, error) {
		return base.GetByIdentifier(ctx, l.Value, l.Criteria...)
	}); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *CachedRepository[T]) newClient(cfg Config[T], method string, read func(context.Context, Lookup) (T, error)) (*cache.Client[Lookup, T], error) {
	return cache.New(cache.Config[Lookup, T]{
		CacheName: c.namespace + cache.KeySeparator + method,
		Tiers:     cfg.Tiers,
		Fetch: func(ctx context.Context, rc *cache.Context[Lookup]) (T, error) {
			return read(ctx, rc.Params)
		},
		CacheKey:             func(l Lookup, _ *T) string { return c.key(l) },
		StaleTime:            cfg.StaleTime,
		IsCacheable:          cfg.IsCacheable,
		ServeStaleHitOnError: cfg.ServeStaleHitOnError,
		Reporter:             cfg.Reporter,
		Clock:                cfg.Clock,
	})
}

// GetByID reads a record by ID through the cache.
func (c *CachedRepository[T]) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (T, error) {
	return c.read(ctx, c.byID, Lookup{Method: MethodGetByID, Value: id, Criteria: criteria})
}

// GetByIdentifier reads a record by identifier through the cache.
func (c *CachedRepository[T]) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (T, error) {
	return c.read(ctx, c.byIdentifier, Lookup{Method: MethodGetByIdentifier, Value: identifier, Criteria: criteria})
}

func (c *CachedRepository[T]) read(ctx context.Context, client *cache.Client[Lookup, T], l Lookup) (T, error) {
	c.trackKey(l)
	return client.Fetch(ctx, l, cache.WithFresh(freshRead(ctx)))
}

// Update writes through to the base repository and evicts every cached
// read of the record. Both the stored row and the input are used to find
// keys, so partial updates and renamed identifiers are covered.
func (c *CachedRepository[T]) Update(ctx context.Context, record T, criteria ...repository.UpdateCriteria) (T, error) {
	result, err := c.base.Update(ctx, record, criteria...)
	if err == nil {
		c.invalidate(ctx, result, record)
	}
	return result, err
}

// Delete removes the record from the base repository and the cache.
func (c *CachedRepository[T]) Delete(ctx context.Context, record T) error {
	err := c.base.Delete(ctx, record)
	if err == nil {
		c.invalidate(ctx, record)
	}
	return err
}

// Namespace returns the key namespace.
func (c *CachedRepository[T]) Namespace() string {
	return c.namespace
}

func (c *CachedRepository[T]) key(l Lookup) string {
	return c.keySerializer.SerializeKey(c.namespace+cache.KeySeparator+l.Method, l.Value, l.Criteria)
}

// trackKey registers a lookup so writes can find every criteria variant.
func (c *CachedRepository[T]) trackKey(l Lookup) {
	c.keyRegistry.Store(c.key(l), l)
}

// invalidate evicts the tracked lookups matching the records' IDs or
// identifiers, plus the plain lookups that may have been cached by another
// process.
func (c *CachedRepository[T]) invalidate(ctx context.Context, records ...T) {
	ids := map[string]struct{}{}
	identifiers := map[string]struct{}{}
	for _, record := range records {
		if id := c.idOf(record); id != "" {
			ids[id] = struct{}{}
		}
		if identifier := c.identifierOf(record); identifier != "" {
			identifiers[identifier] = struct{}{}
		}
	}

	for id := range ids {
		c.byID.Evict(ctx, Lookup{Method: MethodGetByID, Value: id})
	}
	for identifier := range identifiers {
		c.byIdentifier.Evict(ctx, Lookup{Method: MethodGetByIdentifier, Value: identifier})
	}

	c.keyRegistry.Range(func(k, v any) bool {
		l, ok := v.(Lookup)
		if !ok {
			return true
		}
		switch l.Method {
		case MethodGetByID:
			if _, hit := ids[l.Value]; !hit {
				return true
			}
			c.byID.Evict(ctx, l)
		case MethodGetByIdentifier:
			if _, hit := identifiers[l.Value]; !hit {
				return true
			}
			c.byIdentifier.Evict(ctx, l)
		default:
			return true
		}
		c.keyRegistry.Delete(k)
		return true
	})
}

// NamespaceOf is the default key namespace for T: its snake_case type name.
func NamespaceOf[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if name := toSnake(t.Name()); name != "" {
		return name
	}
	return toSnake(t.String())
}

// fieldString returns the first of names found on record as a string.
func fieldString(record any, names ...string) string {
	v := reflect.ValueOf(record)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return ""
	}

	for _, name := range names {
		field := v.FieldByName(name)
		if field.IsValid() && field.CanInterface() {
			return fmt.Sprintf("%v", field.Interface())
		}
	}
	return ""
}
