package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Record is one row of the cache_entries table. Times are unix nanos so the
// round trip is exact on every dialect.
type Record struct {
	bun.BaseModel `bun:"table:cache_entries,alias:ce"`

	Key            string `bun:"cache_key,pk"`
	Payload        []byte `bun:"payload,notnull"`
	HasMeta        bool   `bun:"has_meta,notnull"`
	CreatedAt      int64  `bun:"created_at,notnull"`
	TTL            int64  `bun:"ttl_ns,notnull"`
	LastAccessedAt int64  `bun:"last_accessed_at,notnull"`
	UpdatedAt      int64  `bun:"updated_at,notnull"`
}

// Records is the storage the tier needs. It is a subset of
// repository.Repository[*Record], so a go-repository-bun repository over
// Record works as well as the bundled implementation.
type Records interface {
	GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*Record, error)
	Upsert(ctx context.Context, record *Record, criteria ...repository.UpdateCriteria) (*Record, error)
	Delete(ctx context.Context, record *Record) error
}

var _ Records = (repository.Repository[*Record])(nil)

// BunRecords implements Records with plain bun queries.
type BunRecords struct {
	db  bun.IDB
	now func() time.Time
}

var _ Records = (*BunRecords)(nil)

// NewBunRecords wraps db. db may be a *bun.DB or a transaction.
func NewBunRecords(db bun.IDB) *BunRecords {
	return &BunRecords{db: db, now: time.Now}
}

// CreateTable creates cache_entries when missing.
func CreateTable(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateTable().Model((*Record)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return fmt.Errorf("create cache_entries: %w", err)
	}
	return nil
}

// GetByIdentifier loads the row for key. A missing row returns
// sql.ErrNoRows.
func (r *BunRecords) GetByIdentifier(ctx context.Context, key string, criteria ...repository.SelectCriteria) (*Record, error) {
	record := new(Record)
	q := r.db.NewSelect().Model(record).Where("?TableAlias.cache_key = ?", key)
	for _, c := range criteria {
		q = c(q)
	}
	if err := q.Limit(1).Scan(ctx); err != nil {
		return nil, err
	}
	return record, nil
}

// Upsert inserts record or replaces the row with the same key. Update
// criteria do not apply to the insert and are ignored.
func (r *BunRecords) Upsert(ctx context.Context, record *Record, _ ...repository.UpdateCriteria) (*Record, error) {
	record.UpdatedAt = r.now().UnixNano()

	_, err := r.db.NewInsert().
		Model(record).
		On("CONFLICT (cache_key) DO UPDATE").
		Set("payload = EXCLUDED.payload").
		Set("has_meta = EXCLUDED.has_meta").
		Set("created_at = EXCLUDED.created_at").
		Set("ttl_ns = EXCLUDED.ttl_ns").
		Set("last_accessed_at = EXCLUDED.last_accessed_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Delete removes the row with record's key. Missing rows are not an error.
func (r *BunRecords) Delete(ctx context.Context, record *Record) error {
	_, err := r.db.NewDelete().Model(record).WherePK().Exec(ctx)
	return err
}

// Open connects to driver ("sqlite3" or "postgres") and returns a bun DB
// with the matching dialect.
func Open(driver, dsn string) (*bun.DB, error) {
	switch driver {
	case "sqlite3", "sqlite":
		sqldb, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// In-memory databases are per connection.
		sqldb.SetMaxOpenConns(1)
		return bun.NewDB(sqldb, sqlitedialect.New()), nil

	case "postgres", "pg":
		sqldb, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return bun.NewDB(sqldb, pgdialect.New()), nil

	default:
		return nil, &unsupportedDriverError{driver: driver}
	}
}

type unsupportedDriverError struct {
	driver string
}

func (e *unsupportedDriverError) Error() string {
	return "sqlstore: unsupported driver " + e.driver
}
