package sqlite

import (
	"context"
	"database/sql"
	"os"
	"strings"

	"github.com/pkg/errors"
	// Import the pure-Go SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/hrygo/ragcontext/internal/profile"
	"github.com/hrygo/ragcontext/store"
)

// ============================================================================
// SQLITE SUPPORT (Default)
// ============================================================================
// Records live in a single file next to the data directory. Vectors are
// little-endian float32 BLOBs ranked by the vec_*_distance scalar functions,
// i.e. a brute-force scan per query. Suitable for collections up to a few
// hundred thousand pages.
// ============================================================================

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a new instance of the SQLite vector store.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}
	if err := RegisterVectorFunctions(); err != nil {
		return nil, errors.Wrap(err, "failed to register vector functions")
	}
	if dir := profile.SQLiteDir(); dir != "" {
		if err := os.MkdirAll(dir, 0o770); err != nil {
			return nil, errors.Wrapf(err, "failed to create database directory %s", dir)
		}
	}

	// Connection string pragmas:
	// - busy_timeout: wait for a locked database instead of failing at once
	// - journal_mode(WAL): readers do not block the ingestion writer
	dsn := profile.DSN
	inMemory := dsn == ":memory:"
	if !inMemory {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)"
	}

	sqliteDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", dsn)
	}
	if inMemory {
		// Every connection of an in-memory database is a separate database.
		sqliteDB.SetMaxOpenConns(1)
	}
	if err := sqliteDB.Ping(); err != nil {
		sqliteDB.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return &DB{db: sqliteDB, profile: profile}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

// EnsureCollection creates the collection if absent and returns the stored row.
func (d *DB) EnsureCollection(ctx context.Context, create *store.Collection) (*store.Collection, error) {
	stmt := `
		INSERT INTO collection (name, dimensions, metric, created_ts)
		VALUES (` + placeholders(4) + `)
		ON CONFLICT (name) DO NOTHING
	`
	if _, err := d.db.ExecContext(ctx, stmt, create.Name, create.Dimensions, string(create.Metric), nowTs()); err != nil {
		return nil, errors.Wrap(err, "failed to create collection")
	}

	collection := &store.Collection{}
	var metric string
	err := d.db.QueryRowContext(ctx,
		`SELECT name, dimensions, metric, created_ts FROM collection WHERE name = `+placeholder(1),
		create.Name,
	).Scan(&collection.Name, &collection.Dimensions, &metric, &collection.CreatedTs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get collection")
	}
	collection.Metric = store.Metric(metric)
	return collection, nil
}

// UpdateCollectionDimensions pins the dimension of a collection that has none yet.
func (d *DB) UpdateCollectionDimensions(ctx context.Context, name string, dimensions int) error {
	stmt := `UPDATE collection SET dimensions = ` + placeholder(1) + ` WHERE name = ` + placeholder(2) + ` AND dimensions = 0`
	if _, err := d.db.ExecContext(ctx, stmt, dimensions, name); err != nil {
		return errors.Wrap(err, "failed to update collection dimensions")
	}
	return nil
}
