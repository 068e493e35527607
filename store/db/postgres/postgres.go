package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/hrygo/ragcontext/internal/profile"
	"github.com/hrygo/ragcontext/store"
)

// ============================================================================
// POSTGRESQL SUPPORT (pgvector)
// ============================================================================
// Vectors are stored in a pgvector column and ranked with the <=> (cosine)
// and <-> (euclidean) operators. Use this driver when several processes
// share one collection.
// ============================================================================

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	db, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		return nil, errors.Wrap(err, "failed to open database")
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(2 * time.Hour)
	db.SetConnMaxIdleTime(15 * time.Minute)

	if err := db.Ping(); err != nil {
		slog.Error("failed to ping database", "error", err)
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	var driver store.Driver = &DB{
		db:      db,
		profile: profile,
	}
	return driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) EnsureCollection(ctx context.Context, create *store.Collection) (*store.Collection, error) {
	stmt := `INSERT INTO collection (name, dimensions, metric, created_ts) VALUES (` + placeholders(4) + `) ON CONFLICT (name) DO NOTHING`
	if _, err := d.db.ExecContext(ctx, stmt, create.Name, create.Dimensions, string(create.Metric), time.Now().Unix()); err != nil {
		return nil, errors.Wrap(err, "failed to create collection")
	}

	collection := &store.Collection{}
	var metric string
	if err := d.db.QueryRowContext(ctx,
		`SELECT name, dimensions, metric, created_ts FROM collection WHERE name = `+placeholder(1),
		create.Name,
	).Scan(&collection.Name, &collection.Dimensions, &metric, &collection.CreatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to get collection")
	}
	collection.Metric = store.Metric(metric)
	return collection, nil
}

func (d *DB) UpdateCollectionDimensions(ctx context.Context, name string, dimensions int) error {
	stmt := `UPDATE collection SET dimensions = ` + placeholder(1) + ` WHERE name = ` + placeholder(2) + ` AND dimensions = 0`
	if _, err := d.db.ExecContext(ctx, stmt, dimensions, name); err != nil {
		return errors.Wrap(err, "failed to update collection dimensions")
	}
	return nil
}

func placeholder(n int) string {
	return "$" + fmt.Sprint(n)
}

func placeholders(n int) string {
	list := make([]string, 0, n)
	for i := 0; i < n; i++ {
		list = append(list, placeholder(i+1))
	}
	return strings.Join(list, ", ")
}
