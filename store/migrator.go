package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	enginerr "github.com/hrygo/ragcontext/internal/errors"
)

// Schema bootstrap:
// Each driver ships a LATEST.sql under migration/{driver}/ written with
// IF NOT EXISTS clauses, so applying it to an initialized database is a no-op.
// Versioned upgrades are not supported.

//go:embed migration
var migrationFS embed.FS

const (
	// LatestSchemaFileName is the name of the latest schema file.
	LatestSchemaFileName = "LATEST.sql"
)

// Migrate applies the schema and loads the configured collection,
// creating it when absent.
func (s *Store) Migrate(ctx context.Context) error {
	filePath := s.getMigrationBasePath() + LatestSchemaFileName
	bytes, err := migrationFS.ReadFile(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to read latest schema file %s", filePath)
	}

	tx, err := s.driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	if err := s.execute(ctx, tx, string(bytes)); err != nil {
		return errors.Wrapf(err, "failed to execute SQL file %s", filePath)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	return s.loadCollection(ctx)
}

func (s *Store) loadCollection(ctx context.Context) error {
	metric, err := ParseMetric(s.profile.Metric)
	if err != nil {
		return err
	}
	collection, err := s.driver.EnsureCollection(ctx, &Collection{
		Name:       s.profile.Collection,
		Dimensions: s.profile.EmbeddingDimensions,
		Metric:     metric,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to load collection %s", s.profile.Collection)
	}

	if collection.Metric != metric {
		return enginerr.InvalidArgument(fmt.Sprintf("collection %s uses metric %s, configured %s", collection.Name, collection.Metric, metric))
	}
	want := s.profile.EmbeddingDimensions
	if want != 0 && collection.Dimensions != 0 && collection.Dimensions != want {
		return enginerr.DimensionMismatch(collection.Dimensions, want).WithContext("collection", collection.Name)
	}
	if want != 0 && collection.Dimensions == 0 {
		if err := s.driver.UpdateCollectionDimensions(ctx, collection.Name, want); err != nil {
			return errors.Wrap(err, "failed to record collection dimensions")
		}
		collection.Dimensions = want
	}

	s.mu.Lock()
	s.collection = collection
	s.mu.Unlock()

	slog.Info("collection loaded",
		slog.String("collection", collection.Name),
		slog.String("metric", string(collection.Metric)),
		slog.Int("dimensions", collection.Dimensions))
	return nil
}

func (s *Store) getMigrationBasePath() string {
	return fmt.Sprintf("migration/%s/", s.profile.Driver)
}

// execute runs every statement of a schema file inside the transaction.
func (s *Store) execute(ctx context.Context, tx *sql.Tx, stmt string) error {
	for i, statement := range splitSQL(stmt) {
		if _, err := tx.ExecContext(ctx, statement); err != nil {
			return errors.Wrapf(err, "failed to execute statement %d: %s", i+1, statement)
		}
	}
	return nil
}

// splitSQL splits a schema file into statements.
// Comment lines are dropped; statements end with a semicolon at end of line.
func splitSQL(sql string) []string {
	var statements []string
	var current strings.Builder
	for _, line := range strings.Split(sql, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
		if strings.HasSuffix(trimmed, ";") {
			statements = append(statements, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if rest := strings.TrimSpace(current.String()); rest != "" {
		statements = append(statements, rest)
	}
	return statements
}
