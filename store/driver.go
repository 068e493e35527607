package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Collection model related methods.
	EnsureCollection(ctx context.Context, create *Collection) (*Collection, error)
	UpdateCollectionDimensions(ctx context.Context, name string, dimensions int) error

	// EmbeddingRecord model related methods.
	UpsertRecords(ctx context.Context, collection string, records []*EmbeddingRecord) error
	ListRecordIDs(ctx context.Context, collection string, ids []string) ([]string, error)
	ListRecords(ctx context.Context, find *FindRecord) ([]*EmbeddingRecord, error)
	CountRecords(ctx context.Context, collection string) (int, error)

	// SearchRecords performs nearest-neighbour search.
	// Results are ordered by ascending distance, ties by ascending record id.
	SearchRecords(ctx context.Context, opts *SearchOptions) ([]*SimilarityMatch, error)
}
