package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"

	enginerr "github.com/hrygo/ragcontext/internal/errors"
	"github.com/hrygo/ragcontext/internal/profile"
)

// Store provides access to one vector collection.
type Store struct {
	profile *profile.Profile
	driver  Driver

	mu         sync.RWMutex
	collection *Collection
}

// New creates a new instance of Store.
// Migrate must be called before the store is used.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// Collection returns the collection descriptor.
func (s *Store) Collection() Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.collection == nil {
		return Collection{Name: s.profile.Collection}
	}
	return *s.collection
}

func (s *Store) loadedCollection() (*Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.collection == nil {
		return nil, enginerr.StoreUnavailable(fmt.Sprintf("collection %q is not loaded", s.profile.Collection), nil)
	}
	return s.collection, nil
}

// Dimensions returns the dimension of the collection, 0 while unknown.
func (s *Store) Dimensions(_ context.Context) (int, error) {
	c, err := s.loadedCollection()
	if err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return c.Dimensions, nil
}

// Upsert writes or overwrites one record.
func (s *Store) Upsert(ctx context.Context, record *EmbeddingRecord) error {
	return s.UpsertBatch(ctx, []*EmbeddingRecord{record})
}

// UpsertBatch writes or overwrites records in one transaction.
// Every record is validated before anything is written.
func (s *Store) UpsertBatch(ctx context.Context, records []*EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}
	c, err := s.loadedCollection()
	if err != nil {
		return err
	}

	dims := len(records[0].Vector)
	for _, record := range records {
		if err := record.Validate(); err != nil {
			return err
		}
		if len(record.Vector) != dims {
			return enginerr.DimensionMismatch(dims, len(record.Vector)).WithContext("record_id", record.ID)
		}
	}
	if err := s.claimDimensions(ctx, c, dims); err != nil {
		return err
	}

	now := time.Now().Unix()
	for _, record := range records {
		if record.CreatedTs == 0 {
			record.CreatedTs = now
		}
		record.UpdatedTs = now
	}
	if err := s.driver.UpsertRecords(ctx, c.Name, records); err != nil {
		return errors.Wrap(err, "failed to upsert records")
	}
	return nil
}

// claimDimensions checks dims against the collection and records it on first write.
func (s *Store) claimDimensions(ctx context.Context, c *Collection, dims int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.Dimensions != 0 {
		if c.Dimensions != dims {
			return enginerr.DimensionMismatch(c.Dimensions, dims)
		}
		return nil
	}
	if err := s.driver.UpdateCollectionDimensions(ctx, c.Name, dims); err != nil {
		return errors.Wrap(err, "failed to record collection dimensions")
	}
	c.Dimensions = dims
	slog.Info("collection dimensions recorded", "collection", c.Name, "dimensions", dims)
	return nil
}

// Exists returns the subset of ids already present in the collection.
func (s *Store) Exists(ctx context.Context, ids []string) (map[string]struct{}, error) {
	result := make(map[string]struct{})
	if len(ids) == 0 {
		return result, nil
	}
	c, err := s.loadedCollection()
	if err != nil {
		return nil, err
	}

	found, err := s.driver.ListRecordIDs(ctx, c.Name, ids)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check record ids")
	}
	for _, id := range found {
		result[id] = struct{}{}
	}
	return result, nil
}

// Query returns up to topK nearest records.
// An empty collection yields an empty result.
func (s *Store) Query(ctx context.Context, vector []float32, topK int) ([]*SimilarityMatch, error) {
	if topK <= 0 {
		return []*SimilarityMatch{}, nil
	}
	if len(vector) == 0 {
		return nil, enginerr.InvalidArgument("query vector is empty")
	}
	c, err := s.loadedCollection()
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	dims, metric := c.Dimensions, c.Metric
	s.mu.RUnlock()
	if dims == 0 {
		// Nothing has been written yet.
		return []*SimilarityMatch{}, nil
	}
	if len(vector) != dims {
		return nil, enginerr.DimensionMismatch(dims, len(vector))
	}

	matches, err := s.driver.SearchRecords(ctx, &SearchOptions{
		Collection: c.Name,
		Vector:     vector,
		Metric:     metric,
		Limit:      topK,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to search records")
	}
	for _, m := range matches {
		m.Similarity = metric.Similarity(m.Distance)
	}
	SortMatches(matches)
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Count returns the number of records in the collection.
func (s *Store) Count(ctx context.Context) (int, error) {
	c, err := s.loadedCollection()
	if err != nil {
		return 0, err
	}
	count, err := s.driver.CountRecords(ctx, c.Name)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count records")
	}
	return count, nil
}

// Peek returns the first records of the collection ordered by id.
func (s *Store) Peek(ctx context.Context, limit int) ([]*EmbeddingRecord, error) {
	c, err := s.loadedCollection()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 3
	}
	records, err := s.driver.ListRecords(ctx, &FindRecord{Collection: c.Name, Limit: limit})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list records")
	}
	return records, nil
}

// ListBySource returns the records of one source ordered by id.
func (s *Store) ListBySource(ctx context.Context, sourceID string) ([]*EmbeddingRecord, error) {
	c, err := s.loadedCollection()
	if err != nil {
		return nil, err
	}
	records, err := s.driver.ListRecords(ctx, &FindRecord{Collection: c.Name, SourceID: &sourceID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list records")
	}
	return records, nil
}
