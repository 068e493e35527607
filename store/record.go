package store

import (
	"fmt"
	"sort"
	"strings"

	enginerr "github.com/hrygo/ragcontext/internal/errors"
)

// RecordMetadata is the fixed metadata carried by every embedding record.
type RecordMetadata struct {
	SourceID  string `json:"source_id"`
	PageIndex int    `json:"page_index"` // 1-based
}

// NewRecordMetadata validates and returns record metadata.
func NewRecordMetadata(sourceID string, pageIndex int) (RecordMetadata, error) {
	meta := RecordMetadata{SourceID: sourceID, PageIndex: pageIndex}
	if err := meta.Validate(); err != nil {
		return RecordMetadata{}, err
	}
	return meta, nil
}

// Validate reports a schema error when a required key is missing.
func (m RecordMetadata) Validate() error {
	if strings.TrimSpace(m.SourceID) == "" {
		return enginerr.Schema("metadata is missing source_id")
	}
	if m.PageIndex < 1 {
		return enginerr.Schema(fmt.Sprintf("metadata page_index must be >= 1, got %d", m.PageIndex))
	}
	return nil
}

// RecordID returns the record id derived from the metadata.
func (m RecordMetadata) RecordID() string {
	return RecordID(m.SourceID, m.PageIndex)
}

// RecordID derives the id of the record for one page of one source.
func RecordID(sourceID string, pageIndex int) string {
	return fmt.Sprintf("%s_page_%d", sourceID, pageIndex)
}

// EmbeddingRecord is a persisted vector entry.
type EmbeddingRecord struct {
	ID        string
	Vector    []float32
	Metadata  RecordMetadata
	Document  string
	CreatedTs int64
	UpdatedTs int64
}

// NewEmbeddingRecord builds a record whose id is derived from its metadata.
func NewEmbeddingRecord(meta RecordMetadata, vector []float32, document string) *EmbeddingRecord {
	return &EmbeddingRecord{
		ID:       meta.RecordID(),
		Vector:   vector,
		Metadata: meta,
		Document: document,
	}
}

// Validate checks the record id and metadata.
func (r *EmbeddingRecord) Validate() error {
	if r == nil {
		return enginerr.Schema("record is nil")
	}
	if err := r.Metadata.Validate(); err != nil {
		return err
	}
	if r.ID != r.Metadata.RecordID() {
		return enginerr.Schema(fmt.Sprintf("record id %q does not match metadata (want %q)", r.ID, r.Metadata.RecordID()))
	}
	if len(r.Vector) == 0 {
		return enginerr.Schema(fmt.Sprintf("record %q has an empty vector", r.ID))
	}
	return nil
}

// SimilarityMatch is one ranked query result.
type SimilarityMatch struct {
	RecordID   string
	Distance   float64
	Similarity float64 // 1 - Distance; bounded only for bounded metrics
	Metadata   RecordMetadata
	Document   string
}

// SortMatches orders matches by ascending distance, ties by ascending record id.
func SortMatches(matches []*SimilarityMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].RecordID < matches[j].RecordID
	})
}

// Metric is the distance metric of a collection.
type Metric string

const (
	// MetricCosine is cosine distance (1 - cosine similarity).
	MetricCosine Metric = "cosine"
	// MetricL2 is Euclidean distance.
	MetricL2 Metric = "l2"
)

// ParseMetric parses a metric name, defaulting to cosine.
func ParseMetric(s string) (Metric, error) {
	switch Metric(strings.ToLower(strings.TrimSpace(s))) {
	case "", MetricCosine:
		return MetricCosine, nil
	case MetricL2:
		return MetricL2, nil
	default:
		return "", enginerr.InvalidArgument(fmt.Sprintf("unknown metric: %s", s))
	}
}

// Bounded reports whether 1 - distance is a bounded similarity score.
// For l2 the similarity is only a rank key.
func (m Metric) Bounded() bool {
	return m == MetricCosine
}

// Similarity converts a raw distance into the similarity score.
func (m Metric) Similarity(distance float64) float64 {
	return 1 - distance
}

// Collection describes a named set of records.
type Collection struct {
	Name       string
	Dimensions int // 0 until the first vector is written
	Metric     Metric
	CreatedTs  int64
}

// SearchOptions is the nearest-neighbour query passed to drivers.
type SearchOptions struct {
	Collection string
	Vector     []float32
	Metric     Metric
	Limit      int
}

// FindRecord is the find condition for records.
type FindRecord struct {
	Collection string
	SourceID   *string
	Limit      int
}
