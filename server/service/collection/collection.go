// Package collection describes the contents of the vector collection.
package collection

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hrygo/ragcontext/store"
)

// DefaultSamples is the number of records shown by Describe.
const DefaultSamples = 3

// Inspector is the read side of the store used for inspection.
type Inspector interface {
	Collection() store.Collection
	Count(ctx context.Context) (int, error)
	Peek(ctx context.Context, limit int) ([]*store.EmbeddingRecord, error)
}

// Info summarizes a collection.
type Info struct {
	Name       string   `json:"name"`
	Metric     string   `json:"metric"`
	Dimensions int      `json:"dimensions"`
	Count      int      `json:"count"`
	Samples    []Sample `json:"samples"`
}

// Sample is a record shown with a short text preview.
type Sample struct {
	RecordID  string `json:"record_id"`
	SourceID  string `json:"source_id"`
	PageIndex int    `json:"page_index"`
	Preview   string `json:"preview"`
}

// Describe returns the collection info with up to samples records.
func Describe(ctx context.Context, inspector Inspector, samples int) (*Info, error) {
	if samples <= 0 {
		samples = DefaultSamples
	}
	c := inspector.Collection()
	count, err := inspector.Count(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count collection")
	}
	records, err := inspector.Peek(ctx, samples)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sample collection")
	}

	info := &Info{
		Name:       c.Name,
		Metric:     string(c.Metric),
		Dimensions: c.Dimensions,
		Count:      count,
		Samples:    make([]Sample, 0, len(records)),
	}
	for _, r := range records {
		info.Samples = append(info.Samples, Sample{
			RecordID:  r.ID,
			SourceID:  r.Metadata.SourceID,
			PageIndex: r.Metadata.PageIndex,
			Preview:   Preview(r.Document, SamplePreviewChars),
		})
	}
	return info, nil
}
