// Package retrieval finds the records most similar to a question.
package retrieval

import (
	"context"
	"log/slog"
	"time"

	enginerr "github.com/hrygo/ragcontext/internal/errors"
	"github.com/hrygo/ragcontext/internal/observability"
	"github.com/hrygo/ragcontext/plugin/ai"
	"github.com/hrygo/ragcontext/store"
)

// DefaultTopK is used when a caller asks for zero or fewer matches.
const DefaultTopK = 3

// VectorStore is the subset of the store used for retrieval.
type VectorStore interface {
	Dimensions(ctx context.Context) (int, error)
	Query(ctx context.Context, vector []float32, topK int) ([]*store.SimilarityMatch, error)
}

// Retriever embeds a question and queries the vector store.
type Retriever struct {
	store            VectorStore
	embeddingService ai.EmbeddingService
	metrics          *observability.Metrics
	defaultTopK      int
}

// NewRetriever creates a retriever. defaultTopK <= 0 falls back to DefaultTopK.
func NewRetriever(st VectorStore, embeddingService ai.EmbeddingService, defaultTopK int) *Retriever {
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	return &Retriever{
		store:            st,
		embeddingService: embeddingService,
		defaultTopK:      defaultTopK,
	}
}

// WithMetrics records one search operation per call.
func (r *Retriever) WithMetrics(metrics *observability.Metrics) *Retriever {
	r.metrics = metrics
	return r
}

// Retrieve returns up to topK matches, nearest first.
//
// Embedding failures and dimension mismatches are returned. Any other store
// failure, a missing collection included, yields an empty result.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) (matches []*store.SimilarityMatch, err error) {
	start := time.Now()
	if r.metrics != nil {
		r.metrics.RecordRequest(observability.OperationSearch)
		defer func() {
			r.metrics.RecordDuration(observability.OperationSearch, time.Since(start))
			if err != nil {
				r.metrics.RecordFailure(observability.OperationSearch)
			}
		}()
	}

	if topK <= 0 {
		topK = r.defaultTopK
	}

	vector, err := r.embeddingService.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	dims, err := r.store.Dimensions(ctx)
	if err != nil {
		slog.Warn("vector store unavailable, retrieving nothing", "error", err)
		return []*store.SimilarityMatch{}, nil
	}
	if dims != 0 && dims != len(vector) {
		return nil, enginerr.DimensionMismatch(dims, len(vector))
	}

	matches, err = r.store.Query(ctx, vector, topK)
	if err != nil {
		if enginerr.IsCode(err, enginerr.ErrCodeDimensionMismatch) {
			return nil, err
		}
		slog.Warn("vector store query failed, retrieving nothing", "error", err)
		return []*store.SimilarityMatch{}, nil
	}

	slog.Debug("retrieval completed",
		"top_k", topK,
		"matches", len(matches),
		"latency_ms", time.Since(start).Milliseconds())
	return matches, nil
}

// Documents returns the document text of each match, in order.
func Documents(matches []*store.SimilarityMatch) []string {
	docs := make([]string, 0, len(matches))
	for _, m := range matches {
		docs = append(docs, m.Document)
	}
	return docs
}
