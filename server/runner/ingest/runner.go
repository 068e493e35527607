// Package ingest loads documents from a directory into the vector store.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/ragcontext/internal/observability"
	"github.com/hrygo/ragcontext/plugin/ai"
	"github.com/hrygo/ragcontext/plugin/textextract"
	"github.com/hrygo/ragcontext/store"
)

// Extractor turns one file into content units.
type Extractor interface {
	Extract(ctx context.Context, path string) ([]textextract.ContentUnit, error)
}

// VectorStore is the subset of the store used by ingestion.
type VectorStore interface {
	Exists(ctx context.Context, ids []string) (map[string]struct{}, error)
	UpsertBatch(ctx context.Context, records []*store.EmbeddingRecord) error
}

// Runner ingests documents one at a time. A failing document never stops
// the documents after it.
type Runner struct {
	extractor        Extractor
	store            VectorStore
	embeddingService ai.EmbeddingService
	metrics          *observability.Metrics
	batchSize        int
	listDocuments    func(dir string) ([]string, error)
}

// NewRunner creates an ingestion runner.
func NewRunner(extractor Extractor, store VectorStore, embeddingService ai.EmbeddingService) *Runner {
	return &Runner{
		extractor:        extractor,
		store:            store,
		embeddingService: embeddingService,
		batchSize:        64,
		listDocuments:    textextract.ListDocuments,
	}
}

// WithMetrics records one ingest operation per document.
func (r *Runner) WithMetrics(metrics *observability.Metrics) *Runner {
	r.metrics = metrics
	return r
}

// Ingest processes every supported document of dir.
// Only a failure to list dir is returned as an error; cancellation stops
// the loop and returns the partial report with ctx.Err().
func (r *Runner) Ingest(ctx context.Context, dir string) (*Report, error) {
	report := &Report{Documents: []DocumentOutcome{}}

	paths, err := r.listDocuments(dir)
	if err != nil {
		return report, errors.Wrap(err, "failed to list documents")
	}
	if len(paths) == 0 {
		slog.Info("no documents to ingest", "dir", dir)
		return report, nil
	}

	slog.Info("ingesting documents", "dir", dir, "count", len(paths))
	for i, path := range paths {
		select {
		case <-ctx.Done():
			slog.Info("ingestion cancelled", "processed", i, "total", len(paths))
			return report, ctx.Err()
		default:
		}

		outcome := r.IngestFile(ctx, path)
		report.add(outcome)
		slog.Info("document ingested",
			"source_id", outcome.SourceID,
			"status", outcome.Status,
			"reason", outcome.Reason,
			"records", outcome.Records,
			"progress", fmt.Sprintf("%d/%d", i+1, len(paths)))
	}

	slog.Info("ingestion finished",
		"processed", report.Processed,
		"skipped", report.Skipped,
		"failed", report.Failed)
	return report, nil
}

// IngestFile runs the per-document pipeline: extract, dedupe, embed, upsert.
func (r *Runner) IngestFile(ctx context.Context, path string) DocumentOutcome {
	start := time.Now()
	outcome := r.ingestFile(ctx, path)
	if r.metrics != nil {
		r.metrics.RecordRequest(observability.OperationIngest)
		r.metrics.RecordDuration(observability.OperationIngest, time.Since(start))
		if outcome.Status == StatusFailed {
			r.metrics.RecordFailure(observability.OperationIngest)
		}
	}
	return outcome
}

func (r *Runner) ingestFile(ctx context.Context, path string) DocumentOutcome {
	sourceID := sourceIDOf(path)

	units, err := r.extractor.Extract(ctx, path)
	if err != nil {
		return failed(sourceID, "extraction failed", err)
	}
	if len(units) == 0 {
		return skipped(sourceID, ReasonNoContent)
	}

	records := make([]*store.EmbeddingRecord, 0, len(units))
	ids := make([]string, 0, len(units))
	texts := make([]string, 0, len(units))
	for _, unit := range units {
		meta, err := store.NewRecordMetadata(unit.SourceID, unit.PageIndex)
		if err != nil {
			return failed(sourceID, "invalid metadata", err)
		}
		records = append(records, store.NewEmbeddingRecord(meta, nil, unit.Content()))
		ids = append(ids, meta.RecordID())
		texts = append(texts, unit.Content())
	}

	existing, err := r.store.Exists(ctx, ids)
	if err != nil {
		return failed(sourceID, "existence check failed", err)
	}
	if len(existing) == len(ids) {
		return skipped(sourceID, ReasonAlreadyIngested)
	}

	vectors, err := r.embed(ctx, texts)
	if err != nil {
		return failed(sourceID, "embedding failed", err)
	}
	for i, record := range records {
		record.Vector = vectors[i]
	}

	if err := r.store.UpsertBatch(ctx, records); err != nil {
		return failed(sourceID, "store write failed", err)
	}
	return DocumentOutcome{SourceID: sourceID, Status: StatusProcessed, Records: len(records)}
}

// embed embeds all texts of one document, splitting very large documents
// into several provider requests. Any failure fails the whole document.
func (r *Runner) embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += r.batchSize {
		end := start + r.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := r.embeddingService.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		if len(batch) != end-start {
			return nil, errors.Errorf("embedding returned %d vectors for %d texts", len(batch), end-start)
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}
