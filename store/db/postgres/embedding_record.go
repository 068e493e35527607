package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/hrygo/ragcontext/store"
)

func (d *DB) UpsertRecords(ctx context.Context, collection string, records []*store.EmbeddingRecord) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	stmt := `
		INSERT INTO embedding_record (collection, record_id, source_id, page_index, document, embedding, created_ts, updated_ts)
		VALUES (` + placeholders(8) + `)
		ON CONFLICT (collection, record_id) DO UPDATE SET
			source_id = EXCLUDED.source_id,
			page_index = EXCLUDED.page_index,
			document = EXCLUDED.document,
			embedding = EXCLUDED.embedding,
			updated_ts = EXCLUDED.updated_ts
	`
	for _, record := range records {
		if _, err := tx.ExecContext(ctx, stmt,
			collection,
			record.ID,
			record.Metadata.SourceID,
			record.Metadata.PageIndex,
			record.Document,
			pgvector.NewVector(record.Vector),
			record.CreatedTs,
			record.UpdatedTs,
		); err != nil {
			return errors.Wrapf(err, "failed to upsert record %s", record.ID)
		}
	}
	return tx.Commit()
}

func (d *DB) ListRecordIDs(ctx context.Context, collection string, ids []string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT record_id FROM embedding_record WHERE collection = $1 AND record_id = ANY($2)`,
		collection, pq.Array(ids),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query record ids")
	}
	defer rows.Close()

	var found []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "failed to scan record id")
		}
		found = append(found, id)
	}
	return found, rows.Err()
}

func (d *DB) ListRecords(ctx context.Context, find *store.FindRecord) ([]*store.EmbeddingRecord, error) {
	where, args := []string{"collection = " + placeholder(1)}, []any{find.Collection}
	if find.SourceID != nil {
		where, args = append(where, "source_id = "+placeholder(len(args)+1)), append(args, *find.SourceID)
	}

	query := `SELECT record_id, source_id, page_index, document, embedding, created_ts, updated_ts
		FROM embedding_record
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY record_id COLLATE "C" ASC`
	if find.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list records")
	}
	defer rows.Close()

	list := make([]*store.EmbeddingRecord, 0)
	for rows.Next() {
		record := &store.EmbeddingRecord{}
		var vector pgvector.Vector
		if err := rows.Scan(
			&record.ID,
			&record.Metadata.SourceID,
			&record.Metadata.PageIndex,
			&record.Document,
			&vector,
			&record.CreatedTs,
			&record.UpdatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan record")
		}
		record.Vector = vector.Slice()
		list = append(list, record)
	}
	return list, rows.Err()
}

func (d *DB) CountRecords(ctx context.Context, collection string) (int, error) {
	var count int
	if err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM embedding_record WHERE collection = $1`, collection,
	).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count records")
	}
	return count, nil
}

// SearchRecords performs vector similarity search using pgvector.
// The <=> operator computes cosine distance (1 - cosine_similarity),
// <-> the euclidean distance.
func (d *DB) SearchRecords(ctx context.Context, opts *store.SearchOptions) ([]*store.SimilarityMatch, error) {
	op := "<=>"
	if opts.Metric == store.MetricL2 {
		op = "<->"
	}

	query := `SELECT record_id, source_id, page_index, document, (embedding ` + op + ` $1) AS distance
		FROM embedding_record
		WHERE collection = $2
		ORDER BY distance ASC, record_id COLLATE "C" ASC
		LIMIT $3`
	rows, err := d.db.QueryContext(ctx, query, pgvector.NewVector(opts.Vector), opts.Collection, opts.Limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search records")
	}
	defer rows.Close()

	matches := make([]*store.SimilarityMatch, 0, opts.Limit)
	for rows.Next() {
		m := &store.SimilarityMatch{}
		if err := rows.Scan(&m.RecordID, &m.Metadata.SourceID, &m.Metadata.PageIndex, &m.Document, &m.Distance); err != nil {
			return nil, errors.Wrap(err, "failed to scan match")
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
