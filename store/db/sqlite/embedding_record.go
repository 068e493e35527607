package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/ragcontext/store"
)

// SQLite allows 999 bound parameters in older builds; stay well below.
const idChunkSize = 500

// UpsertRecords inserts or overwrites records in a single transaction.
func (d *DB) UpsertRecords(ctx context.Context, collection string, records []*store.EmbeddingRecord) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO embedding_record (collection, record_id, source_id, page_index, document, embedding, created_ts, updated_ts)
		VALUES (`+placeholders(8)+`)
		ON CONFLICT (collection, record_id) DO UPDATE SET
			source_id = excluded.source_id,
			page_index = excluded.page_index,
			document = excluded.document,
			embedding = excluded.embedding,
			updated_ts = excluded.updated_ts
	`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare upsert")
	}
	defer stmt.Close()

	for _, record := range records {
		if _, err := stmt.ExecContext(ctx,
			collection,
			record.ID,
			record.Metadata.SourceID,
			record.Metadata.PageIndex,
			record.Document,
			encodeVector(record.Vector),
			record.CreatedTs,
			record.UpdatedTs,
		); err != nil {
			return errors.Wrapf(err, "failed to upsert record %s", record.ID)
		}
	}
	return tx.Commit()
}

// ListRecordIDs returns the ids among the given ones that exist.
func (d *DB) ListRecordIDs(ctx context.Context, collection string, ids []string) ([]string, error) {
	var found []string
	for _, chunk := range chunkIDs(ids, idChunkSize) {
		args := make([]any, 0, len(chunk)+1)
		args = append(args, collection)
		for _, id := range chunk {
			args = append(args, id)
		}
		query := `SELECT record_id FROM embedding_record WHERE collection = ? AND record_id IN (` + placeholders(len(chunk)) + `)`
		rows, err := d.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, errors.Wrap(err, "failed to query record ids")
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, errors.Wrap(err, "failed to scan record id")
			}
			found = append(found, id)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return found, nil
}

// ListRecords returns records ordered by record id.
func (d *DB) ListRecords(ctx context.Context, find *store.FindRecord) ([]*store.EmbeddingRecord, error) {
	where, args := []string{"collection = ?"}, []any{find.Collection}
	if find.SourceID != nil {
		where, args = append(where, "source_id = ?"), append(args, *find.SourceID)
	}

	query := `SELECT record_id, source_id, page_index, document, embedding, created_ts, updated_ts
		FROM embedding_record
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY record_id ASC`
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
		var blob []byte
		if err := rows.Scan(
			&record.ID,
			&record.Metadata.SourceID,
			&record.Metadata.PageIndex,
			&record.Document,
			&blob,
			&record.CreatedTs,
			&record.UpdatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan record")
		}
		if record.Vector, err = decodeVector(blob); err != nil {
			return nil, errors.Wrapf(err, "record %s", record.ID)
		}
		list = append(list, record)
	}
	return list, rows.Err()
}

// CountRecords returns the number of records in the collection.
func (d *DB) CountRecords(ctx context.Context, collection string) (int, error) {
	var count int
	if err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM embedding_record WHERE collection = ?`, collection,
	).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count records")
	}
	return count, nil
}

// SearchRecords ranks every record of the collection by distance to the query.
func (d *DB) SearchRecords(ctx context.Context, opts *store.SearchOptions) ([]*store.SimilarityMatch, error) {
	fn := "vec_cosine_distance"
	if opts.Metric == store.MetricL2 {
		fn = "vec_l2_distance"
	}

	query := `SELECT record_id, source_id, page_index, document, ` + fn + `(embedding, ?) AS distance
		FROM embedding_record
		WHERE collection = ?
		ORDER BY distance ASC, record_id ASC
		LIMIT ?`
	rows, err := d.db.QueryContext(ctx, query, encodeVector(opts.Vector), opts.Collection, opts.Limit)
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
