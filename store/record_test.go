package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	enginerr "github.com/hrygo/ragcontext/internal/errors"
)

func TestRecordID(t *testing.T) {
	assert.Equal(t, "report.pdf_page_3", RecordID("report.pdf", 3))

	meta, err := NewRecordMetadata("report.pdf", 3)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf_page_3", meta.RecordID())
}

func TestRecordMetadataValidate(t *testing.T) {
	_, err := NewRecordMetadata("", 1)
	assert.True(t, enginerr.IsCode(err, enginerr.ErrCodeSchemaViolation))

	_, err = NewRecordMetadata("a.pdf", 0)
	assert.True(t, enginerr.IsCode(err, enginerr.ErrCodeSchemaViolation))
}

func TestEmbeddingRecordValidate(t *testing.T) {
	meta, err := NewRecordMetadata("a.pdf", 1)
	require.NoError(t, err)

	record := NewEmbeddingRecord(meta, []float32{1}, "doc")
	require.NoError(t, record.Validate())

	record.ID = "other"
	assert.True(t, enginerr.IsCode(record.Validate(), enginerr.ErrCodeSchemaViolation))

	empty := NewEmbeddingRecord(meta, nil, "doc")
	assert.True(t, enginerr.IsCode(empty.Validate(), enginerr.ErrCodeSchemaViolation))

	var nilRecord *EmbeddingRecord
	assert.Error(t, nilRecord.Validate())
}

func TestSortMatches(t *testing.T) {
	matches := []*SimilarityMatch{
		{RecordID: "b", Distance: 0.2},
		{RecordID: "c", Distance: 0.1},
		{RecordID: "a", Distance: 0.2},
	}
	SortMatches(matches)
	assert.Equal(t, "c", matches[0].RecordID)
	assert.Equal(t, "a", matches[1].RecordID)
	assert.Equal(t, "b", matches[2].RecordID)
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("")
	require.NoError(t, err)
	assert.Equal(t, MetricCosine, m)
	assert.True(t, m.Bounded())

	m, err = ParseMetric(" L2 ")
	require.NoError(t, err)
	assert.Equal(t, MetricL2, m)
	assert.False(t, m.Bounded())
	assert.Equal(t, -1.0, m.Similarity(2))

	_, err = ParseMetric("dot")
	assert.True(t, enginerr.IsCode(err, enginerr.ErrCodeInvalidArgument))
}

func TestSplitSQL(t *testing.T) {
	statements := splitSQL(`-- comment
CREATE TABLE a (
  id INTEGER
);

CREATE INDEX i ON a (id);
`)
	require.Len(t, statements, 2)
	assert.Equal(t, "CREATE TABLE a (\n  id INTEGER\n);", statements[0])
	assert.Equal(t, "CREATE INDEX i ON a (id);", statements[1])
}
