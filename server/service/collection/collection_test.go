package collection

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/ragcontext/store"
	storetest "github.com/hrygo/ragcontext/store/test"
)

func TestPreview(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxChars int
		want     string
	}{
		{name: "short", text: "hello world", maxChars: 140, want: "hello world"},
		{name: "collapses whitespace", text: "a\n\n b\tc", maxChars: 140, want: "a b c"},
		{name: "cut at word", text: "alpha beta gamma", maxChars: 12, want: "alpha beta..."},
		{name: "no limit", text: "alpha beta", maxChars: 0, want: "alpha beta"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Preview(tt.text, tt.maxChars))
		})
	}
}

func TestPreviewNeverExceedsLimit(t *testing.T) {
	text := strings.Repeat("x", 500)
	got := Preview(text, SamplePreviewChars)
	assert.Equal(t, SamplePreviewChars+3, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestDescribe(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)

	for _, id := range []string{"d.pdf", "c.pdf", "b.pdf", "a.pdf"} {
		meta, err := store.NewRecordMetadata(id, 1)
		require.NoError(t, err)
		require.NoError(t, ts.Upsert(ctx, store.NewEmbeddingRecord(meta, []float32{1, 0}, strings.Repeat(id+" ", 50))))
	}

	info, err := Describe(ctx, ts, 0)
	require.NoError(t, err)
	assert.Equal(t, ts.Collection().Name, info.Name)
	assert.Equal(t, "cosine", info.Metric)
	assert.Equal(t, 2, info.Dimensions)
	assert.Equal(t, 4, info.Count)
	require.Len(t, info.Samples, DefaultSamples)
	assert.Equal(t, "a.pdf_page_1", info.Samples[0].RecordID)
	assert.Equal(t, "a.pdf", info.Samples[0].SourceID)
	assert.Equal(t, 1, info.Samples[0].PageIndex)
	assert.LessOrEqual(t, utf8.RuneCountInString(info.Samples[0].Preview), SamplePreviewChars+3)
}

func TestDescribeEmpty(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)

	info, err := Describe(ctx, ts, 3)
	require.NoError(t, err)
	assert.Zero(t, info.Count)
	assert.Zero(t, info.Dimensions)
	assert.Empty(t, info.Samples)
}
