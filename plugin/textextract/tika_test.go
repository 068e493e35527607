package textextract

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	enginerr "github.com/hrygo/ragcontext/internal/errors"
)

const twoPageXHTML = `<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>report</title></head>
<body>
<div class="page"><p>Revenue grew   strongly.</p><p>Second paragraph.</p></div>
<div class="page"><p>Quarterly table:</p>
<table><tr><th>Quarter</th><th>Revenue</th></tr><tr><td>Q1</td><td>1,000</td></tr></table>
</div>
<div class="page"><p>   </p></div>
</body></html>`

// TestDefaultConfig tests the default configuration
func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "http://localhost:9998", config.TikaServerURL)
	assert.Equal(t, "", config.TikaJarPath)
	assert.Equal(t, "java", config.JavaPath)
	assert.Equal(t, 60*time.Second, config.Timeout)
	assert.False(t, config.UseEmbedded)
}

// TestNewClient tests client creation
func TestNewClient(t *testing.T) {
	t.Run("with nil config", func(t *testing.T) {
		client := NewClient(nil)
		assert.NotNil(t, client)
		assert.Equal(t, "http://localhost:9998", client.config.TikaServerURL)
	})

	t.Run("with custom config", func(t *testing.T) {
		client := NewClient(&Config{
			TikaServerURL: "http://example.com:9998",
			Timeout:       10 * time.Second,
		})
		assert.Equal(t, "http://example.com:9998", client.config.TikaServerURL)
		assert.Equal(t, "java", client.config.JavaPath)
	})
}

// TestIsSupported tests MIME type support checking
func TestIsSupported(t *testing.T) {
	client := NewClient(nil)

	for _, mimeType := range []string{"application/pdf", "APPLICATION/PDF", "application/rtf"} {
		assert.True(t, client.IsSupported(mimeType), mimeType)
	}
	for _, mimeType := range []string{"image/png", "text/plain", ""} {
		assert.False(t, client.IsSupported(mimeType), mimeType)
	}
}

func TestExtractXHTMLFromServer(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/tika", r.URL.Path)
		assert.Equal(t, "application/pdf", r.Header.Get("Content-Type"))
		assert.Equal(t, "text/html", r.Header.Get("Accept"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "%PDF-fake", string(body))
		w.Write([]byte(twoPageXHTML))
	}))
	defer server.Close()

	client := NewClient(&Config{TikaServerURL: server.URL, Timeout: 5 * time.Second})
	xhtml, err := client.ExtractXHTML(context.Background(), []byte("%PDF-fake"), "application/pdf", RenderHTML)
	require.NoError(t, err)
	assert.Contains(t, string(xhtml), `class="page"`)
	assert.Equal(t, int32(1), calls.Load())
}

func TestExtractXMLRendering(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/xml", r.Header.Get("Accept"))
		w.Write([]byte(twoPageXHTML))
	}))
	defer server.Close()

	client := NewClient(&Config{TikaServerURL: server.URL, Timeout: 5 * time.Second})
	_, err := client.ExtractXHTML(context.Background(), []byte("%PDF-fake"), "application/pdf", RenderXML)
	require.NoError(t, err)
}

func TestExtractXHTMLServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient(&Config{TikaServerURL: server.URL, Timeout: 5 * time.Second})
	_, err := client.ExtractXHTML(context.Background(), []byte("x"), "application/pdf", RenderHTML)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}

func TestExtractXHTMLUnsupported(t *testing.T) {
	client := NewClient(nil)
	_, err := client.ExtractXHTML(context.Background(), []byte("x"), "image/png", RenderHTML)
	assert.Error(t, err)
}

// newTikaServer serves twoPageXHTML and fails requests for the given Accept
// header. It counts requests per Accept header.
func newTikaServer(t *testing.T, failAccept string) (*httptest.Server, *sync.Map) {
	t.Helper()
	counts := &sync.Map{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept := r.Header.Get("Accept")
		n, _ := counts.LoadOrStore(accept, new(atomic.Int32))
		n.(*atomic.Int32).Add(1)
		if accept == failAccept {
			http.Error(w, "parse failure", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(twoPageXHTML))
	}))
	t.Cleanup(server.Close)
	return server, counts
}

func requestCount(counts *sync.Map, accept string) int32 {
	n, ok := counts.Load(accept)
	if !ok {
		return 0
	}
	return n.(*atomic.Int32).Load()
}

func writeReport(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-fake"), 0o600))
	return path
}

func TestExtractPDFThroughTika(t *testing.T) {
	server, counts := newTikaServer(t, "")

	extractor := NewExtractor(NewClient(&Config{TikaServerURL: server.URL, Timeout: 5 * time.Second}))
	units, err := extractor.Extract(context.Background(), writeReport(t))
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, int32(1), requestCount(counts, "text/html"))
	assert.Equal(t, int32(1), requestCount(counts, "text/xml"))

	assert.Equal(t, "report.pdf", units[0].SourceID)
	assert.Equal(t, 1, units[0].PageIndex)
	assert.Equal(t, "Revenue grew strongly.\nSecond paragraph.", units[0].Text)
	assert.Empty(t, units[0].Tables)

	assert.Equal(t, 2, units[1].PageIndex)
	assert.Equal(t, "Quarterly table:", units[1].Text)
	require.Len(t, units[1].Tables, 1)
	assert.Equal(t, "Quarter,Revenue\nQ1,\"1,000\"", units[1].Tables[0])
	assert.Equal(t, "Quarterly table:\n\nQuarter,Revenue\nQ1,\"1,000\"", units[1].Content())
}

func TestExtractKeepsTextWhenTablePassFails(t *testing.T) {
	server, counts := newTikaServer(t, "text/xml")

	extractor := NewExtractor(NewClient(&Config{TikaServerURL: server.URL, Timeout: 5 * time.Second}))
	units, err := extractor.Extract(context.Background(), writeReport(t))
	require.NoError(t, err)
	assert.Equal(t, int32(1), requestCount(counts, "text/xml"))

	require.Len(t, units, 2)
	assert.Equal(t, "Revenue grew strongly.\nSecond paragraph.", units[0].Text)
	assert.Equal(t, 2, units[1].PageIndex)
	assert.Equal(t, "Quarterly table:", units[1].Text)
	assert.Empty(t, units[1].Tables)
}

func TestExtractKeepsTablesWhenTextPassFails(t *testing.T) {
	server, counts := newTikaServer(t, "text/html")

	extractor := NewExtractor(NewClient(&Config{TikaServerURL: server.URL, Timeout: 5 * time.Second}))
	units, err := extractor.Extract(context.Background(), writeReport(t))
	require.NoError(t, err)
	assert.Equal(t, int32(1), requestCount(counts, "text/html"))

	// Page 1 has only text, so it is empty without the text pass.
	require.Len(t, units, 1)
	assert.Equal(t, 2, units[0].PageIndex)
	assert.Empty(t, units[0].Text)
	assert.Equal(t, []string{"Quarter,Revenue\nQ1,\"1,000\""}, units[0].Tables)
}

func TestExtractTikaUnavailable(t *testing.T) {
	extractor := NewExtractor(NewClient(&Config{Timeout: time.Second}))
	_, err := extractor.Extract(context.Background(), writeReport(t))
	require.Error(t, err)
	assert.True(t, enginerr.IsCode(err, enginerr.ErrCodeExtractionFailed))
}

func TestIsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte("This is Tika Server."))
	}))

	ctx := context.Background()
	assert.True(t, NewClient(&Config{TikaServerURL: server.URL, Timeout: time.Second}).IsAvailable(ctx))

	server.Close()
	assert.False(t, NewClient(&Config{TikaServerURL: server.URL, Timeout: time.Second}).IsAvailable(ctx))
	assert.False(t, NewClient(&Config{Timeout: time.Second}).IsAvailable(ctx))
}
