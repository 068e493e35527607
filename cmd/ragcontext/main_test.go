package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFakeProvider serves /embeddings with vectors counting a few keywords,
// so that similarity follows topic overlap.
func newFakeProvider(t *testing.T) *httptest.Server {
	t.Helper()
	keywords := []string{"bond", "stock", "dividend"}
	mux := http.NewServeMux()
	mux.HandleFunc("/embeddings", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data := make([]map[string]any, 0, len(req.Input))
		for i, text := range req.Input {
			vector := make([]float32, 0, len(keywords)+1)
			for _, k := range keywords {
				vector = append(vector, float32(strings.Count(strings.ToLower(text), k)))
			}
			vector = append(vector, 0.1)
			data = append(data, map[string]any{"object": "embedding", "index": i, "embedding": vector})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data, "model": "fake"})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func setupEnv(t *testing.T, providerURL string) string {
	t.Helper()
	dataDir := t.TempDir()
	t.Setenv("RAGCONTEXT_DATA", dataDir)
	t.Setenv("RAGCONTEXT_OPENAI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("RAGCONTEXT_OPENAI_BASE_URL", "")
	t.Setenv("OPENAI_BASE_URL", "")
	t.Setenv("RAGCONTEXT_MAX_RETRIES", "1")
	if providerURL != "" {
		t.Setenv("RAGCONTEXT_OPENAI_API_KEY", "test-key")
		t.Setenv("RAGCONTEXT_OPENAI_BASE_URL", providerURL)
	}
	return dataDir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		ingestJSON, inspectJSON, searchJSON = false, false, false
		searchTopK = 0
		inspectSamples = 3
	})
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, name := range []string{"ingest", "inspect", "search", "chat"} {
		assert.True(t, names[name], "missing command %s", name)
	}
	require.NotNil(t, rootCmd.Flags().Lookup("run-extractor"))
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestLoadProfileFromEnv(t *testing.T) {
	dataDir := setupEnv(t, "")
	t.Setenv("RAGCONTEXT_TOP_K", "7")
	t.Setenv("RAGCONTEXT_METRIC", "l2")
	t.Setenv("RAGCONTEXT_MEMORY_BACKEND", "memory")

	p, err := loadProfile()
	require.NoError(t, err)
	assert.Equal(t, 7, p.TopK)
	assert.Equal(t, "l2", p.Metric)
	assert.Equal(t, "sqlite", p.Driver)
	assert.Equal(t, 5000, p.Port)
	assert.Equal(t, filepath.Join(dataDir, "database", "ragcontext.db"), p.DSN)
	assert.Equal(t, filepath.Join(dataDir, "datasources"), p.Datasources)
	assert.False(t, p.IsAIEnabled())
}

func TestLoadProfileRejectsInvalidValues(t *testing.T) {
	setupEnv(t, "")
	t.Setenv("RAGCONTEXT_METRIC", "dot")

	_, err := loadProfile()
	require.Error(t, err)
}

func TestConfigFile(t *testing.T) {
	setupEnv(t, "")
	file := filepath.Join(t.TempDir(), "ragcontext.yaml")
	require.NoError(t, os.WriteFile(file, []byte("chat-model: gpt-config-test\n"), 0o600))

	cfgFile = file
	t.Cleanup(func() { cfgFile = "" })
	require.NoError(t, initConfig(nil, nil))

	p, err := loadProfile()
	require.NoError(t, err)
	assert.Equal(t, "gpt-config-test", p.ChatModel)
}

func TestServeRequiresProvider(t *testing.T) {
	setupEnv(t, "")

	_, err := execute(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no AI provider configured")
}

func TestSearchRequiresQuery(t *testing.T) {
	setupEnv(t, "")

	_, err := execute(t, "search")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestInspectEmptyCollection(t *testing.T) {
	setupEnv(t, "")

	out, err := execute(t, "inspect")
	require.NoError(t, err)
	assert.Contains(t, out, "Collection: embeddings")
	assert.Contains(t, out, "Total items: 0")
}

func TestIngestInspectSearch(t *testing.T) {
	provider := newFakeProvider(t)
	dataDir := setupEnv(t, provider.URL)

	docs := filepath.Join(dataDir, "docs")
	require.NoError(t, os.MkdirAll(docs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "report.txt"),
		[]byte("Stock prices rose.\fBond yields fell. Bond funds gained."), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "notes.md"),
		[]byte("Dividend stocks pay a dividend."), 0o600))

	out, err := execute(t, "ingest", docs)
	require.NoError(t, err)
	assert.Contains(t, out, "Processed: 2, skipped: 0, failed: 0")

	out, err = execute(t, "ingest", docs)
	require.NoError(t, err)
	assert.Contains(t, out, "Processed: 0, skipped: 2, failed: 0")
	assert.Contains(t, out, "already ingested")

	out, err = execute(t, "inspect")
	require.NoError(t, err)
	assert.Contains(t, out, "Total items: 3")
	assert.Contains(t, out, "notes.md_page_1")

	out, err = execute(t, "search", "--json", "-k", "1", "bond yields")
	require.NoError(t, err)
	var results []searchResult
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "report.txt_page_2", results[0].RecordID)
	assert.Equal(t, 2, results[0].PageIndex)
	assert.Greater(t, results[0].Similarity, 0.9)
}
