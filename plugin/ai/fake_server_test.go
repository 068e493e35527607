package ai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// fakeOpenAI serves /embeddings and /chat/completions.
type fakeOpenAI struct {
	server *httptest.Server

	embedCalls atomic.Int32
	chatCalls  atomic.Int32

	// failFirst makes the first n calls fail with status.
	failFirst atomic.Int32
	status    int

	dims      int
	answer    string
	lastChat  atomic.Value // map[string]any
	lastEmbed atomic.Value // map[string]any
}

func newFakeOpenAI(t *testing.T, dims int, answer string) *fakeOpenAI {
	f := &fakeOpenAI{dims: dims, answer: answer, status: http.StatusInternalServerError}
	mux := http.NewServeMux()
	mux.HandleFunc("/embeddings", f.handleEmbeddings)
	mux.HandleFunc("/chat/completions", f.handleChat)
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeOpenAI) URL() string {
	return f.server.URL
}

func (f *fakeOpenAI) fail(w http.ResponseWriter) bool {
	if f.failFirst.Load() <= 0 {
		return false
	}
	f.failFirst.Add(-1)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.status)
	w.Write([]byte(`{"error":{"message":"upstream failure","type":"server_error"}}`))
	return true
}

func (f *fakeOpenAI) handleEmbeddings(w http.ResponseWriter, r *http.Request) {
	f.embedCalls.Add(1)
	if f.fail(w) {
		return
	}
	var req struct {
		Input []string `json:"input"`
		Model string   `json:"model"`
	}
	raw := map[string]any{}
	json.NewDecoder(r.Body).Decode(&raw)
	f.lastEmbed.Store(raw)
	if inputs, ok := raw["input"].([]any); ok {
		for _, in := range inputs {
			s, _ := in.(string)
			req.Input = append(req.Input, s)
		}
	}

	data := make([]map[string]any, 0, len(req.Input))
	// Respond in reverse order to exercise index sorting.
	for i := len(req.Input) - 1; i >= 0; i-- {
		vector := make([]float32, f.dims)
		for j := range vector {
			vector[j] = float32(len(req.Input[i]) + j)
		}
		data = append(data, map[string]any{"object": "embedding", "index": i, "embedding": vector})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data, "model": raw["model"]})
}

func (f *fakeOpenAI) handleChat(w http.ResponseWriter, r *http.Request) {
	f.chatCalls.Add(1)
	if f.fail(w) {
		return
	}
	raw := map[string]any{}
	json.NewDecoder(r.Body).Decode(&raw)
	f.lastChat.Store(raw)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  raw["model"],
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": f.answer},
			"finish_reason": "stop",
		}},
	})
}
