package ai

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sashabaranov/go-openai"

	enginerr "github.com/hrygo/ragcontext/internal/errors"
	"github.com/hrygo/ragcontext/plugin/ai/timeout"
)

// EmbeddingService is the vector embedding service interface.
type EmbeddingService interface {
	// Embed generates vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates vectors for multiple texts, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the vector dimension, 0 until known.
	Dimensions() int
}

type embeddingService struct {
	client     *openai.Client
	model      string
	dimensions atomic.Int64
	configured bool
	retry      retrier
}

// NewEmbeddingService creates a new EmbeddingService backed by an
// OpenAI-compatible embeddings endpoint.
func NewEmbeddingService(cfg *EmbeddingConfig) (EmbeddingService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("embedding config is nil")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("embedding model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	s := &embeddingService{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      cfg.Model,
		configured: cfg.Dimensions > 0,
		retry:      newRetrier(cfg.MaxRetries, cfg.RetryDelay),
	}
	s.dimensions.Store(int64(cfg.Dimensions))
	return s, nil
}

func (s *embeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (s *embeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, enginerr.EmptyInput("no texts provided for embedding")
	}
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, enginerr.EmptyInput(fmt.Sprintf("text %d is empty", i))
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout.EmbeddingTimeout)
	defer cancel()

	req := openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(s.model),
	}
	if s.configured {
		req.Dimensions = int(s.dimensions.Load())
	}

	start := time.Now()
	var resp openai.EmbeddingResponse
	err := s.retry.do(ctx, "embedding", func() error {
		var err error
		resp, err = s.client.CreateEmbeddings(ctx, req)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings failed: %w", err)
	}

	vectors, err := s.collect(resp, len(texts))
	if err != nil {
		return nil, err
	}

	slog.Debug("embeddings created",
		"count", len(vectors),
		"dimensions", len(vectors[0]),
		"latency_ms", time.Since(start).Milliseconds())
	return vectors, nil
}

// collect orders the response by index and checks it is complete and uniform.
func (s *embeddingService) collect(resp openai.EmbeddingResponse, want int) ([][]float32, error) {
	if len(resp.Data) != want {
		return nil, fmt.Errorf("embedding response has %d vectors, want %d", len(resp.Data), want)
	}

	data := make([]openai.Embedding, len(resp.Data))
	copy(data, resp.Data)
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	dims := int(s.dimensions.Load())
	vectors := make([][]float32, len(data))
	for i, d := range data {
		if len(d.Embedding) == 0 {
			return nil, fmt.Errorf("embedding %d is empty", i)
		}
		if dims == 0 {
			dims = len(d.Embedding)
		}
		if len(d.Embedding) != dims {
			return nil, enginerr.DimensionMismatch(dims, len(d.Embedding))
		}
		vectors[i] = d.Embedding
	}
	s.dimensions.CompareAndSwap(0, int64(dims))
	return vectors, nil
}

func (s *embeddingService) Dimensions() int {
	return int(s.dimensions.Load())
}
