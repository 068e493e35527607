package main

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/hrygo/ragcontext/internal/observability"
	"github.com/hrygo/ragcontext/internal/profile"
	"github.com/hrygo/ragcontext/plugin/ai"
	"github.com/hrygo/ragcontext/plugin/ai/memory"
	"github.com/hrygo/ragcontext/plugin/ai/router"
	"github.com/hrygo/ragcontext/plugin/textextract"
	"github.com/hrygo/ragcontext/server/retrieval"
	"github.com/hrygo/ragcontext/server/runner/ingest"
	"github.com/hrygo/ragcontext/server/service/answer"
	"github.com/hrygo/ragcontext/store"
	"github.com/hrygo/ragcontext/store/db"
)

// app holds the components built once per process and shared by commands.
type app struct {
	profile *profile.Profile
	store   *store.Store
	metrics *observability.Metrics

	embedder  ai.EmbeddingService
	llm       ai.LLMService
	retriever *retrieval.Retriever
	answer    *answer.Service
	redis     *redis.Client
}

// newApp opens and migrates the vector store.
func newApp(ctx context.Context, p *profile.Profile) (*app, error) {
	dbDriver, err := db.NewDBDriver(p)
	if err != nil {
		return nil, err
	}
	st := store.New(dbDriver, p)
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, errors.Wrap(err, "failed to migrate vector store")
	}
	return &app{
		profile: p,
		store:   st,
		metrics: observability.NewMetrics(1000),
	}, nil
}

// enableRetrieval adds the embedding generator and the retriever.
func (a *app) enableRetrieval() error {
	if a.retriever != nil {
		return nil
	}
	cfg := ai.NewConfigFromProfile(a.profile)
	if !cfg.Enabled {
		return errors.New("no AI provider configured: set RAGCONTEXT_OPENAI_API_KEY or OPENAI_API_KEY")
	}
	embedder, err := ai.NewEmbeddingService(&cfg.Embedding)
	if err != nil {
		return errors.Wrap(err, "failed to create embedding service")
	}
	a.embedder = embedder
	a.retriever = retrieval.NewRetriever(a.store, embedder, a.profile.TopK).WithMetrics(a.metrics)
	return nil
}

// enableAnswering adds the completion model, memory and the orchestrator.
func (a *app) enableAnswering(ctx context.Context) error {
	if err := a.enableRetrieval(); err != nil {
		return err
	}
	cfg := ai.NewConfigFromProfile(a.profile)
	if err := cfg.Validate(); err != nil {
		return err
	}
	llm, err := ai.NewLLMService(&cfg.LLM)
	if err != nil {
		return errors.Wrap(err, "failed to create llm service")
	}
	a.llm = llm

	classifier, err := router.NewService(router.Mode(a.profile.IntentClassifier), llm)
	if err != nil {
		return err
	}
	sessions, err := a.newSessions(ctx)
	if err != nil {
		return err
	}

	a.answer = answer.NewService(classifier, a.retriever, llm, sessions, answer.Config{
		Persona:       a.profile.Persona,
		ContextWindow: a.profile.ContextWindow,
		TopK:          a.profile.TopK,
	}).WithMetrics(a.metrics)
	return nil
}

func (a *app) newSessions(ctx context.Context) (*memory.Sessions, error) {
	capacity := a.profile.HistoryCapacity
	if a.profile.MemoryBackend != "redis" {
		return memory.NewSessions(memory.BufferFactory(capacity)), nil
	}

	cfg := memory.DefaultRedisConfig()
	cfg.Addr = a.profile.RedisAddr
	cfg.Password = a.profile.RedisPassword
	client, err := memory.NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.redis = client
	slog.Info("conversation memory backed by redis", "addr", cfg.Addr)
	return memory.NewSessions(func(sessionID string) memory.Memory {
		return memory.NewRedisBuffer(client, cfg, sessionID, capacity)
	}), nil
}

// ingestRunner builds the ingest pipeline. An unreachable Tika is reported
// up front; plain text documents still ingest without it.
func (a *app) ingestRunner(ctx context.Context) *ingest.Runner {
	client := textextract.NewClient(&textextract.Config{
		TikaServerURL: a.profile.TikaServerURL,
		TikaJarPath:   a.profile.TikaJarPath,
		JavaPath:      "java",
		Timeout:       textextract.DefaultConfig().Timeout,
		UseEmbedded:   a.profile.TikaServerURL == "" && a.profile.TikaJarPath != "",
	})
	if !client.IsAvailable(ctx) {
		slog.Warn("Tika is unavailable, only plain text documents will be extracted",
			"tika_server_url", a.profile.TikaServerURL,
			"tika_jar_path", a.profile.TikaJarPath)
	}
	return ingest.NewRunner(textextract.NewExtractor(client), a.store, a.embedder).WithMetrics(a.metrics)
}

func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			slog.Warn("failed to close redis", "error", err)
		}
	}
	if err := a.store.Close(); err != nil {
		slog.Warn("failed to close vector store", "error", err)
	}
}
