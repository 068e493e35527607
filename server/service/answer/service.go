// Package answer turns a question into a grounded reply.
package answer

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	enginerr "github.com/hrygo/ragcontext/internal/errors"
	"github.com/hrygo/ragcontext/internal/observability"
	"github.com/hrygo/ragcontext/plugin/ai"
	"github.com/hrygo/ragcontext/plugin/ai/memory"
	"github.com/hrygo/ragcontext/plugin/ai/router"
	"github.com/hrygo/ragcontext/store"
)

// Retriever finds grounding records for a question.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]*store.SimilarityMatch, error)
}

// Config tunes the orchestrator.
type Config struct {
	Persona       string
	ContextWindow int
	TopK          int
}

// Reply is the outcome of one question.
type Reply struct {
	Text    string
	Intent  router.Intent
	States  []State
	Sources []string // record ids used as grounding
	// Err is the generation failure behind Text, if any.
	Err error
}

// Service runs the answer state machine. It is safe for concurrent use;
// each session's memory serializes its own updates.
type Service struct {
	classifier router.Classifier
	retriever  Retriever
	llm        ai.LLMService
	sessions   *memory.Sessions
	metrics    *observability.Metrics
	config     Config
}

// NewService creates an orchestrator.
func NewService(classifier router.Classifier, retriever Retriever, llm ai.LLMService, sessions *memory.Sessions, config Config) *Service {
	return &Service{
		classifier: classifier,
		retriever:  retriever,
		llm:        llm,
		sessions:   sessions,
		config:     config,
	}
}

// WithMetrics records answer and clear operations.
func (s *Service) WithMetrics(metrics *observability.Metrics) *Service {
	s.metrics = metrics
	return s
}

// Answer handles one user message in a session. It never returns an error;
// failures are reported in the reply text.
func (s *Service) Answer(ctx context.Context, sessionID, message string) *Reply {
	start := time.Now()
	question := strings.TrimSpace(message)
	history := s.sessions.Get(sessionID)
	reply := &Reply{States: []State{StateAwaitingInput, StateClassifying}}

	reqCtx, ok := observability.FromContext(ctx)
	if !ok {
		reqCtx = observability.NewRequestContext(slog.Default(), observability.OperationAnswer, sessionID)
	}

	intent, err := s.classifier.Classify(ctx, question)
	if err != nil {
		reqCtx.Warn("intent classification failed, answering", slog.String("error", err.Error()))
		intent = router.IntentAnswer
	}
	reply.Intent = intent

	if intent == router.IntentClearHistory {
		s.clear(ctx, reqCtx, history, reply)
		s.record(observability.OperationClear, start, nil)
		return reply
	}

	reply.States = append(reply.States, StateRetrieving)
	var documents []string
	matches, err := s.retriever.Retrieve(ctx, question, s.config.TopK)
	if err != nil {
		reqCtx.Warn("retrieval failed, answering without grounding", slog.String("error", err.Error()))
	}
	for _, m := range matches {
		documents = append(documents, m.Document)
		reply.Sources = append(reply.Sources, m.RecordID)
	}

	reply.States = append(reply.States, StateComposingPrompt)
	turns, err := history.LastN(ctx, s.config.ContextWindow)
	if err != nil {
		reqCtx.Warn("history unavailable", slog.String("error", err.Error()))
		turns = nil
	}
	messages := ComposeMessages(s.config.Persona, documents, turns, question)

	reply.States = append(reply.States, StateGenerating)
	answer, err := s.llm.Chat(ctx, messages)
	if err == nil && strings.TrimSpace(answer) == "" {
		err = errors.New("empty response")
	}
	if err != nil {
		if !enginerr.IsCode(err, enginerr.ErrCodeGenerationFailed) {
			err = enginerr.Generation(err)
		}
		reply.Err = err
		reply.Text = generationFailed + causeOf(err)
		reply.States = append(reply.States, StateAwaitingInput)
		reqCtx.Error("generation failed", err)
		s.record(observability.OperationAnswer, start, err)
		return reply
	}
	reply.Text = answer

	reply.States = append(reply.States, StateUpdatingHistory)
	if err := history.Append(ctx, memory.NewTurn(question, answer)); err != nil {
		reqCtx.Warn("failed to update history", slog.String("error", err.Error()))
	}
	reply.States = append(reply.States, StateAwaitingInput)

	reqCtx.Info("question answered",
		slog.Int("documents", len(documents)),
		slog.Int("history_turns", len(turns)),
		slog.Int64("latency_ms", time.Since(start).Milliseconds()))
	s.record(observability.OperationAnswer, start, nil)
	return reply
}

func (s *Service) clear(ctx context.Context, reqCtx *observability.RequestContext, history memory.Memory, reply *Reply) {
	reply.States = append(reply.States, StateClearingHistory)
	if err := history.Clear(ctx); err != nil {
		reqCtx.Error("failed to clear history", err)
	}
	reply.Text = HistoryClearedReply
	reply.States = append(reply.States, StateAwaitingInput)
	reqCtx.Info("history cleared")
}

func (s *Service) record(operation string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordRequest(operation)
	s.metrics.RecordDuration(operation, time.Since(start))
	if err != nil {
		s.metrics.RecordFailure(operation)
	}
}

// causeOf returns the provider-facing reason of a generation error.
func causeOf(err error) string {
	var e *enginerr.Error
	if errors.As(err, &e) && e.Code == enginerr.ErrCodeGenerationFailed && e.Cause != nil {
		return e.Cause.Error()
	}
	return err.Error()
}
