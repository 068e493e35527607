package router

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hrygo/ragcontext/plugin/ai"
)

// Service implements the layered Classifier.
// Layer 1: Rule-based matching (0ms)
// Layer 2: LLM classification (~400ms), only for messages rules did not match
type Service struct {
	ruleMatcher   *RuleMatcher
	llmClassifier *LLMClassifier
}

// NewService creates a classifier for the given mode.
// ModeRule never calls the model; ModeLLM skips the rules.
func NewService(mode Mode, client ai.LLMService) (*Service, error) {
	s := &Service{}
	switch mode {
	case ModeRule:
		s.ruleMatcher = NewRuleMatcher()
	case ModeLLM:
		s.llmClassifier = NewLLMClassifier(client)
	case ModeLayered, "":
		s.ruleMatcher = NewRuleMatcher()
		if client != nil {
			s.llmClassifier = NewLLMClassifier(client)
		}
	default:
		return nil, fmt.Errorf("unknown intent classifier %q", mode)
	}
	return s, nil
}

// Classify runs the configured layers in order.
func (s *Service) Classify(ctx context.Context, input string) (Intent, error) {
	start := time.Now()

	if s.ruleMatcher != nil {
		intent, confidence, matched := s.ruleMatcher.Match(input)
		if matched {
			slog.Debug("intent classified by rule matcher",
				"input", truncate(input, 50),
				"intent", intent,
				"confidence", confidence,
				"latency_ms", time.Since(start).Milliseconds())
			return intent, nil
		}
	}

	if s.llmClassifier != nil {
		intent, err := s.llmClassifier.Classify(ctx, input)
		if err != nil {
			slog.Warn("LLM classifier error", "error", err)
			return IntentAnswer, err
		}
		slog.Debug("intent classified by LLM",
			"input", truncate(input, 50),
			"intent", intent,
			"latency_ms", time.Since(start).Milliseconds())
		return intent, nil
	}

	return IntentAnswer, nil
}

// truncate truncates a string to maxLen bytes.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

var _ Classifier = (*Service)(nil)
