package router

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/ragcontext/plugin/ai"
)

type mockLLM struct {
	calls    atomic.Int32
	response string
	err      error
	last     []ai.Message
}

func (m *mockLLM) Chat(_ context.Context, messages []ai.Message) (string, error) {
	m.calls.Add(1)
	m.last = messages
	return m.response, m.err
}

func TestRuleMatcher(t *testing.T) {
	matcher := NewRuleMatcher()

	tests := []struct {
		name        string
		input       string
		shouldMatch bool
	}{
		{"explicit request", "Please clear the chat history", true},
		{"reset conversation", "reset our conversation", true},
		{"forget", "Forget everything I said", true},
		{"start over", "start over", true},
		{"short verb and object", "wipe my chat", true},
		{"bare command", "Clear history!", true},
		{"embedded with possessive", "Can you clear our chat history?", true},
		{"history question", "What is the history of the S&P 500?", false},
		{"clear without object", "Can you make this clear for me?", false},
		{"long question mentioning both", "how do companies delete old records from their history of filings when they restate", false},
		{"clear up a company's history", "Can you clear up the history of Apple's dividend?", false},
		{"delete stocks with history", "Should I delete stocks with a bad history?", false},
		{"reset as a topic", "What happens when a broker resets the chat between trades?", false},
		{"empty", "   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent, confidence, matched := matcher.Match(tt.input)
			assert.Equal(t, tt.shouldMatch, matched)
			if tt.shouldMatch {
				assert.Equal(t, IntentClearHistory, intent)
				assert.Greater(t, confidence, float32(0.5))
			} else {
				assert.Equal(t, IntentAnswer, intent)
			}
		})
	}
}

func TestLLMClassifier(t *testing.T) {
	ctx := context.Background()

	llm := &mockLLM{response: "Clear history."}
	intent, err := NewLLMClassifier(llm).Classify(ctx, "make it go away")
	require.NoError(t, err)
	assert.Equal(t, IntentClearHistory, intent)
	require.Len(t, llm.last, 2)
	assert.Equal(t, ClassificationPrompt, llm.last[0].Content)
	assert.Equal(t, "make it go away", llm.last[1].Content)

	llm = &mockLLM{response: "uncategorized."}
	intent, err = NewLLMClassifier(llm).Classify(ctx, "what is a bond?")
	require.NoError(t, err)
	assert.Equal(t, IntentAnswer, intent)

	llm = &mockLLM{err: errors.New("boom")}
	intent, err = NewLLMClassifier(llm).Classify(ctx, "x")
	assert.Error(t, err)
	assert.Equal(t, IntentAnswer, intent)

	intent, err = NewLLMClassifier(nil).Classify(ctx, "x")
	assert.Error(t, err)
	assert.Equal(t, IntentAnswer, intent)
}

func TestServiceLayered(t *testing.T) {
	ctx := context.Background()
	llm := &mockLLM{response: "uncategorized."}
	svc, err := NewService(ModeLayered, llm)
	require.NoError(t, err)

	intent, err := svc.Classify(ctx, "clear history")
	require.NoError(t, err)
	assert.Equal(t, IntentClearHistory, intent)
	assert.Equal(t, int32(0), llm.calls.Load(), "rule match must not call the model")

	intent, err = svc.Classify(ctx, "Should I buy index funds?")
	require.NoError(t, err)
	assert.Equal(t, IntentAnswer, intent)
	assert.Equal(t, int32(1), llm.calls.Load())
}

func TestServiceModes(t *testing.T) {
	ctx := context.Background()

	llm := &mockLLM{response: "clear history."}
	svc, err := NewService(ModeRule, llm)
	require.NoError(t, err)
	intent, err := svc.Classify(ctx, "please make it all disappear")
	require.NoError(t, err)
	assert.Equal(t, IntentAnswer, intent)
	assert.Equal(t, int32(0), llm.calls.Load())

	svc, err = NewService(ModeLLM, llm)
	require.NoError(t, err)
	intent, err = svc.Classify(ctx, "please make it all disappear")
	require.NoError(t, err)
	assert.Equal(t, IntentClearHistory, intent)

	svc, err = NewService(ModeLayered, nil)
	require.NoError(t, err)
	intent, err = svc.Classify(ctx, "anything")
	require.NoError(t, err)
	assert.Equal(t, IntentAnswer, intent)

	_, err = NewService("bogus", nil)
	assert.Error(t, err)
}

func TestServiceLLMFailureDegradesToAnswer(t *testing.T) {
	svc, err := NewService(ModeLLM, &mockLLM{err: errors.New("timeout")})
	require.NoError(t, err)

	intent, err := svc.Classify(context.Background(), "hello")
	assert.Error(t, err)
	assert.Equal(t, IntentAnswer, intent)
}
