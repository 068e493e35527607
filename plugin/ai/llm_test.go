package ai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLLM(t *testing.T, f *fakeOpenAI, temperature float32) LLMService {
	t.Helper()
	svc, err := NewLLMService(&LLMConfig{
		Model:       "gpt-4o-mini",
		APIKey:      "test-key",
		BaseURL:     f.URL(),
		Temperature: temperature,
		MaxRetries:  2,
		RetryDelay:  time.Millisecond,
	})
	require.NoError(t, err)
	return svc
}

// TestNewLLMService tests service creation.
func TestNewLLMService(t *testing.T) {
	_, err := NewLLMService(&LLMConfig{Model: "gpt-4o-mini", APIKey: "k"})
	assert.NoError(t, err)

	_, err = NewLLMService(&LLMConfig{APIKey: "k"})
	assert.Error(t, err)

	_, err = NewLLMService(nil)
	assert.Error(t, err)
}

func TestChat(t *testing.T) {
	f := newFakeOpenAI(t, 0, "Buy low, sell high.")
	svc := newTestLLM(t, f, 0)

	answer, err := svc.Chat(context.Background(), FormatMessages("be brief", "advice?", []Message{
		UserMessage("hi"),
		AssistantMessage("hello"),
	}))
	require.NoError(t, err)
	assert.Equal(t, "Buy low, sell high.", answer)

	raw := f.lastChat.Load().(map[string]any)
	assert.Equal(t, "gpt-4o-mini", raw["model"])
	temperature, ok := raw["temperature"].(float64)
	require.True(t, ok, "zero temperature must still be sent")
	assert.Less(t, temperature, 1e-6)

	messages := raw["messages"].([]any)
	require.Len(t, messages, 4)
	roles := make([]string, 0, len(messages))
	for _, m := range messages {
		roles = append(roles, m.(map[string]any)["role"].(string))
	}
	assert.Equal(t, []string{"system", "user", "assistant", "user"}, roles)
}

func TestChatEmptyAnswer(t *testing.T) {
	f := newFakeOpenAI(t, 0, "   ")
	svc := newTestLLM(t, f, 0.2)

	_, err := svc.Chat(context.Background(), []Message{UserMessage("q")})
	assert.Error(t, err)
}

func TestChatRetriesThenFails(t *testing.T) {
	f := newFakeOpenAI(t, 0, "ok")
	f.failFirst.Store(5)
	svc := newTestLLM(t, f, 0)

	_, err := svc.Chat(context.Background(), []Message{UserMessage("q")})
	require.Error(t, err)
	assert.Equal(t, int32(2), f.chatCalls.Load())
}

func TestChatNoMessages(t *testing.T) {
	f := newFakeOpenAI(t, 0, "ok")
	svc := newTestLLM(t, f, 0)

	_, err := svc.Chat(context.Background(), nil)
	assert.Error(t, err)
	assert.Equal(t, int32(0), f.chatCalls.Load())
}

func TestFormatMessages(t *testing.T) {
	messages := FormatMessages("", "q", nil)
	require.Len(t, messages, 1)
	assert.Equal(t, RoleUser, messages[0].Role)
}
