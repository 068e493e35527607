package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/ragcontext/internal/profile"
)

func TestNewConfigFromProfile(t *testing.T) {
	p := profile.Default()
	p.OpenAIAPIKey = "sk-test"
	p.OpenAIBaseURL = profile.DefaultOpenAIBaseURL
	p.EmbeddingDimensions = 256
	p.Temperature = 0.3

	cfg := NewConfigFromProfile(p)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	assert.Equal(t, 256, cfg.Embedding.Dimensions)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, float32(0.3), cfg.LLM.Temperature)
	assert.Equal(t, 3, cfg.LLM.MaxRetries)
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	p := profile.Default()
	p.OpenAIBaseURL = profile.DefaultOpenAIBaseURL

	cfg := NewConfigFromProfile(p)
	assert.False(t, cfg.Enabled)
	assert.Error(t, cfg.Validate())

	cfg.Enabled = true
	cfg.LLM.Temperature = 3
	assert.Error(t, cfg.Validate())
}

func TestRetrierStopsOnContextCancel(t *testing.T) {
	r := newRetrier(5, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- r.do(ctx, "test", func() error {
			calls++
			return errors.New("transient")
		})
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	case <-time.After(5 * time.Second):
		t.Fatal("retrier did not observe cancellation")
	}
}

func TestRetrierDefaults(t *testing.T) {
	r := newRetrier(0, 0)
	assert.Equal(t, 3, r.maxRetries)
	assert.Equal(t, time.Second, r.delay)
}
