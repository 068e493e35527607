package ai

import (
	"errors"
	"time"

	"github.com/hrygo/ragcontext/internal/profile"
)

// Config represents AI configuration.
type Config struct {
	Enabled bool

	Embedding EmbeddingConfig
	LLM       LLMConfig
}

// EmbeddingConfig represents vector embedding configuration.
type EmbeddingConfig struct {
	Model      string // text-embedding-3-small
	Dimensions int    // 0 = provider default
	APIKey     string
	BaseURL    string
	MaxRetries int
	// RetryDelay is the first backoff step; it doubles per attempt.
	RetryDelay time.Duration
}

// LLMConfig represents chat completion configuration.
type LLMConfig struct {
	Model       string // gpt-4o-mini
	APIKey      string
	BaseURL     string
	MaxTokens   int     // 0 = provider default
	Temperature float32 // default: 0
	MaxRetries  int
	RetryDelay  time.Duration
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	return &Config{
		Enabled: p.IsAIEnabled(),
		Embedding: EmbeddingConfig{
			Model:      p.EmbeddingModel,
			Dimensions: p.EmbeddingDimensions,
			APIKey:     p.OpenAIAPIKey,
			BaseURL:    p.OpenAIBaseURL,
			MaxRetries: p.MaxRetries,
			RetryDelay: time.Second,
		},
		LLM: LLMConfig{
			Model:       p.ChatModel,
			APIKey:      p.OpenAIAPIKey,
			BaseURL:     p.OpenAIBaseURL,
			Temperature: p.Temperature,
			MaxRetries:  p.MaxRetries,
			RetryDelay:  time.Second,
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return errors.New("AI provider is not configured: set RAGCONTEXT_OPENAI_API_KEY or OPENAI_API_KEY")
	}
	if c.Embedding.Model == "" {
		return errors.New("embedding model is required")
	}
	if c.LLM.Model == "" {
		return errors.New("chat model is required")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return errors.New("temperature must be within [0, 2]")
	}
	return nil
}
