// Package timeout defines centralized timeout constants for AI operations.
package timeout

import "time"

// AI operation timeout constants.
const (
	// EmbeddingTimeout is the timeout for one embedding request, retries included.
	EmbeddingTimeout = 30 * time.Second

	// GenerationTimeout is the timeout for one chat completion, retries included.
	GenerationTimeout = 60 * time.Second

	// ClassificationTimeout bounds the LLM intent classifier.
	ClassificationTimeout = 10 * time.Second
)
